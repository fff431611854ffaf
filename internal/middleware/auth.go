package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/logger"
	"taskboard/internal/models/user"
)

// Authenticate требует заголовок Authorization: Bearer <token>
// на всех защищённых маршрутах. Без валидного токена запрос
// обрывается до бизнес-логики.
func Authenticate(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				authError(w, r, "отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				authError(w, r, "неверный формат заголовка Authorization")
				return
			}

			principal, err := issuer.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Warn("HTTP: Невалидный токен",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				authError(w, r, "токен просрочен или недействителен")
				return
			}

			ctx := auth.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пускает дальше только пользователей с нужной ролью.
func RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.FromContext(r.Context())
			if !ok {
				authError(w, r, "отсутствует заголовок Authorization")
				return
			}

			if !principal.HasRole(role) {
				logger.Warn("HTTP: Недостаточно прав",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("user_id", principal.UserID.String()),
					zap.String("required_role", string(role)))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]any{
					"error":   "FORBIDDEN",
					"message": "недостаточно прав",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authError(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error":      "UNAUTHORIZED",
		"message":    message,
		"request_id": GetRequestID(r.Context()),
	})
}
