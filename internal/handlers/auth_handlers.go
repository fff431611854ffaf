package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/handlers/dto"
	"taskboard/internal/logger"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	// request.Roles сознательно не передаётся дальше
	u, err := h.AuthService.Register(r.Context(), request.Email, request.Name, request.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	responseWithBody(w, http.StatusCreated, dto.FromUser(u))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	token, err := h.AuthService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	responseWithBody(w, http.StatusCreated, dto.LoginResponse{AccessToken: token})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	principal, ok := auth.FromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "требуется аутентификация")
		return
	}

	u, err := h.AuthService.Profile(r.Context(), principal.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromUser(u))
}

// Admin - единственный админский маршрут, роль проверяет middleware.
func (h *AuthHandler) Admin(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")
	responseWithJSON(w, http.StatusOK, toPayload("message", "Admin only"))
}
