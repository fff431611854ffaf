package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"taskboard/internal/logger"
	"taskboard/internal/service"
)

// handleBusinessError переводит BusinessError в статус-код;
// возвращает false, если ошибка не бизнесовая.
func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "VALIDATION_ERROR", "WRONG_STATUS":
		return http.StatusBadRequest
	case "UNAUTHORIZED":
		return http.StatusUnauthorized
	case "FORBIDDEN":
		return http.StatusForbidden
	case "EMAIL_TAKEN":
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// respondError: бизнес-ошибки уходят со своим кодом, всё
// остальное - как 500 без деталей.
func respondError(w http.ResponseWriter, err error) {
	if handleBusinessError(w, err) {
		return
	}
	logger.Error("HTTP: Внутренняя ошибка", err)
	responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
}
