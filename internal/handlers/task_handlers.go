package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/auth"
	"taskboard/internal/handlers/dto"
	"taskboard/internal/logger"
	"taskboard/internal/models/task"
	"taskboard/internal/service"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	principal, ok := auth.FromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "требуется аутентификация")
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		respondError(w, err)
		return
	}
	filter.Normalize()

	tasks, total, err := h.TaskService.FindAll(r.Context(), filter, principal.UserID)
	if err != nil {
		respondError(w, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.PaginatedTasksResponse{
		Data: dto.FromTaskList(tasks),
		Meta: dto.PaginationMeta{
			Total:  total,
			Offset: filter.Offset,
			Limit:  filter.Limit,
		},
	})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	t, ok := h.findOneOrFail(w, r)
	if !ok {
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	principal, ok := auth.FromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "требуется аутентификация")
		return
	}

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	// владелец берётся из токена, клиентский userId не принимается
	t, err := h.TaskService.Create(r.Context(), service.CreateTaskParams{
		UserID:      principal.UserID,
		Title:       request.Title,
		Description: request.Description,
		Status:      task.Status(request.Status),
		Labels:      dto.LabelNames(request.Labels),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	responseWithBody(w, http.StatusCreated, dto.FromTask(t))
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	t, ok := h.findOneOrFail(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	patch := service.TaskPatch{
		Title:       request.Title,
		Description: request.Description,
	}
	if request.Status != nil {
		status := task.Status(*request.Status)
		patch.Status = &status
	}
	if request.Labels != nil {
		names := dto.LabelNames(*request.Labels)
		patch.Labels = &names
	}

	updated, err := h.TaskService.Update(r.Context(), t, patch)
	if err != nil {
		respondError(w, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTask(updated))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	t, ok := h.findOneOrFail(w, r)
	if !ok {
		return
	}

	if err := h.TaskService.Delete(r.Context(), t); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) AddLabels(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	t, ok := h.findOneOrFail(w, r)
	if !ok {
		return
	}

	var labels []dto.LabelDTO
	if err := json.NewDecoder(r.Body).Decode(&labels); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	updated, err := h.TaskService.AddLabels(r.Context(), t, dto.LabelNames(labels))
	if err != nil {
		respondError(w, err)
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTask(updated))
}

func (h *TaskHandler) DeleteLabels(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	t, ok := h.findOneOrFail(w, r)
	if !ok {
		return
	}

	var names []string
	if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON", zap.Error(err))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if _, err := h.TaskService.DeleteLabels(r.Context(), t, names); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		responseWithError(w, http.StatusServiceUnavailable, "сервис недоступен")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}

// findOneOrFail загружает задачу и проверяет владельца. Сначала
// существование (404), потом владение (403) - всегда в этом порядке.
func (h *TaskHandler) findOneOrFail(w http.ResponseWriter, r *http.Request) (*task.Task, bool) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "требуется аутентификация")
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, service.NewValidationError("id", "должен быть UUID"))
		return nil, false
	}

	t, err := h.TaskService.FindOne(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return nil, false
	}

	if t.UserID != principal.UserID {
		logger.Warn("HTTP: Попытка доступа к чужой задаче",
			zap.String("task_id", t.UUID.String()),
			zap.String("user_id", principal.UserID.String()))
		respondError(w, service.NewForbidden("доступ только к собственным задачам"))
		return nil, false
	}

	return t, true
}

func parseFilter(r *http.Request) (task.Filter, error) {
	query := r.URL.Query()
	filter := task.Filter{
		Search: query.Get("search"),
		Labels: query["labels"],
		SortBy: query.Get("sortBy"),
	}

	if raw := query.Get("status"); raw != "" {
		status := task.Status(raw)
		filter.Status = &status
	}

	switch strings.ToUpper(query.Get("sortOrder")) {
	case "":
	case "ASC":
		filter.SortOrder = task.SortAsc
	case "DESC":
		filter.SortOrder = task.SortDesc
	default:
		return filter, service.NewValidationError("sortOrder", "допустимы ASC и DESC")
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, service.NewValidationError("offset", "должен быть неотрицательным числом")
		}
		filter.Offset = offset
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, service.NewValidationError("limit", "должен быть положительным числом")
		}
		filter.Limit = limit
	}

	return filter, nil
}
