// handler.go — основной обработчик API хранилища.
// Объединяет все доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/govault/internal/api/errors"
	"github.com/bigkaa/govault/internal/service"
)

// APIHandler — основной обработчик HTTP API.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	health     *HealthHandler
	users      *service.UserService
	files      *service.FileService
	search     *service.SearchService
	namespaces *service.NamespaceService
	attrs      *service.AttributeService
	resolver   *service.Resolver
	logger     *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	users *service.UserService,
	files *service.FileService,
	search *service.SearchService,
	namespaces *service.NamespaceService,
	attrs *service.AttributeService,
	resolver *service.Resolver,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:     health,
		users:      users,
		files:      files,
		search:     search,
		namespaces: namespaces,
		attrs:      attrs,
		resolver:   resolver,
		logger:     logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// stringResponse — обёртка простого текстового ответа.
type stringResponse struct {
	Content string `json:"content"`
}

// successResponse — подтверждение выполненной операции без данных.
type successResponse struct {
	Message string `json:"message"`
}

// success — каноническое тело успешного ответа.
var success = successResponse{Message: "Success"}

// vecResponse — обёртка ответа-списка.
type vecResponse[T any] struct {
	Slice []T `json:"slice"`
}

// idsResponse — идентификаторы затронутых файлов.
type idsResponse struct {
	IDs []int64 `json:"ids"`
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON разбирает JSON-тело запроса в dst.
// При ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.BadRequest(w, "Некорректный JSON: "+err.Error())
		return false
	}
	return true
}

// writeServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Неизвестные ошибки логируются и отдаются как 500.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrBadRequest):
		apierrors.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrAlreadyExists):
		apierrors.AlreadyExists(w, err.Error())
	case errors.Is(err, service.ErrMultipleFilesMatch):
		apierrors.MultipleFilesMatch(w, err.Error())
	case errors.Is(err, service.ErrIllegalOperation):
		apierrors.IllegalOperation(w, err.Error())
	case errors.Is(err, service.ErrPartialContent):
		apierrors.PartialContent(w, err.Error())
	case errors.Is(err, service.ErrAlreadyPublic):
		apierrors.AlreadyPublic(w, err.Error())
	case errors.Is(err, service.ErrNotPublic):
		apierrors.NotPublic(w, err.Error())
	case errors.Is(err, service.ErrUserDisabled):
		apierrors.UserDisabled(w, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrUnknownIO):
		h.logger.Error("Ошибка ввода-вывода", slog.String("error", err.Error()))
		apierrors.UnknownIO(w, "Ошибка ввода-вывода хранилища")
	default:
		h.logger.Error("Внутренняя ошибка", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка")
	}
}
