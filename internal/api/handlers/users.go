// users.go — обработчики /api/user endpoints:
// регистрация, вход, статистика учётной записи.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/govault/internal/api/errors"
	"github.com/bigkaa/govault/internal/api/middleware"
)

// credentialsRequest — учётные данные для регистрации и входа.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"pass"`
	// MachineID — идентификатор клиентской машины; при входе
	// закрывает предыдущие сессии той же машины.
	MachineID string `json:"mid,omitempty"`
}

// loginResponse — токен новой сессии.
type loginResponse struct {
	Token string `json:"token"`
}

// statsResponse — агрегированная статистика учётной записи.
type statsResponse struct {
	FileCount      int64 `json:"filesUploaded"`
	TotalFileSize  int64 `json:"totalFileSize"`
	NamespaceCount int64 `json:"namespaceCount"`
	TagCount       int64 `json:"tagCount"`
	GroupCount     int64 `json:"groupCount"`
}

// Register — POST /api/user/register.
// Создаёт учётную запись вместе с дефолтным пространством имён.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("Пользователь зарегистрирован",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)
	writeJSON(w, http.StatusCreated, success)
}

// Login — POST /api/user/login.
// Проверяет учётные данные и открывает сессию.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		apierrors.BadRequest(w, "Требуются username и pass")
		return
	}

	session, err := h.users.Login(r.Context(), req.Username, req.Password, req.MachineID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: session.Token})
}

// Stats — POST /api/user/stats.
// Возвращает агрегированную статистику по данным пользователя.
func (h *APIHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	stats, err := h.users.Stats(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		FileCount:      stats.FileCount,
		TotalFileSize:  stats.TotalFileSize,
		NamespaceCount: stats.NamespaceCount,
		TagCount:       stats.TagCount,
		GroupCount:     stats.GroupCount,
	})
}
