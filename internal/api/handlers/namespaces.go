// namespaces.go — обработчики /api/namespace endpoints:
// создание, переименование, удаление и список пространств имён.
package handlers

import (
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/govault/internal/api/errors"
	"github.com/bigkaa/govault/internal/api/middleware"
)

// namespaceRequest — имя пространства и, для переименования, новое имя.
type namespaceRequest struct {
	Name    string `json:"ns"`
	NewName string `json:"newName,omitempty"`
}

// CreateNamespace — POST /api/namespace/create.
func (h *APIHandler) CreateNamespace(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	var req namespaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		apierrors.BadRequest(w, "Требуется имя пространства (ns)")
		return
	}

	ns, err := h.namespaces.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("Пространство имён создано",
		slog.Int64("user_id", user.ID),
		slog.String("namespace", ns.Name),
	)
	writeJSON(w, http.StatusCreated, success)
}

// RenameNamespace — POST /api/namespace/update.
func (h *APIHandler) RenameNamespace(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	var req namespaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.NewName == "" {
		apierrors.BadRequest(w, "Требуются ns и newName")
		return
	}

	if err := h.namespaces.Rename(r.Context(), user.ID, req.Name, req.NewName); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// DeleteNamespace — POST /api/namespace/delete.
// Удаляет пространство вместе со всеми файлами и атрибутами.
func (h *APIHandler) DeleteNamespace(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	var req namespaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		apierrors.BadRequest(w, "Требуется имя пространства (ns)")
		return
	}

	if err := h.namespaces.Delete(r.Context(), user.ID, req.Name); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, success)
}

// ListNamespaces — POST /api/namespaces.
// Возвращает имена всех пространств пользователя.
func (h *APIHandler) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	namespaces, err := h.namespaces.List(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	names := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		names = append(names, ns.Name)
	}
	writeJSON(w, http.StatusOK, vecResponse[string]{Slice: names})
}
