// attributes.go — обработчик POST /api/attribute/{type}/{action}.
// type = tag | group, action = get | update | delete.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/govault/internal/api/errors"
	"github.com/bigkaa/govault/internal/api/middleware"
	"github.com/bigkaa/govault/internal/domain/model"
)

// attributeRequest — параметры действия над атрибутом.
type attributeRequest struct {
	// Name — имя атрибута (для update и delete)
	Name string `json:"name,omitempty"`
	// NewName — новое имя (для update)
	NewName string `json:"newname,omitempty"`
	// Namespace — пространство имён атрибута ("" — дефолтное)
	Namespace string `json:"namespace,omitempty"`
}

// AttributeAction — POST /api/attribute/{type}/{action}.
// get возвращает имена атрибутов пространства, update переименовывает,
// delete удаляет атрибут вместе со всеми ассоциациями.
func (h *APIHandler) AttributeAction(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	typ, err := model.ParseAttributeType(chi.URLParam(r, "type"))
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	var req attributeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ns, err := h.resolver.ResolveNamespace(r.Context(), user.ID, req.Namespace)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	switch action := chi.URLParam(r, "action"); action {
	case "get":
		names, err := h.attrs.ListNames(r.Context(), user.ID, ns.ID, typ)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vecResponse[string]{Slice: names})

	case "update":
		if req.Name == "" || req.NewName == "" {
			apierrors.BadRequest(w, "Для переименования требуются name и newname")
			return
		}
		if err := h.attrs.Rename(r.Context(), user.ID, ns.ID, typ, req.Name, req.NewName); err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, success)

	case "delete":
		if req.Name == "" {
			apierrors.BadRequest(w, "Для удаления требуется name")
			return
		}
		if err := h.attrs.Delete(r.Context(), user.ID, ns.ID, typ, req.Name); err != nil {
			h.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, success)

	default:
		apierrors.BadRequest(w, "Неизвестное действие: "+action)
	}
}
