// ping.go — обработчик /api/ping.
package handlers

import (
	"net/http"

	"github.com/bigkaa/govault/internal/api/middleware"
)

// Ping — POST /api/ping.
// Отвечает pong; при переданном bearer-токене — Authorized pong.
// Токен не проверяется, endpoint служит для проверки доступности.
func (h *APIHandler) Ping(w http.ResponseWriter, r *http.Request) {
	content := "pong"
	if _, ok := middleware.BearerToken(r); ok {
		content = "Authorized pong"
	}
	writeJSON(w, http.StatusOK, stringResponse{Content: content})
}
