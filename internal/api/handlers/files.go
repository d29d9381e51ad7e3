// files.go — обработчики файловых endpoints:
// поиск по каталогу, скачивание, delete/update-действия, публикация.
package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/govault/internal/api/errors"
	"github.com/bigkaa/govault/internal/api/middleware"
	"github.com/bigkaa/govault/internal/service"
)

// fileListRequest — фильтры поиска по каталогу.
type fileListRequest struct {
	// FileID — точный id файла (0 — без фильтра)
	FileID int64 `json:"fid,omitempty"`
	// Name — регистронезависимый шаблон имени
	Name string `json:"name,omitempty"`
	// AllNamespaces — искать во всех пространствах пользователя
	AllNamespaces bool `json:"allns,omitempty"`
	// Attributes — требуемые теги/группы и пространство поиска
	Attributes fileAttributes `json:"attributes"`
}

// fileUpdateItem — изменяемые поля файла для действия update.
type fileUpdateItem struct {
	NewName      string `json:"newName,omitempty"`
	NewNamespace string `json:"newNamespace,omitempty"`
	IsPublic     *bool  `json:"isPublic,omitempty"`
}

// fileRequest — выбор файлов-целей для действий, скачивания и публикации.
type fileRequest struct {
	// FileID — точный id файла (0 — выбор по имени)
	FileID int64 `json:"fid,omitempty"`
	// Name — имя файла
	Name string `json:"name,omitempty"`
	// PublicName — желаемое публичное имя при публикации
	PublicName string `json:"pubname,omitempty"`
	// All — применить ко всем файлам с этим именем
	All bool `json:"all,omitempty"`
	// Attributes — пространство имён выбора
	Attributes fileAttributes `json:"attributes"`
	// Updates — изменения для действия update
	Updates *fileUpdateItem `json:"updates,omitempty"`
}

// fileItemResponse — одна запись поисковой выдачи.
type fileItemResponse struct {
	ID         int64          `json:"id"`
	Size       int64          `json:"size"`
	Creation   time.Time      `json:"creation"`
	Name       string         `json:"name"`
	IsPublic   bool           `json:"isPub"`
	PublicName string         `json:"pubname"`
	Attributes fileAttributes `json:"attrib"`
	Encryption int32          `json:"e"`
	Checksum   string         `json:"checksum"`
}

// fileListResponse — результат поиска.
type fileListResponse struct {
	Files []fileItemResponse `json:"files"`
}

// selector переводит запрос в сервисный селектор файлов-целей.
func (req *fileRequest) selector() service.TargetSelector {
	sel := service.TargetSelector{
		Name:      req.Name,
		Namespace: req.Attributes.Namespace,
		All:       req.All,
	}
	if req.FileID > 0 {
		id := req.FileID
		sel.FileID = &id
	}
	return sel
}

// ListFiles — POST /api/files.
// Поиск по каталогу: фильтры по id, имени, пространству и атрибутам.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	var req fileListRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	filter := service.SearchFilter{
		Name:          req.Name,
		Namespace:     req.Attributes.Namespace,
		AllNamespaces: req.AllNamespaces,
		Tags:          req.Attributes.Tags,
		Groups:        req.Attributes.Groups,
	}
	if req.FileID > 0 {
		id := req.FileID
		filter.FileID = &id
	}

	results, err := h.search.Search(r.Context(), user.ID, filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	nsNames, err := h.namespaceNames(r, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	files := make([]fileItemResponse, 0, len(results))
	for _, res := range results {
		files = append(files, fileItemResponse{
			ID:         res.File.ID,
			Size:       res.File.FileSize,
			Creation:   res.File.UploadedAt,
			Name:       res.File.Name,
			IsPublic:   res.File.IsPublic,
			PublicName: res.File.PublicName(),
			Encryption: res.File.Encryption,
			Checksum:   res.File.Checksum,
			Attributes: fileAttributes{
				Tags:      res.Tags,
				Groups:    res.Groups,
				Namespace: nsNames[res.File.NamespaceID],
			},
		})
	}

	writeJSON(w, http.StatusOK, fileListResponse{Files: files})
}

// namespaceNames возвращает отображение id пространства → имя
// для подстановки имён в поисковую выдачу.
func (h *APIHandler) namespaceNames(r *http.Request, userID int64) (map[int64]string, error) {
	namespaces, err := h.namespaces.List(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(namespaces))
	for _, ns := range namespaces {
		names[ns.ID] = ns.Name
	}
	return names, nil
}

// Download — POST /api/download/file.
// Отдаёт содержимое файла; метаданные — в заголовках ответа.
func (h *APIHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	var req fileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	file, reader, err := h.files.Download(r.Context(), user.ID, req.selector())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("X-Filename", file.Name)
	w.Header().Set("X-FileID", strconv.FormatInt(file.ID, 10))
	w.Header().Set("Checksum", file.Checksum)
	w.Header().Set("ContentLength", strconv.FormatInt(file.FileSize, 10))
	if file.Encryption != 0 {
		w.Header().Set("X-Encryption", strconv.FormatInt(int64(file.Encryption), 10))
	}
	if file.FileType != "" {
		w.Header().Set("Content-Type", file.FileType)
	}

	if _, err := io.Copy(w, reader); err != nil {
		// Заголовки уже отправлены, остаётся только залогировать
		h.logger.Warn("Прерванная отдача файла",
			slog.Int64("file_id", file.ID),
			slog.String("error", err.Error()),
		)
	}
}

// FileAction — POST /api/file/{action}, action = delete | update.
// Возвращает идентификаторы затронутых файлов.
func (h *APIHandler) FileAction(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	var req fileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		ids []int64
		err error
	)
	switch action := chi.URLParam(r, "action"); action {
	case "delete":
		ids, err = h.files.Delete(r.Context(), user.ID, req.selector())
	case "update":
		if req.Updates == nil {
			apierrors.BadRequest(w, "Для действия update требуется поле updates")
			return
		}
		ids, err = h.files.Update(r.Context(), user.ID, req.selector(), service.UpdateRequest{
			NewName:         req.Updates.NewName,
			MoveToNamespace: req.Updates.NewNamespace,
			Public:          req.Updates.IsPublic,
		})
	default:
		apierrors.BadRequest(w, "Неизвестное действие: "+action)
		return
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, idsResponse{IDs: ids})
}

// Publish — POST /api/file/publish.
// Назначает файлу публичное имя (случайное, если не задано).
func (h *APIHandler) Publish(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	var req fileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	file, err := h.files.Publish(r.Context(), user.ID, req.selector(), req.PublicName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		FileID:         file.ID,
		Filename:       file.Name,
		PublicFilename: file.PublicName(),
		Checksum:       file.Checksum,
		Size:           file.FileSize,
	})
}
