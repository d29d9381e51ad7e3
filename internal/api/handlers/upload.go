// upload.go — обработчик POST /api/upload/file.
// Параметры загрузки передаются в заголовке Request (base64-кодированный
// JSON), тело запроса — сырой поток файла с trailer-контрольной суммой.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/govault/internal/api/errors"
	"github.com/bigkaa/govault/internal/api/middleware"
	"github.com/bigkaa/govault/internal/service"
)

// uploadHeader — имя заголовка с параметрами загрузки.
const uploadHeader = "Request"

// fileAttributes — атрибуты файла и его пространство имён.
type fileAttributes struct {
	Tags      []string `json:"tags,omitempty"`
	Groups    []string `json:"groups,omitempty"`
	Namespace string   `json:"ns"`
}

// uploadRequest — параметры загрузки из заголовка Request.
type uploadRequest struct {
	// Name — пользовательское имя файла
	Name string `json:"name"`
	// Public — опубликовать файл сразу после загрузки
	Public bool `json:"pb,omitempty"`
	// PublicName — желаемое публичное имя
	PublicName string `json:"pbname,omitempty"`
	// Encryption — клиентская метка шифрования
	Encryption int32 `json:"e,omitempty"`
	// Compressed — тело запроса сжато gzip
	Compressed bool `json:"compr,omitempty"`
	// ReplaceFileByID — заменить файл с данным id
	ReplaceFileByID *int64 `json:"r,omitempty"`
	// ReplaceEqualNames — заменить единственный файл с тем же именем
	ReplaceEqualNames bool `json:"ren,omitempty"`
	// Attributes — теги, группы и пространство имён
	Attributes fileAttributes `json:"attr"`
}

// uploadResponse — итог загрузки файла.
type uploadResponse struct {
	FileID         int64  `json:"fileID"`
	Filename       string `json:"filename"`
	PublicFilename string `json:"publicFilename,omitempty"`
	Checksum       string `json:"checksum"`
	Size           int64  `json:"size"`
	Namespace      string `json:"ns"`
}

// decodeUploadRequest разбирает заголовок Request: base64-кодированный JSON.
func decodeUploadRequest(r *http.Request) (*uploadRequest, error) {
	header := r.Header.Get(uploadHeader)
	if header == "" {
		return nil, fmt.Errorf("отсутствует заголовок %s", uploadHeader)
	}

	raw, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return nil, fmt.Errorf("заголовок %s не является base64: %w", uploadHeader, err)
	}

	var req uploadRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("некорректный JSON в заголовке %s: %w", uploadHeader, err)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("имя файла (name) обязательно")
	}
	return &req, nil
}

// Upload — POST /api/upload/file.
// Принимает поток, проверяет trailer-контрольную сумму и фиксирует
// файл в каталоге вместе с атрибутами.
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return
	}

	req, err := decodeUploadRequest(r)
	if err != nil {
		apierrors.BadRequest(w, err.Error())
		return
	}

	result, err := h.files.Upload(r.Context(), user.ID, service.UploadRequest{
		Resolve: service.ResolveRequest{
			Name:              req.Name,
			Namespace:         req.Attributes.Namespace,
			ReplaceFileByID:   req.ReplaceFileByID,
			ReplaceEqualNames: req.ReplaceEqualNames,
			Public:            req.Public,
			PublicName:        req.PublicName,
		},
		Compressed: req.Compressed,
		Encryption: req.Encryption,
		Tags:       req.Attributes.Tags,
		Groups:     req.Attributes.Groups,
	}, r.Body)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.logger.Info("Файл загружен",
		slog.Int64("user_id", user.ID),
		slog.Int64("file_id", result.File.ID),
		slog.String("name", result.File.Name),
		slog.Int64("size", result.File.FileSize),
	)

	writeJSON(w, http.StatusOK, uploadResponse{
		FileID:         result.File.ID,
		Filename:       result.File.Name,
		PublicFilename: result.File.PublicName(),
		Checksum:       result.File.Checksum,
		Size:           result.File.FileSize,
		Namespace:      result.Namespace.Name,
	})
}
