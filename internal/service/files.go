// files.go — сервис файловых операций: загрузка (резолвер + ингест +
// атрибуты), скачивание, удаление, обновление и публикация.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/govault/internal/domain/model"
	"github.com/bigkaa/govault/internal/repository"
	"github.com/bigkaa/govault/internal/storage/filestore"
)

// UploadRequest — параметры загрузки файла на уровне сервиса.
type UploadRequest struct {
	// Resolve — параметры выбора целевой записи
	Resolve ResolveRequest
	// Compressed — тело запроса сжато gzip
	Compressed bool
	// Encryption — метка шифрования клиента (хранится как есть)
	Encryption int32
	// Tags — теги, привязываемые к файлу после загрузки
	Tags []string
	// Groups — группы, привязываемые к файлу после загрузки
	Groups []string
}

// UploadResult — результат загрузки.
type UploadResult struct {
	File      *model.File
	Namespace *model.Namespace
}

// TargetSelector — выбор файлов-целей для delete/update/publish:
// по id, либо по имени в пространстве (единственное совпадение,
// если не задан All).
type TargetSelector struct {
	// FileID — точный id (nil — выбор по имени)
	FileID *int64
	// Name — имя файла
	Name string
	// Namespace — имя пространства ("" — дефолтное)
	Namespace string
	// All — применить ко всем файлам с этим именем
	All bool
}

// UpdateRequest — изменяемые поля файла.
type UpdateRequest struct {
	// NewName — новое имя ("" — не менять)
	NewName string
	// MoveToNamespace — имя целевого пространства ("" — не переносить)
	MoveToNamespace string
	// Public — изменить флаг публикации (nil — не менять)
	Public *bool
}

// FileService — операции над файлами каталога.
type FileService struct {
	fileRepo repository.FileRepository
	resolver *Resolver
	ingestor *Ingestor
	attrs    *AttributeService
	store    *filestore.Store
	logger   *slog.Logger
}

// NewFileService создаёт файловый сервис.
func NewFileService(
	fileRepo repository.FileRepository,
	resolver *Resolver,
	ingestor *Ingestor,
	attrs *AttributeService,
	store *filestore.Store,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		resolver: resolver,
		ingestor: ingestor,
		attrs:    attrs,
		store:    store,
		logger:   logger.With(slog.String("component", "files")),
	}
}

// Upload принимает поток с trailer-контрольной суммой и фиксирует
// файл в каталоге. Запись создаётся или обновляется только после
// успешного приёма и сверки суммы; при ошибке ингеста каталог не
// меняется, частично записанный объект удаляется.
func (s *FileService) Upload(ctx context.Context, userID int64, req UploadRequest, body io.Reader) (res *UploadResult, err error) {
	defer func() {
		uploadsTotal.WithLabelValues(uploadOutcome(err)).Inc()
		if res != nil {
			uploadBytesTotal.Add(float64(res.File.FileSize))
		}
	}()

	resolved, err := s.resolver.Resolve(ctx, userID, req.Resolve)
	if err != nil {
		return nil, err
	}
	file := resolved.File

	ing, err := s.ingestor.Ingest(ctx, file.LocalName, body, req.Compressed)
	if err != nil {
		return nil, err
	}

	file.FileSize = ing.Size
	file.FileType = ing.MimeType
	file.Checksum = ing.Checksum
	file.Encryption = req.Encryption
	file.UploadedAt = time.Now()

	if resolved.IsNew {
		err = s.fileRepo.Create(ctx, file)
	} else {
		err = s.fileRepo.Update(ctx, file)
	}
	if err != nil {
		// Каталог не принял запись — объект на диске не нужен
		if delErr := s.store.Delete(file.LocalName); delErr != nil {
			s.logger.Warn("Не удалось удалить объект после отказа каталога",
				slog.String("local_name", file.LocalName),
				slog.String("error", delErr.Error()),
			)
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: публичное имя занято", ErrAlreadyExists)
		}
		return nil, err
	}

	if err := s.attachAttributes(ctx, file, resolved.Namespace.ID, req); err != nil {
		return nil, err
	}

	s.logger.Info("Файл загружен",
		slog.Int64("file_id", file.ID),
		slog.String("name", file.Name),
		slog.Int64("size", file.FileSize),
		slog.String("namespace", resolved.Namespace.Name),
		slog.Bool("replaced", !resolved.IsNew),
	)
	return &UploadResult{File: file, Namespace: resolved.Namespace}, nil
}

func (s *FileService) attachAttributes(ctx context.Context, file *model.File, namespaceID int64, req UploadRequest) error {
	if len(req.Tags) > 0 {
		tags, err := s.attrs.FindAndCreate(ctx, file.UserID, namespaceID, model.AttributeTag, req.Tags)
		if err != nil {
			return err
		}
		if err := s.attrs.AddAttributes(ctx, file.ID, tags); err != nil {
			return err
		}
	}
	if len(req.Groups) > 0 {
		groups, err := s.attrs.FindAndCreate(ctx, file.UserID, namespaceID, model.AttributeGroup, req.Groups)
		if err != nil {
			return err
		}
		if err := s.attrs.AddAttributes(ctx, file.ID, groups); err != nil {
			return err
		}
	}
	return nil
}

// Download открывает объект файла для чтения.
func (s *FileService) Download(ctx context.Context, userID int64, selector TargetSelector) (*model.File, io.ReadCloser, error) {
	targets, err := s.resolveTargets(ctx, userID, selector)
	if err != nil {
		return nil, nil, err
	}
	file := targets[0]

	reader, err := s.store.Open(file.LocalName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: объект %s недоступен: %w", ErrUnknownIO, file.LocalName, err)
	}
	return file, reader, nil
}

// Delete удаляет файлы-цели: объект в хранилище, привязки атрибутов
// (с их сборкой мусора) и запись каталога. Ошибка удаления объекта
// логируется и не прерывает каскад.
func (s *FileService) Delete(ctx context.Context, userID int64, selector TargetSelector) ([]int64, error) {
	targets, err := s.resolveTargets(ctx, userID, selector)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(targets))
	for _, file := range targets {
		if err := s.DeleteFile(ctx, file); err != nil {
			return nil, err
		}
		ids = append(ids, file.ID)
	}
	return ids, nil
}

// DeleteFile удаляет один файл каскадно.
func (s *FileService) DeleteFile(ctx context.Context, file *model.File) error {
	if err := s.store.Delete(file.LocalName); err != nil {
		s.logger.Warn("Не удалось удалить объект из хранилища",
			slog.Int64("file_id", file.ID),
			slog.String("local_name", file.LocalName),
			slog.String("error", err.Error()),
		)
	}
	if err := s.attrs.DeleteFileAssociations(ctx, file.ID); err != nil {
		return err
	}
	if err := s.fileRepo.Delete(ctx, file.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: файл %d", ErrNotFound, file.ID)
		}
		return err
	}
	s.logger.Info("Файл удалён",
		slog.Int64("file_id", file.ID),
		slog.String("name", file.Name),
	)
	return nil
}

// Update изменяет файлы-цели: имя, пространство, флаг публикации.
// Снятие публикации с непубличного файла — ErrNotPublic, повторная
// публикация — ErrAlreadyPublic.
func (s *FileService) Update(ctx context.Context, userID int64, selector TargetSelector, req UpdateRequest) ([]int64, error) {
	targets, err := s.resolveTargets(ctx, userID, selector)
	if err != nil {
		return nil, err
	}

	var targetNS *model.Namespace
	if req.MoveToNamespace != "" {
		targetNS, err = s.resolver.ResolveNamespace(ctx, userID, req.MoveToNamespace)
		if err != nil {
			return nil, err
		}
	}

	ids := make([]int64, 0, len(targets))
	for _, file := range targets {
		if req.NewName != "" {
			file.Name = req.NewName
		}
		if targetNS != nil {
			file.NamespaceID = targetNS.ID
		}
		if req.Public != nil {
			if *req.Public {
				if file.IsPublic {
					return nil, fmt.Errorf("%w: файл %d", ErrAlreadyPublic, file.ID)
				}
				pub := uuid.NewString()
				file.IsPublic = true
				file.PublicFilename = &pub
			} else {
				if !file.IsPublic {
					return nil, fmt.Errorf("%w: файл %d", ErrNotPublic, file.ID)
				}
				file.IsPublic = false
				file.PublicFilename = nil
			}
		}
		if err := s.fileRepo.Update(ctx, file); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, fmt.Errorf("%w: публичное имя занято", ErrAlreadyExists)
			}
			return nil, err
		}
		ids = append(ids, file.ID)
	}
	return ids, nil
}

// Publish назначает файлу публичное имя (случайное, если не задано)
// и помечает его публичным. Коллизия публичных имён — ErrAlreadyExists.
func (s *FileService) Publish(ctx context.Context, userID int64, selector TargetSelector, publicName string) (*model.File, error) {
	targets, err := s.resolveTargets(ctx, userID, selector)
	if err != nil {
		return nil, err
	}
	file := targets[0]

	if file.IsPublic {
		return nil, fmt.Errorf("%w: файл %d", ErrAlreadyPublic, file.ID)
	}

	pub := publicName
	if pub == "" {
		pub = uuid.NewString()
	} else if existing, err := s.fileRepo.GetByPublicName(ctx, pub); err == nil && existing.ID != file.ID {
		return nil, fmt.Errorf("%w: публичное имя %s", ErrAlreadyExists, pub)
	}

	file.IsPublic = true
	file.PublicFilename = &pub
	if err := s.fileRepo.Update(ctx, file); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: публичное имя %s", ErrAlreadyExists, pub)
		}
		return nil, err
	}

	s.logger.Info("Файл опубликован",
		slog.Int64("file_id", file.ID),
		slog.String("public_name", pub),
	)
	return file, nil
}

// resolveTargets находит файлы-цели по селектору. Выбор по имени без
// All требует единственного совпадения, иначе ErrMultipleFilesMatch.
func (s *FileService) resolveTargets(ctx context.Context, userID int64, selector TargetSelector) ([]*model.File, error) {
	if selector.FileID != nil {
		file, err := s.fileRepo.GetByID(ctx, userID, *selector.FileID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: файл %d", ErrNotFound, *selector.FileID)
			}
			return nil, err
		}
		return []*model.File{file}, nil
	}

	if selector.Name == "" {
		return nil, fmt.Errorf("%w: не задан ни id, ни имя файла", ErrBadRequest)
	}

	ns, err := s.resolver.ResolveNamespace(ctx, userID, selector.Namespace)
	if err != nil {
		return nil, err
	}

	limit := 2
	if selector.All {
		limit = 1000
	}
	matches, err := s.fileRepo.GetByName(ctx, userID, ns.ID, selector.Name, limit)
	if err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: файл %s", ErrNotFound, selector.Name)
	case len(matches) > 1 && !selector.All:
		return nil, fmt.Errorf("%w: %s", ErrMultipleFilesMatch, selector.Name)
	}
	return matches, nil
}
