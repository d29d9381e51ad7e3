// namespaces.go — сервис пространств имён. Дефолтное пространство
// пользователя неизменяемо: его нельзя создать явно, переименовать
// или удалить.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/govault/internal/domain/model"
	"github.com/bigkaa/govault/internal/repository"
)

// NamespaceService — операции над пространствами имён.
type NamespaceService struct {
	nsRepo   repository.NamespaceRepository
	files    *FileService
	resolver *Resolver
	logger   *slog.Logger
}

// NewNamespaceService создаёт сервис пространств имён.
func NewNamespaceService(
	nsRepo repository.NamespaceRepository,
	files *FileService,
	resolver *Resolver,
	logger *slog.Logger,
) *NamespaceService {
	return &NamespaceService{
		nsRepo:   nsRepo,
		files:    files,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "namespaces")),
	}
}

// Create создаёт пространство имён пользователя.
func (s *NamespaceService) Create(ctx context.Context, userID int64, name string) (*model.Namespace, error) {
	if model.IsDefaultName(name) {
		return nil, fmt.Errorf("%w: дефолтное пространство создаётся автоматически", ErrIllegalOperation)
	}

	ns := &model.Namespace{Name: name, UserID: userID}
	if err := s.nsRepo.Create(ctx, ns); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: пространство %s", ErrAlreadyExists, name)
		}
		return nil, err
	}

	s.logger.Info("Пространство имён создано",
		slog.Int64("namespace_id", ns.ID),
		slog.String("name", name),
	)
	return ns, nil
}

// Rename переименовывает пространство. Дефолтное пространство
// переименовать нельзя, как и занять его имя.
func (s *NamespaceService) Rename(ctx context.Context, userID int64, oldName, newName string) error {
	if model.IsDefaultName(oldName) || model.IsDefaultName(newName) {
		return fmt.Errorf("%w: дефолтное пространство неизменяемо", ErrIllegalOperation)
	}
	if newName == "" {
		return fmt.Errorf("%w: пустое новое имя", ErrBadRequest)
	}

	ns, err := s.nsRepo.GetByName(ctx, userID, oldName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: пространство %s", ErrNotFound, oldName)
		}
		return err
	}

	if err := s.nsRepo.Rename(ctx, ns.ID, newName); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: пространство %s", ErrAlreadyExists, newName)
		}
		return err
	}
	return nil
}

// Delete удаляет пространство каскадно: каждый файл внутри удаляется
// вместе с объектом хранилища и привязками атрибутов, затем зачищаются
// оставшиеся атрибуты пространства и само пространство.
// Дефолтное пространство удалить нельзя.
func (s *NamespaceService) Delete(ctx context.Context, userID int64, name string) error {
	if model.IsDefaultName(name) {
		return fmt.Errorf("%w: дефолтное пространство неизменяемо", ErrIllegalOperation)
	}

	ns, err := s.nsRepo.GetByName(ctx, userID, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: пространство %s", ErrNotFound, name)
		}
		return err
	}

	files, err := s.nsRepo.ListFiles(ctx, ns.ID)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := s.files.DeleteFile(ctx, file); err != nil {
			return err
		}
	}

	// Атрибуты без файлов собраны выше; зачистка на случай записей,
	// оставшихся от прежних версий каталога
	if err := s.nsRepo.DeleteAttributes(ctx, ns.ID); err != nil {
		return err
	}
	if err := s.nsRepo.Delete(ctx, ns.ID); err != nil {
		return err
	}

	s.logger.Info("Пространство имён удалено",
		slog.Int64("namespace_id", ns.ID),
		slog.String("name", name),
		slog.Int("files_removed", len(files)),
	)
	return nil
}

// List возвращает все пространства пользователя.
func (s *NamespaceService) List(ctx context.Context, userID int64) ([]*model.Namespace, error) {
	return s.nsRepo.List(ctx, userID)
}
