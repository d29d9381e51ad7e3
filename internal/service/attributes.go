// attributes.go — сервис тегов и групп: ленивое создание по уникальному
// ключу, привязка к файлам и сборка мусора по счётчику ссылок.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/govault/internal/domain/model"
	"github.com/bigkaa/govault/internal/repository"
)

// AttributeService — операции над атрибутами (тегами и группами) файлов.
// Атрибуты создаются лениво при первом использовании и удаляются,
// когда исчезает последняя привязка к файлу — осиротевших атрибутов
// в каталоге не бывает.
type AttributeService struct {
	attrRepo repository.AttributeRepository
	logger   *slog.Logger
}

// NewAttributeService создаёт сервис атрибутов.
func NewAttributeService(attrRepo repository.AttributeRepository, logger *slog.Logger) *AttributeService {
	return &AttributeService{
		attrRepo: attrRepo,
		logger:   logger.With(slog.String("component", "attributes")),
	}
}

// FindAndCreate возвращает атрибуты с перечисленными именами, создавая
// отсутствующие. Гонка конкурентного создания закрывается уникальным
// индексом: конфликт вставки означает, что атрибут только что создан
// другим запросом, и он перечитывается.
func (s *AttributeService) FindAndCreate(ctx context.Context, userID, namespaceID int64, typ model.AttributeType, names []string) ([]*model.Attribute, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: недопустимый тип атрибута", ErrBadRequest)
	}

	var result []*model.Attribute
	for _, name := range names {
		if name == "" {
			continue
		}

		attr, err := s.attrRepo.Get(ctx, userID, namespaceID, typ, name)
		if errors.Is(err, repository.ErrNotFound) {
			attr = &model.Attribute{
				Type:        typ,
				Name:        name,
				UserID:      userID,
				NamespaceID: namespaceID,
			}
			err = s.attrRepo.Create(ctx, attr)
			if errors.Is(err, repository.ErrConflict) {
				attr, err = s.attrRepo.Get(ctx, userID, namespaceID, typ, name)
			}
		}
		if err != nil {
			return nil, err
		}
		result = append(result, attr)
	}
	return result, nil
}

// AddAttributes привязывает атрибуты к файлу, пропуская уже привязанные.
func (s *AttributeService) AddAttributes(ctx context.Context, fileID int64, attrs []*model.Attribute) error {
	existing, err := s.attrRepo.ListFileAttributeIDs(ctx, fileID)
	if err != nil {
		return err
	}
	known := make(map[int64]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	for _, attr := range attrs {
		if known[attr.ID] {
			continue
		}
		err := s.attrRepo.Associate(ctx, fileID, attr.ID)
		if err != nil && !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return nil
}

// RemoveAttributes отвязывает атрибуты от файла. Атрибут, оставшийся
// без единой привязки, удаляется из каталога.
func (s *AttributeService) RemoveAttributes(ctx context.Context, fileID int64, attrs []*model.Attribute) error {
	for _, attr := range attrs {
		err := s.attrRepo.Dissociate(ctx, fileID, attr.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return err
		}
		if err := s.collectIfUnused(ctx, attr.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteFileAssociations снимает все привязки файла (при его удалении)
// и собирает атрибуты, оставшиеся без ссылок.
func (s *AttributeService) DeleteFileAssociations(ctx context.Context, fileID int64) error {
	ids, err := s.attrRepo.DissociateAll(ctx, fileID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.collectIfUnused(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// collectIfUnused удаляет атрибут, если на него больше никто не ссылается.
func (s *AttributeService) collectIfUnused(ctx context.Context, attributeID int64) error {
	count, err := s.attrRepo.CountAssociations(ctx, attributeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	err = s.attrRepo.Delete(ctx, attributeID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	s.logger.Debug("Атрибут без ссылок удалён", slog.Int64("attribute_id", attributeID))
	return nil
}

// ListNames возвращает имена атрибутов данного типа в пространстве.
func (s *AttributeService) ListNames(ctx context.Context, userID, namespaceID int64, typ model.AttributeType) ([]string, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: недопустимый тип атрибута", ErrBadRequest)
	}
	return s.attrRepo.ListNames(ctx, userID, namespaceID, typ)
}

// Rename переименовывает атрибут.
func (s *AttributeService) Rename(ctx context.Context, userID, namespaceID int64, typ model.AttributeType, oldName, newName string) error {
	if !typ.Valid() || newName == "" {
		return fmt.Errorf("%w: некорректные параметры переименования", ErrBadRequest)
	}
	attr, err := s.attrRepo.Get(ctx, userID, namespaceID, typ, oldName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: атрибут %s", ErrNotFound, oldName)
		}
		return err
	}
	if err := s.attrRepo.Rename(ctx, attr.ID, newName); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: атрибут %s", ErrAlreadyExists, newName)
		}
		return err
	}
	return nil
}

// Delete удаляет атрибут вместе со всеми его привязками.
func (s *AttributeService) Delete(ctx context.Context, userID, namespaceID int64, typ model.AttributeType, name string) error {
	if !typ.Valid() {
		return fmt.Errorf("%w: недопустимый тип атрибута", ErrBadRequest)
	}
	attr, err := s.attrRepo.Get(ctx, userID, namespaceID, typ, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: атрибут %s", ErrNotFound, name)
		}
		return err
	}
	return s.attrRepo.Delete(ctx, attr.ID)
}
