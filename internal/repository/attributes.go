package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/govault/internal/domain/model"
)

// AttributeRepository — доступ к таблицам attributes и file_attributes.
type AttributeRepository interface {
	// Get возвращает атрибут по полному уникальному ключу.
	Get(ctx context.Context, userID, namespaceID int64, typ model.AttributeType, name string) (*model.Attribute, error)
	// Create создаёт атрибут, возвращает присвоенный id.
	// При конфликте уникальности возвращает ErrConflict.
	Create(ctx context.Context, attr *model.Attribute) error
	// ListNames возвращает имена атрибутов данного типа в пространстве.
	ListNames(ctx context.Context, userID, namespaceID int64, typ model.AttributeType) ([]string, error)
	// Rename переименовывает атрибут. При коллизии с существующим
	// именем возвращает ErrConflict.
	Rename(ctx context.Context, id int64, newName string) error
	// Delete удаляет атрибут. Ассоциации снимаются каскадно.
	Delete(ctx context.Context, id int64) error

	// ListFileAttributeIDs возвращает id атрибутов, привязанных к файлу.
	ListFileAttributeIDs(ctx context.Context, fileID int64) ([]int64, error)
	// Associate привязывает атрибут к файлу. Повторная привязка
	// возвращает ErrConflict.
	Associate(ctx context.Context, fileID, attributeID int64) error
	// Dissociate отвязывает атрибут от файла.
	Dissociate(ctx context.Context, fileID, attributeID int64) error
	// DissociateAll снимает все ассоциации файла и возвращает id
	// затронутых атрибутов.
	DissociateAll(ctx context.Context, fileID int64) ([]int64, error)
	// CountAssociations возвращает число файлов, ссылающихся на атрибут.
	CountAssociations(ctx context.Context, attributeID int64) (int64, error)
}

// attributeRepo — реализация AttributeRepository.
type attributeRepo struct {
	db DBTX
}

// NewAttributeRepository создаёт репозиторий атрибутов.
func NewAttributeRepository(db DBTX) AttributeRepository {
	return &attributeRepo{db: db}
}

func (r *attributeRepo) Get(ctx context.Context, userID, namespaceID int64, typ model.AttributeType, name string) (*model.Attribute, error) {
	query := `
		SELECT id, type, name, user_id, namespace_id
		FROM attributes
		WHERE user_id = $1 AND namespace_id = $2 AND type = $3 AND name = $4`

	attr := &model.Attribute{}
	err := r.db.QueryRow(ctx, query, userID, namespaceID, typ, name).
		Scan(&attr.ID, &attr.Type, &attr.Name, &attr.UserID, &attr.NamespaceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения атрибута: %w", err)
	}
	return attr, nil
}

func (r *attributeRepo) Create(ctx context.Context, attr *model.Attribute) error {
	query := `
		INSERT INTO attributes (type, name, namespace_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		attr.Type, attr.Name, attr.NamespaceID, attr.UserID,
	).Scan(&attr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: атрибут %s уже существует", ErrConflict, attr.Name)
		}
		return fmt.Errorf("ошибка создания атрибута: %w", err)
	}
	return nil
}

func (r *attributeRepo) ListNames(ctx context.Context, userID, namespaceID int64, typ model.AttributeType) ([]string, error) {
	query := `
		SELECT name FROM attributes
		WHERE user_id = $1 AND namespace_id = $2 AND type = $3
		ORDER BY name`

	rows, err := r.db.Query(ctx, query, userID, namespaceID, typ)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка атрибутов: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования атрибута: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *attributeRepo) Rename(ctx context.Context, id int64, newName string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE attributes SET name = $2 WHERE id = $1`, id, newName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: атрибут %s уже существует", ErrConflict, newName)
		}
		return fmt.Errorf("ошибка переименования атрибута: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *attributeRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attributes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления атрибута: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *attributeRepo) ListFileAttributeIDs(ctx context.Context, fileID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT attribute_id FROM file_attributes WHERE file_id = $1`, fileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения атрибутов файла: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ассоциации: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *attributeRepo) Associate(ctx context.Context, fileID, attributeID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO file_attributes (file_id, attribute_id) VALUES ($1, $2)`,
		fileID, attributeID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: атрибут уже привязан к файлу", ErrConflict)
		}
		return fmt.Errorf("ошибка привязки атрибута: %w", err)
	}
	return nil
}

func (r *attributeRepo) Dissociate(ctx context.Context, fileID, attributeID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM file_attributes WHERE file_id = $1 AND attribute_id = $2`,
		fileID, attributeID)
	if err != nil {
		return fmt.Errorf("ошибка отвязки атрибута: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *attributeRepo) DissociateAll(ctx context.Context, fileID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`DELETE FROM file_attributes WHERE file_id = $1 RETURNING attribute_id`,
		fileID)
	if err != nil {
		return nil, fmt.Errorf("ошибка снятия ассоциаций файла: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ассоциации: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *attributeRepo) CountAssociations(ctx context.Context, attributeID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM file_attributes WHERE attribute_id = $1`,
		attributeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта ассоциаций: %w", err)
	}
	return count, nil
}
