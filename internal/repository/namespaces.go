package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/govault/internal/domain/model"
)

// NamespaceRepository — доступ к таблице namespaces.
type NamespaceRepository interface {
	// Create создаёт пространство имён, возвращает присвоенный id.
	Create(ctx context.Context, ns *model.Namespace) error
	// GetByID возвращает пространство по id.
	GetByID(ctx context.Context, id int64) (*model.Namespace, error)
	// GetByName возвращает пространство пользователя по имени.
	GetByName(ctx context.Context, userID int64, name string) (*model.Namespace, error)
	// List возвращает все пространства пользователя.
	List(ctx context.Context, userID int64) ([]*model.Namespace, error)
	// Rename переименовывает пространство.
	Rename(ctx context.Context, id int64, newName string) error
	// Delete удаляет пространство. Файлы и атрибуты внутри должны
	// быть удалены вызывающим кодом до этого вызова.
	Delete(ctx context.Context, id int64) error
	// ListFiles возвращает файлы, живущие в пространстве.
	ListFiles(ctx context.Context, namespaceID int64) ([]*model.File, error)
	// DeleteAttributes удаляет все атрибуты пространства.
	DeleteAttributes(ctx context.Context, namespaceID int64) error
}

// namespaceRepo — реализация NamespaceRepository.
type namespaceRepo struct {
	db DBTX
}

// NewNamespaceRepository создаёт репозиторий пространств имён.
func NewNamespaceRepository(db DBTX) NamespaceRepository {
	return &namespaceRepo{db: db}
}

func (r *namespaceRepo) Create(ctx context.Context, ns *model.Namespace) error {
	query := `
		INSERT INTO namespaces (name, user_id)
		VALUES ($1, $2)
		RETURNING id`

	err := r.db.QueryRow(ctx, query, ns.Name, ns.UserID).Scan(&ns.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пространство %s уже существует", ErrConflict, ns.Name)
		}
		return fmt.Errorf("ошибка создания пространства имён: %w", err)
	}
	return nil
}

func (r *namespaceRepo) GetByID(ctx context.Context, id int64) (*model.Namespace, error) {
	query := `SELECT id, name, user_id FROM namespaces WHERE id = $1`

	ns := &model.Namespace{}
	err := r.db.QueryRow(ctx, query, id).Scan(&ns.ID, &ns.Name, &ns.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пространства имён: %w", err)
	}
	return ns, nil
}

func (r *namespaceRepo) GetByName(ctx context.Context, userID int64, name string) (*model.Namespace, error) {
	query := `SELECT id, name, user_id FROM namespaces WHERE user_id = $1 AND name = $2`

	ns := &model.Namespace{}
	err := r.db.QueryRow(ctx, query, userID, name).Scan(&ns.ID, &ns.Name, &ns.UserID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пространства имён: %w", err)
	}
	return ns, nil
}

func (r *namespaceRepo) List(ctx context.Context, userID int64) ([]*model.Namespace, error) {
	query := `SELECT id, name, user_id FROM namespaces WHERE user_id = $1 ORDER BY name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка пространств: %w", err)
	}
	defer rows.Close()

	var result []*model.Namespace
	for rows.Next() {
		ns := &model.Namespace{}
		if err := rows.Scan(&ns.ID, &ns.Name, &ns.UserID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пространства: %w", err)
		}
		result = append(result, ns)
	}
	return result, rows.Err()
}

func (r *namespaceRepo) Rename(ctx context.Context, id int64, newName string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE namespaces SET name = $2 WHERE id = $1`, id, newName)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пространство %s уже существует", ErrConflict, newName)
		}
		return fmt.Errorf("ошибка переименования пространства: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *namespaceRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM namespaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления пространства: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *namespaceRepo) ListFiles(ctx context.Context, namespaceID int64) ([]*model.File, error) {
	query := `
		SELECT id, name, user_id, local_name, uploaded_at, file_size, file_type,
			is_public, public_filename, namespace_id, encryption, checksum
		FROM files
		WHERE namespace_id = $1`

	rows, err := r.db.Query(ctx, query, namespaceID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения файлов пространства: %w", err)
	}
	defer rows.Close()

	var result []*model.File
	for rows.Next() {
		f := &model.File{}
		if err := rows.Scan(
			&f.ID, &f.Name, &f.UserID, &f.LocalName, &f.UploadedAt, &f.FileSize,
			&f.FileType, &f.IsPublic, &f.PublicFilename, &f.NamespaceID,
			&f.Encryption, &f.Checksum,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *namespaceRepo) DeleteAttributes(ctx context.Context, namespaceID int64) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM attributes WHERE namespace_id = $1`, namespaceID)
	if err != nil {
		return fmt.Errorf("ошибка удаления атрибутов пространства: %w", err)
	}
	return nil
}
