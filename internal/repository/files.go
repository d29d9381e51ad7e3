package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/govault/internal/domain/model"
)

// FileWithAttribute — одна строка результата поиска: файл плюс один
// из его атрибутов (NULL-поля, если атрибутов у файла нет). Строки
// с одинаковым файлом идут подряд, сворачивание выполняет сервис.
type FileWithAttribute struct {
	File model.File
	// AttributeID — id атрибута строки (nil для файла без атрибутов)
	AttributeID *int64
	// AttributeType — тип атрибута строки
	AttributeType *int16
	// AttributeName — имя атрибута строки
	AttributeName *string
}

// FileSearchFilter — параметры поиска по каталогу файлов.
type FileSearchFilter struct {
	// UserID — владелец, обязательный
	UserID int64
	// NamespaceID — пространство имён; nil — все пространства пользователя
	NamespaceID *int64
	// FileID — точный id файла; nil — без фильтра
	FileID *int64
	// NamePattern — ILIKE-шаблон имени; пустая строка — без фильтра
	NamePattern string
	// RequiredAttrIDs — файл попадает в выдачу, если привязан хотя бы
	// к одному из перечисленных атрибутов
	RequiredAttrIDs []int64
}

// FileRepository — доступ к таблице files.
type FileRepository interface {
	// Create создаёт запись файла, возвращает присвоенный id.
	Create(ctx context.Context, f *model.File) error
	// GetByID возвращает файл пользователя по id.
	GetByID(ctx context.Context, userID, id int64) (*model.File, error)
	// GetByName возвращает файлы пользователя с данным именем в
	// пространстве, не более limit штук.
	GetByName(ctx context.Context, userID, namespaceID int64, name string, limit int) ([]*model.File, error)
	// GetByPublicName возвращает опубликованный файл по публичному имени.
	GetByPublicName(ctx context.Context, publicName string) (*model.File, error)
	// Update перезаписывает изменяемые поля записи файла.
	Update(ctx context.Context, f *model.File) error
	// Delete удаляет запись файла.
	Delete(ctx context.Context, id int64) error
	// Search возвращает файлы, подходящие под фильтр, вместе с их
	// атрибутами, упорядоченные по id файла.
	Search(ctx context.Context, filter FileSearchFilter) ([]FileWithAttribute, error)
}

// fileRepo — реализация FileRepository.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий файлов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

func (r *fileRepo) Create(ctx context.Context, f *model.File) error {
	query := `
		INSERT INTO files (name, user_id, local_name, file_size, file_type,
			is_public, public_filename, namespace_id, encryption, checksum)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, uploaded_at`

	err := r.db.QueryRow(ctx, query,
		f.Name, f.UserID, f.LocalName, f.FileSize, f.FileType,
		f.IsPublic, f.PublicFilename, f.NamespaceID, f.Encryption, f.Checksum,
	).Scan(&f.ID, &f.UploadedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: локальное или публичное имя занято", ErrConflict)
		}
		return fmt.Errorf("ошибка создания записи файла: %w", err)
	}
	return nil
}

func (r *fileRepo) GetByID(ctx context.Context, userID, id int64) (*model.File, error) {
	query := `
		SELECT id, name, user_id, local_name, uploaded_at, file_size, file_type,
			is_public, public_filename, namespace_id, encryption, checksum
		FROM files
		WHERE id = $1 AND user_id = $2`

	f := &model.File{}
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&f.ID, &f.Name, &f.UserID, &f.LocalName, &f.UploadedAt, &f.FileSize,
		&f.FileType, &f.IsPublic, &f.PublicFilename, &f.NamespaceID,
		&f.Encryption, &f.Checksum,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) GetByName(ctx context.Context, userID, namespaceID int64, name string, limit int) ([]*model.File, error) {
	query := `
		SELECT id, name, user_id, local_name, uploaded_at, file_size, file_type,
			is_public, public_filename, namespace_id, encryption, checksum
		FROM files
		WHERE user_id = $1 AND namespace_id = $2 AND name = $3
		ORDER BY id
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, userID, namespaceID, name, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска файлов по имени: %w", err)
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

func (r *fileRepo) GetByPublicName(ctx context.Context, publicName string) (*model.File, error) {
	query := `
		SELECT id, name, user_id, local_name, uploaded_at, file_size, file_type,
			is_public, public_filename, namespace_id, encryption, checksum
		FROM files
		WHERE public_filename = $1 AND is_public`

	f := &model.File{}
	err := r.db.QueryRow(ctx, query, publicName).Scan(
		&f.ID, &f.Name, &f.UserID, &f.LocalName, &f.UploadedAt, &f.FileSize,
		&f.FileType, &f.IsPublic, &f.PublicFilename, &f.NamespaceID,
		&f.Encryption, &f.Checksum,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения публичного файла: %w", err)
	}
	return f, nil
}

func (r *fileRepo) Update(ctx context.Context, f *model.File) error {
	query := `
		UPDATE files
		SET name = $2, uploaded_at = $3, file_size = $4, file_type = $5,
			is_public = $6, public_filename = $7, namespace_id = $8,
			encryption = $9, checksum = $10
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		f.ID, f.Name, f.UploadedAt, f.FileSize, f.FileType,
		f.IsPublic, f.PublicFilename, f.NamespaceID, f.Encryption, f.Checksum,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: публичное имя занято", ErrConflict)
		}
		return fmt.Errorf("ошибка обновления записи файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи файла: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *fileRepo) Search(ctx context.Context, filter FileSearchFilter) ([]FileWithAttribute, error) {
	// Динамическое построение WHERE
	conditions := []string{"f.user_id = $1"}
	args := []any{filter.UserID}
	argNum := 2

	if filter.NamespaceID != nil {
		conditions = append(conditions, fmt.Sprintf("f.namespace_id = $%d", argNum))
		args = append(args, *filter.NamespaceID)
		argNum++
	}
	if filter.FileID != nil {
		conditions = append(conditions, fmt.Sprintf("f.id = $%d", argNum))
		args = append(args, *filter.FileID)
		argNum++
	}
	if filter.NamePattern != "" {
		conditions = append(conditions, fmt.Sprintf("f.name ILIKE $%d", argNum))
		args = append(args, filter.NamePattern)
		argNum++
	}
	// Файлы без атрибутов тоже попадают в результат (LEFT JOIN),
	// поэтому фильтр по требуемым атрибутам — подзапросом.
	if len(filter.RequiredAttrIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf(
			`f.id IN (SELECT file_id FROM file_attributes WHERE attribute_id = ANY($%d))`,
			argNum))
		args = append(args, filter.RequiredAttrIDs)
	}

	query := fmt.Sprintf(`
		SELECT f.id, f.name, f.user_id, f.local_name, f.uploaded_at,
			f.file_size, f.file_type, f.is_public, f.public_filename,
			f.namespace_id, f.encryption, f.checksum,
			a.id, a.type, a.name
		FROM files f
		LEFT JOIN file_attributes fa ON fa.file_id = f.id
		LEFT JOIN attributes a ON a.id = fa.attribute_id
		WHERE %s
		ORDER BY f.id, a.type, a.name`, strings.Join(conditions, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска файлов: %w", err)
	}
	defer rows.Close()

	var result []FileWithAttribute
	for rows.Next() {
		var row FileWithAttribute
		f := &row.File
		if err := rows.Scan(
			&f.ID, &f.Name, &f.UserID, &f.LocalName, &f.UploadedAt, &f.FileSize,
			&f.FileType, &f.IsPublic, &f.PublicFilename, &f.NamespaceID,
			&f.Encryption, &f.Checksum,
			&row.AttributeID, &row.AttributeType, &row.AttributeName,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки поиска: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
