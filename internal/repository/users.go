package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/govault/internal/domain/model"
)

// UserRepository — доступ к таблицам users и login_sessions.
type UserRepository interface {
	// Create создаёт пользователя, возвращает присвоенный id.
	Create(ctx context.Context, user *model.User) error
	// GetByID возвращает пользователя по id.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByUsername возвращает пользователя по имени.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// CreateSession регистрирует новую сессию с токеном.
	CreateSession(ctx context.Context, session *model.Session) error
	// GetSessionUser возвращает пользователя по токену сессии и
	// инкрементирует счётчик запросов.
	GetSessionUser(ctx context.Context, token string) (*model.User, error)
	// DeleteSessionsByMachineID удаляет прежние сессии той же машины.
	DeleteSessionsByMachineID(ctx context.Context, userID int64, machineID string) error
	// Stats возвращает агрегированную статистику пользователя.
	Stats(ctx context.Context, userID int64) (*model.UserStats, error)
}

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, password, disabled)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := r.db.QueryRow(ctx, query, user.Username, user.Password, user.Disabled).
		Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: пользователь %s уже существует", ErrConflict, user.Username)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, username, password, disabled FROM users WHERE id = $1`

	user := &model.User{}
	err := r.db.QueryRow(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Password, &user.Disabled)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT id, username, password, disabled FROM users WHERE username = $1`

	user := &model.User{}
	err := r.db.QueryRow(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Password, &user.Disabled)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return user, nil
}

func (r *userRepo) CreateSession(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO login_sessions (user_id, token, requests, machine_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		session.UserID, session.Token, session.Requests, session.MachineID,
	).Scan(&session.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: токен сессии уже занят", ErrConflict)
		}
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return nil
}

func (r *userRepo) GetSessionUser(ctx context.Context, token string) (*model.User, error) {
	// Счётчик запросов обновляется тем же запросом, что и поиск сессии
	query := `
		UPDATE login_sessions s
		SET requests = s.requests + 1
		FROM users u
		WHERE s.token = $1 AND u.id = s.user_id
		RETURNING u.id, u.username, u.password, u.disabled`

	user := &model.User{}
	err := r.db.QueryRow(ctx, query, token).
		Scan(&user.ID, &user.Username, &user.Password, &user.Disabled)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска сессии: %w", err)
	}
	return user, nil
}

func (r *userRepo) DeleteSessionsByMachineID(ctx context.Context, userID int64, machineID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM login_sessions WHERE user_id = $1 AND machine_id = $2`,
		userID, machineID,
	)
	if err != nil {
		return fmt.Errorf("ошибка удаления сессий: %w", err)
	}
	return nil
}

func (r *userRepo) Stats(ctx context.Context, userID int64) (*model.UserStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM files WHERE user_id = $1),
			(SELECT COALESCE(SUM(file_size), 0) FROM files WHERE user_id = $1),
			(SELECT COUNT(*) FROM namespaces WHERE user_id = $1),
			(SELECT COUNT(*) FROM attributes WHERE user_id = $1 AND type = $2),
			(SELECT COUNT(*) FROM attributes WHERE user_id = $1 AND type = $3)`

	stats := &model.UserStats{}
	err := r.db.QueryRow(ctx, query, userID, model.AttributeTag, model.AttributeGroup).
		Scan(&stats.FileCount, &stats.TotalFileSize, &stats.NamespaceCount,
			&stats.TagCount, &stats.GroupCount)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта статистики: %w", err)
	}
	return stats, nil
}
