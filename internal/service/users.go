// users.go — учётные записи и сессии: регистрация с атомарным
// дефолтным пространством, вход по паролю, bearer-токены.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/bigkaa/govault/internal/domain/model"
	"github.com/bigkaa/govault/internal/repository"
)

// tokenLength — длина токена сессии.
const tokenLength = 60

// tokenAlphabet — алфавит токена сессии.
const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Registrar — атомарное создание пользователя с дефолтным пространством.
type Registrar interface {
	CreateUserWithNamespace(ctx context.Context, user *model.User, ns *model.Namespace) error
}

// UserService — регистрация, аутентификация и статистика пользователей.
type UserService struct {
	userRepo          repository.UserRepository
	registrar         Registrar
	allowRegistration bool
	logger            *slog.Logger
}

// NewUserService создаёт сервис пользователей.
func NewUserService(
	userRepo repository.UserRepository,
	registrar Registrar,
	allowRegistration bool,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:          userRepo,
		registrar:         registrar,
		allowRegistration: allowRegistration,
		logger:            logger.With(slog.String("component", "users")),
	}
}

// hashPassword — sha-512 от имени пользователя, сцепленного с паролем.
// Имя играет роль соли.
func hashPassword(username, password string) string {
	sum := sha512.Sum512([]byte(username + password))
	return hex.EncodeToString(sum[:])
}

// newToken возвращает случайный алфавитно-цифровой токен сессии.
func newToken() (string, error) {
	buf := make([]byte, tokenLength)
	alphabetLen := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("ошибка генерации токена: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Register создаёт учётную запись. Пользователь и его дефолтное
// пространство имён появляются атомарно: либо оба, либо ни одного.
func (s *UserService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if !s.allowRegistration {
		return nil, fmt.Errorf("%w: регистрация отключена", ErrIllegalOperation)
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: пустое имя пользователя или пароль", ErrBadRequest)
	}

	user := &model.User{
		Username: username,
		Password: hashPassword(username, password),
	}
	ns := &model.Namespace{Name: model.DefaultNamespace}

	if err := s.registrar.CreateUserWithNamespace(ctx, user, ns); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: пользователь %s", ErrAlreadyExists, username)
		}
		return nil, err
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.Int64("user_id", user.ID),
		slog.String("username", username),
	)
	return user, nil
}

// Login проверяет пароль и открывает сессию. Прежние сессии той же
// машины закрываются. Заблокированная учётная запись не проходит.
func (s *UserService) Login(ctx context.Context, username, password, machineID string) (*model.Session, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: неверное имя или пароль", ErrUnauthorized)
		}
		return nil, err
	}
	if user.Disabled {
		return nil, fmt.Errorf("%w: %s", ErrUserDisabled, username)
	}
	if user.Password != hashPassword(username, password) {
		return nil, fmt.Errorf("%w: неверное имя или пароль", ErrUnauthorized)
	}

	session := &model.Session{UserID: user.ID}
	if machineID != "" {
		if err := s.userRepo.DeleteSessionsByMachineID(ctx, user.ID, machineID); err != nil {
			return nil, err
		}
		session.MachineID = &machineID
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	session.Token = token

	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Сессия открыта", slog.Int64("user_id", user.ID))
	return session, nil
}

// Authenticate возвращает пользователя по токену сессии.
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: пустой токен", ErrUnauthorized)
	}
	user, err := s.userRepo.GetSessionUser(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: сессия не найдена", ErrUnauthorized)
		}
		return nil, err
	}
	if user.Disabled {
		return nil, fmt.Errorf("%w: %s", ErrUserDisabled, user.Username)
	}
	return user, nil
}

// Stats возвращает агрегированную статистику пользователя.
func (s *UserService) Stats(ctx context.Context, userID int64) (*model.UserStats, error) {
	return s.userRepo.Stats(ctx, userID)
}
