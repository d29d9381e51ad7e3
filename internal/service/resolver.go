// resolver.go — определение целевой записи файла для загрузки:
// новая запись, замена по id или замена по имени.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bigkaa/govault/internal/domain/model"
	"github.com/bigkaa/govault/internal/repository"
)

// ResolveRequest — параметры разрешения целевой записи файла.
type ResolveRequest struct {
	// Name — пользовательское имя файла
	Name string
	// Namespace — имя целевого пространства ("" — дефолтное)
	Namespace string
	// ReplaceFileByID — заменить файл с данным id (nil — не задано)
	ReplaceFileByID *int64
	// ReplaceEqualNames — заменить единственный файл с тем же именем
	ReplaceEqualNames bool
	// Public — опубликовать файл сразу после загрузки
	Public bool
	// PublicName — желаемое публичное имя ("" — случайное)
	PublicName string
}

// ResolvedUpload — результат разрешения: целевая запись и её пространство.
type ResolvedUpload struct {
	// File — новая или существующая запись файла
	File *model.File
	// Namespace — пространство, в котором окажется файл
	Namespace *model.Namespace
	// IsNew — запись ещё не существует в каталоге
	IsNew bool
}

// Resolver — сервис разрешения целевой записи файла и пространств имён.
// Дефолтные пространства кэшируются по id пользователя, чтобы не ходить
// в БД на каждый запрос.
type Resolver struct {
	fileRepo  repository.FileRepository
	nsRepo    repository.NamespaceRepository
	defaultNS *expirable.LRU[int64, model.Namespace]
	logger    *slog.Logger
}

// NewResolver создаёт Resolver с кэшем дефолтных пространств.
func NewResolver(
	fileRepo repository.FileRepository,
	nsRepo repository.NamespaceRepository,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		fileRepo:  fileRepo,
		nsRepo:    nsRepo,
		defaultNS: expirable.NewLRU[int64, model.Namespace](cacheSize, nil, cacheTTL),
		logger:    logger.With(slog.String("component", "resolver")),
	}
}

// ResolveNamespace возвращает пространство пользователя по имени.
// Пустое имя и "default" разрешаются в дефолтное пространство,
// которое при отсутствии создаётся.
func (s *Resolver) ResolveNamespace(ctx context.Context, userID int64, name string) (*model.Namespace, error) {
	if !model.IsDefaultName(name) {
		ns, err := s.nsRepo.GetByName(ctx, userID, name)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: пространство имён %s", ErrNotFound, name)
			}
			return nil, err
		}
		return ns, nil
	}

	if ns, ok := s.defaultNS.Get(userID); ok {
		return &ns, nil
	}

	ns, err := s.nsRepo.GetByName(ctx, userID, model.DefaultNamespace)
	if errors.Is(err, repository.ErrNotFound) {
		// Дефолтное пространство создаётся при регистрации, но у
		// учётных записей, заведённых до этого правила, его может
		// не быть — досоздаём.
		ns = &model.Namespace{Name: model.DefaultNamespace, UserID: userID}
		err = s.nsRepo.Create(ctx, ns)
		if errors.Is(err, repository.ErrConflict) {
			// Конкурентный запрос успел первым
			ns, err = s.nsRepo.GetByName(ctx, userID, model.DefaultNamespace)
		}
	}
	if err != nil {
		return nil, err
	}

	s.defaultNS.Add(userID, *ns)
	return ns, nil
}

// Resolve определяет целевую запись файла для загрузки.
// Одновременно заданные ReplaceFileByID и ReplaceEqualNames —
// недопустимая операция. При замене по id пространство файла имеет
// приоритет над запрошенным. При замене по имени неоднозначное
// совпадение (больше одного файла) не разрешается автоматически.
func (s *Resolver) Resolve(ctx context.Context, userID int64, req ResolveRequest) (*ResolvedUpload, error) {
	if req.ReplaceFileByID != nil && req.ReplaceEqualNames {
		return nil, fmt.Errorf("%w: replace_file_by_id и replace_equal_names заданы одновременно",
			ErrIllegalOperation)
	}

	ns, err := s.ResolveNamespace(ctx, userID, req.Namespace)
	if err != nil {
		return nil, err
	}

	// Замена по id: пространство файла перекрывает запрошенное
	if req.ReplaceFileByID != nil {
		file, err := s.fileRepo.GetByID(ctx, userID, *req.ReplaceFileByID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: файл %d", ErrNotFound, *req.ReplaceFileByID)
			}
			return nil, err
		}
		if file.NamespaceID != ns.ID {
			ns, err = s.nsRepo.GetByID(ctx, file.NamespaceID)
			if err != nil {
				return nil, err
			}
		}
		file.Name = req.Name
		return &ResolvedUpload{File: file, Namespace: ns}, nil
	}

	// Замена по имени: ровно одно совпадение, иначе неоднозначность
	if req.ReplaceEqualNames {
		matches, err := s.fileRepo.GetByName(ctx, userID, ns.ID, req.Name, 2)
		if err != nil {
			return nil, err
		}
		switch len(matches) {
		case 0:
			// Совпадений нет — создаём новую запись
		case 1:
			return &ResolvedUpload{File: matches[0], Namespace: ns}, nil
		default:
			return nil, fmt.Errorf("%w: %s", ErrMultipleFilesMatch, req.Name)
		}
	}

	// Новая запись со свежим случайным local_name
	file := &model.File{
		Name:        req.Name,
		UserID:      userID,
		LocalName:   uuid.NewString(),
		NamespaceID: ns.ID,
	}
	if req.Public {
		pub := req.PublicName
		if pub == "" {
			pub = uuid.NewString()
		}
		file.IsPublic = true
		file.PublicFilename = &pub
	}
	return &ResolvedUpload{File: file, Namespace: ns, IsNew: true}, nil
}

// InvalidateNamespaceCache сбрасывает кэш дефолтного пространства
// пользователя. Вызывается при удалении пространств.
func (s *Resolver) InvalidateNamespaceCache(userID int64) {
	s.defaultNS.Remove(userID)
}
