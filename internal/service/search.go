// search.go — поиск по каталогу файлов: фильтры по пространству,
// имени и атрибутам, сворачивание соединённых строк в логические
// записи с полным списком атрибутов.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bigkaa/govault/internal/domain/model"
	"github.com/bigkaa/govault/internal/repository"
)

// SearchFilter — параметры поиска по каталогу.
type SearchFilter struct {
	// FileID — точный id файла (nil — без фильтра)
	FileID *int64
	// Name — регистронезависимый шаблон имени ("" — без фильтра)
	Name string
	// Namespace — имя пространства ("" — дефолтное)
	Namespace string
	// AllNamespaces — искать во всех пространствах пользователя
	AllNamespaces bool
	// Tags — файл должен иметь хотя бы один из перечисленных тегов
	Tags []string
	// Groups — или хотя бы одну из перечисленных групп
	Groups []string
}

// SearchResult — одна логическая запись выдачи: файл и полный набор
// его атрибутов, собранный из всех соединённых строк.
type SearchResult struct {
	File   model.File
	Tags   []string
	Groups []string
}

// SearchService — поисковый движок каталога.
type SearchService struct {
	fileRepo repository.FileRepository
	attrRepo repository.AttributeRepository
	resolver *Resolver
	logger   *slog.Logger
}

// NewSearchService создаёт поисковый сервис.
func NewSearchService(
	fileRepo repository.FileRepository,
	attrRepo repository.AttributeRepository,
	resolver *Resolver,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		fileRepo: fileRepo,
		attrRepo: attrRepo,
		resolver: resolver,
		logger:   logger.With(slog.String("component", "search")),
	}
}

// Search выполняет поиск по каталогу пользователя.
// Соединение выдаёт одну строку на пару (файл, атрибут); строки
// группируются по id файла и сворачиваются в одну запись на файл.
// Имена требуемых тегов и групп сначала разрешаются в id атрибутов
// в области активного пространства; имя, которому не соответствует
// ни один атрибут, означает пустую выдачу.
func (s *SearchService) Search(ctx context.Context, userID int64, filter SearchFilter) ([]SearchResult, error) {
	searchesTotal.Inc()

	// Активное пространство нужно и как фильтр, и как область
	// разрешения имён атрибутов
	ns, err := s.resolver.ResolveNamespace(ctx, userID, filter.Namespace)
	if err != nil {
		return nil, err
	}

	repoFilter := repository.FileSearchFilter{
		UserID:      userID,
		FileID:      filter.FileID,
		NamePattern: filter.Name,
	}
	if !filter.AllNamespaces {
		repoFilter.NamespaceID = &ns.ID
	}

	attrIDs, allResolved, err := s.resolveAttributeIDs(ctx, userID, ns.ID, filter)
	if err != nil {
		return nil, err
	}
	if !allResolved {
		// Требуемый атрибут не существует — ни один файл не подойдёт
		return nil, nil
	}
	repoFilter.RequiredAttrIDs = attrIDs

	rows, err := s.fileRepo.Search(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return foldRows(rows), nil
}

// resolveAttributeIDs переводит имена требуемых тегов и групп в id.
// Второй результат — false, если хотя бы одно имя не разрешилось.
func (s *SearchService) resolveAttributeIDs(ctx context.Context, userID, namespaceID int64, filter SearchFilter) ([]int64, bool, error) {
	var ids []int64

	resolve := func(typ model.AttributeType, names []string) (bool, error) {
		for _, name := range names {
			if name == "" {
				continue
			}
			attr, err := s.attrRepo.Get(ctx, userID, namespaceID, typ, name)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return false, nil
				}
				return false, err
			}
			ids = append(ids, attr.ID)
		}
		return true, nil
	}

	ok, err := resolve(model.AttributeTag, filter.Tags)
	if err != nil || !ok {
		return nil, ok, err
	}
	ok, err = resolve(model.AttributeGroup, filter.Groups)
	if err != nil || !ok {
		return nil, ok, err
	}
	return ids, true, nil
}

// foldRows сворачивает упорядоченные по id файла строки соединения
// в логические записи. Атрибуты объединяются без дубликатов; файл
// без атрибутов представлен одной строкой с NULL-атрибутом.
func foldRows(rows []repository.FileWithAttribute) []SearchResult {
	type attrKey struct {
		typ  int16
		name string
	}
	var (
		result []SearchResult
		cur    *SearchResult
		seen   map[attrKey]bool
	)

	for _, row := range rows {
		if cur == nil || cur.File.ID != row.File.ID {
			result = append(result, SearchResult{File: row.File})
			cur = &result[len(result)-1]
			seen = map[attrKey]bool{}
		}
		if row.AttributeName == nil || row.AttributeType == nil {
			continue
		}

		key := attrKey{*row.AttributeType, *row.AttributeName}
		if seen[key] {
			continue
		}
		seen[key] = true

		switch model.AttributeType(*row.AttributeType) {
		case model.AttributeTag:
			cur.Tags = append(cur.Tags, *row.AttributeName)
		case model.AttributeGroup:
			cur.Groups = append(cur.Groups, *row.AttributeName)
		}
	}
	return result
}
