package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/govault/internal/domain/model"
	"github.com/bigkaa/govault/internal/repository"
)

// fakeStore — репозитории каталога в памяти для юнит-тестов сервисов.
// Реализует FileRepository, NamespaceRepository и AttributeRepository
// над обычными map-ами с той же семантикой ошибок, что и PostgreSQL-слой.
type fakeStore struct {
	mu         sync.Mutex
	users      map[int64]*model.User
	sessions   map[int64]*model.Session
	namespaces map[int64]*model.Namespace
	files      map[int64]*model.File
	attrs      map[int64]*model.Attribute
	assoc      map[[2]int64]bool
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[int64]*model.User{},
		sessions:   map[int64]*model.Session{},
		namespaces: map[int64]*model.Namespace{},
		files:      map[int64]*model.File{},
		attrs:      map[int64]*model.Attribute{},
		assoc:      map[[2]int64]bool{},
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

// --- NamespaceRepository ---

func (s *fakeStore) Create(ctx context.Context, ns *model.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.namespaces {
		if existing.UserID == ns.UserID && existing.Name == ns.Name {
			return fmt.Errorf("%w: пространство %s", repository.ErrConflict, ns.Name)
		}
	}
	ns.ID = s.id()
	cp := *ns
	s.namespaces[ns.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*model.Namespace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ns
	return &cp, nil
}

func (s *fakeStore) GetByName(ctx context.Context, userID int64, name string) (*model.Namespace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ns := range s.namespaces {
		if ns.UserID == userID && ns.Name == name {
			cp := *ns
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) List(ctx context.Context, userID int64) ([]*model.Namespace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*model.Namespace
	for _, ns := range s.namespaces {
		if ns.UserID == userID {
			cp := *ns
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (s *fakeStore) Rename(ctx context.Context, id int64, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.namespaces {
		if other.ID != id && other.UserID == ns.UserID && other.Name == newName {
			return fmt.Errorf("%w: пространство %s", repository.ErrConflict, newName)
		}
	}
	ns.Name = newName
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.namespaces[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.namespaces, id)
	return nil
}

func (s *fakeStore) ListFiles(ctx context.Context, namespaceID int64) ([]*model.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*model.File
	for _, f := range s.files {
		if f.NamespaceID == namespaceID {
			cp := *f
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *fakeStore) DeleteAttributes(ctx context.Context, namespaceID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.attrs {
		if a.NamespaceID == namespaceID {
			delete(s.attrs, id)
			for key := range s.assoc {
				if key[1] == id {
					delete(s.assoc, key)
				}
			}
		}
	}
	return nil
}

// --- FileRepository (методы с перегруженными именами выделены типами ниже) ---

// fakeFileRepo адаптирует fakeStore к repository.FileRepository,
// разводя одноимённые методы Create/GetByID/GetByName/Delete.
type fakeFileRepo struct{ s *fakeStore }

func (r fakeFileRepo) Create(ctx context.Context, f *model.File) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.files {
		if existing.LocalName == f.LocalName {
			return fmt.Errorf("%w: локальное имя занято", repository.ErrConflict)
		}
		if f.PublicFilename != nil && existing.PublicFilename != nil &&
			*existing.PublicFilename == *f.PublicFilename {
			return fmt.Errorf("%w: публичное имя занято", repository.ErrConflict)
		}
	}
	f.ID = s.id()
	f.UploadedAt = time.Now()
	cp := *f
	s.files[f.ID] = &cp
	return nil
}

func (r fakeFileRepo) GetByID(ctx context.Context, userID, id int64) (*model.File, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r fakeFileRepo) GetByName(ctx context.Context, userID, namespaceID int64, name string, limit int) ([]*model.File, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*model.File
	for _, f := range s.files {
		if f.UserID == userID && f.NamespaceID == namespaceID && f.Name == name {
			cp := *f
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r fakeFileRepo) GetByPublicName(ctx context.Context, publicName string) (*model.File, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.files {
		if f.IsPublic && f.PublicFilename != nil && *f.PublicFilename == publicName {
			cp := *f
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeFileRepo) Update(ctx context.Context, f *model.File) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[f.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range s.files {
		if existing.ID != f.ID && f.PublicFilename != nil && existing.PublicFilename != nil &&
			*existing.PublicFilename == *f.PublicFilename {
			return fmt.Errorf("%w: публичное имя занято", repository.ErrConflict)
		}
	}
	cp := *f
	s.files[f.ID] = &cp
	return nil
}

func (r fakeFileRepo) Delete(ctx context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.files, id)
	for key := range s.assoc {
		if key[0] == id {
			delete(s.assoc, key)
		}
	}
	return nil
}

func (r fakeFileRepo) Search(ctx context.Context, filter repository.FileSearchFilter) ([]repository.FileWithAttribute, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var files []*model.File
	for _, f := range s.files {
		if f.UserID != filter.UserID {
			continue
		}
		if filter.NamespaceID != nil && f.NamespaceID != *filter.NamespaceID {
			continue
		}
		if filter.FileID != nil && f.ID != *filter.FileID {
			continue
		}
		if filter.NamePattern != "" && !ilikeMatch(filter.NamePattern, f.Name) {
			continue
		}
		if len(filter.RequiredAttrIDs) > 0 {
			hit := false
			for _, attrID := range filter.RequiredAttrIDs {
				if s.assoc[[2]int64{f.ID, attrID}] {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })

	var rows []repository.FileWithAttribute
	for _, f := range files {
		var attrs []*model.Attribute
		for key := range s.assoc {
			if key[0] == f.ID {
				attrs = append(attrs, s.attrs[key[1]])
			}
		}
		sort.Slice(attrs, func(i, j int) bool {
			if attrs[i].Type != attrs[j].Type {
				return attrs[i].Type < attrs[j].Type
			}
			return attrs[i].Name < attrs[j].Name
		})
		if len(attrs) == 0 {
			rows = append(rows, repository.FileWithAttribute{File: *f})
			continue
		}
		for _, a := range attrs {
			typ := int16(a.Type)
			rows = append(rows, repository.FileWithAttribute{
				File:          *f,
				AttributeID:   &a.ID,
				AttributeType: &typ,
				AttributeName: &a.Name,
			})
		}
	}
	return rows, nil
}

// --- UserRepository и Registrar ---

type fakeUserRepo struct{ s *fakeStore }

func (s *fakeStore) userByName(username string) *model.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (r fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userByName(user.Username) != nil {
		return fmt.Errorf("%w: пользователь %s", repository.ErrConflict, user.Username)
	}
	user.ID = s.id()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByName(username)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) CreateSession(ctx context.Context, session *model.Session) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	session.ID = s.id()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetSessionUser(ctx context.Context, token string) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.Token == token {
			sess.Requests++
			if u, ok := s.users[sess.UserID]; ok {
				cp := *u
				return &cp, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeUserRepo) DeleteSessionsByMachineID(ctx context.Context, userID int64, machineID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.MachineID != nil && *sess.MachineID == machineID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (r fakeUserRepo) Stats(ctx context.Context, userID int64) (*model.UserStats, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.UserStats{}
	for _, f := range s.files {
		if f.UserID == userID {
			stats.FileCount++
			stats.TotalFileSize += f.FileSize
		}
	}
	for _, ns := range s.namespaces {
		if ns.UserID == userID {
			stats.NamespaceCount++
		}
	}
	for _, a := range s.attrs {
		if a.UserID != userID {
			continue
		}
		if a.Type == model.AttributeTag {
			stats.TagCount++
		} else {
			stats.GroupCount++
		}
	}
	return stats, nil
}

// fakeRegistrar — атомарность имитируется последовательными вызовами
// с откатом пользователя при конфликте пространства.
type fakeRegistrar struct{ s *fakeStore }

func (r fakeRegistrar) CreateUserWithNamespace(ctx context.Context, user *model.User, ns *model.Namespace) error {
	if err := (fakeUserRepo{r.s}).Create(ctx, user); err != nil {
		return err
	}
	ns.UserID = user.ID
	if err := r.s.Create(ctx, ns); err != nil {
		r.s.mu.Lock()
		delete(r.s.users, user.ID)
		r.s.mu.Unlock()
		return err
	}
	return nil
}

// ilikeMatch — упрощённый ILIKE: регистронезависимо, % только по краям.
func ilikeMatch(pattern, name string) bool {
	p := strings.ToLower(pattern)
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(p, "%") && strings.HasSuffix(p, "%"):
		return strings.Contains(n, strings.Trim(p, "%"))
	case strings.HasSuffix(p, "%"):
		return strings.HasPrefix(n, strings.TrimSuffix(p, "%"))
	case strings.HasPrefix(p, "%"):
		return strings.HasSuffix(n, strings.TrimPrefix(p, "%"))
	default:
		return n == p
	}
}

// --- AttributeRepository ---

type fakeAttrRepo struct{ s *fakeStore }

func (r fakeAttrRepo) Get(ctx context.Context, userID, namespaceID int64, typ model.AttributeType, name string) (*model.Attribute, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attrs {
		if a.UserID == userID && a.NamespaceID == namespaceID && a.Type == typ && a.Name == name {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeAttrRepo) Create(ctx context.Context, attr *model.Attribute) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attrs {
		if a.UserID == attr.UserID && a.NamespaceID == attr.NamespaceID &&
			a.Type == attr.Type && a.Name == attr.Name {
			return fmt.Errorf("%w: атрибут %s", repository.ErrConflict, attr.Name)
		}
	}
	attr.ID = s.id()
	cp := *attr
	s.attrs[attr.ID] = &cp
	return nil
}

func (r fakeAttrRepo) ListNames(ctx context.Context, userID, namespaceID int64, typ model.AttributeType) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, a := range s.attrs {
		if a.UserID == userID && a.NamespaceID == namespaceID && a.Type == typ {
			names = append(names, a.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r fakeAttrRepo) Rename(ctx context.Context, id int64, newName string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attrs[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.attrs {
		if other.ID != id && other.UserID == a.UserID && other.NamespaceID == a.NamespaceID &&
			other.Type == a.Type && other.Name == newName {
			return fmt.Errorf("%w: атрибут %s", repository.ErrConflict, newName)
		}
	}
	a.Name = newName
	return nil
}

func (r fakeAttrRepo) Delete(ctx context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attrs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.attrs, id)
	for key := range s.assoc {
		if key[1] == id {
			delete(s.assoc, key)
		}
	}
	return nil
}

func (r fakeAttrRepo) ListFileAttributeIDs(ctx context.Context, fileID int64) ([]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for key := range s.assoc {
		if key[0] == fileID {
			ids = append(ids, key[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r fakeAttrRepo) Associate(ctx context.Context, fileID, attributeID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{fileID, attributeID}
	if s.assoc[key] {
		return fmt.Errorf("%w: атрибут уже привязан", repository.ErrConflict)
	}
	s.assoc[key] = true
	return nil
}

func (r fakeAttrRepo) Dissociate(ctx context.Context, fileID, attributeID int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{fileID, attributeID}
	if !s.assoc[key] {
		return repository.ErrNotFound
	}
	delete(s.assoc, key)
	return nil
}

func (r fakeAttrRepo) DissociateAll(ctx context.Context, fileID int64) ([]int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for key := range s.assoc {
		if key[0] == fileID {
			ids = append(ids, key[1])
			delete(s.assoc, key)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r fakeAttrRepo) CountAssociations(ctx context.Context, attributeID int64) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.assoc {
		if key[1] == attributeID {
			count++
		}
	}
	return count, nil
}
