package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bigkaa/govault/internal/domain/model"
)

func newTestResolver(store *fakeStore) *Resolver {
	return NewResolver(fakeFileRepo{store}, store, 16, time.Minute, testLogger())
}

func TestResolve_ContradictoryFlags(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store)
	id := int64(1)

	_, err := resolver.Resolve(context.Background(), 1, ResolveRequest{
		Name:              "a.txt",
		ReplaceFileByID:   &id,
		ReplaceEqualNames: true,
	})
	if !errors.Is(err, ErrIllegalOperation) {
		t.Fatalf("Resolve() = %v, ожидался ErrIllegalOperation", err)
	}
}

func TestResolve_NewFile(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store)
	ctx := context.Background()

	res, err := resolver.Resolve(ctx, 1, ResolveRequest{Name: "new.txt"})
	if err != nil {
		t.Fatalf("Resolve() вернул ошибку: %v", err)
	}
	if !res.IsNew {
		t.Error("IsNew = false, ожидалось true")
	}
	if res.File.LocalName == "" {
		t.Error("новая запись без local_name")
	}
	if res.Namespace.Name != model.DefaultNamespace {
		t.Errorf("Namespace = %q, ожидалось дефолтное", res.Namespace.Name)
	}
	if res.File.NamespaceID != res.Namespace.ID {
		t.Error("NamespaceID файла не совпадает с разрешённым пространством")
	}
}

func TestResolve_DefaultNamespaceCreatedOnce(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store)
	ctx := context.Background()

	// Дефолтного пространства ещё нет — первый Resolve создаёт его
	first, err := resolver.ResolveNamespace(ctx, 1, "")
	if err != nil {
		t.Fatalf("ResolveNamespace() вернул ошибку: %v", err)
	}
	// Повторный запрос (в том числе по явному имени) отдаёт то же
	second, err := resolver.ResolveNamespace(ctx, 1, model.DefaultNamespace)
	if err != nil {
		t.Fatalf("повторный ResolveNamespace() вернул ошибку: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("дефолтное пространство продублировано: %d и %d", first.ID, second.ID)
	}

	list, _ := store.List(ctx, 1)
	if len(list) != 1 {
		t.Errorf("в каталоге %d пространств, ожидалось 1", len(list))
	}
}

func TestResolve_NamespaceNotFound(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store)

	_, err := resolver.Resolve(context.Background(), 1, ResolveRequest{
		Name:      "a.txt",
		Namespace: "missing",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Resolve() = %v, ожидался ErrNotFound", err)
	}
}

func TestResolve_ReplaceByID(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store)
	ctx := context.Background()

	// Файл живёт в отдельном пространстве
	other := &model.Namespace{Name: "photos", UserID: 1}
	if err := store.Create(ctx, other); err != nil {
		t.Fatalf("Ошибка создания пространства: %v", err)
	}
	existing := &model.File{Name: "old.jpg", UserID: 1, LocalName: "ln-1", NamespaceID: other.ID}
	if err := (fakeFileRepo{store}).Create(ctx, existing); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}

	// Запрошено дефолтное пространство, но файл остаётся в своём
	res, err := resolver.Resolve(ctx, 1, ResolveRequest{
		Name:            "new.jpg",
		ReplaceFileByID: &existing.ID,
	})
	if err != nil {
		t.Fatalf("Resolve() вернул ошибку: %v", err)
	}
	if res.IsNew {
		t.Error("IsNew = true при замене по id")
	}
	if res.File.ID != existing.ID {
		t.Errorf("File.ID = %d, ожидалось %d", res.File.ID, existing.ID)
	}
	if res.Namespace.ID != other.ID {
		t.Errorf("Namespace.ID = %d, ожидалось пространство файла %d", res.Namespace.ID, other.ID)
	}
	if res.File.Name != "new.jpg" {
		t.Errorf("File.Name = %q, ожидалось new.jpg", res.File.Name)
	}

	// Чужой или отсутствующий id — NotFound
	missing := existing.ID + 100
	_, err = resolver.Resolve(ctx, 1, ResolveRequest{Name: "x", ReplaceFileByID: &missing})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() с чужим id = %v, ожидался ErrNotFound", err)
	}
	_, err = resolver.Resolve(ctx, 2, ResolveRequest{Name: "x", ReplaceFileByID: &existing.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve() чужим пользователем = %v, ожидался ErrNotFound", err)
	}
}

func TestResolve_ReplaceEqualNames(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store)
	ctx := context.Background()

	ns, err := resolver.ResolveNamespace(ctx, 1, "")
	if err != nil {
		t.Fatalf("ResolveNamespace() вернул ошибку: %v", err)
	}

	// Совпадений нет — создаётся новая запись
	res, err := resolver.Resolve(ctx, 1, ResolveRequest{Name: "x", ReplaceEqualNames: true})
	if err != nil {
		t.Fatalf("Resolve() без совпадений вернул ошибку: %v", err)
	}
	if !res.IsNew {
		t.Error("IsNew = false, ожидалось создание новой записи")
	}

	// Одно совпадение — замена на месте
	existing := &model.File{Name: "x", UserID: 1, LocalName: "ln-x", NamespaceID: ns.ID}
	if err := (fakeFileRepo{store}).Create(ctx, existing); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}
	res, err = resolver.Resolve(ctx, 1, ResolveRequest{Name: "x", ReplaceEqualNames: true})
	if err != nil {
		t.Fatalf("Resolve() с одним совпадением вернул ошибку: %v", err)
	}
	if res.IsNew || res.File.ID != existing.ID {
		t.Errorf("ожидалась замена файла %d, получено IsNew=%v id=%d",
			existing.ID, res.IsNew, res.File.ID)
	}

	// Два совпадения — неоднозначность
	second := &model.File{Name: "x", UserID: 1, LocalName: "ln-x2", NamespaceID: ns.ID}
	if err := (fakeFileRepo{store}).Create(ctx, second); err != nil {
		t.Fatalf("Ошибка создания файла: %v", err)
	}
	_, err = resolver.Resolve(ctx, 1, ResolveRequest{Name: "x", ReplaceEqualNames: true})
	if !errors.Is(err, ErrMultipleFilesMatch) {
		t.Fatalf("Resolve() с двумя совпадениями = %v, ожидался ErrMultipleFilesMatch", err)
	}
}

func TestResolve_PublicScaffold(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store)
	ctx := context.Background()

	// Явное публичное имя
	res, err := resolver.Resolve(ctx, 1, ResolveRequest{
		Name: "pub.txt", Public: true, PublicName: "my-public-name",
	})
	if err != nil {
		t.Fatalf("Resolve() вернул ошибку: %v", err)
	}
	if !res.File.IsPublic || res.File.PublicName() != "my-public-name" {
		t.Errorf("ожидалось публичное имя my-public-name, получено %q", res.File.PublicName())
	}

	// Без имени — случайное
	res, err = resolver.Resolve(ctx, 1, ResolveRequest{Name: "pub2.txt", Public: true})
	if err != nil {
		t.Fatalf("Resolve() вернул ошибку: %v", err)
	}
	if !res.File.IsPublic || res.File.PublicName() == "" {
		t.Error("публичному файлу не назначено случайное публичное имя")
	}
}

func TestResolver_CacheInvalidation(t *testing.T) {
	store := newFakeStore()
	resolver := newTestResolver(store)
	ctx := context.Background()

	ns, err := resolver.ResolveNamespace(ctx, 1, "")
	if err != nil {
		t.Fatalf("ResolveNamespace() вернул ошибку: %v", err)
	}

	// Пространство удалено мимо кэша
	if err := store.Delete(ctx, ns.ID); err != nil {
		t.Fatalf("Ошибка удаления пространства: %v", err)
	}
	resolver.InvalidateNamespaceCache(1)

	// После сброса кэша дефолтное пространство досоздаётся заново
	fresh, err := resolver.ResolveNamespace(ctx, 1, "")
	if err != nil {
		t.Fatalf("ResolveNamespace() после сброса вернул ошибку: %v", err)
	}
	if fresh.ID == ns.ID {
		t.Error("кэш вернул удалённое пространство")
	}
}
