package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bigkaa/govault/internal/domain/model"
)

func newTestAttributes(store *fakeStore) *AttributeService {
	return NewAttributeService(fakeAttrRepo{store}, testLogger())
}

func TestFindAndCreate_Idempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestAttributes(store)
	ctx := context.Background()

	first, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeTag, []string{"work", "draft"})
	if err != nil {
		t.Fatalf("FindAndCreate() вернул ошибку: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("FindAndCreate() вернул %d атрибутов, ожидалось 2", len(first))
	}

	// Повторный вызов возвращает те же id, без дубликатов
	second, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeTag, []string{"work", "draft"})
	if err != nil {
		t.Fatalf("повторный FindAndCreate() вернул ошибку: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("атрибут %q получил другой id: %d и %d",
				first[i].Name, first[i].ID, second[i].ID)
		}
	}
	if len(store.attrs) != 2 {
		t.Errorf("в каталоге %d атрибутов, ожидалось 2", len(store.attrs))
	}

	// Пустые имена пропускаются
	attrs, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeTag, []string{"", "work"})
	if err != nil {
		t.Fatalf("FindAndCreate() с пустым именем вернул ошибку: %v", err)
	}
	if len(attrs) != 1 {
		t.Errorf("FindAndCreate() вернул %d атрибутов, ожидался 1", len(attrs))
	}
}

func TestFindAndCreate_TypeSeparation(t *testing.T) {
	store := newFakeStore()
	svc := newTestAttributes(store)
	ctx := context.Background()

	tags, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeTag, []string{"work"})
	if err != nil {
		t.Fatalf("FindAndCreate(tag) вернул ошибку: %v", err)
	}
	groups, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeGroup, []string{"work"})
	if err != nil {
		t.Fatalf("FindAndCreate(group) вернул ошибку: %v", err)
	}
	if tags[0].ID == groups[0].ID {
		t.Error("тег и группа с одним именем получили один id")
	}

	if _, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeType(9), []string{"x"}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("FindAndCreate() с неизвестным типом = %v, ожидался ErrBadRequest", err)
	}
}

func TestAddAttributes_SkipsExisting(t *testing.T) {
	store := newFakeStore()
	svc := newTestAttributes(store)
	ctx := context.Background()

	attrs, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeTag, []string{"a", "b"})
	if err != nil {
		t.Fatalf("FindAndCreate() вернул ошибку: %v", err)
	}

	if err := svc.AddAttributes(ctx, 10, attrs[:1]); err != nil {
		t.Fatalf("AddAttributes() вернул ошибку: %v", err)
	}
	// Повторная привязка первого плюс новый второй
	if err := svc.AddAttributes(ctx, 10, attrs); err != nil {
		t.Fatalf("повторный AddAttributes() вернул ошибку: %v", err)
	}

	ids, _ := (fakeAttrRepo{store}).ListFileAttributeIDs(ctx, 10)
	if len(ids) != 2 {
		t.Errorf("у файла %d привязок, ожидалось 2", len(ids))
	}
}

func TestRemoveAttributes_GarbageCollection(t *testing.T) {
	store := newFakeStore()
	svc := newTestAttributes(store)
	ctx := context.Background()

	attrs, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeTag, []string{"shared", "solo"})
	if err != nil {
		t.Fatalf("FindAndCreate() вернул ошибку: %v", err)
	}
	shared, solo := attrs[0], attrs[1]

	// shared привязан к двум файлам, solo — к одному
	if err := svc.AddAttributes(ctx, 10, attrs); err != nil {
		t.Fatalf("AddAttributes() вернул ошибку: %v", err)
	}
	if err := svc.AddAttributes(ctx, 11, []*model.Attribute{shared}); err != nil {
		t.Fatalf("AddAttributes() вернул ошибку: %v", err)
	}

	if err := svc.RemoveAttributes(ctx, 10, attrs); err != nil {
		t.Fatalf("RemoveAttributes() вернул ошибку: %v", err)
	}

	// solo остался без ссылок и удалён, shared жив благодаря файлу 11
	if _, ok := store.attrs[solo.ID]; ok {
		t.Error("атрибут без ссылок не удалён")
	}
	if _, ok := store.attrs[shared.ID]; !ok {
		t.Error("атрибут с живой ссылкой удалён")
	}

	// Повторное снятие уже отвязанного — не ошибка
	if err := svc.RemoveAttributes(ctx, 10, []*model.Attribute{shared}); err != nil {
		t.Errorf("повторный RemoveAttributes() вернул ошибку: %v", err)
	}
}

func TestDeleteFileAssociations(t *testing.T) {
	store := newFakeStore()
	svc := newTestAttributes(store)
	ctx := context.Background()

	attrs, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeTag, []string{"a", "b"})
	if err != nil {
		t.Fatalf("FindAndCreate() вернул ошибку: %v", err)
	}
	if err := svc.AddAttributes(ctx, 10, attrs); err != nil {
		t.Fatalf("AddAttributes() вернул ошибку: %v", err)
	}
	if err := svc.AddAttributes(ctx, 11, attrs[:1]); err != nil {
		t.Fatalf("AddAttributes() вернул ошибку: %v", err)
	}

	if err := svc.DeleteFileAssociations(ctx, 10); err != nil {
		t.Fatalf("DeleteFileAssociations() вернул ошибку: %v", err)
	}

	ids, _ := (fakeAttrRepo{store}).ListFileAttributeIDs(ctx, 10)
	if len(ids) != 0 {
		t.Errorf("у удалённого файла осталось %d привязок", len(ids))
	}
	// "b" собран сборщиком, "a" жив
	if _, ok := store.attrs[attrs[1].ID]; ok {
		t.Error("атрибут без ссылок не собран")
	}
	if _, ok := store.attrs[attrs[0].ID]; !ok {
		t.Error("атрибут с живой ссылкой собран")
	}
}

func TestAttributeService_RenameAndDelete(t *testing.T) {
	store := newFakeStore()
	svc := newTestAttributes(store)
	ctx := context.Background()

	attrs, err := svc.FindAndCreate(ctx, 1, 1, model.AttributeTag, []string{"old", "taken"})
	if err != nil {
		t.Fatalf("FindAndCreate() вернул ошибку: %v", err)
	}

	if err := svc.Rename(ctx, 1, 1, model.AttributeTag, "old", "fresh"); err != nil {
		t.Fatalf("Rename() вернул ошибку: %v", err)
	}
	names, _ := svc.ListNames(ctx, 1, 1, model.AttributeTag)
	if len(names) != 2 || names[0] != "fresh" {
		t.Errorf("ListNames() = %v, ожидалось [fresh taken]", names)
	}

	if err := svc.Rename(ctx, 1, 1, model.AttributeTag, "fresh", "taken"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Rename() в занятое имя = %v, ожидался ErrAlreadyExists", err)
	}
	if err := svc.Rename(ctx, 1, 1, model.AttributeTag, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Rename() несуществующего = %v, ожидался ErrNotFound", err)
	}

	// Удаление снимает привязки каскадно
	if err := svc.AddAttributes(ctx, 10, attrs[1:]); err != nil {
		t.Fatalf("AddAttributes() вернул ошибку: %v", err)
	}
	if err := svc.Delete(ctx, 1, 1, model.AttributeTag, "taken"); err != nil {
		t.Fatalf("Delete() вернул ошибку: %v", err)
	}
	ids, _ := (fakeAttrRepo{store}).ListFileAttributeIDs(ctx, 10)
	if len(ids) != 0 {
		t.Errorf("после удаления атрибута осталось %d привязок", len(ids))
	}
	if err := svc.Delete(ctx, 1, 1, model.AttributeTag, "taken"); !errors.Is(err, ErrNotFound) {
		t.Errorf("повторный Delete() = %v, ожидался ErrNotFound", err)
	}
}
