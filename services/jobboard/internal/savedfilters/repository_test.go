package savedfilters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "campusjobs/services/jobboard/internal/errors"
	"campusjobs/services/jobboard/internal/models"

	"go.uber.org/zap"
)

func TestLoadMissingKeyIsEmpty(t *testing.T) {
	repo := NewRepository(NewFileBackend(t.TempDir()), zap.NewNop())

	list, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestSaveThenLoadKeepsOrderAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(NewFileBackend(dir), zap.NewNop())
	ctx := context.Background()

	want := []models.SavedFilter{
		{Name: "beijing", Filters: models.FilterCriteria{Location: "Beijing"}},
		{Name: "beijing", Filters: models.FilterCriteria{Location: "Beijing", Keyword: "go"}},
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := NewRepository(NewFileBackend(dir), zap.NewNop()).Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("unexpected list %+v", got)
	}
}

func TestLoadMalformedFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, StorageKey+".json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	repo := NewRepository(NewFileBackend(dir), zap.NewNop())

	list, err := repo.Load(context.Background())
	if !apperrors.Is(err, apperrors.ErrTypePersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}

func TestDecodeRejectsNonList(t *testing.T) {
	for _, input := range []string{`null`, `{"name":"x"}`, `"text"`} {
		if _, err := Decode([]byte(input)); err == nil {
			t.Fatalf("expected error for %s", input)
		}
	}
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, error) { return nil, ErrNotFound }
func (failingBackend) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	repo := NewRepository(failingBackend{}, zap.NewNop())
	err := repo.Save(context.Background(), []models.SavedFilter{{Name: "x"}})
	if !apperrors.Is(err, apperrors.ErrTypePersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
