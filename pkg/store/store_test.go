package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestNewEmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := Record{
		Tag:      "gutenberg-1234::A Tale of Castles",
		Vector:   []float32{0.1, -0.2, 0.3},
		SourceID: "gutenberg-1234",
		Title:    "A Tale of Castles",
	}

	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, rec.Tag)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}
}

func TestPutReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := Record{Tag: "t", Vector: []float32{1, 2}, SourceID: "s", Title: "old"}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	rec.Title = "new"
	rec.Vector = []float32{3, 4}
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put() replace error = %v", err)
	}

	got, err := s.Get(ctx, "t")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "new" || !reflect.DeepEqual(got.Vector, []float32{3, 4}) {
		t.Errorf("Get() after replace = %+v", got)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestPutValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  Record
	}{
		{"empty tag", Record{Tag: "", Vector: []float32{1}}},
		{"nil vector", Record{Tag: "t", Vector: nil}},
		{"empty vector", Record{Tag: "t", Vector: []float32{}}},
		{"nan component", Record{Tag: "t", Vector: []float32{float32(math.NaN())}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Put(ctx, tt.rec); err == nil {
				t.Error("Put() should reject invalid record")
			}
		})
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestPutBatchAndAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recs := []Record{
		{Tag: "a::one", Vector: []float32{1, 0}, SourceID: "a", Title: "one"},
		{Tag: "b::two", Vector: []float32{0, 1}, SourceID: "b", Title: "two"},
		{Tag: "c::three", Vector: []float32{1, 1}, SourceID: "c", Title: "three"},
	}

	if err := s.PutBatch(ctx, recs); err != nil {
		t.Fatalf("PutBatch() error = %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != len(recs) {
		t.Fatalf("All() returned %d records, want %d", len(all), len(recs))
	}

	byTag := make(map[string]Record, len(all))
	for _, rec := range all {
		byTag[rec.Tag] = rec
	}
	for _, want := range recs {
		if got, ok := byTag[want.Tag]; !ok || !reflect.DeepEqual(got, want) {
			t.Errorf("All() record %q = %+v, want %+v", want.Tag, got, want)
		}
	}
}

func TestPutBatchAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	recs := []Record{
		{Tag: "good", Vector: []float32{1}},
		{Tag: "", Vector: []float32{1}}, // invalid, must roll back the batch
	}

	if err := s.PutBatch(ctx, recs); err == nil {
		t.Fatal("PutBatch() with invalid record should fail")
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after failed batch = %d, want 0", count)
	}
}

func TestPutBatchEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutBatch(context.Background(), nil); err != nil {
		t.Errorf("PutBatch(nil) error = %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, Record{Tag: "t", Vector: []float32{1}}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete(ctx, "t"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "t"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "t"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() on missing tag error = %v, want ErrNotFound", err)
	}
}

func TestClosedStore(t *testing.T) {
	s := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ctx := context.Background()
	if err := s.Put(ctx, Record{Tag: "t", Vector: []float32{1}}); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Put() on closed store error = %v, want ErrStoreClosed", err)
	}
	if _, err := s.Get(ctx, "t"); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("Get() on closed store error = %v, want ErrStoreClosed", err)
	}
	if _, err := s.All(ctx); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("All() on closed store error = %v, want ErrStoreClosed", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestStoreErrorWrapping(t *testing.T) {
	err := wrapError("get", ErrNotFound)

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatal("wrapError() should produce a *StoreError")
	}
	if storeErr.Op != "get" {
		t.Errorf("Op = %q, want %q", storeErr.Op, "get")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped error should match ErrNotFound")
	}
	if wrapError("get", nil) != nil {
		t.Error("wrapError(nil) should return nil")
	}
}
