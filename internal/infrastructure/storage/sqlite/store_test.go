package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "kv.db"))

	if err := s.Set(ctx, "sellerData", `{"id":"1"}`); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Set(ctx, "sellerData", `{"id":"2"}`); err != nil {
		t.Fatalf("overwrite returned error: %v", err)
	}

	v, found, err := s.Get(ctx, "sellerData")
	if err != nil || !found {
		t.Fatalf("expected value, got found=%v err=%v", found, err)
	}
	if v != `{"id":"2"}` {
		t.Fatalf("expected overwritten value, got %s", v)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if err := s.Set(ctx, "buyerToken", "tok"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened := openTestStore(t, path)
	v, found, err := reopened.Get(ctx, "buyerToken")
	if err != nil || !found || v != "tok" {
		t.Fatalf("value lost across reopen: %q %v %v", v, found, err)
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "kv.db"))

	_ = s.Set(ctx, "adminToken", "a")
	_ = s.Set(ctx, "adminData", "{}")
	_ = s.Set(ctx, "sellerToken", "s")

	if err := s.Delete(ctx, "adminToken", "adminData"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, found, _ := s.Get(ctx, "adminToken"); found {
		t.Fatalf("adminToken should be gone")
	}
	if _, found, _ := s.Get(ctx, "sellerToken"); !found {
		t.Fatalf("sellerToken must be untouched")
	}
}
