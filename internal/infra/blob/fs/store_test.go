package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"familychores/internal/blob/core"
)

func TestSanitizeKeyErrors(t *testing.T) {
	for _, key := range []string{"", "   ", "../escape", "/abs", "a/../b"} {
		if _, err := sanitizeKey(key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestPutGetOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
	first, err := store.Put(ctx, "family-chores/members.json", strings.NewReader(`[]`), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	second, err := store.Put(ctx, "family-chores/members.json", strings.NewReader(`[{"id":"1"}]`), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if first.ETag == second.ETag || second.Size != int64(len(`[{"id":"1"}]`)) {
		t.Fatalf("expected new etag and size, got %+v then %+v", first, second)
	}
	info, rc, err := store.Get(ctx, "family-chores/members.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != `[{"id":"1"}]` || info.ContentType != "application/json" {
		t.Fatalf("unexpected blob %q %+v", body, info)
	}
}

func TestGetMissingMatchesNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := store.Get(context.Background(), "nope.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"b/two", "a/one", "b/one"} {
		if _, err := store.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "b/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "b/one" || infos[1].Key != "b/two" {
		t.Fatalf("unexpected listing %+v", infos)
	}
	ok, err := store.Delete(ctx, "b/one")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	ok, err = store.Delete(ctx, "b/one")
	if err != nil || ok {
		t.Fatalf("second delete should report missing: %v %v", ok, err)
	}
}

func TestCorruptMetaSurfacesError(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	data := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(data, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if err := os.WriteFile(data+".meta", []byte("{"), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if _, err := store.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list error on corrupt meta")
	}
	if _, _, err := store.Get(context.Background(), "bad.json"); err == nil {
		t.Fatalf("expected get error on corrupt meta")
	}
}

func TestPutHonoursCancelledContext(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "k", strings.NewReader("v"), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
