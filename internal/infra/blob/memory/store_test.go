package memory

import (
	"context"
	"errors"
	"familychores/internal/blob/core"
	"io"
	"strings"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", s.Driver())
	}
	if _, err := s.Put(ctx, "family-chores/templates.json", strings.NewReader("[]"), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "family-chores/templates.json", strings.NewReader(`[{"id":"t1"}]`), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := s.Get(ctx, "family-chores/templates.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	if string(body) != `[{"id":"t1"}]` {
		t.Fatalf("expected overwritten body, got %s", body)
	}
	if _, err := s.Put(ctx, "other/x", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	infos, _ := s.List(ctx, "family-chores/")
	if len(infos) != 1 {
		t.Fatalf("expected one listed blob, got %+v", infos)
	}
	if ok, _ := s.Delete(ctx, "other/x"); !ok {
		t.Fatalf("expected delete to report existing key")
	}
	if ok, _ := s.Delete(ctx, "other/x"); ok {
		t.Fatalf("expected delete to report missing key")
	}
	if _, _, err := s.Get(ctx, "other/x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
