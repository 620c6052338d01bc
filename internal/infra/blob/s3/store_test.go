package s3

import (
	"context"
	"errors"
	"familychores/internal/blob/core"
	"io"
	"strings"
	"testing"
)

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	store, err := New(context.Background(), Config{
		Bucket:          "chores",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}

func TestMockStorePutOverwritesAndGets(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if _, err := store.Put(ctx, "family-chores/members.json", strings.NewReader(`[]`), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "family-chores/members.json", strings.NewReader(`[{"id":"1"}]`), core.PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	info, rc, err := store.Get(ctx, "family-chores/members.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != `[{"id":"1"}]` {
		t.Fatalf("expected overwritten body, got %q", body)
	}
	if info.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", info.ContentType)
	}
}

func TestMockStoreMissingKeyIsNotFound(t *testing.T) {
	store := NewMockForTests()
	if _, _, err := store.Get(context.Background(), "missing.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	ok, err := store.Delete(context.Background(), "missing.json")
	if err != nil || ok {
		t.Fatalf("expected missing delete, got %v %v", ok, err)
	}
}

func TestMockStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	for _, key := range []string{"family-chores/templates.json", "family-chores/members.json", "other.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("[]"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "family-chores/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "family-chores/members.json" {
		t.Fatalf("unexpected listing %+v", infos)
	}
	ok, err := store.Delete(ctx, "other.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
}

func TestDecodeChunked(t *testing.T) {
	body, ok := decodeChunked([]byte("5;chunk-signature=abc\r\nhello\r\n0\r\n\r\n"))
	if !ok || string(body) != "hello" {
		t.Fatalf("unexpected decode %q %v", body, ok)
	}
	if _, ok := decodeChunked([]byte("plain body")); ok {
		t.Fatalf("plain body should not decode")
	}
}
