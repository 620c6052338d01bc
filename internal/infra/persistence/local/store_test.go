package local

import (
	"context"
	"errors"
	"familychores/internal/blob"
	"familychores/pkg/domain"
	"io"
	"log/slog"
	"strings"
	"testing"
)

var today = domain.Date{Year: 2024, Month: 6, Day: 1}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openLocal(t *testing.T, blobs blob.Store) *Store {
	t.Helper()
	store, err := Open(context.Background(), blobs, WithLogger(quietLogger()), WithToday(func() domain.Date { return today }))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return store
}

func readBlob(t *testing.T, blobs blob.Store, key string) string {
	t.Helper()
	_, rc, err := blobs.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	return string(data)
}

func TestOpenFallsBackToSeed(t *testing.T) {
	store := openLocal(t, blob.NewMemory())
	members, _ := store.ListMembers(context.Background())
	if len(members) != 3 || members[0].Name != "Emma" || members[0].Chores[0].DueDate != today {
		t.Fatalf("expected seed members, got %+v", members)
	}
	templates, _ := store.ListTemplates(context.Background())
	if templates == nil || len(templates) != 0 {
		t.Fatalf("expected empty non-nil templates, got %#v", templates)
	}
}

func TestOpenUnparsableFallsBackPerCollection(t *testing.T) {
	blobs := blob.NewMemory()
	ctx := context.Background()
	_, _ = blobs.Put(ctx, MembersKey, strings.NewReader("{broken"), blob.PutOptions{})
	_, _ = blobs.Put(ctx, TemplatesKey, strings.NewReader(`[{"id":"t1","name":"Dust","recurrence":"daily"}]`), blob.PutOptions{})
	store := openLocal(t, blobs)
	members, _ := store.ListMembers(ctx)
	if len(members) != 3 {
		t.Fatalf("expected seed members after corrupt blob, got %+v", members)
	}
	templates, _ := store.ListTemplates(ctx)
	if len(templates) != 1 || templates[0].ID != "t1" {
		t.Fatalf("expected stored templates, got %+v", templates)
	}
}

func TestWritesOnlyChangedCollection(t *testing.T) {
	blobs := blob.NewMemory()
	ctx := context.Background()
	store := openLocal(t, blobs)

	if _, err := store.CreateTemplate(ctx, domain.ChoreTemplate{Name: "Mow", Recurrence: domain.RecurrenceWeekly, Days: []domain.Weekday{domain.Saturday}}); err != nil {
		t.Fatalf("create template: %v", err)
	}
	if !strings.Contains(readBlob(t, blobs, TemplatesKey), `"Mow"`) {
		t.Fatalf("template blob not written")
	}
	// seed members were never written and remain unchanged
	if _, _, err := blobs.Get(ctx, MembersKey); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("members blob should not be written by a template change, got %v", err)
	}

	if err := store.DeleteMember(ctx, "3"); err != nil {
		t.Fatalf("delete member: %v", err)
	}
	body := readBlob(t, blobs, MembersKey)
	if strings.Contains(body, `"Sam"`) || !strings.Contains(body, `"Emma"`) {
		t.Fatalf("unexpected members blob %s", body)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	blobs := blob.NewMockS3ForTests()
	ctx := context.Background()
	store := openLocal(t, blobs)
	member, err := store.CreateMember(ctx, domain.NewFamilyMember("Riley", 3))
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if err := store.UpdateChore(ctx, "1", "c1", domain.Chore{ID: "c1", Name: "Make bed", Completed: true, DueDate: today}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	reopened := openLocal(t, blobs)
	members, _ := reopened.ListMembers(ctx)
	if len(members) != 4 || members[3].ID != member.ID {
		t.Fatalf("expected persisted members, got %+v", members)
	}
	if c, _, _ := members[0].FindChore("c1"); !c.Completed {
		t.Fatalf("expected completed chore after reopen")
	}
}

func TestOpenRequiresBlobStore(t *testing.T) {
	if _, err := Open(context.Background(), nil); err == nil {
		t.Fatalf("expected error without blob store")
	}
}

type failingBlobs struct{ blob.Store }

func (failingBlobs) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("disk full")
}

func TestWriteFailureAbortsChange(t *testing.T) {
	store := openLocal(t, failingBlobs{Store: blob.NewMemory()})
	ctx := context.Background()
	if _, err := store.CreateMember(ctx, domain.NewFamilyMember("Riley", 3)); err == nil {
		t.Fatalf("expected write failure")
	}
	members, _ := store.ListMembers(ctx)
	if len(members) != 3 {
		t.Fatalf("failed write should not change state, got %d members", len(members))
	}
}

func TestResetDeletesStoredCollections(t *testing.T) {
	blobs := blob.NewMemory()
	ctx := context.Background()
	_, _ = blobs.Put(ctx, "other/notes.txt", strings.NewReader("keep"), blob.PutOptions{})
	store := openLocal(t, blobs)
	if _, err := store.CreateTemplate(ctx, domain.ChoreTemplate{Name: "Dust", Recurrence: domain.RecurrenceDaily}); err != nil {
		t.Fatalf("create template: %v", err)
	}
	if err := store.DeleteMember(ctx, "2"); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	removed, err := store.Reset(ctx)
	if err != nil || removed != 2 {
		t.Fatalf("reset removed %d (%v), want 2", removed, err)
	}
	if infos, _ := blobs.List(ctx, KeyPrefix); len(infos) != 0 {
		t.Fatalf("stored collections remain: %+v", infos)
	}
	if readBlob(t, blobs, "other/notes.txt") != "keep" {
		t.Fatalf("reset touched unrelated blobs")
	}
	members, _ := store.ListMembers(ctx)
	templates, _ := store.ListTemplates(ctx)
	if len(members) != 3 || len(templates) != 0 {
		t.Fatalf("expected seed state after reset, got %d members %d templates", len(members), len(templates))
	}

	if _, err := store.CreateMember(ctx, domain.NewFamilyMember("Riley", 3)); err != nil {
		t.Fatalf("create after reset: %v", err)
	}
	if !strings.Contains(readBlob(t, blobs, MembersKey), `"Riley"`) {
		t.Fatalf("members not written after reset")
	}
}

type listFailingBlobs struct{ blob.Store }

func (listFailingBlobs) List(context.Context, string) ([]blob.Info, error) {
	return nil, errors.New("denied")
}

func TestResetListFailure(t *testing.T) {
	store := openLocal(t, listFailingBlobs{Store: blob.NewMemory()})
	if _, err := store.Reset(context.Background()); err == nil || !strings.Contains(err.Error(), "denied") {
		t.Fatalf("expected list error, got %v", err)
	}
}
