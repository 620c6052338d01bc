package core

import (
	"context"
	"errors"
	"familychores/internal/infra/persistence/memory"
	"familychores/pkg/domain"
	"sync"
	"testing"
	"time"
)

// 2024-06-01 is a Saturday.
var fixedNow = time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

var fixedToday = domain.DateOf(fixedNow)

var errBackend = errors.New("backend unavailable")

// fakeAdapter is a memory backend with per-method failure injection and an optional
// gate that holds calls until released.
type fakeAdapter struct {
	*memory.Store

	mu      sync.Mutex
	fail    map[string]error
	gate    chan struct{}
	entered chan string
	calls   []string
}

func newFakeAdapter(t *testing.T, seed bool) *fakeAdapter {
	t.Helper()
	backend := memory.NewStore(NewDefaultRulesEngine())
	backend.SetToday(func() domain.Date { return fixedToday })
	if seed {
		backend.ImportState(memory.Snapshot{Members: domain.SeedMembers(fixedToday)})
	}
	return &fakeAdapter{Store: backend, fail: make(map[string]error)}
}

func (f *fakeAdapter) failOn(method string, err error) {
	f.mu.Lock()
	f.fail[method] = err
	f.mu.Unlock()
}

func (f *fakeAdapter) failAll(err error) {
	for _, m := range []string{"ListMembers", "ListTemplates", "CreateMember", "DeleteMember",
		"CreateTemplate", "DeleteTemplate", "AssignFromTemplate", "CreateChore",
		"UpdateChore", "DeleteChore", "ReassignChore"} {
		f.failOn(m, err)
	}
}

// hold makes subsequent calls block until the returned release func runs.
// Each blocked call is announced on entered.
func (f *fakeAdapter) hold() (entered <-chan string, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan string, 16)
	gate := f.gate
	var once sync.Once
	return f.entered, func() { once.Do(func() { close(gate) }) }
}

func (f *fakeAdapter) hook(method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	err := f.fail[method]
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- method
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeAdapter) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeAdapter) ListMembers(ctx context.Context) ([]FamilyMember, error) {
	if err := f.hook("ListMembers"); err != nil {
		return nil, err
	}
	return f.Store.ListMembers(ctx)
}

func (f *fakeAdapter) ListTemplates(ctx context.Context) ([]ChoreTemplate, error) {
	if err := f.hook("ListTemplates"); err != nil {
		return nil, err
	}
	return f.Store.ListTemplates(ctx)
}

func (f *fakeAdapter) CreateMember(ctx context.Context, m FamilyMember) (FamilyMember, error) {
	if err := f.hook("CreateMember"); err != nil {
		return FamilyMember{}, err
	}
	return f.Store.CreateMember(ctx, m)
}

func (f *fakeAdapter) DeleteMember(ctx context.Context, id string) error {
	if err := f.hook("DeleteMember"); err != nil {
		return err
	}
	return f.Store.DeleteMember(ctx, id)
}

func (f *fakeAdapter) CreateTemplate(ctx context.Context, t ChoreTemplate) (ChoreTemplate, error) {
	if err := f.hook("CreateTemplate"); err != nil {
		return ChoreTemplate{}, err
	}
	return f.Store.CreateTemplate(ctx, t)
}

func (f *fakeAdapter) DeleteTemplate(ctx context.Context, id string) error {
	if err := f.hook("DeleteTemplate"); err != nil {
		return err
	}
	return f.Store.DeleteTemplate(ctx, id)
}

func (f *fakeAdapter) AssignFromTemplate(ctx context.Context, templateID, memberID string) (Chore, error) {
	if err := f.hook("AssignFromTemplate"); err != nil {
		return Chore{}, err
	}
	return f.Store.AssignFromTemplate(ctx, templateID, memberID)
}

func (f *fakeAdapter) CreateChore(ctx context.Context, memberID string, c Chore) (Chore, error) {
	if err := f.hook("CreateChore"); err != nil {
		return Chore{}, err
	}
	return f.Store.CreateChore(ctx, memberID, c)
}

func (f *fakeAdapter) UpdateChore(ctx context.Context, memberID, choreID string, c Chore) error {
	if err := f.hook("UpdateChore"); err != nil {
		return err
	}
	return f.Store.UpdateChore(ctx, memberID, choreID, c)
}

func (f *fakeAdapter) DeleteChore(ctx context.Context, memberID, choreID string) error {
	if err := f.hook("DeleteChore"); err != nil {
		return err
	}
	return f.Store.DeleteChore(ctx, memberID, choreID)
}

func (f *fakeAdapter) ReassignChore(ctx context.Context, fromID, toID, choreID string) error {
	if err := f.hook("ReassignChore"); err != nil {
		return err
	}
	return f.Store.ReassignChore(ctx, fromID, toID, choreID)
}

// manualScheduler captures error-clear callbacks so tests decide when they fire.
type manualScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

func (m *manualScheduler) schedule(delay time.Duration, fn func()) {
	m.mu.Lock()
	m.delays = append(m.delays, delay)
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

// fire runs the callback scheduled at position i.
func (m *manualScheduler) fire(i int) {
	m.mu.Lock()
	fn := m.pending[i]
	m.mu.Unlock()
	fn()
}

func (m *manualScheduler) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// newTestService returns a loaded service over a seeded fake adapter.
func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *fakeAdapter, *manualScheduler) {
	t.Helper()
	adapter := newFakeAdapter(t, true)
	sched := &manualScheduler{}
	base := []ServiceOption{
		WithClock(ClockFunc(func() time.Time { return fixedNow })),
		WithScheduler(sched.schedule),
	}
	svc := NewService(NewStore(), adapter, append(base, opts...)...)
	svc.Load(context.Background())
	return svc, adapter, sched
}

func memorySnapshot(members []FamilyMember, templates []ChoreTemplate) memory.Snapshot {
	return memory.Snapshot{Members: members, Templates: templates}
}

// memorySnapshotWithTemplate is the seed household plus template t1.
func memorySnapshotWithTemplate() memory.Snapshot {
	return memorySnapshot(domain.SeedMembers(fixedToday), []ChoreTemplate{
		{ID: "t1", Name: "Make bed", Recurrence: domain.RecurrenceDaily, Days: []Weekday{}},
	})
}
