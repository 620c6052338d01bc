package core

import (
	"context"
	"familychores/pkg/domain"
	"fmt"
	"sync"
	"time"
)

// Failure messages shown through the ErrorReporter, one per operation kind.
const (
	MsgAddMember      = "Failed to add family member"
	MsgDeleteMember   = "Failed to delete family member"
	MsgAddTemplate    = "Failed to add chore template"
	MsgDeleteTemplate = "Failed to delete chore template"
	MsgAssignChore    = "Failed to assign chore"
	MsgAddChore       = "Failed to add chore"
	MsgToggleChore    = "Failed to toggle chore"
	MsgReassignChore  = "Failed to reassign chore"
	MsgUnassignChore  = "Failed to unassign chore"
	MsgEditChore      = "Failed to edit chore"
)

// Service coordinates every mutation: it guards the loading key, applies the change
// optimistically to the Store, calls the adapter and either commits the canonical
// result or restores the pre-mutation snapshot.
//
// Operations touching the same collection run one at a time, so a rollback never
// discards another operation's committed change. A duplicate of an in-flight
// operation is rejected before it waits.
type Service struct {
	store   *Store
	adapter domain.Adapter
	loading *LoadingRegistry
	errors  *ErrorReporter

	logger   Logger
	clock    Clock
	metrics  MetricsRecorder
	tracer   Tracer
	errorTTL time.Duration
	schedule Scheduler
	newID    func() string

	membersMu   sync.Mutex
	templatesMu sync.Mutex
}

// NewService wires a coordinator over store and adapter. A nil store is replaced by an empty one.
func NewService(store *Store, adapter domain.Adapter, opts ...ServiceOption) *Service {
	if store == nil {
		store = NewStore()
	}
	s := &Service{
		store:   store,
		adapter: adapter,
		loading: NewLoadingRegistry(),
		logger:  noopLogger{},
		clock:   ClockFunc(nil),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		newID:   provisionalID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errors = NewErrorReporter(s.errorTTL, s.schedule)
	return s
}

// Store returns the state the service mutates.
func (s *Service) Store() *Store { return s.store }

// Loading returns the registry of in-flight operation keys.
func (s *Service) Loading() *LoadingRegistry { return s.loading }

// Errors returns the reporter holding the latest failure message.
func (s *Service) Errors() *ErrorReporter { return s.errors }

// Today returns the calendar date of the service clock.
func (s *Service) Today() Date { return domain.DateOf(s.clock.Now()) }

// DueToday lists, per member id, the chores due on the service clock's date.
func (s *Service) DueToday() map[string][]Chore {
	return s.store.DueToday(s.clock.Now())
}

// Load fetches members and templates once. A collection that cannot be fetched
// falls back to the seed dataset.
func (s *Service) Load(ctx context.Context) {
	members, err := s.adapter.ListMembers(ctx)
	if err != nil {
		s.logger.Warn("loading family members failed, using seed data", "error", err)
		members = domain.SeedMembers(s.Today())
	}
	templates, err := s.adapter.ListTemplates(ctx)
	if err != nil {
		s.logger.Warn("loading chore templates failed, using seed data", "error", err)
		templates = domain.SeedTemplates()
	}
	s.store.Replace(members, templates)
	s.logger.Info("state loaded", "members", len(members), "templates", len(templates))
}

type step[T any] struct {
	op      Operation
	ids     []string
	message string
	touches collection
	// apply mutates the store optimistically; on error nothing was changed.
	apply  func() error
	remote func(ctx context.Context) (T, error)
	// commit reconciles the adapter result with the optimistic state.
	commit func(T) T
}

func run[T any](ctx context.Context, s *Service, st step[T]) (T, error) {
	var zero T
	key := LoadingKey(st.op, st.ids...)
	if !s.loading.TryAcquire(key) {
		s.logger.Debug("operation already in flight", "key", key)
		return zero, fmt.Errorf("%s: %w", key, domain.ErrInFlight)
	}
	defer s.loading.Release(key)
	s.errors.Clear()

	unlock := s.lock(st.touches)
	defer unlock()

	ctx, span := s.tracer.Start(ctx, string(st.op))
	if rec, ok := s.metrics.(InFlightRecorder); ok {
		rec.Started(string(st.op))
		defer rec.Finished(string(st.op))
	}
	start := time.Now()
	finish := func(err error) {
		span.End(err)
		s.metrics.Observe(ctx, string(st.op), err == nil, time.Since(start))
		if err != nil {
			s.logger.Warn("operation failed", "operation", st.op, "key", key, "error", err)
			return
		}
		s.logger.Debug("operation completed", "operation", st.op, "key", key, "duration", time.Since(start))
	}

	before := s.store.snapshot(st.touches)
	if err := st.apply(); err != nil {
		s.errors.Set(st.message)
		finish(err)
		return zero, err
	}
	result, err := st.remote(ctx)
	if err != nil {
		s.store.restore(st.touches, before)
		err = domain.RemoteError{Op: string(st.op), Err: err}
		s.errors.Set(st.message)
		finish(err)
		return zero, err
	}
	if st.commit != nil {
		result = st.commit(result)
	}
	finish(nil)
	return result, nil
}

func (s *Service) lock(which collection) func() {
	if which&collTemplates != 0 {
		s.templatesMu.Lock()
	}
	if which&collMembers != 0 {
		s.membersMu.Lock()
	}
	return func() {
		if which&collMembers != 0 {
			s.membersMu.Unlock()
		}
		if which&collTemplates != 0 {
			s.templatesMu.Unlock()
		}
	}
}

func done(err error) (struct{}, error) { return struct{}{}, err }

// AddFamilyMember appends a member with its derived initial and palette color.
// Callers reject blank names before calling.
func (s *Service) AddFamilyMember(ctx context.Context, name string) (FamilyMember, error) {
	provisional := s.newID()
	var optimistic FamilyMember
	return run(ctx, s, step[FamilyMember]{
		op:      OpAddMember,
		ids:     []string{name},
		message: MsgAddMember,
		touches: collMembers,
		apply: func() error {
			return s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
				optimistic = domain.NewFamilyMember(name, len(members))
				optimistic.ID = provisional
				return append(members, domain.CloneMember(optimistic)), nil
			})
		},
		remote: func(ctx context.Context) (FamilyMember, error) {
			req := domain.CloneMember(optimistic)
			req.ID = ""
			return s.adapter.CreateMember(ctx, req)
		},
		commit: func(created FamilyMember) FamilyMember {
			if created.ID == "" {
				return optimistic
			}
			if created.Chores == nil {
				created.Chores = []Chore{}
			}
			s.replaceMember(provisional, created)
			return created
		},
	})
}

// DeleteFamilyMember removes a member together with all of its chores.
func (s *Service) DeleteFamilyMember(ctx context.Context, id string) error {
	_, err := run(ctx, s, step[struct{}]{
		op:      OpDeleteMember,
		ids:     []string{id},
		message: MsgDeleteMember,
		touches: collMembers,
		apply: func() error {
			return s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
				i := indexMember(members, id)
				if i < 0 {
					return nil, domain.NotFoundError{Entity: EntityMember, ID: id}
				}
				return append(members[:i], members[i+1:]...), nil
			})
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return done(s.adapter.DeleteMember(ctx, id))
		},
	})
	return err
}

// AddChoreTemplate appends a template. Any id on tpl is ignored.
func (s *Service) AddChoreTemplate(ctx context.Context, tpl ChoreTemplate) (ChoreTemplate, error) {
	provisional := s.newID()
	optimistic := domain.CloneTemplate(tpl)
	optimistic.ID = provisional
	if optimistic.Days == nil {
		optimistic.Days = []Weekday{}
	}
	return run(ctx, s, step[ChoreTemplate]{
		op:      OpAddTemplate,
		ids:     []string{tpl.Name},
		message: MsgAddTemplate,
		touches: collTemplates,
		apply: func() error {
			return s.store.mutateTemplates(func(templates []ChoreTemplate) ([]ChoreTemplate, error) {
				return append(templates, domain.CloneTemplate(optimistic)), nil
			})
		},
		remote: func(ctx context.Context) (ChoreTemplate, error) {
			req := domain.CloneTemplate(optimistic)
			req.ID = ""
			return s.adapter.CreateTemplate(ctx, req)
		},
		commit: func(created ChoreTemplate) ChoreTemplate {
			if created.ID == "" {
				return optimistic
			}
			_ = s.store.mutateTemplates(func(templates []ChoreTemplate) ([]ChoreTemplate, error) {
				if i := indexTemplate(templates, provisional); i >= 0 {
					templates[i] = domain.CloneTemplate(created)
				}
				return templates, nil
			})
			return created
		},
	})
}

// DeleteChoreTemplate removes a template. Chores already assigned from it stay.
func (s *Service) DeleteChoreTemplate(ctx context.Context, id string) error {
	_, err := run(ctx, s, step[struct{}]{
		op:      OpDeleteTemplate,
		ids:     []string{id},
		message: MsgDeleteTemplate,
		touches: collTemplates,
		apply: func() error {
			return s.store.mutateTemplates(func(templates []ChoreTemplate) ([]ChoreTemplate, error) {
				i := indexTemplate(templates, id)
				if i < 0 {
					return nil, domain.NotFoundError{Entity: EntityTemplate, ID: id}
				}
				return append(templates[:i], templates[i+1:]...), nil
			})
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return done(s.adapter.DeleteTemplate(ctx, id))
		},
	})
	return err
}

// AssignChoreFromTemplate gives the member a new open chore built from the template,
// due today.
func (s *Service) AssignChoreFromTemplate(ctx context.Context, templateID, memberID string) (Chore, error) {
	provisional := s.newID()
	var optimistic Chore
	return run(ctx, s, step[Chore]{
		op:      OpAssignChore,
		ids:     []string{templateID, memberID},
		message: MsgAssignChore,
		touches: collTemplates | collMembers,
		apply: func() error {
			tpl, err := s.store.FindTemplate(templateID)
			if err != nil {
				return err
			}
			optimistic = tpl.NewChore(s.Today())
			optimistic.ID = provisional
			return s.appendChore(memberID, optimistic)
		},
		remote: func(ctx context.Context) (Chore, error) {
			return s.adapter.AssignFromTemplate(ctx, templateID, memberID)
		},
		commit: func(created Chore) Chore {
			return s.settleChore(memberID, provisional, optimistic, created)
		},
	})
}

// AddChore appends a manually defined chore to the member. A zero due date means today.
func (s *Service) AddChore(ctx context.Context, memberID string, chore Chore) (Chore, error) {
	provisional := s.newID()
	optimistic := domain.CloneChore(chore)
	optimistic.ID = provisional
	if optimistic.DueDate.IsZero() {
		optimistic.DueDate = s.Today()
	}
	return run(ctx, s, step[Chore]{
		op:      OpAddChore,
		ids:     []string{memberID},
		message: MsgAddChore,
		touches: collMembers,
		apply: func() error {
			return s.appendChore(memberID, optimistic)
		},
		remote: func(ctx context.Context) (Chore, error) {
			req := domain.CloneChore(optimistic)
			req.ID = ""
			return s.adapter.CreateChore(ctx, memberID, req)
		},
		commit: func(created Chore) Chore {
			return s.settleChore(memberID, provisional, optimistic, created)
		},
	})
}

// ToggleChore flips the chore's completed flag.
func (s *Service) ToggleChore(ctx context.Context, memberID, choreID string) error {
	var updated Chore
	_, err := run(ctx, s, step[struct{}]{
		op:      OpToggleChore,
		ids:     []string{memberID, choreID},
		message: MsgToggleChore,
		touches: collMembers,
		apply: func() error {
			return s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
				i, j, err := locateChore(members, memberID, choreID)
				if err != nil {
					return nil, err
				}
				members[i].Chores[j].Completed = !members[i].Chores[j].Completed
				updated = domain.CloneChore(members[i].Chores[j])
				return members, nil
			})
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return done(s.adapter.UpdateChore(ctx, memberID, choreID, updated))
		},
	})
	return err
}

// EditChore merges the non-nil fields of update into the chore.
func (s *Service) EditChore(ctx context.Context, memberID, choreID string, update ChoreUpdate) error {
	var updated Chore
	_, err := run(ctx, s, step[struct{}]{
		op:      OpEditChore,
		ids:     []string{memberID, choreID},
		message: MsgEditChore,
		touches: collMembers,
		apply: func() error {
			return s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
				i, j, err := locateChore(members, memberID, choreID)
				if err != nil {
					return nil, err
				}
				members[i].Chores[j] = update.Apply(members[i].Chores[j])
				updated = domain.CloneChore(members[i].Chores[j])
				return members, nil
			})
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return done(s.adapter.UpdateChore(ctx, memberID, choreID, updated))
		},
	})
	return err
}

// ReassignChore moves a chore, id and state intact, to the end of another member's list.
func (s *Service) ReassignChore(ctx context.Context, fromID, toID, choreID string) error {
	_, err := run(ctx, s, step[struct{}]{
		op:      OpReassignChore,
		ids:     []string{fromID, toID, choreID},
		message: MsgReassignChore,
		touches: collMembers,
		apply: func() error {
			return s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
				to := indexMember(members, toID)
				if to < 0 {
					return nil, domain.NotFoundError{Entity: EntityMember, ID: toID}
				}
				from, j, err := locateChore(members, fromID, choreID)
				if err != nil {
					return nil, err
				}
				chore := members[from].Chores[j]
				members[from].Chores = append(members[from].Chores[:j], members[from].Chores[j+1:]...)
				members[to].Chores = append(members[to].Chores, chore)
				return members, nil
			})
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return done(s.adapter.ReassignChore(ctx, fromID, toID, choreID))
		},
	})
	return err
}

// UnassignChore deletes the chore from its member.
func (s *Service) UnassignChore(ctx context.Context, memberID, choreID string) error {
	_, err := run(ctx, s, step[struct{}]{
		op:      OpUnassignChore,
		ids:     []string{memberID, choreID},
		message: MsgUnassignChore,
		touches: collMembers,
		apply: func() error {
			return s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
				i, j, err := locateChore(members, memberID, choreID)
				if err != nil {
					return nil, err
				}
				members[i].Chores = append(members[i].Chores[:j], members[i].Chores[j+1:]...)
				return members, nil
			})
		},
		remote: func(ctx context.Context) (struct{}, error) {
			return done(s.adapter.DeleteChore(ctx, memberID, choreID))
		},
	})
	return err
}

func (s *Service) appendChore(memberID string, chore Chore) error {
	return s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
		i := indexMember(members, memberID)
		if i < 0 {
			return nil, domain.NotFoundError{Entity: EntityMember, ID: memberID}
		}
		members[i].Chores = append(members[i].Chores, domain.CloneChore(chore))
		return members, nil
	})
}

// settleChore swaps the provisional chore for the adapter's record when it has an id.
func (s *Service) settleChore(memberID, provisional string, optimistic, created Chore) Chore {
	if created.ID == "" {
		return optimistic
	}
	_ = s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
		if i, j, err := locateChore(members, memberID, provisional); err == nil {
			members[i].Chores[j] = domain.CloneChore(created)
		}
		return members, nil
	})
	return created
}

func (s *Service) replaceMember(provisional string, created FamilyMember) {
	_ = s.store.mutateMembers(func(members []FamilyMember) ([]FamilyMember, error) {
		if i := indexMember(members, provisional); i >= 0 {
			members[i] = domain.CloneMember(created)
		}
		return members, nil
	})
}

func locateChore(members []FamilyMember, memberID, choreID string) (int, int, error) {
	i := indexMember(members, memberID)
	if i < 0 {
		return -1, -1, domain.NotFoundError{Entity: EntityMember, ID: memberID}
	}
	_, j, ok := members[i].FindChore(choreID)
	if !ok {
		return -1, -1, domain.NotFoundError{Entity: EntityChore, ID: choreID}
	}
	return i, j, nil
}
