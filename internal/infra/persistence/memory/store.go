// Package memory provides an in-memory implementation of the chore backend used for
// tests, the REST server's default storage and as the base of the durable stores.
package memory

import (
	"context"
	"fmt"
	"sync"

	"familychores/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.Adapter         = (*Store)(nil)
)

type (
	// FamilyMember aliases domain.FamilyMember for in-memory persistence operations.
	FamilyMember = domain.FamilyMember
	// Chore aliases domain.Chore.
	Chore = domain.Chore
	// ChoreTemplate aliases domain.ChoreTemplate.
	ChoreTemplate = domain.ChoreTemplate
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// RuleView aliases domain.RuleView providing read-only state.
	RuleView = domain.RuleView
)

type memoryState struct {
	members   []FamilyMember
	templates []ChoreTemplate
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Members   []FamilyMember  `json:"members"`
	Templates []ChoreTemplate `json:"templates"`
}

func newMemoryState() memoryState {
	return memoryState{
		members:   []FamilyMember{},
		templates: []ChoreTemplate{},
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for _, m := range s.members {
		cloned.members = append(cloned.members, domain.CloneMember(m))
	}
	for _, t := range s.templates {
		cloned.templates = append(cloned.templates, domain.CloneTemplate(t))
	}
	return cloned
}

func (s *memoryState) memberIndex(id string) int {
	for i, m := range s.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *memoryState) templateIndex(id string) int {
	for i, t := range s.templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// normalizeSnapshot fills nil collections so the state always encodes as arrays.
func normalizeSnapshot(snapshot Snapshot) memoryState {
	state := newMemoryState()
	for _, m := range snapshot.Members {
		m = domain.CloneMember(m)
		if m.Chores == nil {
			m.Chores = []Chore{}
		}
		state.members = append(state.members, m)
	}
	for _, t := range snapshot.Templates {
		t = domain.CloneTemplate(t)
		if t.Days == nil {
			t.Days = []domain.Weekday{}
		}
		state.templates = append(state.templates, t)
	}
	return state
}

// Store provides an in-memory transactional store for the chore domain.
type Store struct {
	mu      sync.RWMutex
	state   memoryState
	engine  *RulesEngine
	today   func() domain.Date
	persist func(Snapshot) error
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		today:  domain.Today,
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := s.state.clone()
	return Snapshot{Members: cloned.members, Templates: cloned.templates}
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = normalizeSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetToday overrides the date used for chores built from templates.
func (s *Store) SetToday(fn func() domain.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.today = fn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) RuleView {
	return transactionView{state: state}
}

// ListMembers returns all members within the snapshot in insertion order.
func (v transactionView) ListMembers() []FamilyMember {
	return domain.CloneMembers(v.state.members)
}

// ListTemplates returns all templates within the snapshot.
func (v transactionView) ListTemplates() []ChoreTemplate {
	return domain.CloneTemplates(v.state.templates)
}

// FindMember retrieves a member by ID from the snapshot.
func (v transactionView) FindMember(id string) (FamilyMember, bool) {
	idx := v.state.memberIndex(id)
	if idx < 0 {
		return FamilyMember{}, false
	}
	return domain.CloneMember(v.state.members[idx]), true
}

// FindTemplate retrieves a template by ID from the snapshot.
func (v transactionView) FindTemplate(id string) (ChoreTemplate, bool) {
	idx := v.state.templateIndex(id)
	if idx < 0 {
		return ChoreTemplate{}, false
	}
	return domain.CloneTemplate(v.state.templates[idx]), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn succeeds and no blocking rule fires.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
	}

	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			s.mu.Unlock()
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			s.mu.Unlock()
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if s.persist != nil && len(tx.changes) > 0 {
		cloned := tx.state.clone()
		if err := s.persist(Snapshot{Members: cloned.members, Templates: cloned.templates}); err != nil {
			s.mu.Unlock()
			return result, fmt.Errorf("persist state: %w", err)
		}
	}

	s.state = tx.state
	s.mu.Unlock()
	return result, nil
}

// SetPersister registers fn to durably write the candidate state of every transaction
// that changed something. A persister error aborts the commit.
func (s *Store) SetPersister(fn func(Snapshot) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = fn
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(RuleView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() RuleView {
	return newTransactionView(&tx.state)
}

// FindMember exposes member lookup within the transaction scope.
func (tx *transaction) FindMember(id string) (FamilyMember, bool) {
	return newTransactionView(&tx.state).FindMember(id)
}

// FindTemplate exposes template lookup within the transaction scope.
func (tx *transaction) FindTemplate(id string) (ChoreTemplate, bool) {
	return newTransactionView(&tx.state).FindTemplate(id)
}

// CreateMember stores a new member within the transaction.
func (tx *transaction) CreateMember(m FamilyMember) (FamilyMember, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if tx.state.memberIndex(m.ID) >= 0 {
		return FamilyMember{}, fmt.Errorf("member %q already exists", m.ID)
	}
	m = domain.CloneMember(m)
	if m.Chores == nil {
		m.Chores = []Chore{}
	}
	for i := range m.Chores {
		if m.Chores[i].ID == "" {
			m.Chores[i].ID = tx.store.newID()
		}
	}
	tx.state.members = append(tx.state.members, m)
	tx.recordChange(Change{Entity: domain.EntityMember, Action: domain.ActionCreate, After: domain.CloneMember(m)})
	return domain.CloneMember(m), nil
}

// DeleteMember removes a member and all of its chores.
func (tx *transaction) DeleteMember(id string) error {
	idx := tx.state.memberIndex(id)
	if idx < 0 {
		return domain.NotFoundError{Entity: domain.EntityMember, ID: id}
	}
	before := tx.state.members[idx]
	tx.state.members = append(tx.state.members[:idx:idx], tx.state.members[idx+1:]...)
	tx.recordChange(Change{Entity: domain.EntityMember, Action: domain.ActionDelete, Before: before})
	return nil
}

// CreateTemplate stores a new template.
func (tx *transaction) CreateTemplate(t ChoreTemplate) (ChoreTemplate, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if tx.state.templateIndex(t.ID) >= 0 {
		return ChoreTemplate{}, fmt.Errorf("template %q already exists", t.ID)
	}
	t = domain.CloneTemplate(t)
	if t.Days == nil {
		t.Days = []domain.Weekday{}
	}
	tx.state.templates = append(tx.state.templates, t)
	tx.recordChange(Change{Entity: domain.EntityTemplate, Action: domain.ActionCreate, After: domain.CloneTemplate(t)})
	return domain.CloneTemplate(t), nil
}

// DeleteTemplate removes a template. Chores already assigned from it are kept.
func (tx *transaction) DeleteTemplate(id string) error {
	idx := tx.state.templateIndex(id)
	if idx < 0 {
		return domain.NotFoundError{Entity: domain.EntityTemplate, ID: id}
	}
	before := tx.state.templates[idx]
	tx.state.templates = append(tx.state.templates[:idx:idx], tx.state.templates[idx+1:]...)
	tx.recordChange(Change{Entity: domain.EntityTemplate, Action: domain.ActionDelete, Before: before})
	return nil
}

// CreateChore appends a chore to the member's list.
func (tx *transaction) CreateChore(memberID string, c Chore) (Chore, error) {
	idx := tx.state.memberIndex(memberID)
	if idx < 0 {
		return Chore{}, domain.NotFoundError{Entity: domain.EntityMember, ID: memberID}
	}
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	member := &tx.state.members[idx]
	if _, _, exists := member.FindChore(c.ID); exists {
		return Chore{}, fmt.Errorf("chore %q already exists for member %q", c.ID, memberID)
	}
	c = domain.CloneChore(c)
	member.Chores = append(member.Chores, c)
	tx.recordChange(Change{Entity: domain.EntityChore, Action: domain.ActionCreate, After: domain.CloneChore(c)})
	return domain.CloneChore(c), nil
}

// UpdateChore mutates a chore using the provided mutator function.
func (tx *transaction) UpdateChore(memberID, choreID string, mutator func(*Chore) error) (Chore, error) {
	idx := tx.state.memberIndex(memberID)
	if idx < 0 {
		return Chore{}, domain.NotFoundError{Entity: domain.EntityMember, ID: memberID}
	}
	member := &tx.state.members[idx]
	current, pos, ok := member.FindChore(choreID)
	if !ok {
		return Chore{}, domain.NotFoundError{Entity: domain.EntityChore, ID: choreID}
	}
	before := domain.CloneChore(current)
	if err := mutator(&current); err != nil {
		return Chore{}, err
	}
	current.ID = choreID
	member.Chores[pos] = domain.CloneChore(current)
	tx.recordChange(Change{Entity: domain.EntityChore, Action: domain.ActionUpdate, Before: before, After: domain.CloneChore(current)})
	return domain.CloneChore(current), nil
}

// DeleteChore removes a chore from the member's list.
func (tx *transaction) DeleteChore(memberID, choreID string) error {
	idx := tx.state.memberIndex(memberID)
	if idx < 0 {
		return domain.NotFoundError{Entity: domain.EntityMember, ID: memberID}
	}
	member := &tx.state.members[idx]
	current, pos, ok := member.FindChore(choreID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityChore, ID: choreID}
	}
	member.Chores = append(member.Chores[:pos:pos], member.Chores[pos+1:]...)
	tx.recordChange(Change{Entity: domain.EntityChore, Action: domain.ActionDelete, Before: current})
	return nil
}

// MoveChore removes a chore from one member and appends the same chore (same id) to another.
func (tx *transaction) MoveChore(fromID, toID, choreID string) error {
	fromIdx := tx.state.memberIndex(fromID)
	if fromIdx < 0 {
		return domain.NotFoundError{Entity: domain.EntityMember, ID: fromID}
	}
	toIdx := tx.state.memberIndex(toID)
	if toIdx < 0 {
		return domain.NotFoundError{Entity: domain.EntityMember, ID: toID}
	}
	from := &tx.state.members[fromIdx]
	chore, pos, ok := from.FindChore(choreID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityChore, ID: choreID}
	}
	from.Chores = append(from.Chores[:pos:pos], from.Chores[pos+1:]...)
	to := &tx.state.members[toIdx]
	to.Chores = append(to.Chores, chore)
	tx.recordChange(Change{Entity: domain.EntityChore, Action: domain.ActionUpdate, Before: chore, After: chore})
	return nil
}

// ListMembers returns all members in insertion order.
func (s *Store) ListMembers(_ context.Context) ([]FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneMembers(s.state.members), nil
}

// ListTemplates returns all templates in insertion order.
func (s *Store) ListTemplates(_ context.Context) ([]ChoreTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneTemplates(s.state.templates), nil
}

// GetMember retrieves a member by ID.
func (s *Store) GetMember(id string) (FamilyMember, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newTransactionView(&s.state).FindMember(id)
}

// CreateMember persists a new member, assigning an id when absent.
func (s *Store) CreateMember(ctx context.Context, member FamilyMember) (FamilyMember, error) {
	var created FamilyMember
	member.ID = ""
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateMember(member)
		return err
	})
	return created, err
}

// DeleteMember removes a member record and its chores.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteMember(id)
	})
	return err
}

// CreateTemplate persists a new template.
func (s *Store) CreateTemplate(ctx context.Context, template ChoreTemplate) (ChoreTemplate, error) {
	var created ChoreTemplate
	template.ID = ""
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateTemplate(template)
		return err
	})
	return created, err
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteTemplate(id)
	})
	return err
}

// AssignFromTemplate creates a fresh chore from the template for the member, due today.
func (s *Store) AssignFromTemplate(ctx context.Context, templateID, memberID string) (Chore, error) {
	s.mu.RLock()
	today := s.today
	s.mu.RUnlock()
	var created Chore
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		if _, ok := tx.FindMember(memberID); !ok {
			return domain.NotFoundError{Entity: domain.EntityMember, ID: memberID}
		}
		template, ok := tx.FindTemplate(templateID)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityTemplate, ID: templateID}
		}
		var err error
		created, err = tx.CreateChore(memberID, template.NewChore(today()))
		return err
	})
	return created, err
}

// CreateChore persists a manually added chore.
func (s *Store) CreateChore(ctx context.Context, memberID string, chore Chore) (Chore, error) {
	var created Chore
	chore.ID = ""
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateChore(memberID, chore)
		return err
	})
	return created, err
}

// UpdateChore replaces the stored chore with the supplied record.
func (s *Store) UpdateChore(ctx context.Context, memberID, choreID string, chore Chore) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateChore(memberID, choreID, func(c *Chore) error {
			*c = domain.CloneChore(chore)
			return nil
		})
		return err
	})
	return err
}

// DeleteChore removes a chore from a member.
func (s *Store) DeleteChore(ctx context.Context, memberID, choreID string) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteChore(memberID, choreID)
	})
	return err
}

// ReassignChore moves a chore between members, preserving its id.
func (s *Store) ReassignChore(ctx context.Context, fromID, toID, choreID string) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.MoveChore(fromID, toID, choreID)
	})
	return err
}
