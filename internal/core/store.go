package core

import (
	"familychores/pkg/domain"
	"sync"
	"time"
)

// Snapshot is a deep copy of the store's collections.
type Snapshot struct {
	Members   []FamilyMember
	Templates []ChoreTemplate
}

// collection selects which part of the store an operation touches.
type collection uint8

const (
	collMembers collection = 1 << iota
	collTemplates
)

// Store is the in-memory mirror of members and templates the UI renders from.
// Readers always receive deep copies. Writes go through the Service.
type Store struct {
	mu        sync.RWMutex
	members   []FamilyMember
	templates []ChoreTemplate

	subMu  sync.Mutex
	subSeq int
	subs   map[int]func(Snapshot)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		members:   []FamilyMember{},
		templates: []ChoreTemplate{},
		subs:      make(map[int]func(Snapshot)),
	}
}

// Replace swaps in a full state, typically the result of the startup load.
func (s *Store) Replace(members []FamilyMember, templates []ChoreTemplate) {
	s.mu.Lock()
	s.members = normalizeMembers(members)
	s.templates = normalizeTemplates(templates)
	s.mu.Unlock()
	s.notify()
}

func normalizeMembers(in []FamilyMember) []FamilyMember {
	out := domain.CloneMembers(in)
	if out == nil {
		return []FamilyMember{}
	}
	for i := range out {
		if out[i].Chores == nil {
			out[i].Chores = []Chore{}
		}
	}
	return out
}

func normalizeTemplates(in []ChoreTemplate) []ChoreTemplate {
	out := domain.CloneTemplates(in)
	if out == nil {
		return []ChoreTemplate{}
	}
	return out
}

// ListMembers returns every member in order, chores included.
func (s *Store) ListMembers() []FamilyMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneMembers(s.members)
}

// ListTemplates returns every template in order.
func (s *Store) ListTemplates() []ChoreTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneTemplates(s.templates)
}

// FindMember looks a member up by id.
func (s *Store) FindMember(id string) (FamilyMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexMember(s.members, id)
	if i < 0 {
		return FamilyMember{}, domain.NotFoundError{Entity: EntityMember, ID: id}
	}
	return domain.CloneMember(s.members[i]), nil
}

// FindChore looks a chore up within its owning member.
func (s *Store) FindChore(memberID, choreID string) (Chore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexMember(s.members, memberID)
	if i < 0 {
		return Chore{}, domain.NotFoundError{Entity: EntityMember, ID: memberID}
	}
	chore, _, ok := s.members[i].FindChore(choreID)
	if !ok {
		return Chore{}, domain.NotFoundError{Entity: EntityChore, ID: choreID}
	}
	return domain.CloneChore(chore), nil
}

// FindTemplate looks a template up by id.
func (s *Store) FindTemplate(id string) (ChoreTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexTemplate(s.templates, id)
	if i < 0 {
		return ChoreTemplate{}, domain.NotFoundError{Entity: EntityTemplate, ID: id}
	}
	return domain.CloneTemplate(s.templates[i]), nil
}

// DueToday maps each member id to the chores due on day, in list order.
// Members with nothing due are omitted.
func (s *Store) DueToday(day time.Time) map[string][]Chore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	due := make(map[string][]Chore)
	for _, m := range s.members {
		for _, c := range m.Chores {
			if c.DueOn(day) {
				due[m.ID] = append(due[m.ID], domain.CloneChore(c))
			}
		}
	}
	return due
}

// Snapshot returns a deep copy of both collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Members:   domain.CloneMembers(s.members),
		Templates: domain.CloneTemplates(s.templates),
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.subSeq
	s.subSeq++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	if len(fns) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// snapshot deep-copies the selected collections for rollback.
func (s *Store) snapshot(which collection) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var snap Snapshot
	if which&collMembers != 0 {
		snap.Members = domain.CloneMembers(s.members)
	}
	if which&collTemplates != 0 {
		snap.Templates = domain.CloneTemplates(s.templates)
	}
	return snap
}

// restore puts back the collections captured by snapshot(which).
func (s *Store) restore(which collection, snap Snapshot) {
	s.mu.Lock()
	if which&collMembers != 0 {
		s.members = domain.CloneMembers(snap.Members)
	}
	if which&collTemplates != 0 {
		s.templates = domain.CloneTemplates(snap.Templates)
	}
	s.mu.Unlock()
	s.notify()
}

// mutateMembers applies fn to a working copy of the members and installs the
// result only when fn succeeds.
func (s *Store) mutateMembers(fn func([]FamilyMember) ([]FamilyMember, error)) error {
	s.mu.Lock()
	next, err := fn(domain.CloneMembers(s.members))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.members = next
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) mutateTemplates(fn func([]ChoreTemplate) ([]ChoreTemplate, error)) error {
	s.mu.Lock()
	next, err := fn(domain.CloneTemplates(s.templates))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.templates = next
	s.mu.Unlock()
	s.notify()
	return nil
}

func indexMember(members []FamilyMember, id string) int {
	for i, m := range members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func indexTemplate(templates []ChoreTemplate, id string) int {
	for i, t := range templates {
		if t.ID == id {
			return i
		}
	}
	return -1
}
