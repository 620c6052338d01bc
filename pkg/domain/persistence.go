package domain

import "context"

// Adapter is the boundary to the system of record. Implementations may talk to a
// REST backend, keep durable local state, or hold everything in memory.
// Any failure is reported as a non-nil error; callers do not parse the reason.
type Adapter interface {
	ListMembers(ctx context.Context) ([]FamilyMember, error)
	ListTemplates(ctx context.Context) ([]ChoreTemplate, error)
	// CreateMember stores a member and returns it with its canonical id.
	CreateMember(ctx context.Context, member FamilyMember) (FamilyMember, error)
	DeleteMember(ctx context.Context, id string) error
	CreateTemplate(ctx context.Context, template ChoreTemplate) (ChoreTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
	// AssignFromTemplate builds a new chore from the template on the backend and returns it.
	AssignFromTemplate(ctx context.Context, templateID, memberID string) (Chore, error)
	CreateChore(ctx context.Context, memberID string, chore Chore) (Chore, error)
	UpdateChore(ctx context.Context, memberID, choreID string, chore Chore) error
	DeleteChore(ctx context.Context, memberID, choreID string) error
	ReassignChore(ctx context.Context, fromID, toID, choreID string) error
}

// Transaction exposes the mutations a backend applies within an atomic scope.
type Transaction interface {
	Snapshot() RuleView
	CreateMember(FamilyMember) (FamilyMember, error)
	DeleteMember(id string) error
	CreateTemplate(ChoreTemplate) (ChoreTemplate, error)
	DeleteTemplate(id string) error
	CreateChore(memberID string, chore Chore) (Chore, error)
	UpdateChore(memberID, choreID string, mutator func(*Chore) error) (Chore, error)
	DeleteChore(memberID, choreID string) error
	MoveChore(fromID, toID, choreID string) error
	FindMember(id string) (FamilyMember, bool)
	FindTemplate(id string) (ChoreTemplate, bool)
}

// PersistentStore is a transactional backend that also satisfies Adapter.
type PersistentStore interface {
	Adapter
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(RuleView) error) error
}
