package core

import (
	"sort"
	"strings"
	"sync"
)

// Operation names a coordinator operation. It is the prefix of every loading key.
type Operation string

// Coordinator operations.
const (
	OpAddMember      Operation = "addMember"
	OpDeleteMember   Operation = "deleteMember"
	OpAddTemplate    Operation = "addTemplate"
	OpDeleteTemplate Operation = "deleteTemplate"
	OpAssignChore    Operation = "assignChore"
	OpAddChore       Operation = "addChore"
	OpToggleChore    Operation = "toggleChore"
	OpReassignChore  Operation = "reassignChore"
	OpUnassignChore  Operation = "unassignChore"
	OpEditChore      Operation = "editChore"
)

// LoadingKey builds the "<op>-<id>[-<id>...]" key identifying one in-flight operation.
func LoadingKey(op Operation, ids ...string) string {
	var b strings.Builder
	b.WriteString(string(op))
	for _, id := range ids {
		b.WriteByte('-')
		b.WriteString(id)
	}
	return b.String()
}

// LoadingRegistry tracks which operation keys are in flight. Keys are independent.
type LoadingRegistry struct {
	mu   sync.Mutex
	busy map[string]bool
}

// NewLoadingRegistry returns an empty registry.
func NewLoadingRegistry() *LoadingRegistry {
	return &LoadingRegistry{busy: make(map[string]bool)}
}

// TryAcquire marks key busy. It returns false when key is already busy.
func (r *LoadingRegistry) TryAcquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy[key] {
		return false
	}
	r.busy[key] = true
	return true
}

// Release clears key. Releasing an idle key is a no-op.
func (r *LoadingRegistry) Release(key string) {
	r.mu.Lock()
	delete(r.busy, key)
	r.mu.Unlock()
}

// IsLoading reports whether key is in flight.
func (r *LoadingRegistry) IsLoading(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy[key]
}

// Snapshot returns a copy of the busy keys.
func (r *LoadingRegistry) Snapshot() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]bool, len(r.busy))
	for k, v := range r.busy {
		out[k] = v
	}
	return out
}

// Keys returns the busy keys in lexical order.
func (r *LoadingRegistry) Keys() []string {
	r.mu.Lock()
	keys := make([]string, 0, len(r.busy))
	for k := range r.busy {
		keys = append(keys, k)
	}
	r.mu.Unlock()
	sort.Strings(keys)
	return keys
}
