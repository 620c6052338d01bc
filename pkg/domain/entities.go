// Package domain defines the household chore entities, value types, and
// rule evaluation primitives shared by the coordinator and its backends.
package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// EntityType identifies the type of record stored in the chore domain.
type EntityType string

// Supported entity type identifiers used in Change records, errors and persistence buckets.
const (
	// EntityMember identifies a family member record.
	EntityMember EntityType = "member"
	// EntityChore identifies an assigned chore owned by a member.
	EntityChore EntityType = "chore"
	// EntityTemplate identifies a reusable chore template.
	EntityTemplate EntityType = "template"
)

// Palette is the fixed set of color tokens handed out to members in order.
var Palette = []string{"bg-pink-500", "bg-blue-500", "bg-green-500", "bg-purple-500", "bg-yellow-500"}

// PaletteColor returns the color assigned to the n-th member (0-indexed).
// Colors cycle once n exceeds the palette size.
func PaletteColor(n int) string {
	if n < 0 {
		n = -n
	}
	return Palette[n%len(Palette)]
}

// InitialFor returns the upper-cased first character of name, or "" for an empty name.
// A name starting with an invalid UTF-8 byte yields that byte unchanged.
func InitialFor(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return ""
	}
	if r == utf8.RuneError && size == 1 {
		return name[:1]
	}
	return string(unicode.ToUpper(r))
}

// FamilyMember is a household member owning an ordered list of chores.
type FamilyMember struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Initial string  `json:"initial"`
	Color   string  `json:"color"`
	Chores  []Chore `json:"chores"`
}

// NewFamilyMember builds a member with its initial derived from name and the color for
// position index. The member has no chores and no id yet.
func NewFamilyMember(name string, index int) FamilyMember {
	return FamilyMember{
		Name:    name,
		Initial: InitialFor(name),
		Color:   PaletteColor(index),
		Chores:  []Chore{},
	}
}

// FindChore returns the chore with the given id and its position.
func (m FamilyMember) FindChore(id string) (Chore, int, bool) {
	for i, c := range m.Chores {
		if c.ID == id {
			return c, i, true
		}
	}
	return Chore{}, -1, false
}

// Chore is a concrete task instance assigned to one member.
type Chore struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	DueDate     Date       `json:"dueDate"`
	Recurrence  Recurrence `json:"recurrence,omitempty"`
	Days        []Weekday  `json:"days,omitempty"`
}

// ChoreUpdate carries a partial chore edit. Nil fields are left untouched.
type ChoreUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	DueDate     *Date   `json:"dueDate,omitempty"`
}

// Apply merges the update into c and returns the result.
func (u ChoreUpdate) Apply(c Chore) Chore {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Completed != nil {
		c.Completed = *u.Completed
	}
	if u.DueDate != nil {
		c.DueDate = *u.DueDate
	}
	return c
}

// ChoreTemplate is a reusable chore definition with a recurrence rule. Templates are
// not bound to a member; they are assigned on demand.
type ChoreTemplate struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Recurrence  Recurrence `json:"recurrence"`
	Days        []Weekday  `json:"days"`
}

// NewChore constructs the unassigned chore instance a template produces for the given day.
func (t ChoreTemplate) NewChore(today Date) Chore {
	return Chore{
		Name:        t.Name,
		Description: t.Description,
		Completed:   false,
		DueDate:     today,
		Recurrence:  t.Recurrence,
		Days:        append([]Weekday(nil), t.Days...),
	}
}

// ValidateMemberName rejects blank or whitespace-only names before any operation is dispatched.
func ValidateMemberName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ValidationError{Field: "name", Reason: "must not be blank"}
	}
	if !utf8.ValidString(name) {
		return ValidationError{Field: "name", Reason: "must be valid UTF-8"}
	}
	return nil
}

// CloneMember returns a deep copy of m.
func CloneMember(m FamilyMember) FamilyMember {
	cp := m
	if m.Chores != nil {
		cp.Chores = make([]Chore, len(m.Chores))
		for i, c := range m.Chores {
			cp.Chores[i] = CloneChore(c)
		}
	}
	return cp
}

// CloneChore returns a deep copy of c.
func CloneChore(c Chore) Chore {
	cp := c
	if c.Days != nil {
		cp.Days = make([]Weekday, len(c.Days))
		copy(cp.Days, c.Days)
	}
	return cp
}

// CloneTemplate returns a deep copy of t.
func CloneTemplate(t ChoreTemplate) ChoreTemplate {
	cp := t
	if t.Days != nil {
		cp.Days = make([]Weekday, len(t.Days))
		copy(cp.Days, t.Days)
	}
	return cp
}

// CloneMembers deep copies a member list preserving order.
func CloneMembers(in []FamilyMember) []FamilyMember {
	if in == nil {
		return nil
	}
	out := make([]FamilyMember, len(in))
	for i, m := range in {
		out[i] = CloneMember(m)
	}
	return out
}

// CloneTemplates deep copies a template list preserving order.
func CloneTemplates(in []ChoreTemplate) []ChoreTemplate {
	if in == nil {
		return nil
	}
	out := make([]ChoreTemplate, len(in))
	for i, t := range in {
		out[i] = CloneTemplate(t)
	}
	return out
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity describes how a rule violation affects a transaction.
type Severity string

// Supported severities.
const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
	SeverityLog   Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
