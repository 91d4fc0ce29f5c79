package domain

import (
	"time"
)

// DefaultNoteTitle is the title a note gets on creation, before any edit.
const DefaultNoteTitle = "제목없음"

// Note is identified by (OwnerID, NoteID). Note ids are scoped per owner
// and assigned monotonically within that scope, so two users can both own
// a note 1.
type Note struct {
	OwnerID      string `gorm:"primaryKey;size:20" json:"owner_id"`
	NoteID       uint64 `gorm:"primaryKey;autoIncrement" json:"note_id"`
	Title        string `gorm:"size:100" json:"title"`
	Content      string `json:"content"`
	CreatedAt    time.Time  `json:"created_at"`
	LastEditedAt *time.Time `json:"last_edited_at"` // nil until first edit
}

// AccessEntry is one ACL row: what GranteeID may do with the note
// (OwnerID, NoteID). An absent row means no access. The owner never has
// a row naming themself; owner access is implicit.
type AccessEntry struct {
	OwnerID   string `gorm:"primaryKey;size:20"`
	NoteID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	GranteeID string `gorm:"primaryKey;size:20"`
	CanRead   bool
	CanWrite  bool
	CanDelete bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permissions returns the entry's capability flags.
func (e *AccessEntry) Permissions() PermissionSet {
	return PermissionSet{
		CanRead:   e.CanRead,
		CanWrite:  e.CanWrite,
		CanDelete: e.CanDelete,
	}
}

// SharedNote is the reverse index: a pointer from a grantee to a note
// someone shared with them. Derived state, not authority; the access
// controller keeps it in step with the ACL.
type SharedNote struct {
	GranteeID string `gorm:"primaryKey;size:20"`
	OwnerID   string `gorm:"primaryKey;size:20"`
	NoteID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

// Permission names one of the three capability columns on an AccessEntry.
type Permission string

const (
	PermissionRead   Permission = "can_read"
	PermissionWrite  Permission = "can_write"
	PermissionDelete Permission = "can_delete"
)

// ValidPermission reports whether a client-supplied capability name is
// one of the three known columns. Anything else never reaches a query.
func ValidPermission(p string) bool {
	switch Permission(p) {
	case PermissionRead, PermissionWrite, PermissionDelete:
		return true
	}
	return false
}

// PermissionSet holds the three capability flags for one grantee on one
// note. The zero value means no access.
type PermissionSet struct {
	CanRead   bool `json:"can_read"`
	CanWrite  bool `json:"can_write"`
	CanDelete bool `json:"can_delete"`
}

// None reports whether no capability is granted.
func (p PermissionSet) None() bool {
	return !p.CanRead && !p.CanWrite && !p.CanDelete
}

// Has reports whether the named capability is granted.
func (p PermissionSet) Has(perm Permission) bool {
	switch perm {
	case PermissionRead:
		return p.CanRead
	case PermissionWrite:
		return p.CanWrite
	case PermissionDelete:
		return p.CanDelete
	}
	return false
}
