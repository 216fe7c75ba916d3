// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"
)

// User is the only entity in the system: a person identified by a unique email address.
// Its JSON encoding is the public representation; the password hash is never serialized.
type User struct {
	ID           string    `json:"id"`            // Store-assigned identifier, immutable once set.
	Name         string    `json:"name"`          // Display name, trimmed.
	Email        string    `json:"email"`         // Lowercased login identifier, unique across users.
	PasswordHash string    `json:"-"`             // bcrypt hash. Empty unless explicitly loaded.
	Age          *int      `json:"age,omitempty"` // Optional; at least 18 when present.
	CreatedAt    time.Time `json:"createdAt"`     // Set once when the record is created.
	UpdatedAt    time.Time `json:"updatedAt"`     // Refreshed on every write.
}

// Public returns a copy of the user with the password hash removed.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}

	public := *u
	public.PasswordHash = ""
	if u.Age != nil {
		age := *u.Age
		public.Age = &age
	}

	return &public
}

// UserPatch carries the fields of a partial update. Nil fields are left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Age          *int
	ClearAge     bool // Remove the stored age; takes precedence over Age.
}

// IsEmpty reports whether the patch changes nothing.
func (p *UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.Age == nil && !p.ClearAge
}

// Apply writes the patch onto u. It does not touch ID, CreatedAt or UpdatedAt.
func (p *UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.ClearAge {
		u.Age = nil
	} else if p.Age != nil {
		age := *p.Age
		u.Age = &age
	}
}
