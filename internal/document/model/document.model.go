package model

import (
	"time"
)

const (
	RoleRead  = "read"
	RoleWrite = "write"
)

// ValidRole reports whether s is a grantable collaborator role.
func ValidRole(s string) bool {
	return s == RoleRead || s == RoleWrite
}

// Permission is the effective access level of a user on a document.
// Levels are ordered: a higher level implies every lower one.
type Permission int

const (
	PermissionNone Permission = iota
	PermissionRead
	PermissionWrite
	PermissionAdmin
)

func (p Permission) String() string {
	switch p {
	case PermissionRead:
		return "read"
	case PermissionWrite:
		return "write"
	case PermissionAdmin:
		return "admin"
	default:
		return "none"
	}
}

// Collaborator is a user granted persistent access to a document.
// The role is mandatory; there is no bare-ID form.
type Collaborator struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type Document struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"` // opaque editor delta blob
	OwnerID       string         `json:"owner_id"`
	Collaborators []Collaborator `json:"collaborators"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// PermissionFor evaluates the effective permission of userID on d.
// Pure function of the loaded record: Admin iff userID owns the
// document, otherwise the collaborator's role, otherwise None.
func (d *Document) PermissionFor(userID string) Permission {
	if userID == d.OwnerID {
		return PermissionAdmin
	}
	for _, c := range d.Collaborators {
		if c.UserID == userID {
			if c.Role == RoleWrite {
				return PermissionWrite
			}
			return PermissionRead
		}
	}
	return PermissionNone
}

const (
	StatusPending = "pending"
	StatusGranted = "granted"
	StatusDenied  = "denied"
)

const (
	ActionGrant = "grant"
	ActionDeny  = "deny"
)

type AccessRequest struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	RequesterID   string    `json:"requester_id"`
	RequestedRole string    `json:"requested_role"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Identity is the already-authenticated caller attached to every
// request and connection. This layer never issues or validates
// credentials.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
