package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionFor(t *testing.T) {
	doc := &Document{
		ID:      "doc-1",
		OwnerID: "owner",
		Collaborators: []Collaborator{
			{UserID: "reader", Role: RoleRead},
			{UserID: "writer", Role: RoleWrite},
		},
	}

	tests := []struct {
		name   string
		userID string
		want   Permission
	}{
		{"owner is admin", "owner", PermissionAdmin},
		{"read collaborator", "reader", PermissionRead},
		{"write collaborator", "writer", PermissionWrite},
		{"stranger has none", "stranger", PermissionNone},
		{"empty id has none", "", PermissionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doc.PermissionFor(tt.userID))
		})
	}
}

func TestPermissionForAdminOnlyForOwner(t *testing.T) {
	// Even a write collaborator never evaluates to Admin.
	doc := &Document{
		OwnerID:       "owner",
		Collaborators: []Collaborator{{UserID: "writer", Role: RoleWrite}},
	}
	assert.Equal(t, PermissionAdmin, doc.PermissionFor("owner"))
	assert.NotEqual(t, PermissionAdmin, doc.PermissionFor("writer"))
}

func TestPermissionOrdering(t *testing.T) {
	assert.True(t, PermissionWrite > PermissionRead)
	assert.True(t, PermissionAdmin > PermissionWrite)
	assert.True(t, PermissionRead > PermissionNone)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleRead))
	assert.True(t, ValidRole(RoleWrite))
	assert.False(t, ValidRole("admin"))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("Write"))
}
