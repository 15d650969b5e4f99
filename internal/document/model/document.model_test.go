package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePermission(t *testing.T) {
	assert.Equal(t, PermissionWrite, ParsePermission("room:write"))
	assert.Equal(t, PermissionWrite, ParsePermission("write"))
	assert.Equal(t, PermissionRead, ParsePermission("room:read"))
	assert.Equal(t, PermissionRead, ParsePermission("owner"), "unknown values are read-only")

	assert.Equal(t, UserTypeEditor, PermissionWrite.UserType())
	assert.Equal(t, UserTypeViewer, PermissionRead.UserType())
}

func TestCollaboratorPermissionNormalisedOnDecode(t *testing.T) {
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(`{"id":"d1","collaborators":[{"id":"u1","permission":"write"},{"id":"u2","permission":"room:read"}]}`), &doc))
	assert.Equal(t, PermissionWrite, doc.Collaborators[0].Permission)
	assert.Equal(t, PermissionRead, doc.Collaborators[1].Permission)
}

func TestInviteRequest(t *testing.T) {
	assert.Equal(t, PermissionWrite, InviteRequest{Email: "a@b.co"}.ResolvedPermission())
	assert.Equal(t, PermissionRead, InviteRequest{Email: "a@b.co", UserType: "viewer"}.ResolvedPermission())
	assert.Equal(t, PermissionRead, InviteRequest{Email: "a@b.co", UserType: "editor", Permission: "room:read"}.ResolvedPermission())

	assert.NoError(t, InviteRequest{Email: "a@b.co", UserType: "viewer"}.Validate())
	assert.Error(t, InviteRequest{Email: "not-an-email"}.Validate())
	assert.Error(t, InviteRequest{Email: "a@b.co", UserType: "owner"}.Validate())
}

func TestRenameDocRequestValidate(t *testing.T) {
	assert.NoError(t, RenameDocRequest{Title: "Roadmap"}.Validate())
	assert.Error(t, RenameDocRequest{Title: "   "}.Validate())
	assert.Error(t, RenameDocRequest{Title: strings.Repeat("x", MaxTitleLength+1)}.Validate())
}
