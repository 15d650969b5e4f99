package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const MaxTitleLength = 200

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Permission is a collaborator's access level in wire form.
type Permission string

const (
	PermissionRead  Permission = "room:read"
	PermissionWrite Permission = "room:write"

	UserTypeEditor = "editor"
	UserTypeViewer = "viewer"
)

// ParsePermission accepts both the short ("write") and the room-scoped
// ("room:write") spelling. Anything unrecognised is read-only.
func ParsePermission(s string) Permission {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "write", string(PermissionWrite):
		return PermissionWrite
	default:
		return PermissionRead
	}
}

func (p *Permission) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParsePermission(raw)
	return nil
}

func (p Permission) UserType() string {
	if p == PermissionWrite {
		return UserTypeEditor
	}
	return UserTypeViewer
}

func PermissionForUserType(userType string) Permission {
	if userType == UserTypeEditor {
		return PermissionWrite
	}
	return PermissionRead
}

type Collaborator struct {
	ID         string     `json:"id"`
	Email      string     `json:"email,omitempty"`
	Permission Permission `json:"permission"`
}

type CollaboratorView struct {
	Collaborator
	UserType string `json:"userType"`
}

// DocumentSummary is one row of the document list. It is a read-only,
// possibly stale copy of what the backend owns.
type DocumentSummary struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	CreatedAt     time.Time      `json:"createdAt"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
}

type DocumentPage struct {
	Data       []DocumentSummary `json:"data"`
	TotalCount int               `json:"totalCount"`
}

type Document struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	CreatorID     string                 `json:"creatorId"`
	Collaborators []Collaborator         `json:"collaborators"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type CreateDocRequest struct {
	Title string `json:"title"`
}

type RenameDocRequest struct {
	Title string `json:"title"`
}

func (r RenameDocRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	return validation.Validate(title, validation.Required, validation.RuneLength(1, MaxTitleLength))
}

type InviteRequest struct {
	Email      string `json:"email"`
	UserType   string `json:"userType,omitempty"`
	Permission string `json:"permission,omitempty"`
}

// ResolvedPermission prefers an explicit permission over the user type.
// With neither, the invitee gets write access.
func (r InviteRequest) ResolvedPermission() Permission {
	switch {
	case r.Permission != "":
		return ParsePermission(r.Permission)
	case r.UserType != "":
		return PermissionForUserType(r.UserType)
	default:
		return PermissionWrite
	}
}

func (r InviteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Match(emailPattern)),
		validation.Field(&r.UserType, validation.In(UserTypeEditor, UserTypeViewer)),
	)
}
