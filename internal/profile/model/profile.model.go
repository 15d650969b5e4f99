package model

import (
	"strings"
	"unicode/utf16"
)

// UserProfile is what the collaboration layer renders for a participant.
type UserProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Color  string `json:"color"`
}

// Identity is the locally authenticated user, read from verified token claims.
type Identity struct {
	ID        string
	FullName  string
	FirstName string
	LastName  string
	Emails    []string
	ImageURL  string
	// Token is the raw session token, forwarded on backend calls.
	Token string
}

type EmailAddress struct {
	EmailAddress string `json:"emailAddress"`
}

// BackendUser is the body of GET /api/users/:id.
type BackendUser struct {
	ID             string         `json:"id,omitempty"`
	FullName       string         `json:"fullName,omitempty"`
	FirstName      string         `json:"firstName,omitempty"`
	LastName       string         `json:"lastName,omitempty"`
	EmailAddresses []EmailAddress `json:"emailAddresses,omitempty"`
	ImageURL       string         `json:"imageUrl,omitempty"`
}

// UserSearchResult is one candidate from GET /api/users/search.
type UserSearchResult struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type ResolveRequest struct {
	UserIDs []string `json:"userIds"`
}

func (i *Identity) PrimaryEmail() string {
	if i == nil || len(i.Emails) == 0 {
		return ""
	}
	return i.Emails[0]
}

// Profile builds the profile of the signed-in user from the session itself.
func (i *Identity) Profile() UserProfile {
	return buildProfile(i.ID, i.FullName, i.FirstName, i.LastName, i.PrimaryEmail(), i.ImageURL)
}

func (u BackendUser) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.EmailAddress != "" {
			return e.EmailAddress
		}
	}
	return ""
}

// Profile maps a backend user onto the profile of id.
func (u BackendUser) Profile(id string) UserProfile {
	return buildProfile(id, u.FullName, u.FirstName, u.LastName, u.PrimaryEmail(), u.ImageURL)
}

// Placeholder is the profile used when nothing is known about id.
func Placeholder(id string) UserProfile {
	return UserProfile{
		ID:     id,
		Name:   PlaceholderName(id),
		Email:  PlaceholderEmail(id),
		Avatar: "",
		Color:  Color(id),
	}
}

// PlaceholderName is "User " followed by the last eight UTF-16 code units of
// id, the same suffix browser clients cut. A surrogate pair split by the cut
// decodes as U+FFFD.
func PlaceholderName(id string) string {
	units := utf16.Encode([]rune(id))
	if len(units) > 8 {
		units = units[len(units)-8:]
	}
	return "User " + string(utf16.Decode(units))
}

func PlaceholderEmail(id string) string {
	return id + "@example.com"
}

func buildProfile(id, fullName, firstName, lastName, email, imageURL string) UserProfile {
	return UserProfile{
		ID:     id,
		Name:   DisplayName(id, fullName, firstName, lastName, email),
		Email:  firstNonEmpty(email, PlaceholderEmail(id)),
		Avatar: imageURL,
		Color:  Color(id),
	}
}

// DisplayName falls back from the full name to first+last, then to the local
// part of the email, then to the placeholder name. Any non-empty full name is
// used as given.
func DisplayName(id, fullName, firstName, lastName, email string) string {
	if fullName != "" {
		return fullName
	}
	if name := strings.TrimSpace(firstName + " " + lastName); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return local
	}
	return PlaceholderName(id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
