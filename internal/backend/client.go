package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	docmodel "naskahweb/internal/document/model"
	profilemodel "naskahweb/internal/profile/model"
	"naskahweb/pkg/apperror"
)

// errUnsuccessful is returned when the envelope carries success=false.
var errUnsuccessful = errors.New("backend reported failure")

// Client calls the document backend on behalf of a signed-in user. Every call
// carries that user's bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope is the {success, data} wrapper most endpoints answer with.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Unwrap returns the payload inside a success envelope. Bodies without the
// envelope are returned as they are; that shape is tolerated while older
// backend endpoints are migrated.
func Unwrap(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if env.Success == nil {
		return trimmed, nil
	}
	if !*env.Success {
		return nil, errUnsuccessful
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return trimmed, nil
	}
	return env.Data, nil
}

// do performs the request and returns the body of a 2xx answer.
func (c *Client) do(ctx context.Context, token, method, path string, body interface{}) (*http.Response, []byte, error) {
	if token == "" {
		return nil, nil, apperror.ErrAuthenticationMissing
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, data, &apperror.BackendError{Status: resp.StatusCode, Body: string(data)}
	}
	return resp, data, nil
}

// call performs the request and decodes the unwrapped payload into out.
func (c *Client) call(ctx context.Context, token, method, path string, body, out interface{}) error {
	_, data, err := c.do(ctx, token, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	payload, err := Unwrap(data)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return nil
}

func (c *Client) ListDocuments(ctx context.Context, token string, query url.Values) (docmodel.DocumentPage, error) {
	var page docmodel.DocumentPage
	path := "/api/documents"
	if enc := query.Encode(); enc != "" {
		path += "?" + enc
	}
	if err := c.call(ctx, token, http.MethodGet, path, nil, &page); err != nil {
		return docmodel.DocumentPage{}, fmt.Errorf("list documents: %w", err)
	}
	return page, nil
}

// GetDocument returns apperror.ErrNotFound for a 404 or an empty body.
func (c *Client) GetDocument(ctx context.Context, token, id string) (*docmodel.Document, error) {
	var doc *docmodel.Document
	if err := c.call(ctx, token, http.MethodGet, "/api/documents/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	if doc == nil || doc.ID == "" {
		return nil, fmt.Errorf("get document %s: %w", id, apperror.ErrNotFound)
	}
	return doc, nil
}

func (c *Client) CreateDocument(ctx context.Context, token, title string) (*docmodel.Document, error) {
	var doc docmodel.Document
	if err := c.call(ctx, token, http.MethodPost, "/api/documents", docmodel.CreateDocRequest{Title: title}, &doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, token, id string) error {
	if _, _, err := c.do(ctx, token, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

func (c *Client) RenameDocument(ctx context.Context, token, id, title string) error {
	path := "/api/documents/" + url.PathEscape(id) + "/rename"
	if _, _, err := c.do(ctx, token, http.MethodPatch, path, docmodel.RenameDocRequest{Title: title}); err != nil {
		return fmt.Errorf("rename document %s: %w", id, err)
	}
	return nil
}

func (c *Client) InviteCollaborator(ctx context.Context, token, id, email string, permission docmodel.Permission) error {
	body := map[string]string{"email": email, "permission": string(permission)}
	if _, _, err := c.do(ctx, token, http.MethodPost, "/api/documents/"+url.PathEscape(id)+"/invite", body); err != nil {
		return fmt.Errorf("invite collaborator to %s: %w", id, err)
	}
	return nil
}

func (c *Client) RemoveCollaborator(ctx context.Context, token, id, userID string) error {
	path := "/api/documents/" + url.PathEscape(id) + "/collaborators/" + url.PathEscape(userID)
	if _, _, err := c.do(ctx, token, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("remove collaborator %s from %s: %w", userID, id, err)
	}
	return nil
}

func (c *Client) SearchUsers(ctx context.Context, token, query string, limit int) ([]profilemodel.UserSearchResult, error) {
	params := url.Values{"q": {query}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var users []profilemodel.UserSearchResult
	if err := c.call(ctx, token, http.MethodGet, "/api/users/search?"+params.Encode(), nil, &users); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// GetUser fetches the profile fields of a user. Only the enveloped shape is
// accepted here: a bare body cannot be told apart from an error document.
func (c *Client) GetUser(ctx context.Context, token, id string) (*profilemodel.BackendUser, error) {
	_, data, err := c.do(ctx, token, http.MethodGet, "/api/users/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("get user %s: unmarshal response: %w", id, err)
	}
	if env.Success == nil || !*env.Success || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("get user %s: %w", id, apperror.ErrNotFound)
	}

	var user profilemodel.BackendUser
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return nil, fmt.Errorf("get user %s: unmarshal data: %w", id, err)
	}
	return &user, nil
}

// AuthenticateCollaboration exchanges the session token for a collaboration
// provider token. The JSON body is returned untouched.
func (c *Client) AuthenticateCollaboration(ctx context.Context, token string) (int, []byte, error) {
	resp, data, err := c.do(ctx, token, http.MethodPost, "/api/auth/liveblocks", nil)
	if err != nil {
		return 0, nil, fmt.Errorf("collaboration auth: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return 0, nil, fmt.Errorf("collaboration auth: backend did not return JSON (content type %q)", resp.Header.Get("Content-Type"))
	}
	if !json.Valid(data) {
		return 0, nil, errors.New("collaboration auth: backend returned malformed JSON")
	}
	return resp.StatusCode, data, nil
}
