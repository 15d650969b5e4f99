package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"naskahweb/internal/document/model"
	profilemodel "naskahweb/internal/profile/model"
	"naskahweb/pkg/apperror"
)

// fakeBackend keeps an in-memory document list and pages it like the backend.
type fakeBackend struct {
	mu         sync.Mutex
	docs       []model.DocumentSummary
	documents  map[string]*model.Document
	listCalls  []url.Values
	deleted    []string
	listErr    error
	deleteErr  error
	deleteGate chan struct{}

	renamed  map[string]string
	invited  []string
	removed  []string
	searches []string
}

func newFakeBackend(n int) *fakeBackend {
	f := &fakeBackend{documents: map[string]*model.Document{}, renamed: map[string]string{}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		f.docs = append(f.docs, model.DocumentSummary{
			ID:        fmt.Sprintf("doc-%02d", i),
			Title:     fmt.Sprintf("Doc %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return f
}

func (f *fakeBackend) ListDocuments(_ context.Context, token string, query url.Values) (model.DocumentPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, query)
	if f.listErr != nil {
		return model.DocumentPage{}, f.listErr
	}

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	start := (page - 1) * limit
	if start > len(f.docs) {
		start = len(f.docs)
	}
	end := min(start+limit, len(f.docs))
	data := append([]model.DocumentSummary{}, f.docs[start:end]...)
	return model.DocumentPage{Data: data, TotalCount: len(f.docs)}, nil
}

func (f *fakeBackend) DeleteDocument(_ context.Context, token, id string) error {
	if f.deleteGate != nil {
		<-f.deleteGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	for i, d := range f.docs {
		if d.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeBackend) GetDocument(_ context.Context, token, id string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.documents[id]; ok {
		return doc, nil
	}
	return nil, &apperror.BackendError{Status: 404}
}

func (f *fakeBackend) CreateDocument(_ context.Context, token, title string) (*model.Document, error) {
	return &model.Document{ID: "doc-new", Title: title}, nil
}

func (f *fakeBackend) RenameDocument(_ context.Context, token, id, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renamed[id] = title
	return nil
}

func (f *fakeBackend) InviteCollaborator(_ context.Context, token, id, email string, permission model.Permission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invited = append(f.invited, email+"="+string(permission))
	return nil
}

func (f *fakeBackend) RemoveCollaborator(_ context.Context, token, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, userID)
	return nil
}

func (f *fakeBackend) SearchUsers(_ context.Context, token, query string, limit int) ([]profilemodel.UserSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, fmt.Sprintf("%s/%d", query, limit))
	if query == "fail" {
		return nil, errors.New("search unavailable")
	}
	return []profilemodel.UserSearchResult{{ID: "u1", Email: query + "@x.io"}}, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls)
}

var signedIn = &profilemodel.Identity{ID: "user_me", Token: "tok"}
