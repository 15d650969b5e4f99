package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"naskahweb/internal/document/model"
	profilemodel "naskahweb/internal/profile/model"
	"naskahweb/pkg/apperror"
	"naskahweb/pkg/logger"
)

type ListState string

const (
	StateIdle    ListState = "idle"
	StateLoading ListState = "loading"
	StateError   ListState = "error"
	StateLoaded  ListState = "loaded"
)

// DocumentLister is the slice of the backend the list view needs.
type DocumentLister interface {
	ListDocuments(ctx context.Context, token string, query url.Values) (model.DocumentPage, error)
	DeleteDocument(ctx context.Context, token, id string) error
}

// ListView is a snapshot of the controller, ready to render.
type ListView struct {
	State                  ListState               `json:"state"`
	Error                  string                  `json:"error,omitempty"`
	Filters                model.FilterState       `json:"filters"`
	Query                  string                  `json:"query"`
	Documents              []model.DocumentSummary `json:"documents"`
	TotalCount             int                     `json:"totalCount"`
	TotalPages             int                     `json:"totalPages"`
	Pages                  []model.PageItem        `json:"pages,omitempty"`
	ShowingFrom            int                     `json:"showingFrom"`
	ShowingTo              int                     `json:"showingTo"`
	HasActiveFilters       bool                    `json:"hasActiveFilters"`
	HasFiltersButNoResults bool                    `json:"hasFiltersButNoResults"`
	HasNoDocumentsAtAll    bool                    `json:"hasNoDocumentsAtAll"`
	Redirect               string                  `json:"redirect,omitempty"`
}

// ListController drives the document list for one signed-in user. Its
// filters always come from the URL; every fetch is keyed on them.
type ListController struct {
	API      DocumentLister
	Identity *profilemodel.Identity
	// Path is the list view's location, used to build redirects.
	Path string

	mu         sync.Mutex
	state      ListState
	errMsg     string
	filters    model.FilterState
	documents  []model.DocumentSummary
	totalCount int
	redirect   string
}

func NewListController(api DocumentLister, identity *profilemodel.Identity) *ListController {
	return &ListController{
		API:      api,
		Identity: identity,
		Path:     "/documents",
		state:    StateIdle,
		filters:  model.DefaultFilters(),
	}
}

// Navigate applies the filters encoded in values and fetches the matching
// page unless it is already loaded. Without a session nothing is fetched.
func (c *ListController) Navigate(ctx context.Context, values url.Values) error {
	if c.Identity == nil || c.Identity.Token == "" {
		return apperror.ErrAuthenticationMissing
	}

	filters := model.ParseFilters(values)
	if err := filters.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperror.ErrInvalidInput, err)
	}

	c.mu.Lock()
	if c.state == StateLoaded && c.filters == filters {
		c.mu.Unlock()
		return nil
	}
	c.filters = filters
	c.mu.Unlock()

	return c.load(ctx, filters)
}

// Retry refetches the current filters, typically after an error.
func (c *ListController) Retry(ctx context.Context) error {
	if c.Identity == nil || c.Identity.Token == "" {
		return apperror.ErrAuthenticationMissing
	}

	c.mu.Lock()
	filters := c.filters
	c.mu.Unlock()

	return c.load(ctx, filters)
}

func (c *ListController) load(ctx context.Context, filters model.FilterState) error {
	c.mu.Lock()
	c.state = StateLoading
	c.errMsg = ""
	c.mu.Unlock()

	page, err := c.API.ListDocuments(ctx, c.Identity.Token, filters.BackendQuery())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filters != filters {
		// A newer navigation owns the state now.
		return nil
	}
	if err != nil {
		logger.Sugar.Errorf("Error fetching documents: %v", err)
		c.state = StateError
		c.errMsg = err.Error()
		return err
	}

	c.state = StateLoaded
	c.documents = page.Data
	if c.documents == nil {
		c.documents = []model.DocumentSummary{}
	}
	c.totalCount = page.TotalCount
	return nil
}

// Delete removes id from the visible page at once and then asks the backend
// to delete it. Emptying a page past the first moves the view back one page
// and the new location is returned. A failed backend delete restores the
// document and returns the error.
func (c *ListController) Delete(ctx context.Context, id string) (string, error) {
	if c.Identity == nil || c.Identity.Token == "" {
		return "", apperror.ErrAuthenticationMissing
	}

	c.mu.Lock()
	index := -1
	for i, doc := range c.documents {
		if doc.ID == id {
			index = i
			break
		}
	}

	var removed model.DocumentSummary
	var target *model.FilterState
	if index >= 0 {
		removed = c.documents[index]
		wasOnlyItem := len(c.documents) == 1
		c.documents = append(c.documents[:index:index], c.documents[index+1:]...)
		c.totalCount--
		if wasOnlyItem && c.filters.Page > model.DefaultPage {
			prev := c.filters.WithPage(c.filters.Page - 1)
			target = &prev
		}
	}
	c.mu.Unlock()

	if err := c.API.DeleteDocument(ctx, c.Identity.Token, id); err != nil {
		logger.Sugar.Errorf("Error deleting document %s: %v", id, err)
		if index >= 0 {
			c.restore(index, removed)
		}
		return "", err
	}

	if target == nil {
		return "", nil
	}

	location := c.Path + target.Encode()
	c.mu.Lock()
	c.redirect = location
	c.mu.Unlock()

	if err := c.Navigate(ctx, target.Values()); err != nil {
		return location, err
	}
	return location, nil
}

func (c *ListController) restore(index int, doc model.DocumentSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index > len(c.documents) {
		index = len(c.documents)
	}
	c.documents = append(c.documents[:index], append([]model.DocumentSummary{doc}, c.documents[index:]...)...)
	c.totalCount++
}

func (c *ListController) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ListController) Filters() model.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

func (c *ListController) View() ListView {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.filters
	view := ListView{
		State:            c.state,
		Error:            c.errMsg,
		Filters:          f,
		Query:            f.Encode(),
		Documents:        append([]model.DocumentSummary{}, c.documents...),
		TotalCount:       c.totalCount,
		HasActiveFilters: f.HasActiveFilters(),
		Redirect:         c.redirect,
	}
	if c.state != StateLoaded {
		return view
	}

	view.TotalPages = model.TotalPages(c.totalCount, f.Limit)
	view.Pages = model.PageItems(f.Page, view.TotalPages)
	view.ShowingFrom, view.ShowingTo = model.ShowingRange(f.Page, f.Limit, c.totalCount)
	empty := c.totalCount == 0 && len(c.documents) == 0
	view.HasFiltersButNoResults = empty && view.HasActiveFilters
	view.HasNoDocumentsAtAll = empty && !view.HasActiveFilters
	return view
}
