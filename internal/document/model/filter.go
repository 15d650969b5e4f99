package model

import (
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultPage      = 1
	DefaultLimit     = 5
	DefaultSortBy    = "createdAt"
	DefaultSortOrder = "desc"
	SortByTitle      = "title"
	SortByModified   = "lastModified"
	MaxLimit         = 100

	dateLayout = "2006-01-02"
)

// FilterState mirrors the list view's query string. The URL is the source of
// truth; a FilterState is only ever derived from it.
type FilterState struct {
	Search    string `json:"search"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
	DateFrom  string `json:"dateFrom"`
	DateTo    string `json:"dateTo"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
}

func DefaultFilters() FilterState {
	return FilterState{
		SortBy:    DefaultSortBy,
		SortOrder: DefaultSortOrder,
		Page:      DefaultPage,
		Limit:     DefaultLimit,
	}
}

// ParseFilters reads a FilterState from query values. Missing or malformed
// numbers fall back to their defaults; string values are validated separately.
func ParseFilters(values url.Values) FilterState {
	f := DefaultFilters()
	f.Search = strings.TrimSpace(values.Get("search"))
	f.DateFrom = strings.TrimSpace(values.Get("dateFrom"))
	f.DateTo = strings.TrimSpace(values.Get("dateTo"))
	if v := strings.TrimSpace(values.Get("sortBy")); v != "" {
		f.SortBy = v
	}
	if v := strings.TrimSpace(values.Get("sortOrder")); v != "" {
		f.SortOrder = v
	}
	if n, err := strconv.Atoi(values.Get("page")); err == nil && n >= 1 {
		f.Page = n
	}
	if n, err := strconv.Atoi(values.Get("limit")); err == nil && n >= 1 {
		f.Limit = n
	}
	return f
}

func (f FilterState) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.SortBy, validation.Required, validation.In(DefaultSortBy, SortByModified, SortByTitle)),
		validation.Field(&f.SortOrder, validation.Required, validation.In("asc", "desc")),
		validation.Field(&f.DateFrom, validation.Date(dateLayout)),
		validation.Field(&f.DateTo, validation.Date(dateLayout)),
		validation.Field(&f.Page, validation.Min(1)),
		validation.Field(&f.Limit, validation.Min(1), validation.Max(MaxLimit)),
	)
}

// BackendQuery is the parameter set sent to the backend list endpoint. All
// seven keys are always present.
func (f FilterState) BackendQuery() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	q.Set("limit", strconv.Itoa(f.Limit))
	q.Set("sortBy", f.SortBy)
	q.Set("sortOrder", f.SortOrder)
	q.Set("search", f.Search)
	q.Set("dateFrom", f.DateFrom)
	q.Set("dateTo", f.DateTo)
	return q
}

// Values is the canonical URL form: only values that differ from the
// defaults are written, so page 1 never appears.
func (f FilterState) Values() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.SortBy != DefaultSortBy {
		q.Set("sortBy", f.SortBy)
	}
	if f.SortOrder != DefaultSortOrder {
		q.Set("sortOrder", f.SortOrder)
	}
	if f.DateFrom != "" {
		q.Set("dateFrom", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("dateTo", f.DateTo)
	}
	if f.Limit != DefaultLimit {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Page > DefaultPage {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// Encode returns "?query" or "" when every value is a default.
func (f FilterState) Encode() string {
	if enc := f.Values().Encode(); enc != "" {
		return "?" + enc
	}
	return ""
}

func (f FilterState) WithPage(page int) FilterState {
	if page < DefaultPage {
		page = DefaultPage
	}
	f.Page = page
	return f
}

// WithLimit changes the page size and returns to the first page.
func (f FilterState) WithLimit(limit int) FilterState {
	if limit < 1 {
		limit = DefaultLimit
	}
	f.Limit = limit
	f.Page = DefaultPage
	return f
}

// WithSearch changes the search text and returns to the first page.
func (f FilterState) WithSearch(search string) FilterState {
	f.Search = strings.TrimSpace(search)
	f.Page = DefaultPage
	return f
}

func (f FilterState) HasActiveFilters() bool {
	return f.Search != "" ||
		f.DateFrom != "" ||
		f.DateTo != "" ||
		f.SortBy != DefaultSortBy ||
		f.SortOrder != DefaultSortOrder ||
		f.Limit != DefaultLimit
}

// Reset clears every filter but keeps the page size.
func (f FilterState) Reset() FilterState {
	reset := DefaultFilters()
	reset.Limit = f.Limit
	return reset
}
