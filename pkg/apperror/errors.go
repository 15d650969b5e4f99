package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthenticationMissing means no verified session or token is available.
	ErrAuthenticationMissing = errors.New("authentication missing")
	ErrNotFound              = errors.New("not found")
	ErrInvalidInput          = errors.New("invalid input")
	// ErrSuperseded is returned to a caller whose request was replaced by a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// BackendError is a non-2xx answer from the document backend.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("backend request failed: %d %s", e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is match 404 and 401 answers against the sentinels.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrAuthenticationMissing:
		return e.Status == http.StatusUnauthorized
	}
	return false
}
