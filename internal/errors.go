package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrFetch                = errors.New("fetch failed")
	ErrValidation           = errors.New("validation failed")
	ErrInvalidRestoreTarget = errors.New("version has no content to restore")
	ErrStaleResponse        = errors.New("stale response discarded")
	ErrVersionNotFound      = errors.New("version not found")
	ErrEditNotAllowed       = errors.New("editing not allowed")
	ErrInvalidTransition    = errors.New("invalid session transition")
	ErrDocumentMismatch     = errors.New("document does not match session")
	ErrSessionOpen          = errors.New("edit session already open")
	ErrArchiveMismatch      = errors.New("archive belongs to another document")
	ErrInvalidID            = errors.New("invalid document id")
	ErrNoToken              = errors.New("no auth token")
	ErrNoAuthorClaim        = errors.New("token has no author claim")
)

// APIError is a failed backend call. Status is 0 for transport failures.
type APIError struct {
	Op      string
	Method  string
	Path    string
	Status  int
	Message string

	// RouteNotFound marks a 404 whose body says "Not Found"; diagnostic only.
	RouteNotFound bool
	Err           error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.RouteNotFound {
		fmt.Fprintf(&b, " (route not found: %s %s)", e.Method, e.Path)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets callers match any failed GET as a fetch failure.
func (e *APIError) Is(target error) bool {
	return target == ErrFetch && e.Method == http.MethodGet
}

// IsStale reports whether err is the internal stale-response signal.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResponse)
}
