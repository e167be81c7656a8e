package v1

import (
	"time"

	"github.com/CeoHDUD/hdud-web-app-sub000/internal"
)

// Re-exported so callers can match failures with errors.Is.
var (
	ErrFetch                = internal.ErrFetch
	ErrValidation           = internal.ErrValidation
	ErrInvalidRestoreTarget = internal.ErrInvalidRestoreTarget
	ErrVersionNotFound      = internal.ErrVersionNotFound
	ErrEditNotAllowed       = internal.ErrEditNotAllowed
	ErrNoToken              = internal.ErrNoToken
)

// Document is the latest state of a memory or chapter.
type Document struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"kind"`
	AuthorID       int64     `json:"author_id"`
	Title          *string   `json:"title"`
	Content        string    `json:"content"`
	VersionNumber  int       `json:"version_number"`
	CurrentVersion int       `json:"current_version"`
	IsDeleted      bool      `json:"is_deleted"`
	CanEdit        bool      `json:"can_edit"`
	CreatedAt      time.Time `json:"created_at"`
}

// Version is an immutable snapshot of a document.
type Version struct {
	Number    int       `json:"version_number"`
	Title     *string   `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy *int64    `json:"created_by,omitempty"`
}

// History lists versions in ascending order.
type History struct {
	Versions []Version `json:"versions"`
	Current  int       `json:"current_version"`
}

// DiffLine is one row of a positional line diff. Kind is "equal", "added" or "removed".
type DiffLine struct {
	Kind  string `json:"kind"`
	Line  string `json:"line"`
	Index int    `json:"index"`
}

type ExportResult struct {
	Added   []int `json:"added"`
	Skipped []int `json:"skipped"`
}

func fromDocument(d *internal.Document) *Document {
	return &Document{
		ID:             d.Ref.ID,
		Kind:           string(d.Ref.Kind),
		AuthorID:       d.AuthorID,
		Title:          d.Title,
		Content:        d.Content,
		VersionNumber:  d.VersionNumber,
		CurrentVersion: d.CurrentVersion,
		IsDeleted:      d.IsDeleted,
		CanEdit:        d.CanEdit,
		CreatedAt:      d.CreatedAt,
	}
}

func fromVersion(v internal.Version) Version {
	return Version{
		Number:    v.Number,
		Title:     v.Title,
		Content:   v.Content,
		CreatedAt: v.CreatedAt,
		CreatedBy: v.CreatedBy,
	}
}
