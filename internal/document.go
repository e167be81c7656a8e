package internal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type DocumentKind string

const (
	KindMemory  DocumentKind = "memory"
	KindChapter DocumentKind = "chapter"
)

func ParseKind(s string) (DocumentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "memory", "memories":
		return KindMemory, nil
	case "chapter", "chapters":
		return KindChapter, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// collection is the URL path segment for the kind.
func (k DocumentKind) collection() string {
	if k == KindChapter {
		return "chapters"
	}
	return "memories"
}

type DocumentRef struct {
	Kind DocumentKind
	ID   int64
}

func NewDocumentRef(kind DocumentKind, id int64) (DocumentRef, error) {
	if id <= 0 {
		return DocumentRef{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return DocumentRef{Kind: kind, ID: id}, nil
}

func ParseDocumentRef(kind DocumentKind, s string) (DocumentRef, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return DocumentRef{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return NewDocumentRef(kind, id)
}

func (r DocumentRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// Document is the latest fetched snapshot of a memory or chapter.
type Document struct {
	Ref           DocumentRef
	AuthorID      int64
	Title         *string
	Content       string
	IsDeleted     bool
	CreatedAt     time.Time
	VersionNumber int

	// CanEdit is only meaningful when CanEditReported is set.
	CanEdit         bool
	CanEditReported bool
	CurrentVersion  int
}

func (d *Document) TitleOrEmpty() string {
	if d == nil || d.Title == nil {
		return ""
	}
	return *d.Title
}

// Version is an immutable snapshot. Numbers are assigned by the backend.
type Version struct {
	DocumentID int64
	Number     int
	Title      *string
	Content    string
	CreatedAt  time.Time
	CreatedBy  *int64
}

func (v Version) TitleOrEmpty() string {
	if v.Title == nil {
		return ""
	}
	return *v.Title
}

type VersionHistory struct {
	Ref      DocumentRef
	Versions []Version

	// ReportedCurrent is the backend's explicit current version, 0 when absent.
	ReportedCurrent int
}

// Current returns the reported current version, falling back to the highest number.
func (h *VersionHistory) Current() int {
	if h == nil {
		return 0
	}
	if h.ReportedCurrent > 0 {
		return h.ReportedCurrent
	}
	current := 0
	for _, v := range h.Versions {
		if v.Number > current {
			current = v.Number
		}
	}
	return current
}

// DiffRequest selects two versions of one history.
type DiffRequest struct {
	A int
	B int
}

// SavePayload is the PUT body. A nil Title is sent as JSON null.
type SavePayload struct {
	Title   *string `json:"title"`
	Content string  `json:"content"`
}

// NormalizeTitle maps a blank title to nil and trims anything else.
func NormalizeTitle(title string) *string {
	t := strings.TrimSpace(title)
	if t == "" {
		return nil
	}
	return &t
}

// BuildSavePayload validates a draft and produces the request body shared by
// normal saves and restores.
func BuildSavePayload(title, content string) (SavePayload, error) {
	c := strings.TrimSpace(content)
	if c == "" {
		return SavePayload{}, fmt.Errorf("%w: content must not be empty", ErrValidation)
	}
	return SavePayload{Title: NormalizeTitle(title), Content: c}, nil
}
