package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// The backend mixes snake_case and camelCase and calls a chapter's text
// "body". Every response is decoded here once and converted to domain types.

// flexInt accepts a JSON number, a numeric string or null.
type flexInt struct {
	val int64
	ok  bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Whole floats such as 2.0 or 2e0 are accepted; 2.7 is not.
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || fl != math.Trunc(fl) || math.Abs(fl) > math.MaxInt64 {
			return fmt.Errorf("not an integer: %s", s)
		}
		n = int64(fl)
	}
	f.val, f.ok = n, true
	return nil
}

func firstInt(candidates ...flexInt) (int64, bool) {
	for _, c := range candidates {
		if c.ok {
			return c.val, true
		}
	}
	return 0, false
}

func firstString(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

func firstBool(candidates ...*bool) (bool, bool) {
	for _, c := range candidates {
		if c != nil {
			return *c, true
		}
	}
	return false, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

func parseTime(values ...string) time.Time {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

type wireMeta struct {
	CanEdit             *bool   `json:"can_edit"`
	CanEditCamel        *bool   `json:"canEdit"`
	CurrentVersion      flexInt `json:"current_version"`
	CurrentVersionCamel flexInt `json:"currentVersion"`
}

type wireVersion struct {
	MemoryID           flexInt `json:"memory_id"`
	MemoryIDCamel      flexInt `json:"memoryId"`
	ChapterID          flexInt `json:"chapter_id"`
	ChapterIDCamel     flexInt `json:"chapterId"`
	DocumentID         flexInt `json:"document_id"`
	VersionNumber      flexInt `json:"version_number"`
	VersionNumberCamel flexInt `json:"versionNumber"`
	Version            flexInt `json:"version"`
	Title              *string `json:"title"`
	Content            *string `json:"content"`
	Body               *string `json:"body"`
	CreatedAt          string  `json:"created_at"`
	CreatedAtCamel     string  `json:"createdAt"`
	CreatedBy          flexInt `json:"created_by"`
	CreatedByCamel     flexInt `json:"createdBy"`
}

func (w wireVersion) toVersion(fallbackID int64) (Version, bool) {
	number, ok := firstInt(w.VersionNumber, w.VersionNumberCamel, w.Version)
	if !ok || number <= 0 {
		return Version{}, false
	}

	docID, ok := firstInt(w.MemoryID, w.MemoryIDCamel, w.ChapterID, w.ChapterIDCamel, w.DocumentID)
	if !ok {
		docID = fallbackID
	}

	v := Version{
		DocumentID: docID,
		Number:     int(number),
		Title:      w.Title,
		CreatedAt:  parseTime(w.CreatedAt, w.CreatedAtCamel),
	}
	if c := firstString(w.Content, w.Body); c != nil {
		v.Content = *c
	}
	if by, ok := firstInt(w.CreatedBy, w.CreatedByCamel); ok {
		v.CreatedBy = &by
	}
	return v, true
}

// wireDocument covers the detail body, the memory versions body and the
// chapter detail body (which embeds its versions).
type wireDocument struct {
	ID                  flexInt       `json:"id"`
	MemoryID            flexInt       `json:"memory_id"`
	MemoryIDCamel       flexInt       `json:"memoryId"`
	ChapterID           flexInt       `json:"chapter_id"`
	ChapterIDCamel      flexInt       `json:"chapterId"`
	AuthorID            flexInt       `json:"author_id"`
	AuthorIDCamel       flexInt       `json:"authorId"`
	UserID              flexInt       `json:"user_id"`
	Title               *string       `json:"title"`
	Content             *string       `json:"content"`
	Body                *string       `json:"body"`
	CreatedAt           string        `json:"created_at"`
	CreatedAtCamel      string        `json:"createdAt"`
	VersionNumber       flexInt       `json:"version_number"`
	VersionNumberCamel  flexInt       `json:"versionNumber"`
	IsDeleted           *bool         `json:"is_deleted"`
	IsDeletedCamel      *bool         `json:"isDeleted"`
	CanEdit             *bool         `json:"can_edit"`
	CanEditCamel        *bool         `json:"canEdit"`
	CurrentVersion      flexInt       `json:"current_version"`
	CurrentVersionCamel flexInt       `json:"currentVersion"`
	Meta                *wireMeta     `json:"meta"`
	Versions            []wireVersion `json:"versions"`
}

type wireEnvelope struct {
	Memory  *wireDocument `json:"memory"`
	Chapter *wireDocument `json:"chapter"`
	Data    *wireDocument `json:"data"`
}

func decodeWireDocument(body []byte) (*wireDocument, error) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		var versions []wireVersion
		if err := json.Unmarshal(trimmed, &versions); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &wireDocument{Versions: versions}, nil
	}

	var env wireEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Memory != nil:
			return mergeEnvelope(body, env.Memory)
		case env.Chapter != nil:
			return mergeEnvelope(body, env.Chapter)
		case env.Data != nil:
			return mergeEnvelope(body, env.Data)
		}
	}

	var doc wireDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &doc, nil
}

// mergeEnvelope keeps top-level meta and versions that sit next to the wrapped document.
func mergeEnvelope(body []byte, inner *wireDocument) (*wireDocument, error) {
	var outer wireDocument
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if inner.Meta == nil {
		inner.Meta = outer.Meta
	}
	if len(inner.Versions) == 0 {
		inner.Versions = outer.Versions
	}
	if !inner.CurrentVersion.ok && !inner.CurrentVersionCamel.ok {
		inner.CurrentVersion = firstFlex(outer.CurrentVersion, outer.CurrentVersionCamel)
	}
	return inner, nil
}

func firstFlex(candidates ...flexInt) flexInt {
	for _, c := range candidates {
		if c.ok {
			return c
		}
	}
	return flexInt{}
}

func (w *wireDocument) reportedCurrent() int {
	candidates := []flexInt{w.CurrentVersion, w.CurrentVersionCamel}
	if w.Meta != nil {
		candidates = append([]flexInt{w.Meta.CurrentVersion, w.Meta.CurrentVersionCamel}, candidates...)
	}
	n, ok := firstInt(candidates...)
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}

func (w *wireDocument) toDocument(ref DocumentRef) *Document {
	doc := &Document{
		Ref:       ref,
		Title:     w.Title,
		CreatedAt: parseTime(w.CreatedAt, w.CreatedAtCamel),
	}
	if id, ok := firstInt(w.MemoryID, w.MemoryIDCamel, w.ChapterID, w.ChapterIDCamel, w.ID); ok && id > 0 {
		doc.Ref.ID = id
	}
	if author, ok := firstInt(w.AuthorID, w.AuthorIDCamel, w.UserID); ok {
		doc.AuthorID = author
	}
	if c := firstString(w.Content, w.Body); c != nil {
		doc.Content = *c
	}
	if n, ok := firstInt(w.VersionNumber, w.VersionNumberCamel); ok {
		doc.VersionNumber = int(n)
	}
	doc.IsDeleted, _ = firstBool(w.IsDeleted, w.IsDeletedCamel)

	canEdit := []*bool{w.CanEdit, w.CanEditCamel}
	if w.Meta != nil {
		canEdit = append([]*bool{w.Meta.CanEdit, w.Meta.CanEditCamel}, canEdit...)
	}
	doc.CanEdit, doc.CanEditReported = firstBool(canEdit...)

	doc.CurrentVersion = w.reportedCurrent()
	if doc.CurrentVersion == 0 {
		doc.CurrentVersion = doc.VersionNumber
	}
	return doc
}

func (w *wireDocument) toHistory(ref DocumentRef) *VersionHistory {
	versions := make([]Version, 0, len(w.Versions))
	for _, wv := range w.Versions {
		if v, ok := wv.toVersion(ref.ID); ok {
			versions = append(versions, v)
		}
	}

	return &VersionHistory{
		Ref:             ref,
		Versions:        collapseVersions(versions),
		ReportedCurrent: w.reportedCurrent(),
	}
}

func decodeDocument(ref DocumentRef, body []byte) (*Document, error) {
	w, err := decodeWireDocument(body)
	if err != nil {
		return nil, err
	}
	return w.toDocument(ref), nil
}

func decodeHistory(ref DocumentRef, body []byte) (*VersionHistory, error) {
	w, err := decodeWireDocument(body)
	if err != nil {
		return nil, err
	}
	return w.toHistory(ref), nil
}

// errorMessage extracts a human-readable reason from an error body.
func errorMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{') {
		var payload struct {
			Error   any    `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if s, ok := payload.Error.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
			if m, ok := payload.Error.(map[string]any); ok {
				if s, ok := m["message"].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
			if strings.TrimSpace(payload.Message) != "" {
				return strings.TrimSpace(payload.Message)
			}
		}
		return fmt.Sprintf("HTTP %d", status)
	}
	if len(trimmed) == 0 {
		return fmt.Sprintf("HTTP %d", status)
	}
	return truncateMessage(string(trimmed), maxErrorMessage)
}

const maxErrorMessage = 512

// truncateMessage cuts s to at most limit bytes on a rune boundary.
func truncateMessage(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
