package internal

import (
	"context"
	"errors"
	"sync"
)

var errBackendDown = errors.New("backend down")

// fakeBackend keeps one document and its versions in memory and records
// every call.
type fakeBackend struct {
	mu sync.Mutex

	doc      *Document
	versions []Version

	saveErr    error
	historyErr error
	fetchErr   error

	saves        []SavePayload
	historyCalls int
	fetchCalls   int
}

func newFakeBackend(doc *Document, versions ...Version) *fakeBackend {
	d := *doc
	return &fakeBackend{doc: &d, versions: versions}
}

func (f *fakeBackend) FetchHistory(ctx context.Context, ref DocumentRef) (*VersionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	versions := make([]Version, len(f.versions))
	copy(versions, f.versions)
	return &VersionHistory{Ref: ref, Versions: versions}, nil
}

func (f *fakeBackend) FetchDocument(ctx context.Context, ref DocumentRef) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	doc := *f.doc
	return &doc, nil
}

func (f *fakeBackend) SaveDocument(ctx context.Context, ref DocumentRef, payload SavePayload) (*Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, payload)
	if f.saveErr != nil {
		return nil, f.saveErr
	}

	next := len(f.versions) + 1
	f.versions = append(f.versions, Version{
		DocumentID: ref.ID,
		Number:     next,
		Title:      payload.Title,
		Content:    payload.Content,
	})
	f.doc.Title = payload.Title
	f.doc.Content = payload.Content
	f.doc.VersionNumber = next
	f.doc.CurrentVersion = next

	doc := *f.doc
	return &doc, nil
}

func (f *fakeBackend) savedPayloads() []SavePayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SavePayload, len(f.saves))
	copy(out, f.saves)
	return out
}

func (f *fakeBackend) historyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyCalls
}

func strPtr(s string) *string { return &s }

func testDoc(id int64) *Document {
	return &Document{
		Ref:            DocumentRef{Kind: KindMemory, ID: id},
		AuthorID:       7,
		Title:          strPtr("Summer 1994"),
		Content:        "We drove north.",
		VersionNumber:  2,
		CurrentVersion: 2,
		CanEdit:        true,
	}
}

func testVersions(id int64) []Version {
	return []Version{
		{DocumentID: id, Number: 1, Title: strPtr("Summer"), Content: "We drove."},
		{DocumentID: id, Number: 2, Title: strPtr("Summer 1994"), Content: "We drove north."},
	}
}
