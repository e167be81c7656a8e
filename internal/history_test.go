package internal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyResult struct {
	hist *VersionHistory
	err  error
}

// gatedFetcher blocks each FetchHistory call until the test releases it.
type gatedFetcher struct {
	mu      sync.Mutex
	calls   int
	gates   []chan historyResult
	started chan int
}

func newGatedFetcher(n int) *gatedFetcher {
	f := &gatedFetcher{started: make(chan int, n)}
	for i := 0; i < n; i++ {
		f.gates = append(f.gates, make(chan historyResult, 1))
	}
	return f
}

func (f *gatedFetcher) FetchHistory(ctx context.Context, ref DocumentRef) (*VersionHistory, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	f.mu.Unlock()

	f.started <- idx
	res := <-f.gates[idx]
	return res.hist, res.err
}

func historyOf(ref DocumentRef, numbers ...int) *VersionHistory {
	h := &VersionHistory{Ref: ref}
	for _, n := range numbers {
		h.Versions = append(h.Versions, Version{DocumentID: ref.ID, Number: n, Content: "v"})
	}
	return h
}

func TestHistoryStoreRefresh(t *testing.T) {
	ref := DocumentRef{Kind: KindMemory, ID: 1}
	backend := newFakeBackend(testDoc(1), Version{Number: 3}, Version{Number: 1}, Version{Number: 2})
	store := NewHistoryStore(backend, nil)

	assert.False(t, store.Loaded())

	hist, err := store.Refresh(context.Background(), ref)
	require.NoError(t, err)
	require.Len(t, hist.Versions, 3)

	list := store.List()
	assert.Equal(t, []int{1, 2, 3}, versionNumbers(list))
	assert.Equal(t, 3, store.Current())
	assert.Equal(t, ref, store.Ref())
	assert.True(t, store.Loaded())
}

func TestHistoryStoreReportedCurrent(t *testing.T) {
	ref := DocumentRef{Kind: KindChapter, ID: 9}
	f := newGatedFetcher(1)
	h := historyOf(ref, 1, 2, 3)
	h.ReportedCurrent = 2
	f.gates[0] <- historyResult{hist: h}

	store := NewHistoryStore(f, nil)
	_, err := store.Refresh(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Current())
}

func TestHistoryStoreFailedRefreshKeepsContents(t *testing.T) {
	ref := DocumentRef{Kind: KindMemory, ID: 1}
	backend := newFakeBackend(testDoc(1), testVersions(1)...)
	store := NewHistoryStore(backend, nil)

	_, err := store.Refresh(context.Background(), ref)
	require.NoError(t, err)
	before := store.List()
	beforeCurrent := store.Current()

	backend.historyErr = errBackendDown
	_, err = store.Refresh(context.Background(), ref)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, errBackendDown)

	assert.Equal(t, before, store.List())
	assert.Equal(t, beforeCurrent, store.Current())
}

func TestHistoryStoreDropsStaleResponse(t *testing.T) {
	ref := DocumentRef{Kind: KindMemory, ID: 1}
	f := newGatedFetcher(2)
	store := NewHistoryStore(f, nil)

	firstErr := make(chan error, 1)
	go func() {
		_, err := store.Refresh(context.Background(), ref)
		firstErr <- err
	}()
	require.Equal(t, 0, <-f.started)

	secondErr := make(chan error, 1)
	go func() {
		_, err := store.Refresh(context.Background(), ref)
		secondErr <- err
	}()
	require.Equal(t, 1, <-f.started)

	// second resolves first
	f.gates[1] <- historyResult{hist: historyOf(ref, 1, 2, 3, 4)}
	require.NoError(t, <-secondErr)
	assert.Equal(t, []int{1, 2, 3, 4}, versionNumbers(store.List()))

	// first arrives late with older data
	f.gates[0] <- historyResult{hist: historyOf(ref, 1)}
	err := <-firstErr
	assert.ErrorIs(t, err, ErrStaleResponse)
	assert.True(t, IsStale(err))

	assert.Equal(t, []int{1, 2, 3, 4}, versionNumbers(store.List()))
	assert.Equal(t, 4, store.Current())
}

func TestHistoryStoreDropsStaleFailure(t *testing.T) {
	ref := DocumentRef{Kind: KindMemory, ID: 1}
	f := newGatedFetcher(2)
	store := NewHistoryStore(f, nil)

	firstErr := make(chan error, 1)
	go func() {
		_, err := store.Refresh(context.Background(), ref)
		firstErr <- err
	}()
	<-f.started

	secondErr := make(chan error, 1)
	go func() {
		_, err := store.Refresh(context.Background(), ref)
		secondErr <- err
	}()
	<-f.started

	f.gates[1] <- historyResult{hist: historyOf(ref, 1, 2)}
	require.NoError(t, <-secondErr)

	f.gates[0] <- historyResult{err: errBackendDown}
	err := <-firstErr
	assert.True(t, errors.Is(err, ErrStaleResponse))
	assert.False(t, errors.Is(err, ErrFetch))
	assert.Equal(t, []int{1, 2}, versionNumbers(store.List()))
}

func TestHistoryStoreVersionLookup(t *testing.T) {
	ref := DocumentRef{Kind: KindMemory, ID: 1}
	store := NewHistoryStore(newFakeBackend(testDoc(1), testVersions(1)...), nil)
	_, err := store.Refresh(context.Background(), ref)
	require.NoError(t, err)

	v, err := store.Version(2)
	require.NoError(t, err)
	assert.Equal(t, "We drove north.", v.Content)

	_, err = store.Version(99)
	assert.ErrorIs(t, err, ErrVersionNotFound)

	a, b, err := store.Pair(DiffRequest{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, a.Number)
	assert.Equal(t, 2, b.Number)

	_, _, err = store.Pair(DiffRequest{A: 1, B: 5})
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestHistoryStoreListIsCopy(t *testing.T) {
	ref := DocumentRef{Kind: KindMemory, ID: 1}
	store := NewHistoryStore(newFakeBackend(testDoc(1), testVersions(1)...), nil)
	_, err := store.Refresh(context.Background(), ref)
	require.NoError(t, err)

	list := store.List()
	list[0].Content = "mutated"

	v, err := store.Version(1)
	require.NoError(t, err)
	assert.Equal(t, "We drove.", v.Content)
}

func TestHistoryStoreShrinkingList(t *testing.T) {
	ref := DocumentRef{Kind: KindMemory, ID: 1}
	backend := newFakeBackend(testDoc(1), testVersions(1)...)
	store := NewHistoryStore(backend, nil)
	_, err := store.Refresh(context.Background(), ref)
	require.NoError(t, err)

	backend.versions = backend.versions[:1]
	_, err = store.Refresh(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, []int{1}, versionNumbers(store.List()))
	assert.Equal(t, 1, store.Current())
}

func versionNumbers(versions []Version) []int {
	out := make([]int, 0, len(versions))
	for _, v := range versions {
		out = append(out, v.Number)
	}
	return out
}

type historyFunc func(ctx context.Context, ref DocumentRef) (*VersionHistory, error)

func (f historyFunc) FetchHistory(ctx context.Context, ref DocumentRef) (*VersionHistory, error) {
	return f(ctx, ref)
}

func TestHistoryStoreCollapsesDuplicateNumbers(t *testing.T) {
	ref := DocumentRef{Kind: KindMemory, ID: 1}
	fetcher := historyFunc(func(context.Context, DocumentRef) (*VersionHistory, error) {
		return &VersionHistory{Ref: ref, Versions: []Version{
			{Number: 2, Content: "early two"},
			{Number: 1, Content: "one"},
			{Number: 2, Content: "late two"},
		}}, nil
	})

	store := NewHistoryStore(fetcher, nil)
	hist, err := store.Refresh(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, versionNumbers(hist.Versions))
	v, err := store.Version(2)
	require.NoError(t, err)
	assert.Equal(t, "late two", v.Content)
	assert.Equal(t, 2, store.Current())

	snap := store.Snapshot()
	assert.Equal(t, []int{1, 2}, versionNumbers(snap.Versions))
	assert.Equal(t, 2, snap.Current())
}
