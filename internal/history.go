package internal

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// HistoryStore caches the version list of one document at a time.
//
// Every Refresh takes a sequence number when issued. When it resolves, its
// result (success or failure) is honored only if no newer Refresh has been
// issued since; otherwise it is dropped and ErrStaleResponse is returned.
type HistoryStore struct {
	fetcher HistoryFetcher
	logger  *zap.Logger

	mu       sync.Mutex
	issued   uint64
	ref      DocumentRef
	versions []Version
	current  int
	loaded   bool
}

func NewHistoryStore(fetcher HistoryFetcher, logger *zap.Logger) *HistoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryStore{fetcher: fetcher, logger: logger}
}

func (s *HistoryStore) Refresh(ctx context.Context, ref DocumentRef) (*VersionHistory, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	log := s.logger.With(zap.String("doc", ref.String()), zap.Uint64("seq", seq))

	hist, err := s.fetcher.FetchHistory(ctx, ref)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.issued {
		log.Debug("dropping superseded history response", zap.Uint64("latest", s.issued))
		return nil, ErrStaleResponse
	}
	if err != nil {
		log.Warn("history refresh failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if hist == nil {
		hist = &VersionHistory{Ref: ref}
	}

	versions := collapseVersions(hist.Versions)

	s.ref = ref
	s.versions = versions
	s.current = hist.ReportedCurrent
	if s.current <= 0 {
		s.current = maxVersion(versions)
	}
	s.loaded = true

	log.Debug("history refreshed", zap.Int("versions", len(versions)), zap.Int("current", s.current))
	return s.snapshotLocked(), nil
}

func (s *HistoryStore) Version(n int) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.versions {
		if v.Number == n {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("%w: %d", ErrVersionNotFound, n)
}

// Pair resolves both sides of a diff request.
func (s *HistoryStore) Pair(req DiffRequest) (Version, Version, error) {
	a, err := s.Version(req.A)
	if err != nil {
		return Version{}, Version{}, err
	}
	b, err := s.Version(req.B)
	if err != nil {
		return Version{}, Version{}, err
	}
	return a, b, nil
}

// List returns a copy of the versions, ascending by number.
func (s *HistoryStore) List() []Version {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Version, len(s.versions))
	copy(out, s.versions)
	return out
}

func (s *HistoryStore) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *HistoryStore) Ref() DocumentRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

func (s *HistoryStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *HistoryStore) Snapshot() *VersionHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *HistoryStore) snapshotLocked() *VersionHistory {
	versions := make([]Version, len(s.versions))
	copy(versions, s.versions)
	return &VersionHistory{Ref: s.ref, Versions: versions, ReportedCurrent: s.current}
}

// collapseVersions returns a new ascending list with one entry per number.
// When a number repeats, the entry seen last wins.
func collapseVersions(in []Version) []Version {
	index := make(map[int]int, len(in))
	out := make([]Version, 0, len(in))
	for _, v := range in {
		if i, ok := index[v.Number]; ok {
			out[i] = v
			continue
		}
		index[v.Number] = len(out)
		out = append(out, v)
	}
	sortVersions(out)
	return out
}

func sortVersions(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].Number < versions[j].Number
	})
}

func maxVersion(versions []Version) int {
	current := 0
	for _, v := range versions {
		if v.Number > current {
			current = v.Number
		}
	}
	return current
}
