package internal

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type EditState int

const (
	StateViewing EditState = iota
	StateEditing
	StateSaving
)

func (s EditState) String() string {
	switch s {
	case StateViewing:
		return "viewing"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	}
	return fmt.Sprintf("EditState(%d)", int(s))
}

// Draft holds unsaved edits and the values they started from.
type Draft struct {
	Title   string
	Content string

	baseTitle   string
	baseContent string
}

func (d Draft) Dirty() bool {
	return d.Title != d.baseTitle || d.Content != d.baseContent
}

// SessionObserver receives typed notifications from an EditSession.
// Callbacks run synchronously on the goroutine that caused the change.
type SessionObserver interface {
	OnStateChanged(from, to EditState)
	OnDirtyChanged(dirty bool)
}

// ObserverFuncs adapts plain functions to SessionObserver. Nil fields are skipped.
type ObserverFuncs struct {
	StateChanged func(from, to EditState)
	DirtyChanged func(dirty bool)
}

func (o ObserverFuncs) OnStateChanged(from, to EditState) {
	if o.StateChanged != nil {
		o.StateChanged(from, to)
	}
}

func (o ObserverFuncs) OnDirtyChanged(dirty bool) {
	if o.DirtyChanged != nil {
		o.DirtyChanged(dirty)
	}
}

type EditDeps struct {
	Saver    DocumentSaver
	Fetcher  DocumentFetcher
	History  *HistoryStore
	Observer SessionObserver
	Logger   *zap.Logger
}

// EditSession drives Viewing -> Editing -> Saving for one document.
type EditSession struct {
	deps   EditDeps
	logger *zap.Logger

	mu    sync.Mutex
	doc   *Document
	state EditState
	draft *Draft
	dirty bool
}

func NewEditSession(doc *Document, deps EditDeps) *EditSession {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditSession{
		deps:   deps,
		logger: logger.With(zap.String("doc", doc.Ref.String())),
		doc:    doc,
	}
}

func (s *EditSession) State() EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *EditSession) Document() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

func (s *EditSession) Ref() DocumentRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Ref
}

func (s *EditSession) Draft() (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

func (s *EditSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft != nil && s.draft.Dirty()
}

func (s *EditSession) StartEdit() error {
	s.mu.Lock()
	if s.state != StateViewing {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: start edit while %s", ErrInvalidTransition, state)
	}
	if !s.doc.CanEdit {
		s.mu.Unlock()
		return ErrEditNotAllowed
	}

	title := s.doc.TitleOrEmpty()
	s.draft = &Draft{
		Title:       title,
		Content:     s.doc.Content,
		baseTitle:   title,
		baseContent: s.doc.Content,
	}
	s.state = StateEditing
	s.mu.Unlock()

	s.notifyState(StateViewing, StateEditing)
	return nil
}

func (s *EditSession) SetTitle(title string) error {
	return s.update(func(d *Draft) { d.Title = title })
}

func (s *EditSession) SetContent(content string) error {
	return s.update(func(d *Draft) { d.Content = content })
}

func (s *EditSession) update(apply func(*Draft)) error {
	s.mu.Lock()
	if s.state != StateEditing || s.draft == nil {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: update draft while %s", ErrInvalidTransition, state)
	}
	apply(s.draft)
	changed, dirty := s.syncDirtyLocked()
	s.mu.Unlock()

	if changed && s.deps.Observer != nil {
		s.deps.Observer.OnDirtyChanged(dirty)
	}
	return nil
}

func (s *EditSession) syncDirtyLocked() (changed, dirty bool) {
	dirty = s.draft != nil && s.draft.Dirty()
	changed = dirty != s.dirty
	s.dirty = dirty
	return changed, dirty
}

func (s *EditSession) Cancel() error {
	s.mu.Lock()
	if s.state != StateEditing {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cancel while %s", ErrInvalidTransition, state)
	}
	s.draft = nil
	changed, _ := s.syncDirtyLocked()
	s.state = StateViewing
	s.mu.Unlock()

	if changed && s.deps.Observer != nil {
		s.deps.Observer.OnDirtyChanged(false)
	}
	s.notifyState(StateEditing, StateViewing)
	return nil
}

// Save validates the draft and sends it. On failure the session returns to
// Editing with the draft intact. On success it returns to Viewing and the
// history and document are re-fetched; those follow-up failures are logged only.
func (s *EditSession) Save(ctx context.Context) (*Document, error) {
	s.mu.Lock()
	if s.state != StateEditing || s.draft == nil {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: save while %s", ErrInvalidTransition, state)
	}
	payload, err := BuildSavePayload(s.draft.Title, s.draft.Content)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ref := s.doc.Ref
	s.state = StateSaving
	s.mu.Unlock()
	s.notifyState(StateEditing, StateSaving)

	s.logger.Debug("saving draft", zap.Bool("titled", payload.Title != nil), zap.Int("bytes", len(payload.Content)))

	saved, err := s.deps.Saver.SaveDocument(ctx, ref, payload)
	if err != nil {
		s.mu.Lock()
		s.state = StateEditing
		s.mu.Unlock()
		s.notifyState(StateSaving, StateEditing)
		s.logger.Warn("save failed", zap.Error(err))
		return nil, fmt.Errorf("save: %w", err)
	}

	s.mu.Lock()
	if saved != nil {
		s.doc = carryCapability(s.doc, saved)
	}
	s.draft = nil
	changed, _ := s.syncDirtyLocked()
	s.state = StateViewing
	s.mu.Unlock()

	if changed && s.deps.Observer != nil {
		s.deps.Observer.OnDirtyChanged(false)
	}
	s.notifyState(StateSaving, StateViewing)

	s.afterSave(ctx, ref)
	return s.Document(), nil
}

func (s *EditSession) afterSave(ctx context.Context, ref DocumentRef) {
	if s.deps.History != nil {
		if _, err := s.deps.History.Refresh(ctx, ref); err != nil && !IsStale(err) {
			s.logger.Warn("history refresh after save failed", zap.Error(err))
		}
	}

	if s.deps.Fetcher == nil {
		return
	}
	doc, err := s.deps.Fetcher.FetchDocument(ctx, ref)
	if err != nil {
		s.logger.Warn("document re-fetch after save failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.state == StateViewing {
		s.doc = carryCapability(s.doc, doc)
	}
	s.mu.Unlock()
}

// carryCapability keeps the previous edit permission when next lacks one.
func carryCapability(prev, next *Document) *Document {
	if next.CanEditReported || prev == nil {
		return next
	}
	next.CanEdit = prev.CanEdit
	return next
}

func (s *EditSession) notifyState(from, to EditState) {
	s.logger.Debug("session state changed", zap.Stringer("from", from), zap.Stringer("to", to))
	if s.deps.Observer != nil {
		s.deps.Observer.OnStateChanged(from, to)
	}
}

// SessionRegistry allows at most one open EditSession per document.
type SessionRegistry struct {
	mu   sync.Mutex
	open map[DocumentRef]*EditSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{open: make(map[DocumentRef]*EditSession)}
}

func (r *SessionRegistry) Open(doc *Document, deps EditDeps) (*EditSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.open[doc.Ref]; ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionOpen, doc.Ref)
	}
	session := NewEditSession(doc, deps)
	r.open[doc.Ref] = session
	return session, nil
}

func (r *SessionRegistry) Close(ref DocumentRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, ref)
}
