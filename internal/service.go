package internal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Backend is everything the service needs from the HDUD API.
type Backend interface {
	HistoryFetcher
	DocumentFetcher
	DocumentSaver
}

// DocumentService composes the history store, edit session and rollback
// coordinator for one-shot operations such as CLI commands.
type DocumentService struct {
	backend  Backend
	session  *Session
	registry *SessionRegistry
	logger   *zap.Logger
}

func NewDocumentService(backend Backend, session *Session, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		backend:  backend,
		session:  session,
		registry: NewSessionRegistry(),
		logger:   logger,
	}
}

func (s *DocumentService) Session() *Session {
	return s.session
}

// Show fetches a document and resolves its edit capability for the current author.
func (s *DocumentService) Show(ctx context.Context, ref DocumentRef) (*Document, error) {
	doc, err := s.backend.FetchDocument(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("show %s: %w", ref, err)
	}
	doc.CanEdit = s.session.CanEdit(doc)
	return doc, nil
}

func (s *DocumentService) History(ctx context.Context, ref DocumentRef) (*HistoryStore, error) {
	store := NewHistoryStore(s.backend, s.logger)
	if _, err := store.Refresh(ctx, ref); err != nil {
		return nil, err
	}
	return store, nil
}

type DiffOutput struct {
	A    Version
	B    Version
	Rows DiffResult
}

func (s *DocumentService) Diff(ctx context.Context, ref DocumentRef, req DiffRequest, opts DiffOptions) (*DiffOutput, error) {
	store, err := s.History(ctx, ref)
	if err != nil {
		return nil, err
	}
	a, b, err := store.Pair(req)
	if err != nil {
		return nil, err
	}
	return &DiffOutput{A: a, B: b, Rows: DiffVersions(a, b, opts)}, nil
}

type EditInput struct {
	// Title replaces the current title when non-nil.
	Title   *string
	Content string
}

func (s *DocumentService) Edit(ctx context.Context, ref DocumentRef, input EditInput) (*Document, error) {
	session, _, err := s.open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer s.registry.Close(ref)

	if err := session.StartEdit(); err != nil {
		return nil, err
	}
	if input.Title != nil {
		if err := session.SetTitle(*input.Title); err != nil {
			return nil, err
		}
	}
	if err := session.SetContent(input.Content); err != nil {
		return nil, err
	}

	doc, err := session.Save(ctx)
	if err != nil {
		_ = session.Cancel()
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Restore(ctx context.Context, ref DocumentRef, number int) (*Document, error) {
	session, store, err := s.open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer s.registry.Close(ref)

	version, err := store.Version(number)
	if err != nil {
		return nil, err
	}

	coordinator := NewRollbackCoordinator(session, s.logger)
	return coordinator.Restore(ctx, ref, version, session.Document().CanEdit)
}

func (s *DocumentService) Export(ctx context.Context, ref DocumentRef, dir string) (ExportResult, error) {
	doc, err := s.Show(ctx, ref)
	if err != nil {
		return ExportResult{}, err
	}
	store, err := s.History(ctx, ref)
	if err != nil {
		return ExportResult{}, err
	}

	result, err := ExportHistory(ctx, dir, doc, store.List())
	if err != nil {
		return result, err
	}
	s.logger.Info("history exported",
		zap.String("doc", ref.String()),
		zap.String("dir", dir),
		zap.Int("added", len(result.Added)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// Watch saves path as new versions of ref until ctx is done.
func (s *DocumentService) Watch(ctx context.Context, ref DocumentRef, path string, debounce time.Duration, onSave func(*Document, error)) error {
	session, _, err := s.open(ctx, ref)
	if err != nil {
		return err
	}
	defer s.registry.Close(ref)

	if !session.Document().CanEdit {
		return ErrEditNotAllowed
	}

	watcher := NewDraftWatcher(session, path, debounce, s.logger)
	watcher.OnSave = onSave
	return watcher.Run(ctx)
}

// open loads the document and its history and registers an edit session
// wired to re-fetch both after every save.
func (s *DocumentService) open(ctx context.Context, ref DocumentRef) (*EditSession, *HistoryStore, error) {
	doc, err := s.Show(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	store, err := s.History(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.registry.Open(doc, EditDeps{
		Saver:    s.backend,
		Fetcher:  s.backend,
		History:  store,
		Observer: s.observer(ref),
		Logger:   s.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return session, store, nil
}

// observer logs session transitions at debug level, visible with --verbose.
func (s *DocumentService) observer(ref DocumentRef) SessionObserver {
	log := s.logger.With(zap.String("doc", ref.String()))
	return ObserverFuncs{
		StateChanged: func(from, to EditState) {
			log.Debug("edit session state", zap.Stringer("from", from), zap.Stringer("to", to))
		},
		DirtyChanged: func(dirty bool) {
			log.Debug("edit session dirty", zap.Bool("dirty", dirty))
		},
	}
}
