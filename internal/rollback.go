package internal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RollbackCoordinator restores an old version by saving its content as a new
// version through the session's normal save path. History is never rewritten.
type RollbackCoordinator struct {
	session *EditSession
	logger  *zap.Logger
}

func NewRollbackCoordinator(session *EditSession, logger *zap.Logger) *RollbackCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RollbackCoordinator{session: session, logger: logger}
}

// Restore saves version's title and content as the newest version of ref.
// canEdit is the caller's capability flag; it is not derived here.
func (r *RollbackCoordinator) Restore(ctx context.Context, ref DocumentRef, version Version, canEdit bool) (*Document, error) {
	if !canEdit {
		return nil, ErrEditNotAllowed
	}
	if r.session.Ref() != ref {
		return nil, fmt.Errorf("%w: %s", ErrDocumentMismatch, ref)
	}
	if strings.TrimSpace(version.Content) == "" {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidRestoreTarget, version.Number)
	}

	log := r.logger.With(zap.String("doc", ref.String()), zap.Int("version", version.Number))

	if err := r.session.StartEdit(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if err := r.loadDraft(version); err != nil {
		_ = r.session.Cancel()
		return nil, fmt.Errorf("restore: %w", err)
	}

	doc, err := r.session.Save(ctx)
	if err != nil {
		_ = r.session.Cancel()
		log.Warn("restore failed", zap.Error(err))
		return nil, fmt.Errorf("restore version %d: %w", version.Number, err)
	}

	log.Info("version restored", zap.Int("new_version", doc.VersionNumber))
	return doc, nil
}

func (r *RollbackCoordinator) loadDraft(version Version) error {
	if err := r.session.SetTitle(version.TitleOrEmpty()); err != nil {
		return err
	}
	return r.session.SetContent(version.Content)
}
