package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 500 * time.Millisecond

// DraftWatcher saves a local file as a new version whenever it settles after
// a burst of writes.
type DraftWatcher struct {
	session  *EditSession
	path     string
	debounce time.Duration
	logger   *zap.Logger

	// OnSave, when set, is called after every save attempt.
	OnSave func(doc *Document, err error)
}

func NewDraftWatcher(session *EditSession, path string, debounce time.Duration, logger *zap.Logger) *DraftWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	return &DraftWatcher{
		session:  session,
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger.With(zap.String("file", path)),
	}
}

// Run blocks until ctx is done. The parent directory is watched so editors
// that replace the file on save are still picked up.
func (w *DraftWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.logger.Info("watching draft", zap.Duration("debounce", w.debounce))

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			doc, err := w.Flush(ctx)
			if w.OnSave != nil && (doc != nil || err != nil) {
				w.OnSave(doc, err)
			}
		}
	}
}

func (w *DraftWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Flush saves the file's current content if it differs from the document.
// It returns a nil document when there was nothing to save.
func (w *DraftWatcher) Flush(ctx context.Context) (*Document, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read draft: %w", err)
	}
	content := string(data)

	current := w.session.Document()
	if strings.TrimSpace(content) == strings.TrimSpace(current.Content) {
		return nil, nil
	}

	if err := w.session.StartEdit(); err != nil {
		return nil, err
	}
	if err := w.session.SetContent(content); err != nil {
		_ = w.session.Cancel()
		return nil, err
	}

	doc, err := w.session.Save(ctx)
	if err != nil {
		_ = w.session.Cancel()
		if errors.Is(err, ErrValidation) {
			w.logger.Warn("draft rejected", zap.Error(err))
		} else {
			w.logger.Error("draft save failed", zap.Error(err))
		}
		return nil, err
	}

	w.logger.Info("draft saved", zap.Int("version", doc.VersionNumber))
	return doc, nil
}
