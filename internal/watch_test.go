package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftWatcherFlush(t *testing.T) {
	session, backend, _, _ := newTestSession(t, testDoc(1))
	path := filepath.Join(t.TempDir(), "draft.md")
	watcher := NewDraftWatcher(session, path, 0, nil)

	// missing file
	doc, err := watcher.Flush(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)

	// unchanged content
	require.NoError(t, os.WriteFile(path, []byte("We drove north.\n"), 0644))
	doc, err = watcher.Flush(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)
	assert.Empty(t, backend.savedPayloads())

	require.NoError(t, os.WriteFile(path, []byte("We drove north to the lake.\n"), 0644))
	doc, err = watcher.Flush(context.Background())
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, 3, doc.VersionNumber)

	payloads := backend.savedPayloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "We drove north to the lake.", payloads[0].Content)
	require.NotNil(t, payloads[0].Title)
	assert.Equal(t, "Summer 1994", *payloads[0].Title)
	assert.Equal(t, StateViewing, session.State())
}

func TestDraftWatcherRejectsEmptyFile(t *testing.T) {
	session, backend, _, _ := newTestSession(t, testDoc(1))
	path := filepath.Join(t.TempDir(), "draft.md")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	watcher := NewDraftWatcher(session, path, 0, nil)
	_, err := watcher.Flush(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, backend.savedPayloads())
	assert.Equal(t, StateViewing, session.State())
}

func TestDraftWatcherRun(t *testing.T) {
	session, backend, _, _ := newTestSession(t, testDoc(1))
	path := filepath.Join(t.TempDir(), "draft.md")
	require.NoError(t, os.WriteFile(path, []byte("We drove north."), 0644))

	watcher := NewDraftWatcher(session, path, 20*time.Millisecond, nil)
	saved := make(chan *Document, 4)
	watcher.OnSave = func(doc *Document, err error) {
		if err == nil {
			saved <- doc
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// give the watcher time to register
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("We drove north, fast."), 0644)
		select {
		case doc := <-saved:
			return doc.Content == "We drove north, fast."
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.NotEmpty(t, backend.savedPayloads())
}
