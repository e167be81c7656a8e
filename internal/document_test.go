package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, in := range []string{"", "memory", "Memories"} {
		k, err := ParseKind(in)
		require.NoError(t, err)
		assert.Equal(t, KindMemory, k)
	}

	k, err := ParseKind("chapter")
	require.NoError(t, err)
	assert.Equal(t, KindChapter, k)

	_, err = ParseKind("photo")
	assert.Error(t, err)
}

func TestParseDocumentRef(t *testing.T) {
	ref, err := ParseDocumentRef(KindChapter, " 42 ")
	require.NoError(t, err)
	assert.Equal(t, DocumentRef{Kind: KindChapter, ID: 42}, ref)
	assert.Equal(t, "chapter/42", ref.String())

	_, err = ParseDocumentRef(KindMemory, "abc")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = ParseDocumentRef(KindMemory, "0")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestNormalizeTitle(t *testing.T) {
	assert.Nil(t, NormalizeTitle(""))
	assert.Nil(t, NormalizeTitle("   "))
	assert.Nil(t, NormalizeTitle("\t\n"))

	title := NormalizeTitle("  Road trip ")
	require.NotNil(t, title)
	assert.Equal(t, "Road trip", *title)
}

func TestBuildSavePayload(t *testing.T) {
	_, err := BuildSavePayload("Title", "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = BuildSavePayload("Title", "")
	assert.ErrorIs(t, err, ErrValidation)

	p, err := BuildSavePayload("", " body ")
	require.NoError(t, err)
	assert.Nil(t, p.Title)
	assert.Equal(t, "body", p.Content)
}

func TestVersionHistoryCurrent(t *testing.T) {
	var nilHistory *VersionHistory
	assert.Equal(t, 0, nilHistory.Current())

	h := &VersionHistory{Versions: []Version{{Number: 2}, {Number: 5}, {Number: 3}}}
	assert.Equal(t, 5, h.Current())

	h.ReportedCurrent = 3
	assert.Equal(t, 3, h.Current())
}
