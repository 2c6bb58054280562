package similarity

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpus = `{"raw_title": "Add password reset", "raw_description": "Users forgot password and need email reset link"}
{"raw_title": "Login page crash", "raw_description": "Login page crashes on invalid password"}
not json at all
{"title": "Export CSV report", "description": "Allow exporting monthly invoices as CSV"}
{"raw_title": "", "raw_description": ""}
{"raw_title": "Dark mode", "raw_description": "Theme toggle for dashboard"}
`

func TestCorpusProvider_Query(t *testing.T) {
	p, err := NewCorpusProvider(strings.NewReader(corpus), true)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Len())
	assert.True(t, p.Enabled())

	got, err := p.Query(context.Background(), "reset the user password via email", 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Add password reset", got[0].Title)
	assert.LessOrEqual(t, len(got), 3)

	got, err = p.Query(context.Background(), "export invoices csv", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Export CSV report", got[0].Title)
	assert.Equal(t, "Allow exporting monthly invoices as CSV", got[0].Description)
}

func TestCorpusProvider_NoMatches(t *testing.T) {
	p, err := NewCorpusProvider(strings.NewReader(corpus), true)
	require.NoError(t, err)

	got, err := p.Query(context.Background(), "", 3)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = p.Query(context.Background(), "kubernetes autoscaling", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCorpusProvider_DisabledOrEmpty(t *testing.T) {
	p, err := NewCorpusProvider(strings.NewReader(corpus), false)
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	empty, err := NewCorpusProvider(strings.NewReader(""), true)
	require.NoError(t, err)
	assert.False(t, empty.Enabled())
}

func TestLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0644))

	p, err := LoadCorpus(path, true)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Len())

	_, err = LoadCorpus(filepath.Join(t.TempDir(), "missing.jsonl"), true)
	assert.Error(t, err)
}
