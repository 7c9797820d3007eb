package channels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grjus/youtube-news/internal/domain"
)

func writeCatalogue(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndMap(t *testing.T) {
	path := writeCatalogue(t, `
channels:
  - id: UCBJycsmduvYEL83R_U4JriQ
    title: Some Tech Channel
    genre: SOFTWARE_ENGINEERING
  - id: UCsXVk37bltHxD1rDPwtNM8Q
    title: Science Explainer
    genre: SCIENCE
`)

	cat, err := NewLoader(path).Load()
	require.NoError(t, err)

	channels, err := MapChannels(cat)
	require.NoError(t, err)
	require.Len(t, channels, 2)

	assert.Equal(t, "UCBJycsmduvYEL83R_U4JriQ", channels[0].ID)
	assert.Equal(t, domain.GenreSoftwareEngineering, channels[0].Genre)
	assert.Equal(t, "https://www.youtube.com/channel/UCBJycsmduvYEL83R_U4JriQ", channels[0].URI)
	assert.False(t, channels[0].Active)
}

func TestMapRejectsBadChannelID(t *testing.T) {
	path := writeCatalogue(t, `
channels:
  - id: not-a-channel
    title: Broken
    genre: SCIENCE
`)

	cat, err := NewLoader(path).Load()
	require.NoError(t, err)

	_, err = MapChannels(cat)
	assert.ErrorContains(t, err, "invalid channel id")
}

func TestMapRejectsUnknownGenre(t *testing.T) {
	path := writeCatalogue(t, `
channels:
  - id: UCBJycsmduvYEL83R_U4JriQ
    title: Some Channel
    genre: COOKING
`)

	cat, err := NewLoader(path).Load()
	require.NoError(t, err)

	_, err = MapChannels(cat)
	assert.ErrorContains(t, err, "unknown genre")
}

func TestMapRejectsEmptyCatalogue(t *testing.T) {
	path := writeCatalogue(t, `channels: []`)

	cat, err := NewLoader(path).Load()
	require.NoError(t, err)

	_, err = MapChannels(cat)
	assert.ErrorContains(t, err, "no channels")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader("/nonexistent/channels.yaml").Load()
	assert.Error(t, err)
}
