package archive

import (
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func writeSidecar(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "v.info.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractMetadataFull(t *testing.T) {
	assert := assert_.New(t)
	path := writeSidecar(t, `{
		"title": "A Video",
		"description": "About things",
		"tags": ["one", "two"],
		"uploader": "someone",
		"webpage_url": "https://y.test/canonical"
	}`)

	md := ExtractMetadata(path, "https://y.test/original")
	assert.Equal("A Video", md.Title)
	assert.Equal("About things", md.Description)
	assert.Equal([]string{"one", "two"}, md.Subject)
	assert.Equal("someone", md.Creator)
	assert.Equal("https://y.test/canonical", md.Source)
	assert.Equal(MediaType, md.MediaType)
	assert.Equal(Collection, md.Collection)
}

func TestExtractMetadataFallbacks(t *testing.T) {
	assert := assert_.New(t)
	path := writeSidecar(t, `{
		"categories": ["Music"],
		"channel": "a channel"
	}`)

	md := ExtractMetadata(path, "https://y.test/v")
	assert.Equal("Untitled Video", md.Title)
	assert.Equal("", md.Description)
	assert.Equal([]string{"Music"}, md.Subject)
	assert.Equal("a channel", md.Creator)
	assert.Equal("https://y.test/v", md.Source)
}

func TestExtractMetadataEmptySidecar(t *testing.T) {
	assert := assert_.New(t)
	path := writeSidecar(t, `{}`)

	md := ExtractMetadata(path, "https://y.test/v")
	assert.Equal("Untitled Video", md.Title)
	assert.Equal([]string{}, md.Subject)
	assert.Equal("", md.Creator)
	assert.Equal("https://y.test/v", md.Source)
	assert.Equal(MediaType, md.MediaType)
	assert.Equal(Collection, md.Collection)
}

func TestExtractMetadataUnreadable(t *testing.T) {
	assert := assert_.New(t)

	// Missing file and malformed JSON both degrade, never fail.
	md := ExtractMetadata(filepath.Join(t.TempDir(), "nope.info.json"), "https://y.test/v")
	assert.Equal("Untitled Video", md.Title)
	assert.Equal("https://y.test/v", md.Source)

	path := writeSidecar(t, `{not json`)
	md = ExtractMetadata(path, "https://y.test/v")
	assert.Equal("Untitled Video", md.Title)
	assert.Equal("https://y.test/v", md.Source)
	assert.Equal(Collection, md.Collection)
}

func TestMetadataHeaders(t *testing.T) {
	assert := assert_.New(t)
	md := Metadata{
		Title:      "A Video",
		Creator:    "someone",
		Subject:    []string{"one", "two"},
		Source:     "https://y.test/v",
		MediaType:  MediaType,
		Collection: Collection,
	}
	h := md.headers()
	assert.Equal("A Video", h["X-Archive-Meta-Title"])
	assert.Equal("one;two", h["X-Archive-Meta-Subject"])
	assert.Equal("movies", h["X-Archive-Meta-Mediatype"])
	assert.NotContains(h, "X-Archive-Meta-Description")
}
