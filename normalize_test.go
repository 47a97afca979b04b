package mpv_archive

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestNormalizeSchemes(t *testing.T) {
	assert := assert_.New(t)

	for input, expected := range map[string]string{
		"x-mpv-archive://host/path":       "http://host/path",
		"x-mpv-archives://host/path":      "https://host/path",
		"http://host/path":                "http://host/path",
		"https://host/path?v=abc":         "https://host/path?v=abc",
		"https://host/watch?v=abc&t=10s":  "https://host/watch?v=abc&t=10s",
		"x-mpv-archives://host/watch?v=1": "https://host/watch?v=1",
	} {
		target, err := Normalize(input)
		assert.NoError(err, input)
		assert.Equal(expected, target.URL, input)
		assert.True(target.Archive, input)
	}
}

func TestNormalizeEmbeddedURL(t *testing.T) {
	assert := assert_.New(t)

	target, err := Normalize("https://x/?url=https%3A%2F%2Fy.test%2Fv&archive=0")
	assert.NoError(err)
	assert.Equal("https://y.test/v", target.URL)
	assert.False(target.Archive)

	target, err = Normalize("x-mpv-archive://launch?url=https%3A%2F%2Fy.test%2Fv")
	assert.NoError(err)
	assert.Equal("https://y.test/v", target.URL)
	assert.True(target.Archive)
}

func TestNormalizeArchiveFlag(t *testing.T) {
	assert := assert_.New(t)

	target, err := Normalize("https://host/watch?v=abc&archive=0")
	assert.NoError(err)
	assert.Equal("https://host/watch?v=abc", target.URL)
	assert.False(target.Archive)

	target, err = Normalize("https://host/watch?archive=1&v=abc")
	assert.NoError(err)
	assert.Equal("https://host/watch?v=abc", target.URL)
	assert.True(target.Archive)
}

func TestNormalizeInvalid(t *testing.T) {
	assert := assert_.New(t)

	for _, input := range []string{
		"ftp://host/file",
		"not a url at all",
		"x-other://host/path",
		"https://x/?url=ftp%3A%2F%2Fy.test%2Fv",
		"",
	} {
		_, err := Normalize(input)
		assert.ErrorIs(err, ErrInvalidURL, input)
	}
}
