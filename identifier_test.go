package mpv_archive

import (
	"regexp"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestIdentifierDeterministic(t *testing.T) {
	assert := assert_.New(t)

	a := Identifier("https://y.test/v", "alice")
	b := Identifier("https://y.test/v", "alice")
	assert.Equal(a, b)
}

func TestIdentifierDistinct(t *testing.T) {
	assert := assert_.New(t)

	urls := []string{
		"https://y.test/v1",
		"https://y.test/v2",
		"https://y.test/v1?t=10",
		"https://other.test/v1",
	}
	seen := make(map[string]string)
	for _, url := range urls {
		id := Identifier(url, "alice")
		if prev, ok := seen[id]; ok {
			t.Fatalf("identifier collision: %q and %q both map to %s", prev, url, id)
		}
		seen[id] = url
	}
	assert.Len(seen, len(urls))
}

func TestIdentifierFormat(t *testing.T) {
	assert := assert_.New(t)

	id := Identifier("https://y.test/v", "alice")
	assert.Regexp(regexp.MustCompile(`^mpv-archive-alice-[0-9a-f]{8}$`), id)
}

func TestDefaultIdentity(t *testing.T) {
	assert := assert_.New(t)
	assert.NotEmpty(DefaultIdentity())
}
