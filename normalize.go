package mpv_archive

import (
	"fmt"
	"net/url"
	"strings"
)

// Custom pseudo-schemes registered by the desktop handler. The trailing "s"
// variant maps to https, mirroring the http/https split.
const (
	SchemeHTTP  = "x-mpv-archive:"
	SchemeHTTPS = "x-mpv-archives:"
)

// Query parameters understood by the bookmarklet/handler URL format; anything
// else in the query string is passed through untouched.
const (
	paramURL     = "url"
	paramArchive = "archive"
)

// A Target is the result of normalizing a raw handler URL: the effective
// http(s) URL to play, and whether the session should be archived afterwards.
type Target struct {
	URL     string
	Archive bool
}

// Normalize rewrites a raw handler URL into a playable http(s) URL.
//
// If the query carries a url= parameter, its percent-decoded value is the
// effective target. Otherwise the custom scheme prefix (if any) is rewritten
// to http/https and the remaining query string is preserved, minus the
// handler's own parameters. Returns ErrInvalidURL if the result is not an
// http(s) URL.
func Normalize(raw string) (Target, error) {
	target := Target{Archive: true}

	rewritten := raw
	if strings.HasPrefix(raw, SchemeHTTPS) {
		rewritten = "https:" + raw[len(SchemeHTTPS):]
	} else if strings.HasPrefix(raw, SchemeHTTP) {
		rewritten = "http:" + raw[len(SchemeHTTP):]
	}

	parsed, err := url.Parse(rewritten)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	query := parsed.Query()
	if v := query.Get(paramArchive); v != "" {
		target.Archive = v == "1"
	}

	if embedded := query.Get(paramURL); embedded != "" {
		// url.Values has already percent-decoded the parameter value.
		target.URL = embedded
	} else {
		parsed.RawQuery = stripHandlerParams(parsed.RawQuery)
		target.URL = parsed.String()
	}

	if !strings.HasPrefix(target.URL, "http://") && !strings.HasPrefix(target.URL, "https://") {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidURL, target.URL)
	}
	return target, nil
}

// stripHandlerParams removes the handler's own parameters from a raw query
// string while keeping the remaining pairs byte-for-byte intact.
func stripHandlerParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		if key == paramURL || key == paramArchive {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
