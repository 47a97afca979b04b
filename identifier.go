package mpv_archive

import (
	"crypto/sha1"
	"fmt"
	"os/user"
)

// IdentifierPrefix namespaces every item this tool creates in the remote
// archive, so identifiers never collide with hand-made items.
const IdentifierPrefix = "mpv-archive"

// Identifier derives the remote archive item name for a URL. The same
// (url, identity) pair always produces the same identifier, which is what
// makes "already archived" detection possible without any local state.
func Identifier(rawURL string, identity string) string {
	digest := sha1.Sum([]byte(rawURL))
	return fmt.Sprintf("%s-%s-%x", IdentifierPrefix, identity, digest[:4])
}

// DefaultIdentity is the operator identity used when none is configured:
// the invoking account's name.
func DefaultIdentity() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
