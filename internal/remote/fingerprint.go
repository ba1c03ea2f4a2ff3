package remote

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/example/stacksync/internal/stack"
)

// Fingerprint hashes content for change detection. Exactly one trailing
// newline is stripped first, so two bodies differing only in a final
// newline compare as identical.
func Fingerprint(body []byte) string {
	if n := len(body); n > 0 && body[n-1] == '\n' {
		body = body[:n-1]
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// EnvFingerprint hashes env vars in canonical KEY=value form, so comment
// and blank-line differences between two env files never register as
// change.
func EnvFingerprint(vars []stack.EnvVar) string {
	return Fingerprint(stack.FormatEnv(vars))
}
