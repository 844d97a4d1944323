package deck

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ciaranbyrne/revise/internal/domain"
)

// Normalize produces the canonical text a card is fingerprinted on:
// each field lowercased, trimmed and with CRLF collapsed to LF, then
// question and answer joined with a newline so fields cannot bleed
// into each other.
func Normalize(in domain.CardInput) string {
	clean := func(s string) string {
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "\r\n", "\n")
		return strings.TrimSpace(s)
	}
	return clean(in.Question) + "\n" + clean(in.Answer)
}

// Fingerprint returns the SHA-256 hex digest of the normalized card
// content. Cards that differ only in case or surrounding whitespace
// share a fingerprint.
func Fingerprint(in domain.CardInput) string {
	sum := sha256.Sum256([]byte(Normalize(in)))
	return hex.EncodeToString(sum[:])
}
