package gitrepo

import (
	"encoding/base64"
	"unicode/utf8"
)

// DecodeContent converts a base64-encoded blob into a classified payload.
// Decoded bytes that form valid UTF-8 come back as text; anything else as
// binary. It never fails: an input that is not valid base64 is treated as
// raw binary as-is, because there are no decoded bytes to fall back to.
func DecodeContent(encoded string) Blob {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Blob{Data: []byte(encoded)}
	}
	return DecodeBytes(raw)
}

// DecodeBytes classifies already-decoded bytes as text or binary. Used by
// transports that strip the base64 layer themselves.
func DecodeBytes(raw []byte) Blob {
	if utf8.Valid(raw) {
		return Blob{Text: string(raw), IsText: true}
	}
	return Blob{Data: raw}
}

// Unlimited disables truncation when passed to Limit.
const Unlimited = -1

// Limit caps items to at most n elements, preserving order. A negative n
// returns the input unchanged; n == 0 yields an empty slice. Truncation
// applies uniformly to every listing reposnap produces.
func Limit[T any](items []T, n int) []T {
	if n < 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
