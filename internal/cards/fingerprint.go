package cards

import (
	"encoding/hex"
	"hash/fnv"
	"strings"
	"unicode"
)

// =============================================================================
// CONTENT FINGERPRINT
// =============================================================================

// shingleSize is the character width of a fingerprint shingle.
const shingleSize = 5

// Fingerprint computes a cheap, order-sensitive digest of a text span, used
// as an exact-duplicate fast path ahead of similarity comparison. The digest
// covers a small ordered set of normalized shingles (first, middle, last)
// plus the shingle count, so trivial reformatting collapses to the same value
// while different content almost never does. Not cryptographic; collisions
// are tolerated because similarity comparison runs behind it.
func Fingerprint(text string) string {
	norm := normalizeForFingerprint(text)

	h := fnv.New64a()
	n := len(norm) - shingleSize + 1
	if n <= 0 {
		h.Write([]byte(norm))
		return hex.EncodeToString(h.Sum(nil))
	}

	first := norm[:shingleSize]
	middle := norm[(n-1)/2 : (n-1)/2+shingleSize]
	last := norm[n-1:]

	h.Write([]byte(first))
	h.Write([]byte{0})
	h.Write([]byte(middle))
	h.Write([]byte{0})
	h.Write([]byte(last))
	h.Write([]byte{0})
	var countBuf [4]byte
	countBuf[0] = byte(n >> 24)
	countBuf[1] = byte(n >> 16)
	countBuf[2] = byte(n >> 8)
	countBuf[3] = byte(n)
	h.Write(countBuf[:])

	return hex.EncodeToString(h.Sum(nil))
}

// normalizeForFingerprint lowercases and strips everything but letters and
// digits, so whitespace and punctuation differences never change the digest.
func normalizeForFingerprint(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
