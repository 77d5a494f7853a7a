// Package chunker splits raw documents into provenance-tagged text spans and
// filters out boilerplate before any scoring happens. Both operations are pure
// functions of their inputs; chunks live only for the duration of a run.
package chunker

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"distiller/internal/types"
)

// =============================================================================
// SPLITTER
// =============================================================================

// minChunkLen filters out fragments too short to carry a citable claim.
const minChunkLen = 30

var pageMarkerRe = regexp.MustCompile(`(?i)^\s*(?:-{1,3}\s*)?(?:\[\s*)?page\s+(\d{1,4})(?:\s*\])?\s*(?:-{1,3})?\s*$`)

// Split breaks a document into chunks on paragraph and heading boundaries,
// carrying forward the last-seen page marker and heading line. Byte offsets
// index into the original document text.
func Split(doc types.Document) []types.Chunk {
	var chunks []types.Chunk

	page := 0
	heading := ""

	var paraStart, paraEnd int
	var paraLines []string

	flush := func() {
		if len(paraLines) == 0 {
			return
		}
		text := strings.Join(paraLines, "\n")
		paraLines = nil
		if len(strings.TrimSpace(text)) < minChunkLen {
			return
		}
		chunks = append(chunks, types.Chunk{
			DocumentID: doc.Name,
			Page:       page,
			Heading:    heading,
			ByteOffset: paraStart,
			ByteLength: paraEnd - paraStart,
			Text:       text,
		})
	}

	offset := 0
	for _, line := range strings.SplitAfter(doc.Text, "\n") {
		lineStart := offset
		offset += len(line)
		trimmed := strings.TrimRight(line, "\n")
		stripped := strings.TrimSpace(trimmed)

		switch {
		case stripped == "":
			flush()

		case pageMarkerRe.MatchString(stripped):
			flush()
			if m := pageMarkerRe.FindStringSubmatch(stripped); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					page = n
				}
			}

		case isHeadingLine(stripped):
			flush()
			heading = stripped

		default:
			if len(paraLines) == 0 {
				paraStart = lineStart
			}
			paraLines = append(paraLines, trimmed)
			paraEnd = lineStart + len(trimmed)
		}
	}
	flush()

	return chunks
}

// SplitAll chunks every document in order.
func SplitAll(docs []types.Document) []types.Chunk {
	var all []types.Chunk
	for _, doc := range docs {
		all = append(all, Split(doc)...)
	}
	return all
}

var numberedHeadingRe = regexp.MustCompile(`^(?:\d+(?:\.\d+)*|[IVXLC]+\.|[A-Z]\.)\s+\S`)

// isHeadingLine detects section headings: short lines without sentence-final
// punctuation that are numbered, all-caps, or title-cased.
func isHeadingLine(s string) bool {
	if len(s) == 0 || len(s) > 90 {
		return false
	}
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, ",") || strings.HasSuffix(s, ";") {
		return false
	}
	words := strings.Fields(s)
	if len(words) > 12 {
		return false
	}
	if numberedHeadingRe.MatchString(s) {
		return true
	}
	if isAllCaps(s) {
		return true
	}
	// Title Case: every significant word capitalized.
	if len(words) >= 2 {
		capitalized := 0
		for _, w := range words {
			r, _ := utf8.DecodeRuneInString(w)
			if unicode.IsUpper(r) || unicode.IsDigit(r) {
				capitalized++
			}
		}
		return capitalized == len(words)
	}
	return false
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
