package cards

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distiller/internal/config"
	"distiller/internal/types"
)

// =============================================================================
// BUILDER TESTS
// =============================================================================

var testCreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestBuild_QuoteLengthInvariant(t *testing.T) {
	b := NewBuilder(config.DefaultProfile(), testCreatedAt)

	long := strings.Repeat("word ", 120) // one 600-char run with no sentence breaks
	chunks := []types.Chunk{
		{DocumentID: "a.txt", Text: "The agency must adopt zero trust architecture. A shorter filler clause follows here."},
		{DocumentID: "a.txt", ByteOffset: 500, Text: long},
	}

	for _, c := range b.Build(chunks) {
		assert.LessOrEqual(t, len(c.Quote), types.MaxQuoteLen, "card %s", c.ID)
	}
}

func TestBuild_PicksKeywordDenseSentence(t *testing.T) {
	b := NewBuilder(config.DefaultProfile(), testCreatedAt)

	chunk := types.Chunk{
		DocumentID: "a.txt",
		Text: "The weather was pleasant throughout the entire reporting period in question. " +
			"Agencies must fund mandatory security modernization.",
	}
	card := b.Build([]types.Chunk{chunk})[0]
	assert.Equal(t, "Agencies must fund mandatory security modernization.", card.Quote)
}

func TestBuild_StableIDAndProvenance(t *testing.T) {
	b := NewBuilder(config.DefaultProfile(), testCreatedAt)

	chunk := types.Chunk{
		DocumentID: "audit.txt",
		Page:       7,
		Heading:    "Findings",
		ByteOffset: 1024,
		ByteLength: 80,
		Text:       "The department must remediate the finding before the next assessment cycle.",
	}
	card := b.Build([]types.Chunk{chunk})[0]

	assert.Equal(t, "audit.txt:7:1024", card.ID)
	assert.Equal(t, "Findings", card.Source.SectionHint)
	assert.Equal(t, 1024, card.Source.SpanStart)
	assert.Equal(t, 1104, card.Source.SpanEnd)
	assert.Equal(t, testCreatedAt, card.CreatedAt)
	assert.NotEmpty(t, card.ContentFingerprint)
}

func TestBuild_PerDocumentCap(t *testing.T) {
	p := config.DefaultProfile()
	p.MaxPerDocument = 3

	b := NewBuilder(p, testCreatedAt)

	var chunks []types.Chunk
	for i := 0; i < 10; i++ {
		text := fmt.Sprintf("Plain filler paragraph number %d with nothing remarkable inside it at all.", i)
		if i == 2 || i == 5 {
			// High scorers: acronym, mandate, citation.
			text = fmt.Sprintf("CISA must satisfy OMB M-22-09 milestone %d under the program.", i)
		}
		chunks = append(chunks, types.Chunk{DocumentID: "big.txt", ByteOffset: i * 100, Text: text})
	}

	out := b.Build(chunks)
	require.Len(t, out, 3)

	// The two high scorers must be among the keepers.
	ids := map[string]bool{}
	for _, c := range out {
		ids[c.ID] = true
	}
	assert.True(t, ids["big.txt:0:200"])
	assert.True(t, ids["big.txt:0:500"])

	// Keepers come back in document order.
	assert.Less(t, out[0].Source.SpanStart, out[1].Source.SpanStart)
	assert.Less(t, out[1].Source.SpanStart, out[2].Source.SpanStart)
}

func TestExtractQuote_Verbatim(t *testing.T) {
	b := NewBuilder(config.DefaultProfile(), testCreatedAt)

	// Hard-wrapped source line: the selected quote must be a byte-exact
	// substring of the original text, newline included.
	text := "Agencies must fund mandatory\nsecurity modernization. The weather was pleasant today there."
	quote := b.ExtractQuote(text)

	assert.Equal(t, "Agencies must fund mandatory\nsecurity modernization.", quote)
	assert.True(t, strings.Contains(text, quote))
}

func TestTruncateAtWord_RuneSafe(t *testing.T) {
	// An unbroken multibyte run with no word boundary must cut cleanly.
	text := strings.Repeat("€", 100)
	got := truncateAtWord(text, types.MaxQuoteLen)

	assert.LessOrEqual(t, len(got), types.MaxQuoteLen)
	assert.True(t, utf8.ValidString(got))
}

func TestCondenseClaim(t *testing.T) {
	got := condenseClaim(`The program met its goal (see appendix B for detail).`)
	assert.Equal(t, "The program met its goal", got)

	long := strings.Repeat("evidence ", 40)
	assert.LessOrEqual(t, len(condenseClaim(long)), maxClaimLen)
}
