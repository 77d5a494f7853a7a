package budget

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distiller/internal/types"
)

// =============================================================================
// BUDGETER TESTS
// =============================================================================

func tieredWith(n, quoteLen int) types.TieredEvidence {
	quote := strings.Repeat("signal ", quoteLen/7+1)[:quoteLen]
	var t types.TieredEvidence
	for i := 0; i < n; i++ {
		t.HighSignal = append(t.HighSignal, types.EvidenceCard{
			ID:     fmt.Sprintf("c%03d", i),
			Role:   types.RoleEvidence,
			Quote:  quote,
			Themes: []string{"Governance & Compliance"},
			Source: types.SourceRef{DocumentID: "d.txt", Page: 1},
		})
	}
	return t
}

func TestRender_WithinBudgetPassthrough(t *testing.T) {
	tiered := tieredWith(3, 80)
	b := Render(tiered, 10000)

	assert.True(t, b.WithinBudget)
	assert.False(t, b.Shrunk)
	assert.Equal(t, 3, b.CardsUsed)
	assert.Contains(t, b.Text, "signal signal")
	assert.Equal(t, len(b.Text), b.CharCount)
}

func TestRender_ExcerptCollapseFits(t *testing.T) {
	tiered := tieredWith(20, 200)
	full := Render(tiered, 100000)
	require.Greater(t, full.CharCount, 4000, "fixture must overflow the test budget")

	b := Render(tiered, 4000)
	assert.True(t, b.WithinBudget)
	assert.True(t, b.Shrunk)
	assert.LessOrEqual(t, b.CharCount, 4000)
	assert.Contains(t, b.Text, "...", "collapsed quotes carry an ellipsis")
	assert.Equal(t, 20, b.CardsUsed, "excerpting alone drops no cards")
}

func TestRender_LargePackNeverExceedsBudget(t *testing.T) {
	// A pack that serializes to roughly 60k characters against a 10k budget.
	tiered := tieredWith(300, 150)
	full := Render(tiered, 1000000)
	require.Greater(t, full.CharCount, 50000)

	b := Render(tiered, 10000)
	assert.LessOrEqual(t, b.CharCount, 10000)
	assert.True(t, b.WithinBudget)
	assert.True(t, b.Shrunk)
	assert.Less(t, b.CardsUsed, 300, "middle of the pack gets dropped")
}

func TestRender_HardTruncationMarker(t *testing.T) {
	tiered := tieredWith(50, 150)
	b := Render(tiered, 300)

	assert.LessOrEqual(t, b.CharCount, 300)
	assert.True(t, b.WithinBudget)
	assert.True(t, b.Shrunk)
	assert.Contains(t, b.Text, "[TRUNCATED")
}

func TestRender_NonPositiveBudget(t *testing.T) {
	b := Render(tieredWith(3, 80), 0)
	assert.Empty(t, b.Text)
	assert.True(t, b.WithinBudget)
	assert.True(t, b.Shrunk)
}

func TestRenderAll_OneBlockPerPrompt(t *testing.T) {
	tiered := tieredWith(3, 80)
	out := RenderAll(tiered, map[string]int{"narrative": 5000, "tight": 120})

	require.Len(t, out, 2)
	assert.False(t, out["narrative"].Shrunk)
	assert.True(t, out["tight"].Shrunk)
	assert.Nil(t, RenderAll(tiered, nil))
}

func TestShrinkSteps_RuneSafe(t *testing.T) {
	quote := strings.Repeat("€", 60) // 180 bytes, no word boundaries

	got := collapseQuote(quote)
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), excerptLen)

	text := "EVIDENCE: " + strings.Repeat("€", 200)
	cut := hardTruncate(text, 100)
	assert.True(t, utf8.ValidString(cut))
	assert.LessOrEqual(t, len(cut), 100)
}

func TestDropMiddle_InsertsOmittedMarker(t *testing.T) {
	var entries []entry
	for i := 0; i < 10; i++ {
		entries = append(entries, entry{line: fmt.Sprintf("line %d", i), isCard: true})
	}
	out := dropMiddle(entries, 0.5)

	require.Less(t, len(out), len(entries))
	assert.Equal(t, "line 0", out[0].line)
	assert.Equal(t, "line 9", out[len(out)-1].line)

	var marker bool
	for _, e := range out {
		if !e.isCard {
			marker = true
			assert.Contains(t, e.line, "omitted for budget")
		}
	}
	assert.True(t, marker)
}
