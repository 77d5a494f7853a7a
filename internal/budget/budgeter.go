// Package budget serializes tiered evidence into size-bounded text blocks
// for prompt construction. Over-budget packs shrink progressively: long
// quotes collapse to excerpts, then a proportional slice of the card list is
// dropped from the middle, and as a last resort the text is hard-truncated
// with an explicit marker. The budgeter never returns over-budget text.
package budget

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"distiller/internal/logging"
	"distiller/internal/types"
	"go.uber.org/zap"
)

// =============================================================================
// BUDGETER
// =============================================================================

// excerptLen is the collapsed quote length used by the first shrink step.
const excerptLen = 100

// Fractions of the card list preserved when dropping: the head anchors the
// evidence, the tail keeps the most recently ranked cards.
const (
	keepHeadFrac = 0.60
	keepTailFrac = 0.30
)

const truncationMarker = "\n[TRUNCATED: output cut to fit budget]"

// Render serializes the tiered evidence into a single text block no longer
// than budget characters. The returned block always reports whether any
// shrink step fired.
func Render(t types.TieredEvidence, budget int) types.PromptBlock {
	if budget <= 0 {
		return types.PromptBlock{WithinBudget: true, Shrunk: true}
	}

	// Step 0: full serialization.
	entries := collectEntries(t, false)
	text := serialize(entries)
	if len(text) <= budget {
		return block(text, budget, false, len(entries))
	}

	// Step 1: collapse long quotes to excerpts.
	entries = collectEntries(t, true)
	text = serialize(entries)
	if len(text) <= budget {
		return block(text, budget, true, len(entries))
	}

	// Step 2: drop a proportional share of the middle of the card list.
	ratio := float64(budget) / float64(len(text))
	dropped := dropMiddle(entries, ratio)
	text = serialize(dropped)
	if len(text) <= budget {
		return block(text, budget, true, countCards(dropped))
	}

	// Step 3: hard truncation with an explicit marker.
	text = hardTruncate(text, budget)
	logging.Get(logging.CategoryBudget).Debug("prompt block hard-truncated",
		zap.Int("budget", budget))
	return block(text, budget, true, countCards(dropped))
}

// RenderAll budgets one block per prompt type.
func RenderAll(t types.TieredEvidence, budgets map[string]int) map[string]types.PromptBlock {
	if len(budgets) == 0 {
		return nil
	}
	out := make(map[string]types.PromptBlock, len(budgets))
	for name, b := range budgets {
		out[name] = Render(t, b)
	}
	return out
}

func block(text string, budget int, shrunk bool, cards int) types.PromptBlock {
	return types.PromptBlock{
		Text:         text,
		CharCount:    len(text),
		WithinBudget: len(text) <= budget,
		Shrunk:       shrunk,
		CardsUsed:    cards,
	}
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// entry is one serialized line. The omitted marker is an entry with no card.
type entry struct {
	line   string
	isCard bool
}

// collectEntries flattens the tiered evidence into serialized lines,
// high-signal quotes first, context summaries after.
func collectEntries(t types.TieredEvidence, excerpts bool) []entry {
	var entries []entry
	for _, c := range t.HighSignal {
		quote := c.Quote
		if excerpts && len(quote) > excerptLen {
			quote = collapseQuote(quote)
		}
		entries = append(entries, entry{
			line: fmt.Sprintf("- [%s|%s] %q (%s p.%d)",
				c.PrimaryTheme(), c.Role, quote, c.Source.DocumentID, c.Source.Page),
			isCard: true,
		})
	}
	for _, c := range t.Context {
		entries = append(entries, entry{
			line:   fmt.Sprintf("* [%s] %s (%s)", c.Theme, c.Summary, c.SourceDoc),
			isCard: true,
		})
	}
	return entries
}

func serialize(entries []entry) string {
	var b strings.Builder
	b.WriteString("EVIDENCE:\n")
	for _, e := range entries {
		b.WriteString(e.line)
		b.WriteByte('\n')
	}
	return b.String()
}

// collapseQuote shortens a quote to an excerpt on a word boundary.
func collapseQuote(quote string) string {
	cut := cutAtRune(quote, excerptLen-3)
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// cutAtRune cuts s to at most n bytes on a rune boundary.
func cutAtRune(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// dropMiddle removes enough of the middle of the entry list to approximate
// the target ratio, keeping the head and tail fractions, and inserts an
// omitted marker in the gap.
func dropMiddle(entries []entry, ratio float64) []entry {
	n := len(entries)
	keep := int(float64(n) * ratio)
	if keep >= n {
		return entries
	}
	if keep < 2 {
		keep = 2
	}
	head := int(float64(keep) * keepHeadFrac)
	tail := keep - head
	if head < 1 {
		head = 1
	}
	if tail < 1 {
		tail = 1
	}
	if head+tail >= n {
		return entries
	}

	omitted := n - head - tail
	out := make([]entry, 0, head+tail+1)
	out = append(out, entries[:head]...)
	out = append(out, entry{line: fmt.Sprintf("[... %d cards omitted for budget ...]", omitted)})
	out = append(out, entries[n-tail:]...)
	return out
}

// hardTruncate cuts text to fit the budget including the truncation marker.
func hardTruncate(text string, budget int) string {
	if budget <= len(truncationMarker) {
		return cutAtRune(text, budget)
	}
	cut := cutAtRune(text, budget-len(truncationMarker))
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut + truncationMarker
}

func countCards(entries []entry) int {
	n := 0
	for _, e := range entries {
		if e.isCard {
			n++
		}
	}
	return n
}
