// Package cards turns surviving chunks into scored evidence cards: verbatim
// quote extraction, multi-dimensional scoring, class/role/confidence
// inference, and content fingerprinting. One card per chunk, capped per
// document by descending total score.
package cards

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"distiller/internal/config"
	"distiller/internal/logging"
	"distiller/internal/types"
	"go.uber.org/zap"
)

// =============================================================================
// BUILDER
// =============================================================================

// Builder assembles evidence cards from chunks.
type Builder struct {
	profile *config.DistillationProfile
	scorer  *Scorer

	// keywords drives quote selection: the sentence with the densest
	// keyword coverage becomes the quote.
	keywords []string

	// createdAt stamps every card from this run identically, keeping output
	// byte-stable for a given input.
	createdAt time.Time
}

// NewBuilder creates a card builder for one run. createdAt is the run start
// time; every card carries it so repeated runs over the same input differ
// only by this timestamp.
func NewBuilder(p *config.DistillationProfile, createdAt time.Time) *Builder {
	return &Builder{
		profile:   p,
		scorer:    NewScorer(p),
		keywords:  scoringKeywords(p),
		createdAt: createdAt,
	}
}

// scoringKeywords collects the lowercase terms whose density drives quote
// selection: configured signals and mandate phrases plus the static
// compliance vocabulary.
func scoringKeywords(p *config.DistillationProfile) []string {
	static := []string{
		"shall", "must", "required", "mandatory",
		"risk", "audit", "compliance", "security", "modernization",
		"million", "billion", "funding", "contract",
	}
	kws := make([]string, 0, len(static))
	seen := make(map[string]bool)
	add := func(terms ...string) {
		for _, t := range terms {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && !seen[t] {
				seen[t] = true
				kws = append(kws, t)
			}
		}
	}
	add(static...)
	add(p.MandatePhrases...)
	add(p.HighPrioritySignals...)
	add(p.MediumPrioritySignals...)
	add(p.OrganizationalUnits...)
	return kws
}

// Build converts chunks into cards, applying the per-document cap. Input
// order is preserved within each document's survivors.
func (b *Builder) Build(chunks []types.Chunk) []types.EvidenceCard {
	byDoc := make(map[string][]types.EvidenceCard)
	var docOrder []string

	for _, c := range chunks {
		card := b.buildOne(c)
		if _, seen := byDoc[card.Source.DocumentID]; !seen {
			docOrder = append(docOrder, card.Source.DocumentID)
		}
		byDoc[card.Source.DocumentID] = append(byDoc[card.Source.DocumentID], card)
	}

	var out []types.EvidenceCard
	for _, doc := range docOrder {
		out = append(out, b.capDocument(byDoc[doc])...)
	}

	logging.Get(logging.CategoryCards).Debug("cards built",
		zap.Int("chunks", len(chunks)),
		zap.Int("cards", len(out)))
	return out
}

// buildOne assembles a single card from a chunk.
func (b *Builder) buildOne(c types.Chunk) types.EvidenceCard {
	quote := b.ExtractQuote(c.Text)

	return types.EvidenceCard{
		ID:                 fmt.Sprintf("%s:%d:%d", c.DocumentID, c.Page, c.ByteOffset),
		ContentFingerprint: Fingerprint(c.Text),
		CreatedAt:          b.createdAt,
		TargetProfile:      b.profile.TargetID,
		Quote:              quote,
		Claim:              condenseClaim(quote),
		FunctionTag:        InferFunctionTag(c.Text),
		Class:              Classify(c.Text),
		Role:               InferRole(c.Text),
		Confidence:         InferConfidence(c),
		Novelty:            1.0, // refined during deduplication
		Scores:             b.scorer.Score(c),
		Source: types.SourceRef{
			DocumentID:  c.DocumentID,
			Page:        c.Page,
			SectionHint: c.Heading,
			SpanStart:   c.ByteOffset,
			SpanEnd:     c.ByteOffset + c.ByteLength,
		},
	}
}

// capDocument keeps at most MaxPerDocument cards per document, by descending
// total score. Ties keep the earlier span for determinism.
func (b *Builder) capDocument(cardList []types.EvidenceCard) []types.EvidenceCard {
	if len(cardList) <= b.profile.MaxPerDocument {
		return cardList
	}
	sorted := make([]types.EvidenceCard, len(cardList))
	copy(sorted, cardList)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Scores.Total != sorted[j].Scores.Total {
			return sorted[i].Scores.Total > sorted[j].Scores.Total
		}
		return sorted[i].Source.SpanStart < sorted[j].Source.SpanStart
	})
	sorted = sorted[:b.profile.MaxPerDocument]

	// Restore document order among the keepers.
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Source.SpanStart < sorted[j].Source.SpanStart
	})
	return sorted
}

// =============================================================================
// QUOTE EXTRACTION
// =============================================================================

var sentenceSplitRe = regexp.MustCompile(`(?:[.!?]["')\]]?)\s+`)

// ExtractQuote picks the verbatim quote for a chunk: the sentence at or
// under the length ceiling with the highest keyword density, ties broken by
// shorter length. Sentences are substrings of the original text, so the
// quote stays byte-verbatim to its source span. Falls back to a hard
// word-boundary truncation when no sentence qualifies.
func (b *Builder) ExtractQuote(text string) string {
	best := ""
	bestDensity := -1.0
	for _, sent := range splitSentences(text) {
		if len(sent) > types.MaxQuoteLen || len(sent) == 0 {
			continue
		}
		d := b.keywordDensity(sent)
		if d > bestDensity || (d == bestDensity && len(sent) < len(best)) {
			best = sent
			bestDensity = d
		}
	}
	if best != "" {
		return best
	}
	return truncateAtWord(strings.TrimSpace(text), types.MaxQuoteLen)
}

// splitSentences performs a lightweight sentence split; good enough for
// policy prose, deterministic, no allocation of a parser.
func splitSentences(text string) []string {
	bounds := sentenceSplitRe.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return []string{text}
	}
	var out []string
	prev := 0
	for _, m := range bounds {
		out = append(out, strings.TrimSpace(text[prev:m[1]]))
		prev = m[1]
	}
	if rest := strings.TrimSpace(text[prev:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// keywordDensity scores keyword hits per character. Density (not raw count)
// so a tight sentence beats a rambling one with the same hits.
func (b *Builder) keywordDensity(sentence string) float64 {
	lower := strings.ToLower(sentence)
	hits := 0
	for _, kw := range b.keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(sentence))
}

// truncateAtWord hard-truncates at the last word boundary within limit,
// never splitting a rune.
func truncateAtWord(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := cutAtRune(text, limit)
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut
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

// maxClaimLen bounds the paraphrase attached next to the quote.
const maxClaimLen = 160

var citationClutterRe = regexp.MustCompile(`\s*\((?:see|ref|source|citation)[^)]*\)`)

// condenseClaim derives the short paraphrase: quote text with citation
// clutter removed, whitespace normalized, and a word-boundary cap.
func condenseClaim(quote string) string {
	claim := citationClutterRe.ReplaceAllString(quote, "")
	claim = strings.Join(strings.Fields(claim), " ")
	claim = strings.TrimRight(claim, ".;:, ")
	return truncateAtWord(claim, maxClaimLen)
}
