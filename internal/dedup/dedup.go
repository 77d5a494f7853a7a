// Package dedup removes near-duplicate evidence cards with two ordered
// similarity passes: within-theme first, then global. An exact fingerprint
// match short-circuits the similarity computation; everything else falls back
// to Jaccard overlap of normalized word sets. Collisions resolve by
// confidence, then total score, then source diversity.
package dedup

import (
	"strings"
	"unicode"

	"distiller/internal/config"
	"distiller/internal/logging"
	"distiller/internal/types"
	"go.uber.org/zap"
)

// =============================================================================
// DEDUPLICATOR
// =============================================================================

// Deduplicator owns the two-pass clustering. Thresholds come from the
// profile; the defaults are tuned starting points, not constants.
type Deduplicator struct {
	thresholds config.DedupThresholds
}

// New creates a deduplicator from a profile.
func New(p *config.DistillationProfile) *Deduplicator {
	return &Deduplicator{thresholds: p.Dedup}
}

// Run executes both passes and reports drops. Input order is preserved for
// survivors; novelty on each survivor is updated to one minus the highest
// similarity it was compared at.
func (d *Deduplicator) Run(cardList []types.EvidenceCard) ([]types.EvidenceCard, types.DedupReport) {
	report := types.DedupReport{
		SimilarityThreshold: d.thresholds.Global,
		DroppedByTheme:      make(map[string]int),
	}

	// Pass 1: within primary theme, tighter threshold.
	afterPass1 := d.pass(cardList, d.thresholds.WithinTheme, true, &report)

	// Pass 2: across the full set. Looser because cross-theme near-misses
	// are more often genuinely distinct.
	survivors := d.pass(afterPass1, d.thresholds.Global, false, &report)

	report.KeptCount = len(survivors)

	logging.Get(logging.CategoryDedup).Debug("dedup complete",
		zap.Int("in", len(cardList)),
		zap.Int("kept", len(survivors)),
		zap.Int("dropped", report.DroppedCount))
	return survivors, report
}

// pass runs one clustering pass. When grouped is true, only cards sharing a
// primary theme are compared.
func (d *Deduplicator) pass(cardList []types.EvidenceCard, threshold float64, grouped bool, report *types.DedupReport) []types.EvidenceCard {
	kept := make([]*candidate, 0, len(cardList))

	for i := range cardList {
		cand := newCandidate(cardList[i])

		// Collect every kept card this one collides with. The new card
		// survives only if it wins every collision; winners-take-all keeps
		// the surviving set pairwise non-duplicate, which makes the pass
		// idempotent.
		var losers []int
		discard := false
		for k, kc := range kept {
			if grouped && kc.card.PrimaryTheme() != cand.card.PrimaryTheme() {
				continue
			}
			collides, sim := d.collides(kc, cand, threshold)
			kc.observe(sim)
			cand.observe(sim)
			if !collides {
				continue
			}
			if replaceKept(kc.card, cand.card) {
				losers = append(losers, k)
			} else {
				discard = true
				break
			}
		}

		if discard {
			d.recordDrop(cand.card, report)
			continue
		}
		if len(losers) > 0 {
			for _, k := range losers {
				d.recordDrop(kept[k].card, report)
			}
			kept = removeIndices(kept, losers)
		}
		kept = append(kept, cand)
	}

	out := make([]types.EvidenceCard, len(kept))
	for i, kc := range kept {
		kc.card.Novelty = clamp01(1 - kc.maxSim)
		out[i] = kc.card
	}
	return out
}

// collides reports whether two cards are duplicates at the given threshold,
// returning the computed similarity. Exact fingerprint matches collide
// without a similarity computation. Same-document cards with overlapping
// byte spans get a relaxed effective threshold since they are likely
// restatements of the same passage.
func (d *Deduplicator) collides(kept, cand *candidate, threshold float64) (bool, float64) {
	if kept.card.ContentFingerprint == cand.card.ContentFingerprint {
		return true, 1
	}
	sim := jaccard(kept.words, cand.words)
	effective := threshold
	if sameDocOverlap(kept.card, cand.card) {
		effective -= d.thresholds.SameDocRelax
	}
	return sim > effective, sim
}

func (d *Deduplicator) recordDrop(c types.EvidenceCard, report *types.DedupReport) {
	report.DroppedCount++
	theme := c.PrimaryTheme()
	if theme == "" {
		theme = config.OtherTheme
	}
	report.DroppedByTheme[theme]++
}

// replaceKept decides a collision: the new card replaces the kept card on
// strictly higher confidence; on equal confidence and higher total score; or
// on equal confidence and score but a different source document (diversity
// preference). Otherwise the new card is discarded.
func replaceKept(kept, cand types.EvidenceCard) bool {
	kr, cr := kept.Confidence.Rank(), cand.Confidence.Rank()
	if cr != kr {
		return cr > kr
	}
	if cand.Scores.Total != kept.Scores.Total {
		return cand.Scores.Total > kept.Scores.Total
	}
	return cand.Source.DocumentID != kept.Source.DocumentID
}

// sameDocOverlap reports same-document cards whose byte spans intersect.
func sameDocOverlap(a, b types.EvidenceCard) bool {
	if a.Source.DocumentID != b.Source.DocumentID {
		return false
	}
	return a.Source.SpanStart < b.Source.SpanEnd && b.Source.SpanStart < a.Source.SpanEnd
}

// =============================================================================
// CANDIDATES AND SIMILARITY
// =============================================================================

// candidate caches a card's word set and tracks the highest similarity it
// was compared at, which becomes its novelty.
type candidate struct {
	card   types.EvidenceCard
	words  map[string]struct{}
	maxSim float64
}

func newCandidate(c types.EvidenceCard) *candidate {
	return &candidate{card: c, words: wordSet(c.Quote + " " + c.Claim)}
}

func (c *candidate) observe(sim float64) {
	if sim > c.maxSim {
		c.maxSim = sim
	}
}

// wordSet tokenizes into a set of normalized words. Punctuation and case
// never influence similarity.
func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// jaccard computes set overlap: |A∩B| / |A∪B|.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if _, ok := large[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// removeIndices drops the given (ascending) indices from a slice, preserving
// order of the rest.
func removeIndices(list []*candidate, indices []int) []*candidate {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	out := list[:0]
	for i, c := range list {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
