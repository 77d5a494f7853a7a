// Package pack splits quota-surviving cards into a citable high-signal pack
// and a background context pack. High-signal cards are the ones downstream
// prompts may cite; context cards are short summaries that set the scene but
// carry no citation weight.
package pack

import (
	"sort"
	"strings"
	"unicode/utf8"

	"distiller/internal/config"
	"distiller/internal/logging"
	"distiller/internal/types"
	"go.uber.org/zap"
)

// =============================================================================
// TIER PACKER
// =============================================================================

// rolePriority orders roles for high-signal selection.
// Claims cite best, counterpoints worst.
var rolePriority = map[types.CardRole]int{
	types.RoleClaim:        0,
	types.RoleMetric:       1,
	types.RoleEvidence:     2,
	types.RoleContext:      3,
	types.RoleCounterpoint: 4,
}

// citable reports whether a role qualifies for the high-signal pack.
func citable(r types.CardRole) bool {
	return r == types.RoleClaim || r == types.RoleMetric || r == types.RoleEvidence
}

// Packer builds the tiered evidence artifact.
type Packer struct {
	profile *config.DistillationProfile
}

// New creates a tier packer for one profile.
func New(p *config.DistillationProfile) *Packer {
	return &Packer{profile: p}
}

// Pack sorts cards by role priority then descending total score, takes up to
// high-signal target plus tolerance citable cards as the high-signal pack,
// and projects the remainder into context cards up to the context target
// plus tolerance. A mandatory theme whose surviving cards are all non-citable
// gets its best card promoted into the high-signal pack so the theme stays
// visible in the counts. Theme counts cover the high-signal pack only.
func (p *Packer) Pack(cardList []types.EvidenceCard) types.TieredEvidence {
	sorted := make([]types.EvidenceCard, len(cardList))
	copy(sorted, cardList)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := rolePriority[sorted[i].Role], rolePriority[sorted[j].Role]
		if pi != pj {
			return pi < pj
		}
		if sorted[i].Scores.Total != sorted[j].Scores.Total {
			return sorted[i].Scores.Total > sorted[j].Scores.Total
		}
		return sorted[i].ID < sorted[j].ID
	})

	highCap := p.profile.HighSignalTarget + p.profile.HighSignalTolerance
	contextCap := p.profile.ContextTarget + p.profile.ContextTolerance

	tiered := types.TieredEvidence{
		ThemeCounts: make(map[string]int),
	}

	var remainder []types.EvidenceCard
	for _, c := range sorted {
		if citable(c.Role) && len(tiered.HighSignal) < highCap {
			tiered.HighSignal = append(tiered.HighSignal, c)
			continue
		}
		remainder = append(remainder, c)
	}

	remainder = p.promoteUncovered(&tiered, remainder)

	for _, c := range tiered.HighSignal {
		for _, theme := range c.Themes {
			tiered.ThemeCounts[theme]++
		}
	}

	for _, c := range remainder {
		if len(tiered.Context) >= contextCap {
			break
		}
		tiered.Context = append(tiered.Context, contextCard(c))
	}

	logging.Get(logging.CategoryPack).Debug("evidence packed",
		zap.Int("high_signal", len(tiered.HighSignal)),
		zap.Int("context", len(tiered.Context)))
	return tiered
}

// promoteUncovered moves the highest-ranked remaining card of each mandatory
// theme absent from the high-signal pack into it. Evidence that survived
// every upstream stage must not disappear from the theme counts just because
// its role is non-citable; coverage outranks the tolerance window, so a
// promotion may exceed the cap.
func (p *Packer) promoteUncovered(tiered *types.TieredEvidence, remainder []types.EvidenceCard) []types.EvidenceCard {
	covered := make(map[string]bool)
	for _, c := range tiered.HighSignal {
		for _, theme := range c.Themes {
			covered[theme] = true
		}
	}

	for _, theme := range p.profile.MandatoryThemes() {
		if covered[theme] {
			continue
		}
		for i, c := range remainder {
			if !hasTheme(c, theme) {
				continue
			}
			tiered.HighSignal = append(tiered.HighSignal, c)
			remainder = append(remainder[:i], remainder[i+1:]...)
			for _, th := range c.Themes {
				covered[th] = true
			}
			break
		}
	}
	return remainder
}

func hasTheme(c types.EvidenceCard, theme string) bool {
	for _, t := range c.Themes {
		if t == theme {
			return true
		}
	}
	return false
}

// contextCard projects an evidence card into its lighter background form.
func contextCard(c types.EvidenceCard) types.ContextCard {
	theme := c.PrimaryTheme()
	if theme == "" {
		theme = config.OtherTheme
	}
	return types.ContextCard{
		ID:         c.ID,
		Theme:      theme,
		Summary:    summarize(c),
		SourceDoc:  c.Source.DocumentID,
		Page:       c.Source.Page,
		Confidence: c.Confidence,
	}
}

// summarize produces the short background summary: the claim if it fits,
// otherwise a word-boundary truncation.
func summarize(c types.EvidenceCard) string {
	text := c.Claim
	if text == "" {
		text = c.Quote
	}
	if len(text) <= types.MaxSummaryLen {
		return text
	}
	cut := cutAtRune(text, types.MaxSummaryLen)
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
