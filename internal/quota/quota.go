// Package quota enforces per-theme card quotas and reports coverage. The
// enforcer is best-effort by contract: an empty candidate list for a
// mandatory theme is recorded as missing coverage, never raised as an error.
// The caller inspects the report's severity to decide whether to block
// downstream use.
package quota

import (
	"fmt"
	"sort"

	"distiller/internal/config"
	"distiller/internal/logging"
	"distiller/internal/types"
	"go.uber.org/zap"
)

// =============================================================================
// ENFORCER
// =============================================================================

// Enforcer selects cards per theme within the profile's min/max window.
type Enforcer struct {
	profile *config.DistillationProfile
}

// New creates a quota enforcer for one profile.
func New(p *config.DistillationProfile) *Enforcer {
	return &Enforcer{profile: p}
}

// Apply selects up to MaxPerTheme cards per theme by descending total score,
// mandatory themes first, then caps the combined list at MaxCards. A card
// tagged under two themes is counted for both but appears once in the
// output. Never fails: degraded coverage surfaces in the report only.
func (e *Enforcer) Apply(cardList []types.EvidenceCard) ([]types.EvidenceCard, types.CoverageReport) {
	report := types.CoverageReport{
		ThemeTargets: types.ThemeTargets{Min: e.profile.MinPerTheme, Max: e.profile.MaxPerTheme},
		PerTheme:     make(map[string]types.ThemeQuota),
		Severity:     types.SeverityOK,
	}

	byTheme := groupByTheme(cardList)

	selected := make([]types.EvidenceCard, 0, len(cardList))
	seen := make(map[string]bool, len(cardList))

	take := func(theme string) {
		candidates := byTheme[theme]
		keep := candidates
		if len(keep) > e.profile.MaxPerTheme {
			keep = keep[:e.profile.MaxPerTheme]
		}
		report.PerTheme[theme] = types.ThemeQuota{Candidates: len(candidates), Kept: len(keep)}
		for _, c := range keep {
			if !seen[c.ID] {
				seen[c.ID] = true
				selected = append(selected, c)
			}
		}
	}

	// Mandatory themes first, in profile declaration order.
	mandatory := e.profile.MandatoryThemes()
	for _, theme := range mandatory {
		take(theme)
	}

	// Non-mandatory themes next, in deterministic order.
	var rest []string
	for theme := range byTheme {
		if !isIn(theme, mandatory) {
			rest = append(rest, theme)
		}
	}
	sort.Strings(rest)
	for _, theme := range rest {
		take(theme)
	}

	if len(selected) > e.profile.MaxCards {
		selected = trimToMax(selected, e.profile.MaxCards)
		report.Notes = append(report.Notes,
			fmt.Sprintf("card list trimmed to max_cards=%d", e.profile.MaxCards))
	}

	e.assess(mandatory, &report)

	logging.Get(logging.CategoryQuota).Debug("quota applied",
		zap.Int("in", len(cardList)),
		zap.Int("kept", len(selected)),
		zap.String("severity", string(report.Severity)))
	return selected, report
}

// assess derives the coverage severity: poor when any mandatory theme has no
// cards; warn when more than two mandatory themes are below minimum; else ok.
func (e *Enforcer) assess(mandatory []string, report *types.CoverageReport) {
	belowMin := 0
	for _, theme := range mandatory {
		q := report.PerTheme[theme]
		switch {
		case q.Kept == 0:
			report.MissingThemes = append(report.MissingThemes, theme)
			report.Notes = append(report.Notes,
				fmt.Sprintf("mandatory theme %q has no evidence", theme))
		case q.Kept < e.profile.MinPerTheme:
			report.WeakThemes = append(report.WeakThemes, theme)
			belowMin++
			report.Notes = append(report.Notes,
				fmt.Sprintf("mandatory theme %q below minimum: %d of %d", theme, q.Kept, e.profile.MinPerTheme))
		}
	}
	belowMin += len(report.MissingThemes)

	switch {
	case len(report.MissingThemes) > 0:
		report.Severity = types.SeverityPoor
	case belowMin > 2:
		report.Severity = types.SeverityWarn
	default:
		report.Severity = types.SeverityOK
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// groupByTheme indexes cards under every theme they carry, each group sorted
// by descending total score with ID tie-break for determinism.
func groupByTheme(cardList []types.EvidenceCard) map[string][]types.EvidenceCard {
	byTheme := make(map[string][]types.EvidenceCard)
	for _, c := range cardList {
		for _, theme := range c.Themes {
			byTheme[theme] = append(byTheme[theme], c)
		}
	}
	for theme := range byTheme {
		group := byTheme[theme]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Scores.Total != group[j].Scores.Total {
				return group[i].Scores.Total > group[j].Scores.Total
			}
			return group[i].ID < group[j].ID
		})
	}
	return byTheme
}

// trimToMax keeps the top n cards by total score, preserving the prior
// selection order among keepers.
func trimToMax(selected []types.EvidenceCard, n int) []types.EvidenceCard {
	ranked := make([]int, len(selected))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if selected[ranked[a]].Scores.Total != selected[ranked[b]].Scores.Total {
			return selected[ranked[a]].Scores.Total > selected[ranked[b]].Scores.Total
		}
		return selected[ranked[a]].ID < selected[ranked[b]].ID
	})
	keep := make(map[int]bool, n)
	for _, idx := range ranked[:n] {
		keep[idx] = true
	}
	out := make([]types.EvidenceCard, 0, n)
	for i, c := range selected {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}

func isIn(s string, list []string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
