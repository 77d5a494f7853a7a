package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distiller/internal/config"
	"distiller/internal/types"
)

// =============================================================================
// TAGGER TESTS
// =============================================================================

func cardWith(quote string) types.EvidenceCard {
	return types.EvidenceCard{ID: "t", Quote: quote}
}

func TestTag_AnchorDominates(t *testing.T) {
	tagger := NewTagger(config.DefaultProfile())

	c := cardWith("The zero trust mandate reshapes how the agency authenticates users.")
	tagger.Tag(&c)

	require.NotEmpty(t, c.Themes)
	assert.Equal(t, "Identity & Access", c.Themes[0])
}

func TestTag_AtMostTwoThemes(t *testing.T) {
	tagger := NewTagger(config.DefaultProfile())

	c := cardWith("The incident response plan requires multi-factor authentication for SOC analysts.")
	tagger.Tag(&c)

	assert.LessOrEqual(t, len(c.Themes), 2)
	assert.Contains(t, c.Themes, "Incident Response")
	assert.Contains(t, c.Themes, "Identity & Access")
}

func TestScoreThemes_ExclusionFloorsAtZero(t *testing.T) {
	tagger := NewTagger(config.DefaultProfile())

	scores := tagger.ScoreThemes("Cloud cover affected the aerial survey of the facility.")
	assert.Equal(t, 0.0, scores["Cloud & Infrastructure"])
}

func TestTag_LooseFallbackSingleTheme(t *testing.T) {
	tagger := NewTagger(config.DefaultProfile())

	// A lone synonym scores 1: below strict, caught by the loose fallback.
	c := cardWith("The hiring push continued through the spring season.")
	tagger.Tag(&c)

	require.Len(t, c.Themes, 1)
	assert.Equal(t, "Workforce & Skills", c.Themes[0])
}

func TestTag_HeuristicFallback(t *testing.T) {
	tagger := NewTagger(config.DefaultProfile())

	// Dictionary score stays below the loose threshold; the ordered
	// heuristics catch the dollar sign.
	c := cardWith("Officials requested $4,000 for the spring refresh effort.")
	tagger.Tag(&c)

	require.Len(t, c.Themes, 1)
	assert.Equal(t, "Budget & Procurement", c.Themes[0])
}

func TestTag_OtherIsFinalFallback(t *testing.T) {
	tagger := NewTagger(config.DefaultProfile())

	c := cardWith("The cafeteria reopened after a lengthy renovation downstairs.")
	tagger.Tag(&c)

	assert.Equal(t, []string{config.OtherTheme}, c.Themes)
}

func TestTag_EveryCardGetsALabel(t *testing.T) {
	tagger := NewTagger(config.DefaultProfile())

	cards := []types.EvidenceCard{
		cardWith("The zero trust rollout continued."),
		cardWith("Unrelated gardening prose about tomato stakes."),
		cardWith("Ransomware incident counts declined."),
	}
	counts := tagger.TagAll(cards)

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.GreaterOrEqual(t, total, len(cards))
	for _, c := range cards {
		assert.NotEmpty(t, c.Themes, "card %q left untagged", c.Quote)
	}
}

func TestTag_AcronymsAreCaseSensitive(t *testing.T) {
	tagger := NewTagger(config.DefaultProfile())

	// Lowercase "ir" inside prose must not trigger the Incident Response
	// acronym rule.
	scores := tagger.ScoreThemes("Their first choice was neither practical nor affordable.")
	assert.Equal(t, 0.0, scores["Incident Response"])
}
