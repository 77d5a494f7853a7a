package pack

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distiller/internal/config"
	"distiller/internal/types"
)

// =============================================================================
// TIER PACKER TESTS
// =============================================================================

func smallProfile() *config.DistillationProfile {
	p := config.DefaultProfile()
	p.HighSignalTarget = 2
	p.HighSignalTolerance = 1
	p.ContextTarget = 2
	p.ContextTolerance = 0
	return p
}

func roleCard(id string, role types.CardRole, total float64) types.EvidenceCard {
	return types.EvidenceCard{
		ID:     id,
		Role:   role,
		Quote:  "quote for " + id,
		Themes: []string{"Governance & Compliance"},
		Scores: types.Scores{Total: total},
	}
}

func TestPack_RolePriorityOrdersHighSignal(t *testing.T) {
	p := New(smallProfile())

	in := []types.EvidenceCard{
		roleCard("ev", types.RoleEvidence, 3.0),
		roleCard("cl", types.RoleClaim, 1.0),
		roleCard("me", types.RoleMetric, 2.0),
	}
	tiered := p.Pack(in)

	require.Len(t, tiered.HighSignal, 3)
	assert.Equal(t, "cl", tiered.HighSignal[0].ID)
	assert.Equal(t, "me", tiered.HighSignal[1].ID)
	assert.Equal(t, "ev", tiered.HighSignal[2].ID)
}

func TestPack_NonCitableRolesNeverEnterHighSignal(t *testing.T) {
	p := New(smallProfile())

	in := []types.EvidenceCard{
		roleCard("cp", types.RoleCounterpoint, 9.0),
		roleCard("cx", types.RoleContext, 8.0),
		roleCard("cl", types.RoleClaim, 1.0),
	}
	tiered := p.Pack(in)

	require.Len(t, tiered.HighSignal, 1)
	assert.Equal(t, "cl", tiered.HighSignal[0].ID)
	assert.Len(t, tiered.Context, 2)
}

func TestPack_CapsRespected(t *testing.T) {
	p := New(smallProfile())

	var in []types.EvidenceCard
	for i := 0; i < 10; i++ {
		in = append(in, roleCard(fmt.Sprintf("c%02d", i), types.RoleClaim, float64(10-i)))
	}
	tiered := p.Pack(in)

	// Target 2 + tolerance 1 caps high-signal at 3; context target 2 + 0.
	assert.Len(t, tiered.HighSignal, 3)
	assert.Len(t, tiered.Context, 2)

	// The highest scorers make the cut.
	assert.Equal(t, "c00", tiered.HighSignal[0].ID)
	assert.Equal(t, "c01", tiered.HighSignal[1].ID)
	assert.Equal(t, "c02", tiered.HighSignal[2].ID)
}

func TestPack_ThemeCountsCoverHighSignalOnly(t *testing.T) {
	p := New(smallProfile())

	cloud := roleCard("cl", types.RoleClaim, 5.0)
	cloud.Themes = []string{"Cloud & Infrastructure"}

	// Non-mandatory theme stays in the context pack and out of the counts.
	overflow := roleCard("ov", types.RoleCounterpoint, 4.0)
	overflow.Themes = []string{"Workforce & Skills"}

	tiered := p.Pack([]types.EvidenceCard{cloud, overflow})

	assert.Equal(t, map[string]int{"Cloud & Infrastructure": 1}, tiered.ThemeCounts)
}

func TestPack_PromotesUncoveredMandatoryTheme(t *testing.T) {
	p := New(smallProfile())

	// The only Incident Response evidence carries a non-citable role; it must
	// still surface in the high-signal pack and the theme counts.
	concern := roleCard("ir", types.RoleCounterpoint, 2.0)
	concern.Themes = []string{"Incident Response"}

	weaker := roleCard("ir2", types.RoleCounterpoint, 1.0)
	weaker.Themes = []string{"Incident Response"}

	claim := roleCard("cl", types.RoleClaim, 5.0)

	tiered := p.Pack([]types.EvidenceCard{weaker, concern, claim})

	assert.Equal(t, 1, tiered.ThemeCounts["Incident Response"])
	ids := map[string]bool{}
	for _, c := range tiered.HighSignal {
		ids[c.ID] = true
	}
	assert.True(t, ids["ir"], "highest-ranked card of the theme gets promoted")
	assert.False(t, ids["ir2"])
}

func TestPack_NoPromotionWhenThemeAlreadyCovered(t *testing.T) {
	p := New(smallProfile())

	claim := roleCard("cl", types.RoleClaim, 5.0)
	claim.Themes = []string{"Incident Response"}

	concern := roleCard("ir", types.RoleCounterpoint, 2.0)
	concern.Themes = []string{"Incident Response"}

	tiered := p.Pack([]types.EvidenceCard{claim, concern})

	require.Len(t, tiered.HighSignal, 1)
	assert.Equal(t, "cl", tiered.HighSignal[0].ID)
	assert.Len(t, tiered.Context, 1)
}

func TestContextCard_SummaryLengthAndTheme(t *testing.T) {
	c := types.EvidenceCard{
		ID:         "long",
		Claim:      strings.Repeat("sustained modernization effort ", 8),
		Themes:     []string{"Data & Analytics"},
		Confidence: types.ConfidenceMedium,
		Source:     types.SourceRef{DocumentID: "d.txt", Page: 3},
	}
	cc := contextCard(c)

	assert.LessOrEqual(t, len(cc.Summary), types.MaxSummaryLen)
	assert.NotEqual(t, " ", cc.Summary[len(cc.Summary)-1:], "truncation lands on a word boundary")
	assert.Equal(t, "Data & Analytics", cc.Theme)
	assert.Equal(t, "d.txt", cc.SourceDoc)

	// Untagged cards fall back to the catch-all label.
	cc = contextCard(types.EvidenceCard{ID: "bare", Quote: "short"})
	assert.Equal(t, config.OtherTheme, cc.Theme)
	assert.Equal(t, "short", cc.Summary)
}

func TestSummarize_RuneSafe(t *testing.T) {
	c := types.EvidenceCard{ID: "mb", Claim: strings.Repeat("€", 60)}
	got := summarize(c)

	assert.LessOrEqual(t, len(got), types.MaxSummaryLen)
	assert.True(t, utf8.ValidString(got))
}
