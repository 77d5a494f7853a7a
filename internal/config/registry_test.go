package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestNormalizeTargetID(t *testing.T) {
	r := NewRegistry()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"exact", "DHS", "DHS"},
		{"lowercase", "dhs", "DHS"},
		{"padded", "  dhs  ", "DHS"},
		{"internal whitespace", "department  of   homeland    security", "DHS"},
		{"alias", "Veterans Affairs", "VA"},
		{"alias embedded in prose", "FY26 briefing for the Department of Transportation OCIO", "DOT"},
		{"unknown", "Ministry of Silly Walks", DefaultTargetID},
		{"empty", "", DefaultTargetID},
		{"blank", "   ", DefaultTargetID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.NormalizeTargetID(tc.raw))
		})
	}
}

func TestNormalizeTargetID_LongestAliasWins(t *testing.T) {
	r := NewRegistry()

	// Contains both the short ID "VA" (inside "VANGUARD") and the full DHS
	// alias; the longer alias must win.
	got := r.NormalizeTargetID("VANGUARD review of the Department of Homeland Security")
	assert.Equal(t, "DHS", got)
}

func TestResolve(t *testing.T) {
	r := NewRegistry()

	p, exact := r.Resolve("homeland security")
	require.True(t, exact)
	assert.Equal(t, "DHS", p.TargetID)

	p, exact = r.Resolve("NONSUCH")
	assert.False(t, exact)
	assert.Equal(t, DefaultTargetID, p.TargetID)
}

func TestNewRegistryWith_ExtraOverridesBuiltin(t *testing.T) {
	custom := DefaultProfile()
	custom.TargetID = "DHS"
	custom.MaxCards = 7

	r := NewRegistryWith(custom)
	p, exact := r.Resolve("DHS")
	require.True(t, exact)
	assert.Equal(t, 7, p.MaxCards)
}

func TestTargetIDs_Sorted(t *testing.T) {
	assert.Equal(t, []string{"DHS", "DOT", "VA"}, NewRegistry().TargetIDs())
}

func TestDefaultProfile_Valid(t *testing.T) {
	p := DefaultProfile()
	require.NoError(t, p.Validate())
	assert.Equal(t, []string{
		"Identity & Access",
		"Incident Response",
		"Cloud & Infrastructure",
		"Governance & Compliance",
		"Budget & Procurement",
	}, p.MandatoryThemes())
}
