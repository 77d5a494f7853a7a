package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"distiller/internal/config"
	"distiller/internal/types"
)

// =============================================================================
// RELEVANCE FILTER TESTS
// =============================================================================

func TestFilter_ThreeChunkScenario(t *testing.T) {
	// One mandate sentence, one currency amount, one boilerplate TOC:
	// exactly two chunks survive.
	doc := types.Document{
		Name: "strategy.txt",
		Text: "Table of Contents\n" +
			"Introduction ........ 1\n" +
			"Security Overview ........ 4\n" +
			"\n" +
			"Modernization Priorities\n" +
			"The agency must implement multi-factor authentication across all enterprise systems.\n" +
			"\n" +
			"The program invested $150 million in cloud infrastructure upgrades during the fiscal year.\n",
	}

	chunks := Split(doc)
	require.Len(t, chunks, 3)

	f := NewFilter(config.DefaultProfile())
	kept, dropped := f.Apply(chunks)

	require.Len(t, kept, 2)
	assert.Equal(t, 1, dropped)
	for _, c := range kept {
		assert.NotContains(t, c.Heading, "Table of Contents")
	}
}

func TestFilter_BoilerplateOverriddenByMandateVerb(t *testing.T) {
	f := NewFilter(config.DefaultProfile())

	c := types.Chunk{
		DocumentID: "doc",
		Heading:    "Glossary",
		Text:       "Terms defined here shall govern interpretation of the entire policy document.",
	}
	assert.True(t, f.Keep(c), "mandate verb should override boilerplate drop")

	c.Text = "Alphabetical list of terms used throughout this document for reference."
	assert.False(t, f.Keep(c), "plain glossary content should be dropped")
}

func TestFilter_KeepsOrganizationalUnitMentions(t *testing.T) {
	reg := config.NewRegistry()
	profile, ok := reg.Resolve("DHS")
	require.True(t, ok)

	f := NewFilter(profile)
	c := types.Chunk{
		DocumentID: "doc",
		Text:       "CISA coordinated the response effort with state and local partners.",
	}
	assert.True(t, f.Keep(c))
}

func TestFilter_WholeWordUnitMatching(t *testing.T) {
	reg := config.NewRegistry()
	profile, ok := reg.Resolve("VA")
	require.True(t, ok)

	f := NewFilter(profile)

	// "VA" must not fire inside ordinary words.
	c := types.Chunk{
		DocumentID: "doc",
		Heading:    "Table of Contents",
		Text:       "Table of Contents listing available and invaluable resources for readers here.",
	}
	assert.False(t, f.Keep(c))
}
