package chunker

import (
	"regexp"
	"strings"

	"distiller/internal/config"
	"distiller/internal/logging"
	"distiller/internal/types"
	"go.uber.org/zap"
)

// =============================================================================
// RELEVANCE FILTER
// =============================================================================

// Boilerplate sections that carry no evidence. Matched against the chunk's
// heading and opening text.
var boilerplateRe = regexp.MustCompile(`(?i)\b(table of contents|glossary|bibliography|list of (figures|tables|acronyms)|acronym list|works cited|references|how to use this (report|document)|about this (report|document)|index of)\b`)

// MandateVerbRe matches the verbs that mark binding language. Shared with the
// card builder's compliance scoring.
var MandateVerbRe = regexp.MustCompile(`(?i)\b(shall|must|required|mandatory)\b`)

// CurrencyRe matches dollar amounts with optional magnitude suffixes.
// Shared with the card builder's budget scoring.
var CurrencyRe = regexp.MustCompile(`(?i)\$\s?\d[\d,]*(?:\.\d+)?\s*(thousand|million|billion|[kmb])?\b`)

// Override terms keep a chunk even inside a boilerplate section: audit
// language that matters wherever it appears.
var overrideTerms = []string{
	"recommendation",
	"material weakness",
	"significant deficiency",
	"corrective action",
}

// Filter decides which chunks survive into card building. Pure: all state is
// the immutable profile it was built with.
type Filter struct {
	profile *config.DistillationProfile
}

// NewFilter builds a relevance filter for one profile.
func NewFilter(p *config.DistillationProfile) *Filter {
	return &Filter{profile: p}
}

// Keep reports whether a chunk survives filtering.
//
// A chunk is dropped only when its heading or opening text matches a
// boilerplate pattern and nothing in it overrides the drop: no override term,
// no configured mandate phrase, no mandate verb. Independently, any chunk
// carrying an agency signal is kept regardless of the boilerplate rule.
func (f *Filter) Keep(c types.Chunk) bool {
	if f.hasAgencySignal(c) {
		return true
	}
	if f.isBoilerplate(c) && !f.hasOverride(c) {
		return false
	}
	return true
}

// Apply filters a chunk list, returning survivors and the drop count.
func (f *Filter) Apply(chunks []types.Chunk) ([]types.Chunk, int) {
	kept := make([]types.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if f.Keep(c) {
			kept = append(kept, c)
		}
	}
	dropped := len(chunks) - len(kept)
	logging.Get(logging.CategoryChunker).Debug("relevance filter applied",
		zap.Int("in", len(chunks)),
		zap.Int("kept", len(kept)),
		zap.Int("dropped", dropped))
	return kept, dropped
}

func (f *Filter) isBoilerplate(c types.Chunk) bool {
	if boilerplateRe.MatchString(c.Heading) {
		return true
	}
	opening := c.Text
	if len(opening) > 120 {
		opening = opening[:120]
	}
	return boilerplateRe.MatchString(opening)
}

func (f *Filter) hasOverride(c types.Chunk) bool {
	lower := strings.ToLower(c.Text)
	for _, term := range overrideTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	for _, phrase := range f.profile.MandatePhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return MandateVerbRe.MatchString(c.Text)
}

// hasAgencySignal reports whether the chunk mentions the target agency, one
// of its organizational units, a configured priority signal, a currency
// amount, or a mandate verb.
func (f *Filter) hasAgencySignal(c types.Chunk) bool {
	lower := strings.ToLower(c.Text)

	if f.profile.TargetID != config.DefaultTargetID &&
		containsWord(lower, strings.ToLower(f.profile.TargetID)) {
		return true
	}
	if f.profile.DisplayName != "" &&
		strings.Contains(lower, strings.ToLower(f.profile.DisplayName)) {
		return true
	}
	for _, unit := range f.profile.OrganizationalUnits {
		if containsWord(lower, strings.ToLower(unit)) {
			return true
		}
	}
	for _, sig := range f.profile.HighPrioritySignals {
		if strings.Contains(lower, strings.ToLower(sig)) {
			return true
		}
	}
	for _, sig := range f.profile.MediumPrioritySignals {
		if strings.Contains(lower, strings.ToLower(sig)) {
			return true
		}
	}
	if CurrencyRe.MatchString(c.Text) {
		return true
	}
	return MandateVerbRe.MatchString(c.Text)
}

// containsWord reports a whole-word, case-normalized substring match.
// Avoids "VA" matching inside "available".
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isWordByte(haystack[start-1])
		afterOK := end == len(haystack) || !isWordByte(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
