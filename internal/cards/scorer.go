package cards

import (
	"regexp"
	"strconv"
	"strings"

	"distiller/internal/chunker"
	"distiller/internal/config"
	"distiller/internal/types"
)

// =============================================================================
// SCORER
// =============================================================================

// Scorer computes the multi-dimensional score of a chunk and infers its
// class, role, and confidence. Pure: all state is the immutable profile.
type Scorer struct {
	profile *config.DistillationProfile
}

// NewScorer builds a scorer for one profile.
func NewScorer(p *config.DistillationProfile) *Scorer {
	return &Scorer{profile: p}
}

var (
	// Acronym-like tokens: 2-6 capitals, standing alone.
	acronymRe = regexp.MustCompile(`\b[A-Z]{2,6}\b`)

	// Named systems and programs: capitalized phrase followed by a
	// system/program noun.
	namedSystemRe = regexp.MustCompile(`\b(?:[A-Z][A-Za-z0-9-]+\s+){1,4}(?:System|Program|Platform|Initiative|Fund|Framework)\b`)

	// Cited regulations, directives, and memos.
	regulationRe = regexp.MustCompile(`(?i)\b(OMB\s+M-\d{2}-\d{2}|Executive Order\s+\d{4,5}|EO\s+\d{4,5}|NIST\s+(?:SP\s+)?800-\d+[A-Za-z]?|BOD\s+\d{2}-\d{2}|FISMA|FITARA|Public Law\s+\d+[-–]\d+|\d+\s+U\.S\.C\.)\b`)

	percentRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:%|percent)\b`)

	hedgingRe = regexp.MustCompile(`(?i)\b(estimate[ds]?|may|might|approximately|roughly|could|projected|potentially)\b`)

	contrastRe = regexp.MustCompile(`(?i)\b(however|although|despite|but|nonetheless|conversely|remains? a (?:risk|concern|challenge))\b`)

	riskRe = regexp.MustCompile(`(?i)\b(risk|concern|challenge|vulnerab\w*|shortfall)\b`)

	authoritativeSourceRe = regexp.MustCompile(`(?i)(inspector general|oig|gao|government accountability office|omb|audit|directive|strategic plan)`)

	procurementLexicon = []string{
		"contract", "procurement", "acquisition", "award", "obligation",
		"task order", "solicitation", "vendor",
	}
)

// Score computes the three sub-scores and their weighted total for a chunk.
func (s *Scorer) Score(c types.Chunk) types.Scores {
	spec := s.specificity(c)
	comp := s.compliance(c)
	budget := s.budget(c)

	w := s.profile.Weights
	total := w.Specificity*float64(spec) + w.Compliance*float64(comp) + w.Budget*float64(budget)

	return types.Scores{
		Specificity: spec,
		Compliance:  comp,
		Budget:      budget,
		Total:       total,
	}
}

// specificity: 3 for acronyms, named systems, or organizational-unit
// mentions; 2 for the target's name or a high-priority signal; else 1.
func (s *Scorer) specificity(c types.Chunk) int {
	if acronymRe.MatchString(c.Text) || namedSystemRe.MatchString(c.Text) {
		return 3
	}
	lower := strings.ToLower(c.Text)
	for _, unit := range s.profile.OrganizationalUnits {
		if strings.Contains(lower, strings.ToLower(unit)) {
			return 3
		}
	}
	if s.profile.DisplayName != "" && strings.Contains(lower, strings.ToLower(s.profile.DisplayName)) {
		return 2
	}
	for _, sig := range s.profile.HighPrioritySignals {
		if strings.Contains(lower, strings.ToLower(sig)) {
			return 2
		}
	}
	return 1
}

// compliance: 3 for a mandate verb plus a cited regulation; 2 for either
// alone; else 1.
func (s *Scorer) compliance(c types.Chunk) int {
	mandate := chunker.MandateVerbRe.MatchString(c.Text)
	cited := regulationRe.MatchString(c.Text)
	switch {
	case mandate && cited:
		return 3
	case mandate || cited:
		return 2
	default:
		return 1
	}
}

// budget maps the largest currency amount in the chunk to 0-3 by magnitude
// thresholds. Chunks without an amount but with procurement lexicon floor
// at 1.
func (s *Scorer) budget(c types.Chunk) int {
	amount, found := LargestCurrencyAmount(c.Text)
	if found {
		switch {
		case amount >= 100_000_000:
			return 3
		case amount >= 10_000_000:
			return 2
		case amount >= 1_000_000:
			return 1
		}
	}
	lower := strings.ToLower(c.Text)
	for _, term := range procurementLexicon {
		if strings.Contains(lower, term) {
			return 1
		}
	}
	return 0
}

// LargestCurrencyAmount parses every dollar amount in the text, applying
// magnitude suffixes (thousand/million/billion), and returns the largest.
func LargestCurrencyAmount(text string) (float64, bool) {
	matches := chunker.CurrencyRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0, false
	}
	var largest float64
	for _, m := range matches {
		raw := strings.TrimLeft(m[0], "$ \t")
		// Strip the suffix word before numeric parsing.
		numEnd := len(raw)
		if m[1] != "" {
			numEnd = strings.LastIndex(strings.ToLower(raw), strings.ToLower(m[1]))
		}
		num := strings.TrimSpace(strings.ReplaceAll(raw[:numEnd], ",", ""))
		val, err := strconv.ParseFloat(num, 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "thousand", "k":
			val *= 1_000
		case "million", "m":
			val *= 1_000_000
		case "billion", "b":
			val *= 1_000_000_000
		}
		if val > largest {
			largest = val
		}
	}
	return largest, largest > 0
}

// =============================================================================
// CLASS / ROLE / CONFIDENCE INFERENCE
// =============================================================================

// classFamilies is the ordered keyword rule list for classification. First
// matching family wins: mandate > priority > gap > trend.
var classFamilies = []struct {
	class types.CardClass
	re    *regexp.Regexp
}{
	{types.ClassMandate, regexp.MustCompile(`(?i)\b(shall|must|required|mandatory|directive|compliance deadline)\b`)},
	{types.ClassPriority, regexp.MustCompile(`(?i)\b(priorit\w+|strategic|goal|initiative|moderniz\w+|investment)\b`)},
	{types.ClassGap, regexp.MustCompile(`(?i)\b(gap|weakness|deficien\w+|lack(?:s|ing)?|insufficient|unresolved|outdated|legacy)\b`)},
	{types.ClassTrend, regexp.MustCompile(`(?i)\b(increas\w+|grow(?:ing|th)|trend|year[- ]over[- ]year|emerging|accelerat\w+|declin\w+)\b`)},
}

// Classify assigns the card class by keyword family; default is priority.
func Classify(text string) types.CardClass {
	for _, fam := range classFamilies {
		if fam.re.MatchString(text) {
			return fam.class
		}
	}
	return types.ClassPriority
}

// InferRole derives the card's downstream role from lexical cues.
func InferRole(text string) types.CardRole {
	if chunker.CurrencyRe.MatchString(text) || percentRe.MatchString(text) {
		return types.RoleMetric
	}
	if chunker.MandateVerbRe.MatchString(text) {
		return types.RoleClaim
	}
	if contrastRe.MatchString(text) || riskRe.MatchString(text) {
		return types.RoleCounterpoint
	}
	return types.RoleEvidence
}

// largeCurrencyFloor is the amount above which a mandate statement is treated
// as authoritatively grounded for confidence purposes.
const largeCurrencyFloor = 10_000_000

// InferConfidence rates the chunk's reliability. Authoritative sources and
// mandate-plus-large-currency statements rate high; hedged language rates
// low; everything else is medium.
func InferConfidence(c types.Chunk) types.Confidence {
	if authoritativeSourceRe.MatchString(c.DocumentID) || authoritativeSourceRe.MatchString(c.Heading) {
		return types.ConfidenceHigh
	}
	if chunker.MandateVerbRe.MatchString(c.Text) {
		if amount, ok := LargestCurrencyAmount(c.Text); ok && amount >= largeCurrencyFloor {
			return types.ConfidenceHigh
		}
	}
	if hedgingRe.MatchString(c.Text) {
		return types.ConfidenceLow
	}
	return types.ConfidenceMedium
}

// functionFamilies maps lifecycle keywords to the six governance function
// tags, evaluated in order.
var functionFamilies = []struct {
	tag string
	re  *regexp.Regexp
}{
	{"strategy", regexp.MustCompile(`(?i)\b(strateg\w+|roadmap|vision|plan(?:ning)?)\b`)},
	{"acquisition", regexp.MustCompile(`(?i)\b(acquisition|procure\w+|contract\w*|award|solicitation)\b`)},
	{"implementation", regexp.MustCompile(`(?i)\b(implement\w+|deploy\w+|migrat\w+|rollout|pilot)\b`)},
	{"operations", regexp.MustCompile(`(?i)\b(operat\w+|maintain\w*|sustain\w+|monitor\w+)\b`)},
	{"oversight", regexp.MustCompile(`(?i)\b(oversight|audit\w*|assess\w+|review\w*|accountab\w+)\b`)},
	{"sunset", regexp.MustCompile(`(?i)\b(decommission\w*|retire\w*|sunset|legacy replacement)\b`)},
}

// InferFunctionTag assigns one of the six governance-lifecycle categories;
// default is operations.
func InferFunctionTag(text string) string {
	for _, fam := range functionFamilies {
		if fam.re.MatchString(text) {
			return fam.tag
		}
	}
	return "operations"
}
