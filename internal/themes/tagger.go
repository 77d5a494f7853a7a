// Package themes assigns topic labels to evidence cards using weighted
// keyword dictionaries with an ordered heuristic fallback. Tagging is fully
// data-driven: every term class is a (predicate, weight) rule evaluated
// uniformly, so dictionaries can change without touching logic. Every card
// leaves the tagger with at least one label; quota accounting depends on it.
package themes

import (
	"regexp"
	"sort"
	"strings"

	"distiller/internal/config"
	"distiller/internal/logging"
	"distiller/internal/types"
	"go.uber.org/zap"
)

// =============================================================================
// TERM RULES
// =============================================================================

// Term-class weights. Anchors dominate because an anchor term is the
// strongest possible evidence that a theme applies.
const (
	weightPhrase    = 3.0
	weightAcronym   = 2.0
	weightAnchor    = 5.0
	weightSynonym   = 1.0
	weightPartial   = 0.5
	weightExclusion = -4.0
)

// termRule is one uniform (predicate, weight) tuple. A dictionary compiles
// into a flat ordered list of these.
type termRule struct {
	match  func(lower, original string) bool
	weight float64
}

// themeRules is a compiled dictionary for one theme.
type themeRules struct {
	name  string
	rules []termRule
}

func compileTheme(dict config.ThemeDictionary) themeRules {
	var rules []termRule

	addContains := func(terms []string, weight float64) {
		for _, t := range terms {
			needle := strings.ToLower(t)
			rules = append(rules, termRule{
				match:  func(lower, _ string) bool { return strings.Contains(lower, needle) },
				weight: weight,
			})
		}
	}

	addContains(dict.Phrases, weightPhrase)

	// Acronyms match case-sensitively on word boundaries so "IR" never
	// fires inside ordinary prose.
	for _, a := range dict.Acronyms {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(a) + `\b`)
		rules = append(rules, termRule{
			match:  func(_, original string) bool { return re.MatchString(original) },
			weight: weightAcronym,
		})
	}

	addContains(dict.Anchors, weightAnchor)
	addContains(dict.Synonyms, weightSynonym)
	addContains(dict.Partials, weightPartial)
	addContains(dict.Excludes, weightExclusion)

	return themeRules{name: dict.Name, rules: rules}
}

// =============================================================================
// TAGGER
// =============================================================================

// Selection thresholds: strict assignment needs a score of 2, the loose
// single-theme fallback accepts 1.
const (
	strictThreshold = 2.0
	looseThreshold  = 1.0
)

// Tagger assigns 0-2 themes per card. Immutable after construction.
type Tagger struct {
	compiled   []themeRules
	heuristics []heuristicRule
}

// heuristicRule is the ordered regex fallback applied when no dictionary
// clears the loose threshold.
type heuristicRule struct {
	re    *regexp.Regexp
	theme string
}

// NewTagger compiles the profile's dictionaries.
func NewTagger(p *config.DistillationProfile) *Tagger {
	t := &Tagger{}
	for _, dict := range p.Themes {
		t.compiled = append(t.compiled, compileTheme(dict))
	}

	// Heuristic fallbacks target well-known default themes; rules whose
	// theme the profile doesn't declare are skipped at tag time.
	t.heuristics = []heuristicRule{
		{regexp.MustCompile(`(?i)\$\s?\d|\b(budget|appropriat\w+|procure\w+|contract\w*)`), "Budget & Procurement"},
		{regexp.MustCompile(`(?i)\b(complian\w+|fisma|audit\w*|oversight|governance)\b`), "Governance & Compliance"},
		{regexp.MustCompile(`(?i)\bcloud\b`), "Cloud & Infrastructure"},
		{regexp.MustCompile(`(?i)\b(incident|breach|ransomware|soc)\b`), "Incident Response"},
	}
	return t
}

// ScoreThemes computes the per-theme dictionary score for a text. Floor is
// zero: exclusions can cancel hits but never go negative.
func (t *Tagger) ScoreThemes(text string) map[string]float64 {
	lower := strings.ToLower(text)
	scores := make(map[string]float64, len(t.compiled))
	for _, tr := range t.compiled {
		var score float64
		for _, rule := range tr.rules {
			if rule.match(lower, text) {
				score += rule.weight
			}
		}
		if score < 0 {
			score = 0
		}
		scores[tr.name] = score
	}
	return scores
}

// Tag assigns themes to a single card from its quote and claim text.
// Selection order: top 1-2 themes scoring at or above the strict threshold;
// else the single best theme at or above the loose threshold; else the
// ordered heuristic regexes; final fallback is the Other label.
func (t *Tagger) Tag(card *types.EvidenceCard) {
	text := card.Quote + " " + card.Claim
	scores := t.ScoreThemes(text)

	ranked := t.rank(scores)

	var assigned []string
	for _, name := range ranked {
		if scores[name] >= strictThreshold && len(assigned) < 2 {
			assigned = append(assigned, name)
		}
	}
	if len(assigned) == 0 && len(ranked) > 0 && scores[ranked[0]] >= looseThreshold {
		assigned = []string{ranked[0]}
	}
	if len(assigned) == 0 {
		if h := t.heuristicTheme(text); h != "" {
			assigned = []string{h}
		}
	}
	if len(assigned) == 0 {
		assigned = []string{config.OtherTheme}
	}
	card.Themes = assigned
}

// TagAll tags every card in place and returns per-theme candidate counts.
func (t *Tagger) TagAll(cardList []types.EvidenceCard) map[string]int {
	counts := make(map[string]int)
	for i := range cardList {
		t.Tag(&cardList[i])
		for _, theme := range cardList[i].Themes {
			counts[theme]++
		}
	}
	logging.Get(logging.CategoryThemes).Debug("cards tagged",
		zap.Int("cards", len(cardList)),
		zap.Int("themes", len(counts)))
	return counts
}

// rank orders theme names by descending score; ties fall back to dictionary
// declaration order, which keeps tagging deterministic.
func (t *Tagger) rank(scores map[string]float64) []string {
	order := make(map[string]int, len(t.compiled))
	names := make([]string, 0, len(t.compiled))
	for i, tr := range t.compiled {
		order[tr.name] = i
		names = append(names, tr.name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return order[names[i]] < order[names[j]]
	})
	return names
}

// heuristicTheme applies the ordered fallback regexes, skipping rules whose
// theme the profile doesn't declare.
func (t *Tagger) heuristicTheme(text string) string {
	declared := make(map[string]bool, len(t.compiled))
	for _, tr := range t.compiled {
		declared[tr.name] = true
	}
	for _, h := range t.heuristics {
		if declared[h.theme] && h.re.MatchString(text) {
			return h.theme
		}
	}
	return ""
}
