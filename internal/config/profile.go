// Package config holds the immutable per-run configuration of the
// distillation pipeline: agency profiles, theme dictionaries, scoring weights,
// and similarity/quota thresholds. A profile is constructed (or loaded) once
// per run and passed by reference through every stage; there is no
// module-level mutable cache.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// PROFILE
// =============================================================================

// ScoringWeights weight the three sub-scores into a card's total.
type ScoringWeights struct {
	Specificity float64 `yaml:"specificity"`
	Compliance  float64 `yaml:"compliance"`
	Budget      float64 `yaml:"budget"`
}

// DedupThresholds are the similarity cutoffs for duplicate detection.
// Exposed as profile parameters because the defaults are empirically tuned
// starting points, not derived constants.
type DedupThresholds struct {
	// WithinTheme is the Jaccard threshold for pass 1 (same primary theme).
	WithinTheme float64 `yaml:"within_theme"`

	// Global is the looser threshold for pass 2 (across themes).
	Global float64 `yaml:"global"`

	// SameDocRelax is subtracted from the effective threshold when two cards
	// come from the same document with overlapping byte spans.
	SameDocRelax float64 `yaml:"same_doc_relax"`
}

// ThemeDictionary drives deterministic tagging for one topic label.
// Term classes carry fixed weights in the tagger: exact phrase +3,
// acronym +2, anchor +5, synonym +1, partial +0.5, exclusion -4.
type ThemeDictionary struct {
	Name      string   `yaml:"name"`
	Mandatory bool     `yaml:"mandatory"`
	Phrases   []string `yaml:"phrases,omitempty"`
	Acronyms  []string `yaml:"acronyms,omitempty"`
	Anchors   []string `yaml:"anchors,omitempty"`
	Synonyms  []string `yaml:"synonyms,omitempty"`
	Partials  []string `yaml:"partials,omitempty"`
	Excludes  []string `yaml:"excludes,omitempty"`
}

// DistillationProfile is the complete, immutable configuration for one run.
type DistillationProfile struct {
	TargetID    string   `yaml:"target_id"`
	DisplayName string   `yaml:"display_name"`
	Aliases     []string `yaml:"aliases,omitempty"`

	// Card volume controls
	MaxCards       int `yaml:"max_cards"`
	MinPerTheme    int `yaml:"min_per_theme"`
	MaxPerTheme    int `yaml:"max_per_theme"`
	MaxPerDocument int `yaml:"max_per_document"`

	// Tier packing targets
	HighSignalTarget    int `yaml:"high_signal_target"`
	HighSignalTolerance int `yaml:"high_signal_tolerance"`
	ContextTarget       int `yaml:"context_target"`
	ContextTolerance    int `yaml:"context_tolerance"`

	// Agency signal lists
	HighPrioritySignals   []string `yaml:"high_priority_signals,omitempty"`
	MediumPrioritySignals []string `yaml:"medium_priority_signals,omitempty"`
	MandatePhrases        []string `yaml:"mandate_phrases,omitempty"`
	OrganizationalUnits   []string `yaml:"organizational_units,omitempty"`

	Weights ScoringWeights    `yaml:"weights"`
	Dedup   DedupThresholds   `yaml:"dedup"`
	Themes  []ThemeDictionary `yaml:"themes"`
}

// OtherTheme is the catch-all label assigned when no dictionary or heuristic
// matches. It is never mandatory and never quota-tracked as a gap.
const OtherTheme = "Other"

// MandatoryThemes returns the names of the profile's mandatory themes in
// declaration order.
func (p *DistillationProfile) MandatoryThemes() []string {
	var names []string
	for _, t := range p.Themes {
		if t.Mandatory {
			names = append(names, t.Name)
		}
	}
	return names
}

// Theme returns the dictionary for a theme name, or nil if absent.
func (p *DistillationProfile) Theme(name string) *ThemeDictionary {
	for i := range p.Themes {
		if p.Themes[i].Name == name {
			return &p.Themes[i]
		}
	}
	return nil
}

// Validate checks that the profile is internally consistent.
func (p *DistillationProfile) Validate() error {
	if p.TargetID == "" {
		return fmt.Errorf("profile missing target_id")
	}
	if p.MaxPerDocument <= 0 {
		return fmt.Errorf("profile %s: max_per_document must be positive", p.TargetID)
	}
	if p.MinPerTheme > p.MaxPerTheme {
		return fmt.Errorf("profile %s: min_per_theme %d exceeds max_per_theme %d",
			p.TargetID, p.MinPerTheme, p.MaxPerTheme)
	}
	w := p.Weights
	if w.Specificity < 0 || w.Compliance < 0 || w.Budget < 0 {
		return fmt.Errorf("profile %s: scoring weights must be non-negative", p.TargetID)
	}
	if w.Specificity+w.Compliance+w.Budget <= 0 {
		return fmt.Errorf("profile %s: scoring weights sum to zero", p.TargetID)
	}
	if p.Dedup.WithinTheme <= 0 || p.Dedup.WithinTheme > 1 ||
		p.Dedup.Global <= 0 || p.Dedup.Global > 1 {
		return fmt.Errorf("profile %s: dedup thresholds must be in (0,1]", p.TargetID)
	}
	if len(p.Themes) == 0 {
		return fmt.Errorf("profile %s: no theme dictionaries", p.TargetID)
	}
	seen := make(map[string]bool, len(p.Themes))
	for _, t := range p.Themes {
		if t.Name == "" {
			return fmt.Errorf("profile %s: theme with empty name", p.TargetID)
		}
		if seen[t.Name] {
			return fmt.Errorf("profile %s: duplicate theme %q", p.TargetID, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// =============================================================================
// YAML LOAD / SAVE
// =============================================================================

// Load reads a profile from a YAML file and validates it.
func Load(path string) (*DistillationProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p DistillationProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	applyDefaults(&p)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the profile to a YAML file, creating parent directories.
func (p *DistillationProfile) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// applyDefaults fills zero-valued tuning knobs so hand-written profile files
// only need to state what they change.
func applyDefaults(p *DistillationProfile) {
	base := DefaultProfile()
	if p.MaxCards == 0 {
		p.MaxCards = base.MaxCards
	}
	if p.MinPerTheme == 0 {
		p.MinPerTheme = base.MinPerTheme
	}
	if p.MaxPerTheme == 0 {
		p.MaxPerTheme = base.MaxPerTheme
	}
	if p.MaxPerDocument == 0 {
		p.MaxPerDocument = base.MaxPerDocument
	}
	if p.HighSignalTarget == 0 {
		p.HighSignalTarget = base.HighSignalTarget
	}
	if p.HighSignalTolerance == 0 {
		p.HighSignalTolerance = base.HighSignalTolerance
	}
	if p.ContextTarget == 0 {
		p.ContextTarget = base.ContextTarget
	}
	if p.ContextTolerance == 0 {
		p.ContextTolerance = base.ContextTolerance
	}
	if p.Weights == (ScoringWeights{}) {
		p.Weights = base.Weights
	}
	if p.Dedup == (DedupThresholds{}) {
		p.Dedup = base.Dedup
	}
	if len(p.Themes) == 0 {
		p.Themes = base.Themes
	}
}
