// Package types provides the shared data model for the evidence distillation
// pipeline. Types here are foundational data structures with no dependencies on
// other internal packages, so every stage can exchange them without cycles.
package types

import (
	"time"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity classifies how degraded a stage result is. The pipeline never
// fails hard; it annotates its output instead.
type Severity string

const (
	SeverityOK   Severity = "ok"
	SeverityWarn Severity = "warn"
	SeverityPoor Severity = "poor"
)

// Worse returns the more degraded of two severities.
func (s Severity) Worse(other Severity) Severity {
	if s.rank() >= other.rank() {
		return s
	}
	return other
}

func (s Severity) rank() int {
	switch s {
	case SeverityPoor:
		return 2
	case SeverityWarn:
		return 1
	default:
		return 0
	}
}

// StageResult carries the degradation state of a pipeline stage alongside its
// value. Stages append human-readable notes instead of returning errors.
type StageResult struct {
	Severity Severity `json:"severity"`
	Notes    []string `json:"notes,omitempty"`
}

// Degrade raises the severity (never lowers it) and records a note.
func (r *StageResult) Degrade(sev Severity, note string) {
	r.Severity = r.Severity.Worse(sev)
	if note != "" {
		r.Notes = append(r.Notes, note)
	}
}

// =============================================================================
// DOCUMENTS AND CHUNKS
// =============================================================================

// Document is a raw input document supplied by the caller.
type Document struct {
	Name     string `json:"name"`
	ByteSize int    `json:"byte_size"`
	Text     string `json:"text"`
}

// Chunk is a contiguous text span with provenance. Chunks are ephemeral:
// produced by the chunker and consumed within a single pipeline run.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Page       int    `json:"page,omitempty"` // 0 = unknown
	Heading    string `json:"heading,omitempty"`
	ByteOffset int    `json:"byte_offset"`
	ByteLength int    `json:"byte_length"`
	Text       string `json:"text"`
}

// =============================================================================
// EVIDENCE CARDS
// =============================================================================

// CardClass categorizes what kind of statement a card captures.
type CardClass string

const (
	ClassMandate  CardClass = "mandate"
	ClassPriority CardClass = "priority"
	ClassGap      CardClass = "gap"
	ClassTrend    CardClass = "trend"
)

// CardRole describes how a card is expected to be used downstream.
type CardRole string

const (
	RoleClaim        CardRole = "claim"
	RoleMetric       CardRole = "metric"
	RoleContext      CardRole = "context"
	RoleEvidence     CardRole = "evidence"
	RoleCounterpoint CardRole = "counterpoint"
)

// Confidence is a three-tier reliability estimate for a card's source.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence tiers for tie-breaking (high > medium > low).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

// MaxQuoteLen is the hard ceiling on a card's verbatim quote.
const MaxQuoteLen = 220

// MaxSummaryLen is the ceiling on a context card's summary.
const MaxSummaryLen = 100

// Scores holds the per-dimension scores of a card plus their weighted total.
type Scores struct {
	Specificity int     `json:"specificity"` // 1-3
	Compliance  int     `json:"compliance"`  // 1-3
	Budget      int     `json:"budget"`      // 0-3
	Total       float64 `json:"total"`
}

// SourceRef locates a card's quote inside its origin document.
type SourceRef struct {
	DocumentID  string `json:"document_id"`
	Page        int    `json:"page,omitempty"`
	SectionHint string `json:"section_hint,omitempty"`
	SpanStart   int    `json:"span_start"`
	SpanEnd     int    `json:"span_end"`
}

// EvidenceCard is the central entity of the pipeline: a scored, attributed
// unit of extracted text used as a citable building block. Cards are created
// once per surviving chunk and never mutated except to attach the derived
// Themes/Role/Confidence/Novelty fields; dropped cards are discarded.
type EvidenceCard struct {
	ID                 string     `json:"id"` // doc:page:offset, stable dedup key
	ContentFingerprint string     `json:"content_fingerprint"`
	CreatedAt          time.Time  `json:"created_at"`
	TargetProfile      string     `json:"target_profile"`
	Quote              string     `json:"quote"` // verbatim, len <= MaxQuoteLen
	Claim              string     `json:"claim"` // short paraphrase
	FunctionTag        string     `json:"function_tag"`
	Class              CardClass  `json:"class"`
	Role               CardRole   `json:"role"`
	Themes             []string   `json:"themes,omitempty"` // 0-2 topic labels
	Confidence         Confidence `json:"confidence"`
	Novelty            float64    `json:"novelty"` // 0..1
	Scores             Scores     `json:"scores"`
	Source             SourceRef  `json:"source"`
}

// PrimaryTheme returns the first assigned theme, or empty if untagged.
func (c *EvidenceCard) PrimaryTheme() string {
	if len(c.Themes) == 0 {
		return ""
	}
	return c.Themes[0]
}

// ContextCard is a lighter projection of a non-selected evidence card,
// created only during tier packing. Read-only background material.
type ContextCard struct {
	ID         string     `json:"id"`
	Theme      string     `json:"theme"`
	Summary    string     `json:"summary"` // len <= MaxSummaryLen
	SourceDoc  string     `json:"source_doc"`
	Page       int        `json:"page,omitempty"`
	Confidence Confidence `json:"confidence"`
}

// =============================================================================
// PIPELINE ARTIFACTS
// =============================================================================

// TieredEvidence is the pipeline's final artifact: a citable high-signal pack
// plus short background context, with per-theme counts from the high-signal
// pack only.
type TieredEvidence struct {
	HighSignal  []EvidenceCard `json:"high_signal"`
	Context     []ContextCard  `json:"context"`
	ThemeCounts map[string]int `json:"theme_counts"`
}

// ThemeQuota records how a single theme fared under quota enforcement.
type ThemeQuota struct {
	Candidates int `json:"candidates"`
	Kept       int `json:"kept"`
}

// ThemeTargets is the configured per-theme min/max card window.
type ThemeTargets struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// CoverageReport summarizes how well mandatory themes are represented.
// Severity: poor if any mandatory theme has zero cards; warn if more than two
// mandatory themes are below minimum; else ok.
type CoverageReport struct {
	ThemeTargets  ThemeTargets          `json:"theme_targets"`
	PerTheme      map[string]ThemeQuota `json:"per_theme"`
	MissingThemes []string              `json:"missing_themes,omitempty"`
	WeakThemes    []string              `json:"weak_themes,omitempty"`
	Severity      Severity              `json:"severity"`
	Notes         []string              `json:"notes,omitempty"`
}

// DedupReport summarizes what similarity clustering removed.
type DedupReport struct {
	SimilarityThreshold float64        `json:"similarity_threshold"`
	DroppedCount        int            `json:"dropped_count"`
	KeptCount           int            `json:"kept_count"`
	DroppedByTheme      map[string]int `json:"dropped_by_theme,omitempty"`
}

// DistillationManifest carries per-run statistics for observability and for
// the caller's degradation decisions.
type DistillationManifest struct {
	RunID          string        `json:"run_id"`
	TargetID       string        `json:"target_id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	DocsIn         int           `json:"docs_in"`
	ChunksTotal    int           `json:"chunks_total"`
	ChunksKept     int           `json:"chunks_kept"`
	CardsBuilt     int           `json:"cards_built"`
	CardsDeduped   int           `json:"cards_deduped"`
	CardsFinal     int           `json:"cards_final"`
	ReductionRatio float64       `json:"reduction_ratio"`
	ThemesCovered  []string      `json:"themes_covered,omitempty"`
	Errors         []string      `json:"errors,omitempty"`
}

// PromptBlock is a budgeted, serialized slice of the tiered evidence for one
// downstream prompt type. Never over budget: the budgeter shrinks first.
type PromptBlock struct {
	Text         string `json:"text"`
	CharCount    int    `json:"char_count"`
	WithinBudget bool   `json:"within_budget"`
	Shrunk       bool   `json:"shrunk"`
	CardsUsed    int    `json:"cards_used"`
}

// ProcurementMetrics is a flat record derived from tabular procurement data
// by a collaborator. The engine only correlates it into a synthetic budget
// card; parsing the table is out of scope.
type ProcurementMetrics struct {
	TotalValue    float64 `json:"total_value"`
	ContractCount int     `json:"contract_count"`
	TopVendor     string  `json:"top_vendor,omitempty"`
	FiscalYear    string  `json:"fiscal_year,omitempty"`
}

// DistillationResult bundles everything a run produces. Always structurally
// valid, even on failure (empty packs, severity poor, errors populated).
type DistillationResult struct {
	Evidence TieredEvidence         `json:"evidence"`
	Coverage CoverageReport         `json:"coverage"`
	Dedup    DedupReport            `json:"dedup"`
	Manifest DistillationManifest   `json:"manifest"`
	Prompts  map[string]PromptBlock `json:"prompts,omitempty"`
}
