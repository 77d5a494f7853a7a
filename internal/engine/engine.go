// Package engine orchestrates the distillation pipeline. Stage ordering is
// fixed and synchronous: chunk, filter, build, tag, dedup, quota, pack,
// budget. Later stages assume invariants established earlier (dedup assumes
// themes are tagged), so no stage overlaps another. The engine never fails
// hard: every run returns a structurally valid result, degraded runs carry a
// poor severity and error notes instead of an error value.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"distiller/internal/budget"
	"distiller/internal/cards"
	"distiller/internal/chunker"
	"distiller/internal/config"
	"distiller/internal/dedup"
	"distiller/internal/logging"
	"distiller/internal/pack"
	"distiller/internal/quota"
	"distiller/internal/themes"
	"distiller/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a single run. Profile wins over TargetID when both are
// set; otherwise the registry resolves TargetID (falling back to the default
// profile with a warning).
type Options struct {
	TargetID string
	Profile  *config.DistillationProfile
	Registry *config.Registry

	// Procurement, when non-nil and non-zero, is correlated into one
	// synthetic budget evidence card.
	Procurement *types.ProcurementMetrics

	// PromptBudgets maps downstream prompt types to character budgets.
	PromptBudgets map[string]int

	// Now overrides the run timestamp. Zero means wall clock. Tests pin it
	// to make two runs byte-identical.
	Now time.Time
}

func (o *Options) resolveProfile() (*config.DistillationProfile, bool) {
	if o.Profile != nil {
		return o.Profile, true
	}
	reg := o.Registry
	if reg == nil {
		reg = config.NewRegistry()
	}
	return reg.Resolve(o.TargetID)
}

// =============================================================================
// RUN
// =============================================================================

// Run executes the full pipeline over the given documents. It never returns
// an error: input problems and internal faults degrade the result instead.
func Run(ctx context.Context, docs []types.Document, opts Options) (result *types.DistillationResult) {
	log := logging.Get(logging.CategoryEngine)

	startedAt := opts.Now
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	runID := uuid.NewString()

	// Unexpected faults inside a stage become a poor-severity empty result;
	// the caller always receives a usable artifact.
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline fault", zap.String("run_id", runID), zap.Any("panic", r))
			result = emptyResult(runID, opts.TargetID, startedAt,
				fmt.Sprintf("internal fault: %v", r))
		}
	}()

	profile, exact := opts.resolveProfile()

	res := &types.DistillationResult{
		Manifest: types.DistillationManifest{
			RunID:     runID,
			TargetID:  profile.TargetID,
			StartedAt: startedAt,
			DocsIn:    len(docs),
		},
	}
	if !exact {
		res.Manifest.Errors = append(res.Manifest.Errors,
			fmt.Sprintf("unknown target %q, using default profile", opts.TargetID))
	}

	var usable []types.Document
	for _, d := range docs {
		if d.Text == "" {
			res.Manifest.Errors = append(res.Manifest.Errors,
				fmt.Sprintf("document %q is empty", d.Name))
			continue
		}
		usable = append(usable, d)
	}
	if len(usable) == 0 {
		res.Manifest.Errors = append(res.Manifest.Errors, "no readable documents")
		*res = *emptyResult(runID, profile.TargetID, startedAt, res.Manifest.Errors...)
		return res
	}

	log.Info("distillation started",
		zap.String("run_id", runID),
		zap.String("target", profile.TargetID),
		zap.Int("docs", len(usable)))

	// Stage 1-2: chunk and filter.
	allChunks := chunker.SplitAll(usable)
	res.Manifest.ChunksTotal = len(allChunks)
	kept, _ := chunker.NewFilter(profile).Apply(allChunks)
	res.Manifest.ChunksKept = len(kept)

	// Stage 3: build cards, correlate procurement metrics.
	cardList := cards.NewBuilder(profile, startedAt).Build(kept)
	if syn, ok := syntheticBudgetCard(profile, opts.Procurement, startedAt); ok {
		cardList = append(cardList, syn)
	}
	res.Manifest.CardsBuilt = len(cardList)

	// Stage 4: theme tagging.
	themes.NewTagger(profile).TagAll(cardList)

	// Stage 5: dedup.
	deduped, dedupReport := dedup.New(profile).Run(cardList)
	res.Dedup = dedupReport
	res.Manifest.CardsDeduped = dedupReport.DroppedCount

	// Stage 6: quota and coverage.
	selected, coverage := quota.New(profile).Apply(deduped)
	res.Coverage = coverage
	res.Manifest.CardsFinal = len(selected)

	// Stage 7: tier packing.
	res.Evidence = pack.New(profile).Pack(selected)

	// Stage 8: prompt budgeting.
	res.Prompts = budget.RenderAll(res.Evidence, opts.PromptBudgets)

	finishManifest(&res.Manifest, res.Evidence, startedAt, opts.Now.IsZero())

	log.Info("distillation complete",
		zap.String("run_id", runID),
		zap.Int("cards_final", res.Manifest.CardsFinal),
		zap.String("coverage", string(res.Coverage.Severity)))
	return res
}

func finishManifest(m *types.DistillationManifest, ev types.TieredEvidence, startedAt time.Time, wallClock bool) {
	if wallClock {
		m.Duration = time.Since(startedAt)
	}
	if m.ChunksTotal > 0 {
		m.ReductionRatio = float64(m.CardsFinal) / float64(m.ChunksTotal)
	}
	themeNames := make([]string, 0, len(ev.ThemeCounts))
	for theme := range ev.ThemeCounts {
		themeNames = append(themeNames, theme)
	}
	sort.Strings(themeNames)
	m.ThemesCovered = themeNames
}

// emptyResult builds the structurally valid degraded result.
func emptyResult(runID, targetID string, startedAt time.Time, errs ...string) *types.DistillationResult {
	return &types.DistillationResult{
		Evidence: types.TieredEvidence{ThemeCounts: map[string]int{}},
		Coverage: types.CoverageReport{
			PerTheme: map[string]types.ThemeQuota{},
			Severity: types.SeverityPoor,
			Notes:    []string{"run degraded: no evidence produced"},
		},
		Dedup: types.DedupReport{DroppedByTheme: map[string]int{}},
		Manifest: types.DistillationManifest{
			RunID:     runID,
			TargetID:  targetID,
			StartedAt: startedAt,
			Errors:    errs,
		},
	}
}

// =============================================================================
// SYNTHETIC BUDGET CARD
// =============================================================================

// syntheticBudgetCard correlates a collaborator-supplied procurement metrics
// record into one metric card. Zero-valued records are skipped silently.
func syntheticBudgetCard(p *config.DistillationProfile, m *types.ProcurementMetrics, createdAt time.Time) (types.EvidenceCard, bool) {
	if m == nil || m.TotalValue <= 0 {
		return types.EvidenceCard{}, false
	}

	fy := m.FiscalYear
	if fy == "" {
		fy = "current fiscal year"
	}
	quote := fmt.Sprintf("%s procurement activity: %d contracts totaling %s",
		fy, m.ContractCount, formatAmount(m.TotalValue))
	if m.TopVendor != "" {
		quote += fmt.Sprintf("; largest vendor %s", m.TopVendor)
	}

	budgetScore := 0
	switch {
	case m.TotalValue >= 100_000_000:
		budgetScore = 3
	case m.TotalValue >= 10_000_000:
		budgetScore = 2
	case m.TotalValue >= 1_000_000:
		budgetScore = 1
	}
	w := p.Weights
	total := w.Specificity*1 + w.Compliance*1 + w.Budget*float64(budgetScore)

	return types.EvidenceCard{
		ID:                 "procurement-metrics:0:0",
		ContentFingerprint: cards.Fingerprint(quote),
		CreatedAt:          createdAt,
		TargetProfile:      p.TargetID,
		Quote:              quote,
		Claim:              quote,
		FunctionTag:        "acquisition",
		Class:              types.ClassPriority,
		Role:               types.RoleMetric,
		Confidence:         types.ConfidenceMedium,
		Novelty:            1.0,
		Scores: types.Scores{
			Specificity: 1,
			Compliance:  1,
			Budget:      budgetScore,
			Total:       total,
		},
		Source: types.SourceRef{DocumentID: "procurement-metrics"},
	}, true
}

func formatAmount(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.1f billion", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1f million", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.0f thousand", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
