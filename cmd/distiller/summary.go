package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"

	"distiller/internal/types"
)

// =============================================================================
// TERMINAL SUMMARY
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Faint(true)
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	poorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	noteStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
)

func severityStyle(s types.Severity) lipgloss.Style {
	switch s {
	case types.SeverityPoor:
		return poorStyle
	case types.SeverityWarn:
		return warnStyle
	default:
		return okStyle
	}
}

// printSummary renders the run manifest and coverage report for the terminal.
func printSummary(w io.Writer, result *types.DistillationResult) {
	m := result.Manifest

	fmt.Fprintln(w, titleStyle.Render("Distillation Summary"))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("run:"), m.RunID)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("target:"), m.TargetID)
	fmt.Fprintf(w, "%s %d docs, %d chunks (%d kept), %d cards built, %d deduped, %d final\n",
		labelStyle.Render("volume:"),
		m.DocsIn, m.ChunksTotal, m.ChunksKept, m.CardsBuilt, m.CardsDeduped, m.CardsFinal)
	fmt.Fprintf(w, "%s high-signal %d, context %d\n",
		labelStyle.Render("packs:"),
		len(result.Evidence.HighSignal), len(result.Evidence.Context))

	sev := severityStyle(result.Coverage.Severity).Render(string(result.Coverage.Severity))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("coverage:"), sev)

	themes := make([]string, 0, len(result.Evidence.ThemeCounts))
	for theme := range result.Evidence.ThemeCounts {
		themes = append(themes, theme)
	}
	sort.Strings(themes)
	for _, theme := range themes {
		fmt.Fprintf(w, "  %-28s %d\n", theme, result.Evidence.ThemeCounts[theme])
	}

	for _, note := range result.Coverage.Notes {
		fmt.Fprintln(w, noteStyle.Render("  note: "+note))
	}
	for _, e := range m.Errors {
		fmt.Fprintln(w, poorStyle.Render("  error: ")+e)
	}
}
