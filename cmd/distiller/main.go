// Command distiller runs the evidence distillation engine from the terminal.
// The CLI is glue only: it loads documents, resolves a profile, invokes the
// engine, and presents the reports. All semantics live under internal/.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"distiller/internal/config"
	"distiller/internal/engine"
	"distiller/internal/logging"
	"distiller/internal/types"
)

var (
	verbose     bool
	targetID    string
	docsDir     string
	outDir      string
	profilePath string
	budgetChars int
)

var rootCmd = &cobra.Command{
	Use:   "distiller",
	Short: "distiller - evidence distillation engine for agency document sets",
	Long: `distiller reduces large, heterogeneous document sets (policy text,
audit reports, procurement spreadsheets) to a small, bounded set of traceable
evidence cards suitable for prompt construction under a generation budget.

The pipeline is deterministic: identical documents and profile produce
identical evidence packs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Distill a directory of documents into tiered evidence packs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		docs, loadErrs := engine.LoadDocuments(ctx, docsDir)

		opts := engine.Options{
			TargetID:      targetID,
			PromptBudgets: map[string]int{"narrative": budgetChars},
		}
		if profilePath != "" {
			p, err := config.Load(profilePath)
			if err != nil {
				return err
			}
			opts.Profile = p
		}

		result := engine.Run(ctx, docs, opts)
		result.Manifest.Errors = append(result.Manifest.Errors, loadErrs...)

		printSummary(cmd.OutOrStdout(), result)

		if outDir != "" {
			if err := writeArtifacts(outDir, result); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "artifacts written to %s\n", outDir)
		}
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List registered distillation profiles",
	Run: func(cmd *cobra.Command, args []string) {
		reg := config.NewRegistry()
		for _, id := range reg.TargetIDs() {
			p, _ := reg.Resolve(id)
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", id, p.DisplayName)
		}
	},
}

// writeArtifacts dumps the evidence pack, reports, and prompt blocks as JSON
// for downstream consumers.
func writeArtifacts(dir string, result *types.DistillationResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	files := map[string]any{
		"evidence.json": result.Evidence,
		"coverage.json": result.Coverage,
		"dedup.json":    result.Dedup,
		"manifest.json": result.Manifest,
	}
	for name, v := range files {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	names := make([]string, 0, len(result.Prompts))
	for name := range result.Prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(dir, fmt.Sprintf("prompt_%s.txt", name))
		if err := os.WriteFile(path, []byte(result.Prompts[name].Text), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd.Flags().StringVarP(&targetID, "target", "t", "", "target agency identifier (normalized via alias map)")
	runCmd.Flags().StringVarP(&docsDir, "docs", "d", ".", "directory of input documents (*.txt, *.md)")
	runCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for JSON artifacts and prompt blocks")
	runCmd.Flags().StringVar(&profilePath, "profile", "", "YAML profile file (overrides --target)")
	runCmd.Flags().IntVar(&budgetChars, "budget", 12000, "character budget for the narrative prompt block")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(profilesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
