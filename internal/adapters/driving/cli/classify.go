package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driving"
)

var (
	classifyTopK     int
	classifyMinScore float64
	classifyDryRun   bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Suggest supertags for the snapshotted notes",
	Long: `Runs the suggestion pipeline over the local snapshot: filters the
note hierarchy down to taggable targets, scores each target against the
supertag catalog, and records the ranked suggestions as pending ledger
entries awaiting review.

Use --dry-run to preview suggestions without touching the ledger.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().IntVar(&classifyTopK, "top-k", 0, "maximum suggestions per note")
	classifyCmd.Flags().Float64Var(&classifyMinScore, "min-score", 0, "confidence floor in [0,1]")
	classifyCmd.Flags().BoolVar(&classifyDryRun, "dry-run", false, "preview without recording suggestions")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	result, err := classifyRunner.Classify(cmd.Context(), driving.ClassifyOptions{
		TopK:     classifyTopK,
		MinScore: classifyMinScore,
		DryRun:   classifyDryRun,
	})
	if err != nil {
		return fmt.Errorf("classify failed: %w", err)
	}

	printRunResult(cmd, result)
	return nil
}

func printRunResult(cmd *cobra.Command, result *driving.RunResult) {
	if len(result.Results) == 0 {
		cmd.Println("No taggable notes with suggestions. Run 'tanatag sync' first?")
		return
	}

	suggestions := 0
	for _, target := range result.Results {
		cmd.Printf("\n%s\n", target.Note.Title)
		if path := target.Note.Path(); path != target.Note.Title {
			cmd.Printf("  %s\n", path)
		}
		for _, s := range target.Suggestions {
			cmd.Printf("  #%-24s %.2f  %s\n", s.LabelName, s.Score, s.Confidence())
			suggestions++
		}
	}

	cmd.Println()
	cmd.Printf("%d suggestion(s) across %d note(s)", suggestions, len(result.Results))
	if result.SkippedSubtrees > 0 {
		cmd.Printf(", %d subtree(s) skipped", result.SkippedSubtrees)
	}
	cmd.Printf(" in %s\n", result.FinishedAt.Sub(result.StartedAt).Round(10*time.Millisecond))

	if classifyDryRun {
		cmd.Println("Dry run: nothing was recorded.")
	} else {
		cmd.Println("Run 'tanatag review' to approve or reject suggestions.")
	}
}
