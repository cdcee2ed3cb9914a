package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply approved suggestions to the workspace",
	Long: `Pushes every approved suggestion to Tana as a real supertag
assignment. Entries that fail stay approved and are retried on the
next apply.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	report, err := reviewController.Apply(cmd.Context())

	var partial *domain.PartialApplyError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		report = partial.Report
	default:
		return fmt.Errorf("apply failed: %w", err)
	}

	if len(report.Outcomes) == 0 {
		cmd.Println("Nothing to apply. Approve suggestions with 'tanatag review' first.")
		return nil
	}

	for _, o := range report.Outcomes {
		if o.Applied {
			cmd.Printf("  applied  %s -> #%s\n", o.NoteTitle, o.LabelName)
		} else {
			cmd.Printf("  FAILED   %s -> #%s: %v\n", o.NoteTitle, o.LabelName, o.Err)
		}
	}
	cmd.Printf("\n%d applied, %d failed.\n", report.AppliedCount(), report.FailedCount())

	if partial != nil {
		return errors.New("some entries failed; they remain approved for retry")
	}
	return nil
}
