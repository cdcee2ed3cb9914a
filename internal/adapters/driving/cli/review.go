package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driving/tui"
)

var reviewList bool

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review pending suggestions interactively",
	Long: `Opens an interactive session over the pending suggestions. Approve
[a], reject [r] or skip [s] each note; approved entries are pushed to
Tana by 'tanatag apply'.

With --list the queue is printed instead of opening the interactive
view.`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewList, "list", false, "print the pending queue and exit")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	if reviewList {
		return printPendingQueue(cmd)
	}

	app, err := tui.NewApp(reviewController, reviewOwner())
	if err != nil {
		return fmt.Errorf("creating review view: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("review session error: %w", err)
	}
	return nil
}

func printPendingQueue(cmd *cobra.Command) error {
	queue, err := reviewController.PendingQueue(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading pending queue: %w", err)
	}
	if len(queue) == 0 {
		cmd.Println("No pending suggestions. Run 'tanatag classify' first.")
		return nil
	}

	for _, target := range queue {
		cmd.Printf("\n%s\n", target.Note.Path())
		for _, s := range target.Suggestions {
			cmd.Printf("  #%-24s %.2f  %s\n", s.LabelName, s.Score, s.Confidence())
		}
	}
	cmd.Printf("\n%d note(s) awaiting review.\n", len(queue))
	return nil
}

// reviewOwner identifies the session owner. One session per owner, so
// the local username keeps concurrent terminals from clashing silently.
func reviewOwner() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
