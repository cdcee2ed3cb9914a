package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/hectorhvelascot-droid/tana-auto-tagger/internal/adapters/driven/config/file"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change configuration",
	RunE:  runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Sets a configuration key. Keys use dot notation:

  tanatag settings set workspace.id M9abc123
  tanatag settings set embedding.provider openai
  tanatag settings set pipeline.top_k 5
  tanatag settings set labels.excluded "SYS_T01,SYS_T02"`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Store the Tana API token",
	Long: `Prompts for the Tana local API token without echoing it. The
TANATAG_API_TOKEN environment variable, when set, always wins over the
stored value.`,
	RunE: runSettingsToken,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsTokenCmd)
	rootCmd.AddCommand(settingsCmd)
}

// settingKeys is the display order for show. Unknown keys set by the
// user still round trip; they just are not listed here.
var settingKeys = []string{
	"workspace.id",
	"graph.url",
	"graph.timeout_seconds",
	"embedding.provider",
	"embedding.model",
	"embedding.base_url",
	"labels.excluded",
	"filter.structural_containers",
	"pipeline.top_k",
	"pipeline.min_score",
	"pipeline.days_back",
	"session.ttl_minutes",
	"notify.webhook_url",
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := ensureConfigStore(); err != nil {
		return err
	}

	cmd.Printf("Settings file: %s\n\n", configStore.Path())
	for _, key := range settingKeys {
		value, ok := configStore.Get(key)
		if !ok {
			cmd.Printf("  %-30s (default)\n", key)
			continue
		}
		cmd.Printf("  %-30s %v\n", key, value)
	}

	if token := configStore.GetString("graph.token"); token != "" {
		cmd.Printf("  %-30s %s\n", "graph.token", maskSecret(token))
	}
	if os.Getenv(configfile.EnvGraphToken) != "" {
		cmd.Printf("\nToken override active via %s.\n", configfile.EnvGraphToken)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if err := ensureConfigStore(); err != nil {
		return err
	}
	key, raw := args[0], args[1]

	if err := configStore.Set(key, coerceValue(raw)); err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	cmd.Printf("Set %s.\n", key)
	return nil
}

func runSettingsToken(cmd *cobra.Command, _ []string) error {
	if err := ensureConfigStore(); err != nil {
		return err
	}

	cmd.Print("Tana API token: ")
	token := readSecret()
	cmd.Println()
	if token == "" {
		return fmt.Errorf("empty token")
	}

	if err := configStore.Set("graph.token", token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	cmd.Println("Token stored.")
	return nil
}

// coerceValue keeps numeric and boolean settings typed in the TOML file
// and splits comma lists into arrays.
func coerceValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		return list
	}
	return raw
}

//nolint:errcheck // CLI helper, error ignored for UX
func readSecret() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if secret, err := term.ReadPassword(int(os.Stdin.Fd())); err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
