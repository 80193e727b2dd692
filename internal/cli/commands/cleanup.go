package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ekenesbek/8pilot/internal/cli/client"
	"github.com/ekenesbek/8pilot/internal/cli/config"
	"github.com/ekenesbek/8pilot/internal/cli/ui"
)

var cleanupMaxAgeHours int

// cleanupCmd is the cleanup command.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "delete stale chat sessions",
	Long: `Delete chat sessions that have been idle for longer than the given
age, together with their messages. The default retention window is one
week (168 hours).`,
	Example: `  # Use the default one-week window
  $ pilotctl cleanup

  # Delete everything idle for more than a day
  $ pilotctl cleanup --max-age-hours 24`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&cleanupMaxAgeHours, "max-age-hours", 0, "Retention window in hours (0 uses the server default)")
	cleanupCmd.SilenceUsage = true
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		ui.PrintError("failed to load config: %v", err)
		return fmt.Errorf("config load failed")
	}
	if !cfg.IsAuthenticated() {
		ui.PrintError("not authenticated, please login first")
		return fmt.Errorf("authentication required")
	}

	apiClient, err := client.NewAPIClient(cfg.Server, cfg.AccessToken)
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return fmt.Errorf("client creation failed")
	}

	result, err := apiClient.Cleanup(ctx, cleanupMaxAgeHours)
	if err != nil {
		ui.PrintError("cleanup failed: %v", err)
		return fmt.Errorf("cleanup failed")
	}

	ui.PrintSuccess("deleted %d sessions older than %d hours",
		result.DeletedSessions, result.MaxAgeHours)
	return nil
}
