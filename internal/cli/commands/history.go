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

var historyWithMessages bool

// historyCmd is the history command.
var historyCmd = &cobra.Command{
	Use:   "history <workflow-id>",
	Short: "show a workflow's chat history",
	Long: `Show the chat sessions recorded for a workflow, most recently
active first, with per-session message counts.`,
	Example: `  # Session overview
  $ pilotctl history wf-42

  # Full transcripts
  $ pilotctl history wf-42 --messages`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyWithMessages, "messages", false, "Include full transcripts")
	historyCmd.SilenceUsage = true
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workflowID := args[0]

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

	history, err := apiClient.GetHistory(ctx, workflowID, historyWithMessages)
	if err != nil {
		ui.PrintError("failed to get history: %v", err)
		return fmt.Errorf("history fetch failed")
	}

	ui.PrintBold("Workflow %s", history.WorkflowID)
	latest := "never"
	if history.LatestActivity != nil {
		latest = *history.LatestActivity
	}
	ui.PrintInfo("%d sessions, %d messages, latest activity %s",
		history.TotalSessions, history.TotalMessages, latest)
	fmt.Println()

	if len(history.Sessions) == 0 {
		ui.PrintDim("No sessions recorded.")
		return nil
	}

	for _, session := range history.Sessions {
		ui.PrintBold("Session %s", session.SessionID)
		ui.PrintDim("  created %s, last activity %s, %d messages",
			session.CreatedAt, session.LastActivity, session.MessageCount)

		for _, msg := range session.Messages {
			fmt.Printf("  [%s] %s\n", msg.Role, msg.Content)
		}
		fmt.Println()
	}

	return nil
}
