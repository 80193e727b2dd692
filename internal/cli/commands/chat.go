package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/ekenesbek/8pilot/internal/cli/client"
	"github.com/ekenesbek/8pilot/internal/cli/config"
	"github.com/ekenesbek/8pilot/internal/cli/types"
	"github.com/ekenesbek/8pilot/internal/cli/ui"
)

var (
	chatWorkflowID string
	chatProvider   string
	chatModel      string
	chatNew        bool
)

// chatCmd is the chat command.
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "start interactive chat about a workflow",
	Long: `Start an interactive chat session about an automation workflow.

The assistant's replies stream to the terminal as they are produced.
The session continues across invocations until --new is passed; the
session ID is remembered in ~/.pilotctl/config.json.`,
	Example: `  # Chat about workflow wf-42
  $ pilotctl chat -w wf-42

  # Start a fresh session
  $ pilotctl chat -w wf-42 --new

  # Pick a provider and model
  $ pilotctl chat -w wf-42 -p anthropic -m claude-sonnet-4-20250514

  Type /quit to leave the session.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatWorkflowID, "workflow", "w", "", "Workflow ID to chat about")
	chatCmd.Flags().StringVarP(&chatProvider, "provider", "p", "", "AI provider (openai, anthropic)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model override")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "Start a fresh session")
	chatCmd.SilenceUsage = true
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		ui.PrintError("failed to load config: %v", err)
		return fmt.Errorf("config load failed")
	}

	if !cfg.IsAuthenticated() {
		ui.PrintError("not authenticated, please login first")
		fmt.Println("\nRun 'pilotctl login' to authenticate.")
		return fmt.Errorf("authentication required")
	}

	if chatWorkflowID == "" {
		chatWorkflowID = cfg.WorkflowID
	}
	if chatWorkflowID == "" {
		ui.PrintError("no workflow selected, pass -w <workflow-id>")
		return fmt.Errorf("workflow required")
	}

	sessionID := cfg.SessionID
	if chatNew || cfg.WorkflowID != chatWorkflowID {
		sessionID = ""
	}

	apiClient, err := client.NewAPIClient(cfg.Server, cfg.AccessToken)
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return fmt.Errorf("client creation failed")
	}

	ui.PrintChatWelcomeBanner(chatWorkflowID)
	ui.PrintDim("Type /quit to exit.")

	for {
		var message string
		prompt := &survey.Input{Message: ">"}
		if err := survey.AskOne(prompt, &message); err != nil {
			// Ctrl-C / EOF ends the session.
			break
		}

		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		if message == "/quit" || message == "/exit" {
			break
		}

		newSessionID, err := streamTurn(apiClient, types.ChatRequest{
			WorkflowID: chatWorkflowID,
			SessionID:  sessionID,
			Message:    message,
			Provider:   chatProvider,
			Model:      chatModel,
		})
		if err != nil {
			ui.PrintError("%v", err)
			continue
		}
		if newSessionID != "" {
			sessionID = newSessionID
		}
	}

	// Remember the session for the next invocation.
	cfg.WorkflowID = chatWorkflowID
	cfg.SessionID = sessionID
	if err := cfg.Save(); err != nil {
		ui.PrintWarning("failed to save session: %v", err)
	}

	ui.PrintInfo("Session saved. See you next time!")
	return nil
}

// streamTurn sends one turn and prints the streamed reply. It returns the
// session ID announced by the server.
func streamTurn(apiClient *client.APIClient, req types.ChatRequest) (string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventCh, errCh, err := apiClient.StreamChat(ctx, req)
	if err != nil {
		return "", err
	}

	sessionID := ""
	printed := false
	for event := range eventCh {
		if event.SessionID != "" {
			sessionID = event.SessionID
		}
		if event.Error != "" {
			fmt.Println()
			return sessionID, fmt.Errorf("stream failed: %s", event.Error)
		}
		if event.Content != "" {
			fmt.Print(event.Content)
			printed = true
		}
		if event.Done {
			break
		}
	}
	if printed {
		fmt.Println()
		fmt.Println()
	}

	if err := <-errCh; err != nil {
		return sessionID, err
	}
	return sessionID, nil
}
