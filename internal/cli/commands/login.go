package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/ekenesbek/8pilot/internal/cli/client"
	"github.com/ekenesbek/8pilot/internal/cli/config"
	"github.com/ekenesbek/8pilot/internal/cli/ui"
)

var loginUsername string

// loginCmd is the login command.
var loginCmd = &cobra.Command{
	Use:   "login [server]",
	Short: "authenticate with the API server",
	Long: `Authenticate with the 8pilot API server and save credentials locally.

Your authentication token will be stored in ~/.pilotctl/config.json and used
automatically for all subsequent commands. The token remains valid until
it expires or you login again.

If server is not provided, defaults to http://localhost:8080.`,
	Example: `  # Login to default server (localhost:8080)
  $ pilotctl login

  # Login to custom server with username (will prompt for password)
  $ pilotctl login http://api.example.com:8080 -u admin`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username for authentication")
	loginCmd.SilenceUsage = true
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loginServer := "http://localhost:8080"
	if len(args) > 0 {
		loginServer = args[0]
	}

	if loginUsername == "" {
		prompt := &survey.Input{
			Message: "Username:",
		}
		if err := survey.AskOne(prompt, &loginUsername, survey.WithValidator(survey.Required)); err != nil {
			ui.PrintError("failed to read username: %v", err)
			return fmt.Errorf("input failed")
		}
	}

	var password string
	prompt := &survey.Password{
		Message: "Password:",
	}
	if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
		ui.PrintError("failed to read password: %v", err)
		return fmt.Errorf("input failed")
	}

	apiClient, err := client.NewAPIClient(loginServer, "")
	if err != nil {
		ui.PrintError("failed to create client: %v", err)
		return fmt.Errorf("client creation failed")
	}

	ui.PrintInfo("Connecting to %s...", loginServer)

	resp, err := apiClient.Login(ctx, loginUsername, password)
	if err != nil {
		ui.PrintErrorBox("Login Failed", err.Error())
		return fmt.Errorf("authentication failed")
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
	}
	cfg.Server = loginServer
	cfg.AccessToken = resp.Data.Token
	cfg.Username = resp.Data.User.Username
	cfg.UserID = resp.Data.User.ID

	if err := cfg.Save(); err != nil {
		ui.PrintError("failed to save config: %v", err)
		return fmt.Errorf("config save failed")
	}

	configPath, _ := config.GetConfigPath()
	successContent := fmt.Sprintf(`Username:       %s
User ID:        %s
Token expires:  %s
Config saved:   %s`,
		resp.Data.User.Username,
		resp.Data.User.ID,
		resp.Data.Expire,
		configPath,
	)

	ui.PrintSuccessBox("✓ Login Successful", successContent)

	fmt.Println()
	ui.PrintInfo("You can now use the following commands:")
	ui.PrintBold("  pilotctl chat -w <workflow>    # Chat about a workflow")
	ui.PrintBold("  pilotctl history <workflow>    # Show chat history")

	return nil
}
