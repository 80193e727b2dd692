package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekenesbek/8pilot/internal/cli/ui"
)

const version = "0.1.0"

// rootCmd is the root command.
var rootCmd = &cobra.Command{
	Use:     "pilotctl",
	Short:   "Workflow chat assistant CLI",
	Version: version,
	Long: `A command-line tool for chatting with your automation workflows.
Provides streaming chat sessions, per-workflow history browsing and
retention maintenance against an 8pilot API server.`,
	Example: `  # Authenticate with API server
  $ pilotctl login http://localhost:8080 -u admin

  # Chat about a workflow (streams the reply)
  $ pilotctl chat -w wf-42

  # Show a workflow's chat history
  $ pilotctl history wf-42

  # Delete sessions idle for more than a week
  $ pilotctl cleanup`,
}

// Execute executes the root command.
func Execute() error {
	rootCmd.SetVersionTemplate(formatVersion())
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cleanupCmd)

	rootCmd.SetUsageTemplate(usageTemplate())
	rootCmd.SetHelpTemplate(usageTemplate())
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}

func formatVersion() string {
	return fmt.Sprintf("pilotctl version %s\n", version)
}
