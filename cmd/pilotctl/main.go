package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ekenesbek/8pilot/internal/cli/commands"
	"github.com/ekenesbek/8pilot/internal/cli/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "unknown command") {
			ui.PrintError("%s", errMsg)
			fmt.Println("\nRun 'pilotctl --help' for usage.")
		}
		os.Exit(1)
	}
}
