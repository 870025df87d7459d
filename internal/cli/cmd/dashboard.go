package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"panelctl/internal/cli/ui"
	"panelctl/internal/servers"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard",
	Run: func(cmd *cobra.Command, args []string) {
		RunDashboard()
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

// RunDashboard starts the interactive shell. The shell confirms deletions
// through its own modal, so the controller gets an armed confirmer instead
// of the terminal prompt.
func RunDashboard() {
	armed := ui.NewArmedConfirmer()
	ctrl := servers.NewController(Client, armed, logger)

	if err := ui.Run(Session, ctrl, armed); err != nil {
		log.Fatalf("Error running dashboard: %v", err)
	}
}
