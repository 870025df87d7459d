package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Open the panel in the browser",
	Run: func(cmd *cobra.Command, args []string) {
		if err := browser.OpenURL(Cfg.PanelURL); err != nil {
			log.Fatalf("Error opening browser: %v", err)
		}
		fmt.Printf("Opened %s\n", Cfg.PanelURL)
	},
}

func init() {
	RootCmd.AddCommand(webCmd)
}
