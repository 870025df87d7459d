package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"panelctl/internal/config"
	"panelctl/internal/credstore"
	"panelctl/internal/servers"
	"panelctl/internal/session"
	"panelctl/pkg/sdk"
)

var (
	Cfg     *config.Config
	Client  *sdk.Client
	Store   *credstore.Store
	Session *session.Manager
	Ctrl    *servers.Controller

	confirm *promptConfirmer
	logger  *log.Logger

	flagURL       string
	flagConfigDir string
	flagVerbose   bool
)

var RootCmd = &cobra.Command{
	Use:   "panelctl",
	Short: "CLI for the server hosting panel",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		Cfg, err = config.Load(flagConfigDir)
		if err != nil {
			return fmt.Errorf("error loading configuration: %w", err)
		}
		if flagURL != "" {
			Cfg.PanelURL = flagURL
		}
		if flagVerbose {
			Cfg.Verbose = true
		}

		logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
		if Cfg.Verbose {
			logger.SetLevel(log.DebugLevel)
		} else {
			logger.SetLevel(log.WarnLevel)
		}

		Store, err = credstore.Open(Cfg.CredentialsPath())
		if err != nil {
			return fmt.Errorf("error opening credential store: %w", err)
		}

		Client = sdk.NewClient(Cfg.PanelURL)
		Session = session.NewManager(Client, Store, logger)
		confirm = &promptConfirmer{in: os.Stdin, out: os.Stderr}
		Ctrl = servers.NewController(Client, confirm, logger)

		Session.Restore(context.Background())
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		RunDashboard()
	},
}

func Execute() {
	RootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "URL of the panel API (overrides configuration)")
	RootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "Configuration directory")
	RootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// requireLogin aborts the command when no session is available. Restore has
// already run, so an expired token is caught by the first request anyway;
// this only saves a pointless round trip when nothing is cached at all.
func requireLogin() {
	if !Session.State().Authenticated {
		log.Fatal("Not logged in. Run `panelctl login` first.")
	}
}
