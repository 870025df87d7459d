package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"panelctl/internal/servers"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage servers",
}

var createName, createDescription string

var serverCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new server",
	Run: func(cmd *cobra.Command, args []string) {
		handleServerCreate(createName, createDescription)
	},
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all servers",
	Run: func(cmd *cobra.Command, args []string) {
		handleServerList()
	},
}

var serverStartCmd = &cobra.Command{
	Use:   "start [id]",
	Short: "Start a server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleServerCommand(args[0], servers.ActionStart)
	},
}

var serverStopCmd = &cobra.Command{
	Use:   "stop [id]",
	Short: "Stop a server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleServerCommand(args[0], servers.ActionStop)
	},
}

var serverRestartCmd = &cobra.Command{
	Use:   "restart [id]",
	Short: "Restart a server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleServerCommand(args[0], servers.ActionRestart)
	},
}

var deleteYes bool

var serverDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		confirm.assumeYes = deleteYes
		handleServerCommand(args[0], servers.ActionDelete)
	},
}

func init() {
	serverCreateCmd.Flags().StringVar(&createName, "name", "", "Server name")
	serverCreateCmd.Flags().StringVar(&createDescription, "description", "", "Server description")
	serverCreateCmd.MarkFlagRequired("name")

	serverDeleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")

	serverCmd.AddCommand(serverCreateCmd, serverListCmd, serverStartCmd, serverStopCmd, serverRestartCmd, serverDeleteCmd)
	RootCmd.AddCommand(serverCmd)
}

func handleServerList() {
	requireLogin()

	list, err := Ctrl.Refresh(context.Background())
	if err != nil {
		log.Fatalf("Error listing servers: %v", err)
	}

	if len(list) == 0 {
		fmt.Println("No servers yet. Run `panelctl server create --name <name>`.")
		return
	}

	fmt.Println("\n--- SERVERS ---")
	for _, s := range list {
		fmt.Printf("[%d] %-24s %-12s %s\n", s.ID, s.Name, s.Status, s.Description)
	}

	total, running, stopped := Ctrl.Counts()
	fmt.Printf("\n%d total, %d running, %d stopped\n", total, running, stopped)
}

func handleServerCreate(name, description string) {
	requireLogin()

	if err := Ctrl.Create(context.Background(), name, description); err != nil {
		log.Fatalf("Error creating server: %v", err)
	}
	fmt.Printf("Server %q created. Installation runs in the background.\n", name)
}

func handleServerCommand(rawID string, action servers.Action) {
	requireLogin()

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		log.Fatalf("Invalid server id %q", rawID)
	}

	if err := Ctrl.Command(context.Background(), id, action); err != nil {
		if errors.Is(err, servers.ErrConfirmationDeclined) {
			fmt.Println("Aborted.")
			return
		}
		log.Fatalf("Error: %v", err)
	}

	switch action {
	case servers.ActionDelete:
		fmt.Println("Server deleted.")
	default:
		fmt.Printf("%s command sent.\n", action)
	}
}
