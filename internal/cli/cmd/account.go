package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"panelctl/pkg/sdk"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show account details",
	Run: func(cmd *cobra.Command, args []string) {
		handleAccountShow()
	},
}

var (
	updateUsername string
	updateEmail    string
	updatePassword bool
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update profile fields",
	Run: func(cmd *cobra.Command, args []string) {
		handleAccountUpdate()
	},
}

func init() {
	accountUpdateCmd.Flags().StringVar(&updateUsername, "username", "", "New username")
	accountUpdateCmd.Flags().StringVar(&updateEmail, "email", "", "New email address")
	accountUpdateCmd.Flags().BoolVar(&updatePassword, "password", false, "Prompt for a new password")

	accountCmd.AddCommand(accountUpdateCmd)
	RootCmd.AddCommand(accountCmd)
}

func handleAccountShow() {
	requireLogin()

	fmt.Println("\n--- ACCOUNT ---")
	for _, line := range accountLines(Session.State().User) {
		fmt.Println(line)
	}
}

func accountLines(user *sdk.User) []string {
	lines := []string{
		fmt.Sprintf("ID:       %d", user.ID),
		fmt.Sprintf("Username: %s", user.Username),
		fmt.Sprintf("Email:    %s", user.Email),
		fmt.Sprintf("Active:   %t", user.IsActive),
		fmt.Sprintf("Admin:    %t", user.IsAdmin),
	}
	if !user.CreatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Created:  %s", user.CreatedAt.Format("2006-01-02 15:04")))
	}
	return lines
}

func handleAccountUpdate() {
	requireLogin()

	req := sdk.UpdateProfileRequest{
		Username: updateUsername,
		Email:    updateEmail,
	}
	if updatePassword {
		password, err := promptPassword("New password")
		if err != nil {
			log.Fatalf("Error reading password: %v", err)
		}
		confirmPassword, err := promptPassword("Confirm new password")
		if err != nil {
			log.Fatalf("Error reading password: %v", err)
		}
		if password != confirmPassword {
			log.Fatal("Passwords do not match")
		}
		if len(password) < 6 {
			log.Fatal("Password must be at least 6 characters long")
		}
		req.Password = password
	}
	if req.Username == "" && req.Email == "" && req.Password == "" {
		log.Fatal("Nothing to update. Pass --username, --email, or --password.")
	}

	res := Session.UpdateProfile(context.Background(), req)
	if !res.OK {
		log.Fatal(res.Message)
	}
	fmt.Println("Profile updated.")
}
