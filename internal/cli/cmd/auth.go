package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"panelctl/internal/session"
)

var loginUsername string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the panel",
	Run: func(cmd *cobra.Command, args []string) {
		handleLogin(loginUsername)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Run: func(cmd *cobra.Command, args []string) {
		handleRegister()
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and clear stored credentials",
	Run: func(cmd *cobra.Command, args []string) {
		Session.Logout(context.Background())
		fmt.Println("Logged out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	Run: func(cmd *cobra.Command, args []string) {
		handleWhoami()
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "Username (prompted when omitted)")
	RootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

func handleLogin(username string) {
	var err error
	if username == "" {
		username, err = promptLine("Username")
		if err != nil {
			log.Fatalf("Error reading username: %v", err)
		}
	}
	password, err := promptPassword("Password")
	if err != nil {
		log.Fatalf("Error reading password: %v", err)
	}

	res := Session.Login(context.Background(), username, password)
	if !res.OK {
		log.Fatal(res.Message)
	}

	st := Session.State()
	fmt.Printf("Logged in as %s\n", st.User.Username)
}

func handleRegister() {
	username, err := promptLine("Username")
	if err != nil {
		log.Fatalf("Error reading username: %v", err)
	}
	email, err := promptLine("Email")
	if err != nil {
		log.Fatalf("Error reading email: %v", err)
	}
	password, err := promptPassword("Password")
	if err != nil {
		log.Fatalf("Error reading password: %v", err)
	}
	confirmPassword, err := promptPassword("Confirm password")
	if err != nil {
		log.Fatalf("Error reading password: %v", err)
	}

	res := Session.Register(context.Background(), session.RegisterFields{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirmPassword,
	})
	if !res.OK {
		log.Fatal(res.Message)
	}

	fmt.Println("Account created! Run `panelctl login` to sign in.")
}

func handleWhoami() {
	requireLogin()

	user := Session.State().User
	fmt.Printf("Username: %s\n", user.Username)
	fmt.Printf("Email:    %s\n", user.Email)
	if user.IsAdmin {
		fmt.Println("Role:     admin")
	}
}
