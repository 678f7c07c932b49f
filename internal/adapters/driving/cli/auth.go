package cli

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/updatesync/internal/core/domain"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access key pair for the update bucket",
	Long: `Store an access key pair in the credentials file.

A running 'updatesync watch' picks up the new credentials immediately and
uploads any updates that were saved while signed out.

The user id names the area written by this client when the write area
contains $USER_ID$.

Examples:
  updatesync login                                   # Prompts for keys
  updatesync login --access-key-id AKIA... --user-id alice`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access key pair",
	Long: `Remove the stored access key pair.

Updates made while signed out are kept locally and uploaded after the next
login.`,
	RunE: runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored credentials",
	RunE:  runWhoami,
}

// Flags for login.
var (
	loginAccessKeyID     string
	loginSecretAccessKey string
	loginSessionToken    string
	loginUserID          string
)

func init() {
	loginCmd.Flags().StringVar(
		&loginAccessKeyID, "access-key-id", "", "Access key id (prompted when omitted)")
	loginCmd.Flags().StringVar(
		&loginSecretAccessKey, "secret-access-key", "", "Secret access key (prompted when omitted)")
	loginCmd.Flags().StringVar(
		&loginSessionToken, "session-token", "", "Session token for temporary credentials")
	loginCmd.Flags().StringVar(
		&loginUserID, "user-id", "", "User id for per-user areas")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if credentialsService == nil {
		return errors.New("credentials service not configured")
	}
	warnIfAWSChain(cmd)

	reader := bufio.NewReader(cmd.InOrStdin())
	creds := domain.Credentials{
		AccessKeyID:     loginAccessKeyID,
		SecretAccessKey: loginSecretAccessKey,
		SessionToken:    loginSessionToken,
		UserID:          loginUserID,
	}

	if creds.AccessKeyID == "" {
		cmd.Print("Access key id: ")
		creds.AccessKeyID = readLine(reader)
	}
	if creds.SecretAccessKey == "" {
		cmd.Print("Secret access key: ")
		creds.SecretAccessKey = readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
	}
	if creds.UserID == "" {
		cmd.Print("User id (optional): ")
		creds.UserID = readLine(reader)
	}

	if err := credentialsService.SignIn(cmd.Context(), creds); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if creds.UserID != "" {
		cmd.Printf("Signed in as %s.\n", creds.UserID)
	} else {
		cmd.Println("Signed in.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if credentialsService == nil {
		return errors.New("credentials service not configured")
	}

	if err := credentialsService.SignOut(cmd.Context()); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	cmd.Println("Signed out. Local changes will be kept until the next login.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	if credentialsService == nil {
		return errors.New("credentials service not configured")
	}
	warnIfAWSChain(cmd)

	creds, err := credentialsService.Current(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if creds == nil || !creds.HasKeys() {
		cmd.Println("Not signed in.")
		return nil
	}

	cmd.Printf("User: %s\n", orNotSet(creds.UserID))
	cmd.Printf("Access key: %s\n", maskKey(creds.AccessKeyID))
	if creds.SessionToken != "" {
		cmd.Println("Session token: set")
	}
	return nil
}

// warnIfAWSChain notes that stored keys are ignored under the AWS chain.
func warnIfAWSChain(cmd *cobra.Command) {
	if settingsService == nil {
		return
	}
	settings, err := settingsService.Get()
	if err != nil || settings.CredentialsSource != domain.CredentialsFromAWS {
		return
	}
	cmd.Println("Note: credentials.source is 'aws'; the stored key pair is not used.")
}
