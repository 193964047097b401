package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/lexica-cli/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the AI API key",
	Long: `Store, check and remove the Anthropic API key used for AI enrichment and
article discovery.

The key is kept in secrets.toml in the configuration directory, readable only
by you. The ANTHROPIC_API_KEY environment variable is used when no key is
stored.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set [api-key]",
	Short: "Store the API key",
	Long: `Stores the API key. When no key is given on the command line it is read
from the terminal without echo, or from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthSet,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE:  runAuthClear,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an API key is available",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authValidateCmd = &cobra.Command{
	Use:   "validate [api-key]",
	Short: "Check an API key with a minimal request",
	Long: `Sends a tiny request to check that the key is accepted. Without an
argument the stored key is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthValidate,
}

var authSkipValidation bool

// readSecret reads a key from the user. Tests replace it.
var readSecret = readPassword

func init() {
	authSetCmd.Flags().BoolVar(&authSkipValidation, "no-validate", false, "store the key without checking it")
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authClearCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authValidateCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	if credentialService == nil {
		return errors.New("credential service not configured")
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		cmd.Print("Anthropic API key: ")
		key = readSecret()
		cmd.Println()
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("no API key entered")
	}

	if !authSkipValidation {
		cmd.Println("Validating key...")
		if err := credentialService.ValidateAPIKey(cmd.Context(), key); err != nil {
			return fmt.Errorf("key rejected: %w", err)
		}
	}

	if err := credentialService.SetAPIKey(key); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}
	cmd.Printf("API key saved (%s).\n", maskAPIKey(key))
	return nil
}

func runAuthClear(cmd *cobra.Command, _ []string) error {
	if credentialService == nil {
		return errors.New("credential service not configured")
	}

	if err := credentialService.ClearAPIKey(); err != nil {
		if errors.Is(err, domain.ErrReadOnly) {
			return errors.New("the key comes from ANTHROPIC_API_KEY; unset the variable to remove it")
		}
		return fmt.Errorf("failed to clear key: %w", err)
	}
	cmd.Println("API key removed.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if credentialService == nil {
		return errors.New("credential service not configured")
	}

	ok, err := credentialService.HasAPIKey()
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	if ok {
		cmd.Println("API key: configured")
	} else {
		cmd.Println("API key: not set")
		cmd.Println("Run 'lexica auth set' or export ANTHROPIC_API_KEY to enable AI features.")
	}
	return nil
}

func runAuthValidate(cmd *cobra.Command, args []string) error {
	if credentialService == nil {
		return errors.New("credential service not configured")
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	}
	if err := credentialService.ValidateAPIKey(cmd.Context(), key); err != nil {
		switch {
		case errors.Is(err, domain.ErrNoCredential):
			return errors.New("no API key configured")
		case errors.Is(err, domain.ErrInvalidCredential):
			return errors.New("API key is invalid")
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	cmd.Println("API key is valid.")
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
