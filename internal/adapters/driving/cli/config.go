package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application settings",
	Long: `View and change the settings stored in ~/.ilayer/config.toml.

Environment variables (and a .env file in the working directory) override
stored settings: CLIENT_URL, AA_TOKEN, ARGILLA_API_URL, ARGILLA_API_KEY.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key, for example:

  ilayer config set model.default_model luminous-extended-control
  ilayer config set storage.backend memory

Run 'ilayer config keys' to list all keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List all setting keys",
	RunE:  runConfigKeys,
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token [model|argilla]",
	Short: "Store an API token",
	Long:  `Prompts for the model API token or the Argilla API key without echoing it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetToken,
}

var tokenKeys = map[string]string{
	"model":   "model.token",
	"argilla": "argilla.api_key",
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configSetTokenCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Model]")
	cmd.Printf("  Base URL: %s\n", settings.Model.BaseURL)
	cmd.Printf("  Token: %s\n", maskSecret(settings.Model.Token))
	cmd.Printf("  Default model: %s\n", settings.Model.DefaultModel)
	cmd.Printf("  Max concurrency: %d\n", settings.Model.MaxConcurrency)
	if settings.Model.RequestsPerSecond > 0 {
		cmd.Printf("  Requests per second: %g\n", settings.Model.RequestsPerSecond)
	} else {
		cmd.Println("  Requests per second: unlimited")
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Model.IsConfigured()))
	cmd.Println()

	cmd.Println("[Argilla]")
	cmd.Printf("  URL: %s\n", settings.Argilla.URL)
	cmd.Printf("  API Key: %s\n", maskSecret(settings.Argilla.APIKey))
	cmd.Printf("  Workspace: %s\n", settings.Argilla.Workspace)
	cmd.Printf("  Total retries: %d\n", settings.Argilla.TotalRetries)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Argilla.IsConfigured()))
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend.Description())
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data directory: %s\n", settings.Storage.DataDir)
	}
	cmd.Println()

	cmd.Println("[Tracing]")
	if settings.Tracing.IsConfigured() {
		cmd.Printf("  OTLP endpoint: %s\n", settings.Tracing.OTLPEndpoint)
		cmd.Printf("  Service name: %s\n", settings.Tracing.ServiceName)
	} else {
		cmd.Println("  Export: disabled")
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if strings.HasSuffix(key, ".token") || strings.HasSuffix(key, ".api_key") {
		value = maskSecret(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runConfigSetToken(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, ok := tokenKeys[args[0]]
	if !ok {
		return fmt.Errorf("unknown token %q (expected model or argilla)", args[0])
	}

	cmd.Printf("Enter %s token: ", args[0])
	token := readSecret(cmd.InOrStdin())
	cmd.Println()
	if token == "" {
		return errors.New("no token entered")
	}

	if err := settingsService.Set(key, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	cmd.Printf("Stored %s (%s)\n", key, maskSecret(token))
	return nil
}

// readSecret reads a line without echo when in is a terminal.
func readSecret(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
