package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// tokenKey is masked on display and read without echo when omitted.
//
//nolint:gosec // G101: config key name, not a credential.
const tokenKey = "github.token"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.marketsync/config.toml.

The GitHub token may also be supplied in MARKETSYNC_GITHUB_TOKEN, which
takes precedence over the stored value.`,
	RunE: runConfigList,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one setting",
	Long: `Change one setting. Durations use Go syntax (e.g. 30m, 1h) and
github.repositories takes a comma separated list.

When the value of github.token is omitted it is read from standard input
without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	keys := settingsService.Keys()
	slices.Sort(keys)

	out := cmd.OutOrStdout()
	section := ""
	for _, key := range keys {
		prefix, _, _ := strings.Cut(key, ".")
		if prefix != section {
			if section != "" {
				cmd.Println()
			}
			section = prefix
			cmd.Println(render(out, titleStyle, "["+section+"]"))
		}
		cmd.Printf("  %s = %s\n", key, displayValue(key, values[key]))
	}

	if settings, err := settingsService.Get(); err == nil {
		if err := settings.Validate(); err != nil {
			cmd.Println()
			cmd.Println(render(out, warningStyle, fmt.Sprintf("Warning: %v", err)))
		}
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	if !slices.Contains(settingsService.Keys(), key) {
		return fmt.Errorf("unknown setting %q", key)
	}

	values, err := settingsService.Values()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(displayValue(key, values[key]))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case key == tokenKey:
		cmd.Print("GitHub token: ")
		value = readSecret(cmd.InOrStdin())
		cmd.Println()
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("Set %s = %s\n", key, displayValue(key, value))
	return nil
}

func displayValue(key, value string) string {
	if key == tokenKey {
		if value == "" {
			return "(not set)"
		}
		return maskToken(value)
	}
	if value == "" {
		return `""`
	}
	return value
}

// maskToken masks a token for display, showing only first and last 4 chars.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// readSecret reads a line without echo when r is a terminal.
func readSecret(r io.Reader) string {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	input, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimSpace(input)
}
