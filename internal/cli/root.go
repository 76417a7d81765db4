// Package cli provides the command-line interface for veil.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shelepuginivan/veil/internal/logging"
)

const (
	appName      = "veil"
	settingsName = "settings.toml"
)

// options are shared by every command.
type options struct {
	configPath string
	log        zerolog.Logger
}

// NewRootCmd creates the root command for veil
func NewRootCmd(version string) *cobra.Command {
	opts := &options{log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Hide status area items behind a toggle",
		Long:          "veil hosts the status notifier items of the session and hides every item not kept visible behind a single toggle.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			opts.log = logging.NewFromEnv()

			if opts.configPath != "" {
				return nil
			}

			path, err := DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("failed to determine settings path: %w", err)
			}

			opts.configPath = path
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Settings file (default $XDG_CONFIG_HOME/veil/settings.toml)")

	rootCmd.AddCommand(newDaemonCmd(opts))
	rootCmd.AddCommand(newToggleCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newHideCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newItemsCmd())
	rootCmd.AddCommand(newPruneCmd())
	rootCmd.AddCommand(newAllowCmd())
	rootCmd.AddCommand(newPrefsCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/veil/settings.toml, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultConfigPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		configHome = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configHome, appName, settingsName), nil
}
