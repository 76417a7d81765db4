package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shelepuginivan/veil/internal/prefs"
	"github.com/shelepuginivan/veil/settings"
)

func newPrefsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prefs",
		Short: "Choose the items that stay visible while hidden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The page owns the terminal, so nothing is logged while it runs.
			store, err := settings.OpenFile(opts.configPath, settings.FileOptions{Logger: zerolog.Nop()})
			if err != nil {
				return fmt.Errorf("failed to open settings: %w", err)
			}
			defer store.Close()

			if err := store.Watch(); err != nil {
				opts.log.Warn().Err(err).Msg("changes made by the daemon will not be shown")
			}

			p := tea.NewProgram(
				prefs.New(store, zerolog.Nop()),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)

			disconnect := prefs.Watch(store, p)
			defer disconnect()

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("preferences: %w", err)
			}

			return nil
		},
	}
}
