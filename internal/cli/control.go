package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/shelepuginivan/veil/dbusapi"
)

// withClient connects to the session bus and calls fn with a client of the
// running daemon.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *dbusapi.Client) error) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), dbusapi.DefaultTimeout)
	defer cancel()

	return fn(ctx, dbusapi.NewClient(conn))
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Toggle the visibility of hidden items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *dbusapi.Client) error {
				shown, err := client.Toggle(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), visibilityString(shown))
				return nil
			})
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show every item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *dbusapi.Client) error {
				return client.SetVisibility(ctx, true)
			})
		},
	}
}

func newHideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide",
		Short: "Hide the items that are not kept visible",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *dbusapi.Client) error {
				return client.SetVisibility(ctx, false)
			})
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print whether items are shown or hidden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *dbusapi.Client) error {
				shown, err := client.Visibility(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), visibilityString(shown))
				return nil
			})
		},
	}
}

func newItemsCmd() *cobra.Command {
	var visibleOnly bool

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the items of the status area",
		Long:  "List the entries of the status area with their rendered state, or with --visible the names kept visible while hidden.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *dbusapi.Client) error {
				if visibleOnly {
					names, err := client.VisibleItems(ctx)
					if err != nil {
						return err
					}

					for _, name := range names {
						fmt.Fprintln(cmd.OutOrStdout(), name)
					}

					return nil
				}

				items, err := client.Items(ctx)
				if err != nil {
					return err
				}

				writeItems(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&visibleOnly, "visible", false, "List the names kept visible instead")
	return cmd
}

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Forget kept-visible names that match no current item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd, func(ctx context.Context, client *dbusapi.Client) error {
				changed, err := client.CleanOrphanedItems(ctx)
				if err != nil {
					return err
				}

				if changed {
					fmt.Fprintln(cmd.OutOrStdout(), "orphaned entries removed")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to remove")
				}

				return nil
			})
		},
	}
}

func newAllowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allow <name>",
		Short: "Toggle whether an item stays visible while hidden",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client *dbusapi.Client) error {
				visible, err := client.ToggleVisibleItem(ctx, args[0])
				if err != nil {
					return err
				}

				if visible {
					fmt.Fprintf(cmd.OutOrStdout(), "%s stays visible\n", args[0])
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is hidden with the rest\n", args[0])
				}

				return nil
			})
		},
	}
}

func visibilityString(shown bool) string {
	if shown {
		return "shown"
	}

	return "hidden"
}

func writeItems(w io.Writer, items []dbusapi.ItemState) {
	width := len("NAME")
	for _, item := range items {
		width = max(width, len(item.Name))
	}

	fmt.Fprintf(w, "%-*s  %-7s  %s\n", width, "NAME", "VISIBLE", "OPACITY")
	for _, item := range items {
		fmt.Fprintf(w, "%-*s  %-7t  %d\n", width, item.Name, item.Visible, item.Opacity)
	}
}
