package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shelepuginivan/veil"
	"github.com/shelepuginivan/veil/dbusapi"
	"github.com/shelepuginivan/veil/internal/logging"
	"github.com/shelepuginivan/veil/mainloop"
	"github.com/shelepuginivan/veil/settings"
	"github.com/shelepuginivan/veil/tray"
)

// Names of the fixed entries of the status area.
const (
	IndicatorName = "veil"
	AnchorName    = "system-menu"
)

func newDaemonCmd(opts *options) *cobra.Command {
	var withWatcher bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the status area and the control API",
		Long:  "Host the status notifier items of the session, hide the ones not kept visible and export the control API on the session bus.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := opts.log

			// The logging-level setting decides unless the environment
			// pins a level.
			if os.Getenv(logging.EnvLevel) == "" {
				log = log.Level(zerolog.TraceLevel)
			}

			d := &daemon{
				configPath:  opts.configPath,
				withWatcher: withWatcher,
				log:         log,
			}

			return d.run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&withWatcher, "watcher", false, "Also provide org.kde.StatusNotifierWatcher")
	return cmd
}

type daemon struct {
	configPath  string
	withWatcher bool
	log         zerolog.Logger
}

// run blocks until ctx is cancelled or SIGINT/SIGTERM is received.
func (d *daemon) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := mainloop.New()

	store, err := settings.OpenFile(d.configPath, settings.FileOptions{
		Post:   d.post(loop),
		Logger: d.log,
	})
	if err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	defer store.Close()

	if err := store.Watch(); err != nil {
		d.log.Warn().Err(err).Msg("external edits of the settings file will be ignored")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("daemon: failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	// The loop outlives ctx so that teardown can still run on it.
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	defer stopLoop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := loop.Run(loopCtx); !errors.Is(err, context.Canceled) {
			return fmt.Errorf("main loop: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		defer stopLoop()
		return d.serve(gctx, loop, store, conn)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	d.log.Info().Msg("daemon stopped")
	return nil
}

func (d *daemon) serve(ctx context.Context, loop *mainloop.Loop, store settings.Store, conn *dbus.Conn) error {
	if d.withWatcher {
		watcher := tray.NewWatcher(conn, d.log)
		if err := watcher.Listen(); err != nil {
			return fmt.Errorf("daemon: %w", err)
		}
		defer watcher.Close()
	}

	area := tray.NewArea(loop)
	indicator := tray.NewIndicator(IndicatorName)
	anchor := &tray.Content{Name: AnchorName, Type: "SystemMenu"}

	var (
		ctrl    *veil.Controller
		ctrlErr error
	)

	if err := loop.Call(ctx, func() {
		area.Add(area.NewSlot(indicator))
		area.Add(area.NewSlot(anchor))

		ctrl, ctrlErr = veil.NewController(veil.Options{
			Container: area,
			Store:     store,
			Clock:     loop,
			Post:      d.post(loop),
			Indicator: indicator,
			Anchor:    anchor,
			Logger:    d.log,
		})
	}); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}

	if ctrlErr != nil {
		return fmt.Errorf("daemon: %w", ctrlErr)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), dbusapi.DefaultTimeout)
		defer cancel()

		if err := loop.Call(ctx, ctrl.Close); err != nil {
			d.log.Warn().Err(err).Msg("failed to restore the status area")
		}
	}()

	host := tray.NewHost(conn, os.Getpid(), d.log)
	tray.NewBridge(area, d.post(loop), d.log).Attach(host)

	if err := host.Listen(); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	defer host.Close()

	server := dbusapi.NewServer(conn, loop, ctrl, func() []dbusapi.ItemState {
		return itemStates(area.Snapshot())
	}, d.log)

	if err := server.Listen(ctx); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	defer server.Close()

	d.log.Info().Str("settings", d.configPath).Bool("watcher", d.withWatcher).Msg("daemon started")

	<-ctx.Done()
	d.log.Info().Msg("shutting down")

	return ctx.Err()
}

func (d *daemon) post(loop *mainloop.Loop) func(func()) {
	return func(fn func()) {
		if !loop.Post(fn) {
			d.log.Debug().Msg("main loop stopped, task dropped")
		}
	}
}

func itemStates(slots []tray.SlotState) []dbusapi.ItemState {
	states := make([]dbusapi.ItemState, 0, len(slots))
	for _, slot := range slots {
		states = append(states, dbusapi.ItemState{
			Name:    slot.Name,
			Visible: slot.Visible,
			Opacity: slot.Opacity,
			X:       slot.X,
		})
	}

	return states
}
