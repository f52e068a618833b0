package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	"github.com/aretw0/inkwell"
	"github.com/aretw0/inkwell/pkg/adapters/host"
	devsource "github.com/aretw0/inkwell/pkg/adapters/lifecycle"
	"github.com/aretw0/inkwell/pkg/core"
	"github.com/aretw0/inkwell/pkg/power"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the device until it goes to sleep",
	Long: `Boot the device and run its lifecycle on the terminal.

Every input line is a key press and a paragraph of the open document.
A line containing only "p" is the power button; SIGUSR1 presses it too.
Commands: :open <path>, :save, :home, :time HH:MM, :cpu <MHz>, :defer true|false.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		display := host.NewDisplay(os.Stdout, profile.Display.CellWidth)
		keyboard := host.NewKeyboard(0)

		var ed *editor
		registry := power.Registry{
			core.ModeHome: func(ctx context.Context, s core.SessionState) error {
				display.DrawStatus("Home")
				return nil
			},
			core.ModeTextEditor: func(ctx context.Context, s core.SessionState) error {
				if s.EditingPath == "" {
					return nil
				}
				return ed.open(ctx, s.EditingPath)
			},
		}

		opts := []inkwell.Option{
			inkwell.WithDisplay(display),
			inkwell.WithKeyboard(keyboard),
			inkwell.WithPowerOptions(power.WithRegistry(registry)),
		}
		if profile.Battery.Enabled {
			battery := host.NewBattery(profile.Battery.Raw, profile.Battery.Status)
			opts = append(opts, inkwell.WithBattery(battery, battery))
		}

		rt, err := openRuntime(opts...)
		if err != nil {
			fatal("Failed to start device", err)
		}
		defer rt.Close()
		ed = newEditor(rt, os.Stdout)

		sess, err := rt.Manager.Boot(ctx)
		if err != nil {
			slog.Warn("booted with defaults", "error", err)
		}
		cfg, _, _ := core.LoadState(ctx, rt.Store)
		if cfg.VerboseLogging && !verbose {
			logLevel.Set(slog.LevelDebug)
		}
		slog.Info("device running", "root", rt.Root, "mode", sess.Mode, "boot_id", rt.Manager.BootID())

		if profile.Watch != "" {
			if _, err := rt.Watch(ctx, profile.Watch); err != nil {
				slog.Warn("index watcher disabled", "error", err)
			}
		}

		notices := devsource.NewSource(rt.Manager.Notifications(), core.EventStateChange, core.EventBattery)
		if err := notices.Start(ctx); err != nil {
			fatal("Failed to start notifications", err)
		}
		lifecycle.Go(ctx, func(ctx context.Context) error {
			for ev := range notices.Events() {
				slog.Info("device event", "event", ev.String())
			}
			return nil
		})

		usr1 := make(chan os.Signal, 1)
		signal.Notify(usr1, syscall.SIGUSR1)
		defer signal.Stop(usr1)
		lifecycle.Go(ctx, func(ctx context.Context) error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-usr1:
					rt.Manager.PowerButton()
				}
			}
		})

		lifecycle.Go(ctx, func(ctx context.Context) error {
			return keyboard.Feed(ctx, os.Stdin, rt.Manager)
		})
		lifecycle.Go(ctx, func(ctx context.Context) error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case line := <-keyboard.Lines():
					if err := ed.handle(ctx, line); err != nil {
						fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					}
				}
			}
		})

		w := power.NewWorker(rt.Manager)
		if err := w.Start(ctx); err != nil {
			fatal("Failed to start power manager", err)
		}

		select {
		case <-w.Asleep():
			fmt.Println("Device is asleep.")
		case <-ctx.Done():
			if err := w.Stop(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("power manager stopped with error", "error", err)
			}
			fmt.Println("Interrupted.")
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
