package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"godio/host/monitor"
	"godio/host/serial"
)

var (
	monitorOpts = struct {
		port     string
		baud     int
		duration time.Duration
	}{}

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Print diagnostics sent by the firmware",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := serial.DefaultConfig(monitorOpts.port)
			cfg.Baud = monitorOpts.baud
			port, err := serial.Open(cfg)
			if err != nil {
				return err
			}
			port.Flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if monitorOpts.duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, monitorOpts.duration)
				defer cancel()
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Monitoring %s at %d baud\n", cfg.Device, cfg.Baud)
			mon := monitor.New(port)
			mon.RetryEOF = true
			return runMonitor(ctx, mon, cmd.OutOrStdout())
		},
	}
)

func init() {
	monitorCmd.Flags().StringVarP(&monitorOpts.port, "port", "p", "/dev/ttyACM0", "serial device")
	monitorCmd.Flags().IntVarP(&monitorOpts.baud, "baud", "b", serial.DefaultBaud, "baud rate")
	monitorCmd.Flags().DurationVar(&monitorOpts.duration, "for", 0, "stop after this long (0 runs until interrupted)")
}

func runMonitor(ctx context.Context, mon *monitor.Monitor, w io.Writer) error {
	mon.Start(ctx)
	for ev := range mon.Events() {
		fmt.Fprintf(w, "%s [%02x] %-8s %s\n", ev.Time.Format("15:04:05.000"), ev.Sequence, ev.Kind, ev)
	}
	err := mon.Wait()
	printStats(w, mon.Stats())
	return err
}

func printStats(w io.Writer, stats monitor.Stats) {
	kinds := maps.Keys(stats.Events)
	slices.Sort(kinds)
	fmt.Fprintln(w, "--- summary ---")
	for _, k := range kinds {
		fmt.Fprintf(w, "%-8s %d\n", k, stats.Events[k])
	}
	fmt.Fprintf(w, "lost %d, errors %d, dropped %d, invalid %d\n",
		stats.Lost, stats.Errors, stats.Dropped, stats.Invalid)
}
