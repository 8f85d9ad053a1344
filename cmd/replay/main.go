// Command replay runs recorded sensor traces through the navigation state
// machine. "run" replays a trace offline against a route manifest and prints
// every event; two runs of the same trace print identical output. "publish"
// pushes a trace to a live session through NATS at the recorded pace.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/stepwise/internal/adapters/nats"
	"github.com/samirrijal/stepwise/internal/adapters/routefile"
	"github.com/samirrijal/stepwise/internal/core/navigation"
	"github.com/samirrijal/stepwise/internal/pkg/logging"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "replay",
		Short:         "Replay recorded sensor traces through navigation sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, "text", "")
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(runCmd(), publishCmd())
	return cmd
}

func runCmd() *cobra.Command {
	var (
		tuning   = navigation.DefaultTuning()
		mode     string
		asJSON   bool
		showNoop bool
	)

	cmd := &cobra.Command{
		Use:   "run <manifest.yaml> <trace.jsonl>",
		Short: "Replay a trace offline and print the events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := navigation.ParseAlertMode(mode)
			if err != nil {
				return err
			}
			tuning.GeofenceMode = m

			route, err := routefile.NewLoader(nil).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			trace, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer trace.Close()

			sum, err := replay(route, tuning, trace, cmd.OutOrStdout(), options{JSON: asJSON, ShowSilent: showNoop})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d samples, %d events, reached %d/%d waypoints, complete=%v\n",
				sum.Samples, sum.Events, sum.Progress.CurrentIndex, len(route.Waypoints), sum.Progress.Complete)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&tuning.AdvanceThreshold, "advance-threshold", tuning.AdvanceThreshold, "Meters within which a waypoint counts as reached")
	f.Float64Var(&tuning.AlignmentThreshold, "alignment-threshold", tuning.AlignmentThreshold, "Degrees of heading error still counted as aligned")
	f.Float64Var(&tuning.StepLength, "step-length", tuning.StepLength, "Meters per step")
	f.Float64Var(&tuning.PaceScale, "pace-scale", tuning.PaceScale, "Multiplier applied to step estimates")
	f.IntVar(&tuning.SmoothingWindow, "smoothing-window", tuning.SmoothingWindow, "Headings averaged for alignment")
	f.StringVar(&mode, "geofence-mode", string(navigation.AlertEdge), "Geofence alerts: edge or level")
	f.BoolVar(&asJSON, "json", false, "Print events as JSON lines")
	f.BoolVar(&showNoop, "all", false, "Also print samples that produced no event")
	return cmd
}

func publishCmd() *cobra.Command {
	var (
		natsURL string
		speed   float64
	)

	cmd := &cobra.Command{
		Use:   "publish <session-id> <trace.jsonl>",
		Short: "Push a trace to a live session over NATS",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if speed <= 0 {
				return fmt.Errorf("speed must be positive, got %v", speed)
			}

			trace, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer trace.Close()

			samples, err := readTrace(trace)
			if err != nil {
				return err
			}

			pub, err := natsadapter.NewPublisher(natsURL)
			if err != nil {
				return err
			}
			defer pub.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			n, err := publish(ctx, pub, args[0], samples, speed, time.Sleep)
			fmt.Fprintf(cmd.ErrOrStderr(), "published %d/%d samples to %s\n", n, len(samples), natsadapter.SampleSubject(args[0]))
			return err
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats", "nats://localhost:4222", "NATS server URL")
	cmd.Flags().Float64Var(&speed, "speed", 1, "Playback speed relative to the recorded timestamps")
	return cmd
}
