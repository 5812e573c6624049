package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"lecturesync/internal/config"
	"lecturesync/internal/deps"
	"lecturesync/internal/history"
	"lecturesync/internal/logging"
	"lecturesync/internal/media/ffmpeg"
	"lecturesync/internal/media/ffprobe"
	"lecturesync/internal/preflight"
	"lecturesync/internal/services"
	"lecturesync/internal/syncfix"
)

func newFixCommand(ctx *commandContext) *cobra.Command {
	var statusFile string

	cmd := &cobra.Command{
		Use:   "fix <presenter> <presentation> <output>",
		Short: "Detect desync and write a corrected presentation video",
		Long: "Probe both recordings, and when their audio durations differ by the\n" +
			"configured threshold or more, pad the shorter one with a synthetic leader\n" +
			"and write the corrected file to <output>. In-sync inputs are copied through.",
		Args: requirePaths("presenter", "presentation", "output"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, ctx, syncfix.Request{
				Mode:         syncfix.ModeEvaluateAndFix,
				Presenter:    args[0],
				Presentation: args[1],
				Output:       args[2],
				StatusPath:   strings.TrimSpace(statusFile),
			}, args)
		},
	}
	cmd.Flags().StringVar(&statusFile, "status-file", "", "Also write the sync status record to this path")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <presenter> <presentation> <properties-out>",
		Short: "Evaluate sync and write the status record without fixing",
		Args:  requirePaths("presenter", "presentation", "properties-out"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, ctx, syncfix.Request{
				Mode:         syncfix.ModeEvaluateOnly,
				Presenter:    args[0],
				Presentation: args[1],
				Output:       args[2],
			}, args)
		},
	}
}

// requirePaths rejects invocations with fewer positional paths than names.
// Extra trailing arguments are ignored.
func requirePaths(names ...string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) >= len(names) {
			for i, name := range names {
				if strings.TrimSpace(args[i]) == "" {
					return services.Wrap(services.ErrUsage, "", "parse arguments", fmt.Sprintf("%s path is empty", name), nil)
				}
			}
			return nil
		}
		usage := fmt.Sprintf("expected %d paths (%s), got %d; usage: %s", len(names), strings.Join(names, ", "), len(args), cmd.UseLine())
		return services.Wrap(services.ErrUsage, "", "parse arguments", usage, nil)
	}
}

func runSync(cmd *cobra.Command, ctx *commandContext, req syncfix.Request, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	if failed := preflight.Failures(preflight.RunAll(cfg)); len(failed) > 0 {
		return services.Wrap(services.ErrConfiguration, "", "preflight", describeFailures(failed), nil)
	}
	if result := preflight.CheckOutputLocation("Output", req.Output); !result.Passed {
		return services.Wrap(services.ErrUsage, "", "check output", result.Detail, nil)
	}

	prober := ffprobe.NewProber(deps.FFprobeFor(cfg.FFmpegBinary(), cfg.FFprobeBinary()), logger)
	var transcoder syncfix.Transcoder
	if req.Mode == syncfix.ModeEvaluateAndFix {
		profile, err := ffmpeg.ProfileFromConfig(cfg.Encoding)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "", "encoding profile", "", err)
		}
		transcoder = ffmpeg.NewTranscoder(cfg.FFmpegBinary(), profile, logger)
	}

	pipeline := syncfix.NewPipeline(prober, transcoder, syncfix.OptionsFromConfig(cfg), logger)
	res, runErr := pipeline.Run(cmd.Context(), req)

	journal := append([]string{cmd.Name()}, args...)
	recordHistory(cmd.Context(), cfg, logger, history.FromResult(res, runErr, journal))

	if runErr != nil {
		return runErr
	}
	out := cmd.OutOrStdout()
	for _, line := range renderRunSummary(res, shouldColorize(out)) {
		fmt.Fprintln(out, line)
	}
	return nil
}

// recordHistory journals a finished run. Journal failures are logged and
// never change the command outcome.
func recordHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger, run history.Run) {
	if cfg == nil || !cfg.History.Enabled {
		return
	}
	ctx = context.WithoutCancel(ctx)
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.String("path", cfg.History.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not journaled"),
		)
		return
	}
	defer store.Close()
	if _, err := store.Record(ctx, run); err != nil {
		logging.WarnWithContext(logger, "failed to journal run", "history_record_failed",
			logging.String(logging.FieldRunID, run.RunID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is not journaled"),
		)
	}
}

func describeFailures(results []preflight.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return strings.Join(parts, "; ")
}
