package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lecturesync/internal/deps"
	"lecturesync/internal/media/ffprobe"
	"lecturesync/internal/services"
)

type probeReport struct {
	File             string  `json:"file"`
	AudioSeconds     float64 `json:"audio_seconds"`
	ContainerSeconds float64 `json:"container_seconds"`
	VideoStreams     int     `json:"video_streams"`
	AudioStreams     int     `json:"audio_streams"`
	SizeBytes        int64   `json:"size_bytes"`
	Error            string  `json:"error,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <file>...",
		Short: "Report audio and container durations for media files",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return services.Wrap(services.ErrUsage, "", "parse arguments", "at least one file is required", nil)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			prober := ffprobe.NewProber(deps.FFprobeFor(cfg.FFmpegBinary(), cfg.FFprobeBinary()), logger)

			reports := make([]probeReport, 0, len(args))
			var errs []error
			for _, path := range args {
				report := probeReport{File: path}
				audio, err := prober.AudioDuration(cmd.Context(), path)
				if err == nil {
					var info ffprobe.Result
					info, err = prober.Inspect(cmd.Context(), path)
					report.AudioSeconds = audio
					report.ContainerSeconds = info.DurationSeconds()
					report.VideoStreams = info.VideoStreamCount()
					report.AudioStreams = info.AudioStreamCount()
					report.SizeBytes = info.SizeBytes()
				}
				if err != nil {
					report.Error = err.Error()
					errs = append(errs, err)
				}
				reports = append(reports, report)
			}

			if asJSON {
				if err := writeJSON(cmd, reports); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), renderProbeTable(reports))
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func renderProbeTable(reports []probeReport) string {
	headers := []string{"File", "Audio (s)", "Container (s)", "Video", "Audio", "Size", "Error"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		if r.Error != "" {
			rows = append(rows, []string{r.File, "-", "-", "-", "-", "-", r.Error})
			continue
		}
		rows = append(rows, []string{
			r.File,
			strconv.FormatFloat(r.AudioSeconds, 'f', 3, 64),
			strconv.FormatFloat(r.ContainerSeconds, 'f', 3, 64),
			strconv.Itoa(r.VideoStreams),
			strconv.Itoa(r.AudioStreams),
			strconv.FormatInt(r.SizeBytes, 10),
			"",
		})
	}
	return renderTable(headers, rows, aligns)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
