package ffmpeg

import (
	"context"
	"strings"

	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

// Normalize re-encodes input to the transcoder profile so it can be joined
// with a leader clip by stream copy.
func (t *Transcoder) Normalize(ctx context.Context, input, output string) error {
	const stage, op = "fixing", "normalize"
	if t == nil {
		return services.Wrap(services.ErrNormalization, stage, op, "transcoder not initialized", nil)
	}
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrNormalization, stage, op, "input and output paths are required", nil)
	}
	if err := t.invoke(ctx, t.normalizeArgs(input, output)); err != nil {
		return services.Wrap(services.ErrNormalization, stage, op, input, err)
	}
	logging.WithContext(ctx, t.logger).Info("stream re-encoded",
		logging.String(logging.FieldEventType, "stream_normalized"),
		logging.String("input", input),
		logging.String("output", output),
	)
	return nil
}

func (t *Transcoder) normalizeArgs(input, output string) []string {
	args := []string{"-i", input, "-vf", t.profile.VideoFilter()}
	args = append(args, t.profile.audioFormatArgs()...)
	args = append(args, t.profile.codecArgs()...)
	return append(args, output)
}
