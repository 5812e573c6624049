package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"lecturesync/internal/logging"
)

// Runner executes an ffmpeg invocation and returns a non-nil error when the
// process exits non-zero.
type Runner func(ctx context.Context, binary string, args ...string) error

// Transcoder runs ffmpeg with a fixed encoding profile.
type Transcoder struct {
	binary  string
	profile Profile
	run     Runner
	logger  *slog.Logger
}

// NewTranscoder constructs a transcoder; an empty binary resolves "ffmpeg"
// from PATH.
func NewTranscoder(binary string, profile Profile, logger *slog.Logger) *Transcoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{
		binary:  binary,
		profile: profile,
		run:     defaultRunner,
		logger:  logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// WithRunner allows injecting a custom runner for tests.
func (t *Transcoder) WithRunner(r Runner) *Transcoder {
	if t != nil && r != nil {
		t.run = r
	}
	return t
}

// Profile returns the encoding profile the transcoder applies.
func (t *Transcoder) Profile() Profile {
	return t.profile
}

func (t *Transcoder) invoke(ctx context.Context, args []string) error {
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	logging.WithContext(ctx, t.logger).Debug("executing ffmpeg",
		logging.String("command", t.binary+" "+strings.Join(full, " ")),
	)
	return t.run(ctx, t.binary, full...)
}

func defaultRunner(ctx context.Context, binary string, args ...string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
