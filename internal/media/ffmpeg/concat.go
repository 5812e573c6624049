package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

// Concat joins first then second into output with the concat demuxer in
// stream-copy mode. The manifest is written next to first and removed before
// returning, even on failure. Both clips must share one encoding profile.
func (t *Transcoder) Concat(ctx context.Context, first, second, output string) error {
	const stage, op = "fixing", "concat"
	if t == nil {
		return services.Wrap(services.ErrConcatenation, stage, op, "transcoder not initialized", nil)
	}
	if strings.TrimSpace(first) == "" || strings.TrimSpace(second) == "" || strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrConcatenation, stage, op, "clip and output paths are required", nil)
	}

	manifest, err := writeManifest(filepath.Dir(first), first, second)
	if err != nil {
		return services.Wrap(services.ErrConcatenation, stage, "write manifest", "", err)
	}
	defer func() {
		if err := os.Remove(manifest); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(logging.WithContext(ctx, t.logger), "failed to remove concat manifest", "concat_manifest_cleanup_failed",
				logging.String("path", manifest),
				logging.Error(err),
			)
		}
	}()

	args := []string{"-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy", output}
	if err := t.invoke(ctx, args); err != nil {
		return services.Wrap(services.ErrConcatenation, stage, op, output, err)
	}
	logging.WithContext(ctx, t.logger).Info("clips concatenated",
		logging.String(logging.FieldEventType, "clips_concatenated"),
		logging.String("first", first),
		logging.String("second", second),
		logging.String("output", output),
	)
	return nil
}

func writeManifest(dir string, clips ...string) (string, error) {
	var b strings.Builder
	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", clip, err)
		}
		b.WriteString("file ")
		b.WriteString(quoteManifestPath(abs))
		b.WriteByte('\n')
	}

	file, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", err
	}
	if _, err := file.WriteString(b.String()); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

// quoteManifestPath single-quotes a path for the concat demuxer; embedded
// quotes close the string, emit an escaped quote, and reopen it.
func quoteManifestPath(path string) string {
	return "'" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}
