package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

// SynthesizeLeader writes a black clip of exactly duration seconds to output.
// Its soundtrack is the first duration seconds of reference's audio, so the
// pad carries room sound instead of silence. The intermediate audio file is
// written next to output and removed before returning, even on failure.
func (t *Transcoder) SynthesizeLeader(ctx context.Context, reference string, duration float64, output string) error {
	const stage, op = "fixing", "synthesize leader"
	if t == nil {
		return services.Wrap(services.ErrLeaderSynthesis, stage, op, "transcoder not initialized", nil)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return services.Wrap(services.ErrLeaderSynthesis, stage, op, fmt.Sprintf("invalid duration %v", duration), nil)
	}
	if strings.TrimSpace(reference) == "" || strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrLeaderSynthesis, stage, op, "reference and output paths are required", nil)
	}

	audioPath := leaderAudioPath(output)
	defer func() {
		if err := os.Remove(audioPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(logging.WithContext(ctx, t.logger), "failed to remove leader audio", "leader_audio_cleanup_failed",
				logging.String("path", audioPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stale intermediate left in run directory"),
			)
		}
	}()

	seconds := formatSeconds(duration)
	if err := t.invoke(ctx, t.leaderAudioArgs(reference, seconds, audioPath)); err != nil {
		return services.Wrap(services.ErrLeaderSynthesis, stage, "extract leader audio", reference, err)
	}
	if err := t.invoke(ctx, t.leaderVideoArgs(audioPath, seconds, output)); err != nil {
		return services.Wrap(services.ErrLeaderSynthesis, stage, "render leader video", output, err)
	}

	logging.WithContext(ctx, t.logger).Info("leader clip synthesized",
		logging.String(logging.FieldEventType, "leader_synthesized"),
		logging.String("reference", reference),
		logging.Float64("duration_seconds", duration),
		logging.String("output", output),
	)
	return nil
}

func (t *Transcoder) leaderAudioArgs(reference, seconds, audioPath string) []string {
	args := []string{"-i", reference, "-t", seconds, "-vn"}
	args = append(args, t.profile.audioFormatArgs()...)
	args = append(args, "-b:a", t.profile.AudioBitrate, "-c:a", t.profile.AudioCodec, audioPath)
	return args
}

func (t *Transcoder) leaderVideoArgs(audioPath, seconds, output string) []string {
	args := []string{
		"-f", "lavfi", "-i", fmt.Sprintf("color=black:s=%s:d=%s", t.profile.Size(), seconds),
		"-i", audioPath,
		"-vf", t.profile.VideoFilter(),
	}
	args = append(args, t.profile.audioFormatArgs()...)
	args = append(args, t.profile.codecArgs()...)
	args = append(args, "-shortest", output)
	return args
}

func leaderAudioPath(output string) string {
	base := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
	return filepath.Join(filepath.Dir(output), base+".audio.aac")
}
