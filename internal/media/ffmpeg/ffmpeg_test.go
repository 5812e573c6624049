package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"lecturesync/internal/config"
	"lecturesync/internal/services"
)

type recordedCall struct {
	binary string
	args   []string
}

type recorder struct {
	calls  []recordedCall
	onCall func(idx int, args []string) error
}

func (r *recorder) run(_ context.Context, binary string, args ...string) error {
	r.calls = append(r.calls, recordedCall{binary: binary, args: append([]string(nil), args...)})
	if r.onCall != nil {
		return r.onCall(len(r.calls)-1, args)
	}
	return nil
}

func lastArg(args []string) string {
	return args[len(args)-1]
}

func TestSynthesizeLeaderArgs(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "leader.mp4")
	rec := &recorder{}
	tc := NewTranscoder("", DefaultProfile(), nil).WithRunner(rec.run)

	if err := tc.SynthesizeLeader(context.Background(), "/in/presentation.mp4", 2, output); err != nil {
		t.Fatalf("SynthesizeLeader returned error: %v", err)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected 2 ffmpeg calls, got %d", len(rec.calls))
	}
	audioPath := filepath.Join(dir, "leader.audio.aac")
	prefix := []string{"-y", "-hide_banner", "-loglevel", "error"}

	wantAudio := append(append([]string(nil), prefix...),
		"-i", "/in/presentation.mp4", "-t", "2.000000", "-vn",
		"-ar", "44100", "-ac", "2", "-b:a", "192k", "-c:a", "aac", audioPath)
	if diff := cmp.Diff(wantAudio, rec.calls[0].args); diff != "" {
		t.Fatalf("audio extraction args mismatch (-want +got):\n%s", diff)
	}

	wantVideo := append(append([]string(nil), prefix...),
		"-f", "lavfi", "-i", "color=black:s=1280x720:d=2.000000",
		"-i", audioPath,
		"-vf", "scale=1280:720,fps=25",
		"-ar", "44100", "-ac", "2",
		"-c:v", "libx264", "-c:a", "aac", "-b:a", "192k",
		"-shortest", output)
	if diff := cmp.Diff(wantVideo, rec.calls[1].args); diff != "" {
		t.Fatalf("leader render args mismatch (-want +got):\n%s", diff)
	}
	if rec.calls[0].binary != "ffmpeg" {
		t.Fatalf("expected default binary, got %q", rec.calls[0].binary)
	}
}

func TestSynthesizeLeaderRemovesAudioOnFailure(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "leader.mp4")
	cause := errors.New("exit status 1")
	rec := &recorder{onCall: func(idx int, args []string) error {
		if idx == 0 {
			return os.WriteFile(lastArg(args), []byte("aac"), 0o644)
		}
		return cause
	}}
	tc := NewTranscoder("ffmpeg", DefaultProfile(), nil).WithRunner(rec.run)

	err := tc.SynthesizeLeader(context.Background(), "ref.mp4", 1.5, output)
	if !errors.Is(err, services.ErrLeaderSynthesis) || !errors.Is(err, cause) {
		t.Fatalf("expected leader synthesis error wrapping cause, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "leader.audio.aac")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected intermediate audio to be removed, stat err = %v", statErr)
	}
}

func TestSynthesizeLeaderRemovesAudioOnSuccess(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "leader.mp4")
	rec := &recorder{onCall: func(_ int, args []string) error {
		return os.WriteFile(lastArg(args), []byte("media"), 0o644)
	}}
	tc := NewTranscoder("ffmpeg", DefaultProfile(), nil).WithRunner(rec.run)

	if err := tc.SynthesizeLeader(context.Background(), "ref.mp4", 0.5, output); err != nil {
		t.Fatalf("SynthesizeLeader returned error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "leader.mp4" {
		t.Fatalf("expected only leader.mp4 to remain, got %v", entries)
	}
}

func TestSynthesizeLeaderRejectsInvalidDuration(t *testing.T) {
	rec := &recorder{}
	tc := NewTranscoder("", DefaultProfile(), nil).WithRunner(rec.run)
	for _, d := range []float64{0, -1} {
		if err := tc.SynthesizeLeader(context.Background(), "ref.mp4", d, "out.mp4"); !errors.Is(err, services.ErrLeaderSynthesis) {
			t.Fatalf("duration %v: expected ErrLeaderSynthesis, got %v", d, err)
		}
	}
	if len(rec.calls) != 0 {
		t.Fatalf("expected no ffmpeg calls, got %d", len(rec.calls))
	}
}

func TestNormalizeArgsAndFailure(t *testing.T) {
	rec := &recorder{}
	profile := DefaultProfile()
	profile.Width, profile.Height, profile.FrameRate = 1920, 1080, 30
	tc := NewTranscoder("/usr/bin/ffmpeg", profile, nil).WithRunner(rec.run)

	if err := tc.Normalize(context.Background(), "short.mp4", "normalized.mp4"); err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	want := []string{"-y", "-hide_banner", "-loglevel", "error",
		"-i", "short.mp4", "-vf", "scale=1920:1080,fps=30",
		"-ar", "44100", "-ac", "2",
		"-c:v", "libx264", "-c:a", "aac", "-b:a", "192k",
		"normalized.mp4"}
	if diff := cmp.Diff(want, rec.calls[0].args); diff != "" {
		t.Fatalf("normalize args mismatch (-want +got):\n%s", diff)
	}

	failing := NewTranscoder("", DefaultProfile(), nil).WithRunner(func(context.Context, string, ...string) error {
		return errors.New("unsupported codec")
	})
	if err := failing.Normalize(context.Background(), "in.mp4", "out.mp4"); !errors.Is(err, services.ErrNormalization) {
		t.Fatalf("expected ErrNormalization, got %v", err)
	}
}

func TestConcatWritesOrderedManifestAndRemovesIt(t *testing.T) {
	dir := t.TempDir()
	leader := filepath.Join(dir, "leader.mp4")
	normalized := filepath.Join(dir, "it's normalized.mp4")
	var manifestPath, manifest string
	rec := &recorder{onCall: func(_ int, args []string) error {
		for i, arg := range args {
			if arg == "-i" {
				manifestPath = args[i+1]
			}
		}
		data, err := os.ReadFile(manifestPath)
		manifest = string(data)
		return err
	}}
	tc := NewTranscoder("", DefaultProfile(), nil).WithRunner(rec.run)

	if err := tc.Concat(context.Background(), leader, normalized, "/out/fixed.mp4"); err != nil {
		t.Fatalf("Concat returned error: %v", err)
	}
	wantManifest := "file '" + leader + "'\nfile '" + strings.ReplaceAll(normalized, "'", `'\''`) + "'\n"
	if manifest != wantManifest {
		t.Fatalf("unexpected manifest:\n%s\nwant:\n%s", manifest, wantManifest)
	}
	if filepath.Dir(manifestPath) != dir {
		t.Fatalf("expected manifest in run dir, got %q", manifestPath)
	}
	want := []string{"-y", "-hide_banner", "-loglevel", "error", "-f", "concat", "-safe", "0", "-i", manifestPath, "-c", "copy", "/out/fixed.mp4"}
	if diff := cmp.Diff(want, rec.calls[0].args); diff != "" {
		t.Fatalf("concat args mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(manifestPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected manifest to be removed, stat err = %v", err)
	}
}

func TestConcatRemovesManifestOnFailure(t *testing.T) {
	dir := t.TempDir()
	tc := NewTranscoder("", DefaultProfile(), nil).WithRunner(func(context.Context, string, ...string) error {
		return errors.New("non-monotonic dts")
	})

	err := tc.Concat(context.Background(), filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4"), filepath.Join(dir, "out.mp4"))
	if !errors.Is(err, services.ErrConcatenation) {
		t.Fatalf("expected ErrConcatenation, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected manifest cleanup, found %v", entries)
	}
}

func TestProfileFromConfig(t *testing.T) {
	enc := config.Default().Encoding
	profile, err := ProfileFromConfig(enc)
	if err != nil {
		t.Fatalf("ProfileFromConfig returned error: %v", err)
	}
	if diff := cmp.Diff(DefaultProfile(), profile); diff != "" {
		t.Fatalf("default encoding should match default profile (-want +got):\n%s", diff)
	}

	enc.Resolution = "1281x720"
	if _, err := ProfileFromConfig(enc); err == nil {
		t.Fatal("expected odd resolution to be rejected")
	}
}
