package syncfix_test

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"lecturesync/internal/media/ffmpeg"
	"lecturesync/internal/media/ffprobe"
	"lecturesync/internal/syncfix"
)

// Set LECTURESYNC_INTEGRATION=1 to run against the real ffmpeg and ffprobe.
func requireMediaTools(t *testing.T) {
	t.Helper()
	if os.Getenv("LECTURESYNC_INTEGRATION") == "" {
		t.Skip("skipping integration test - set LECTURESYNC_INTEGRATION=1 to enable")
	}
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
}

func makeRecording(t *testing.T, path string, seconds int) {
	t.Helper()
	src := func(kind string) string {
		return kind + ":duration=" + strconv.Itoa(seconds)
	}
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", src("testsrc=size=640x360:rate=30"),
		"-f", "lavfi", "-i", src("sine=frequency=330"),
		"-c:v", "libx264", "-c:a", "aac", "-shortest", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("generate %s: %v: %s", path, err, out)
	}
}

func TestFixIsDeterministicIntegration(t *testing.T) {
	requireMediaTools(t)
	dir := t.TempDir()
	presenter := filepath.Join(dir, "presenter.mp4")
	presentation := filepath.Join(dir, "presentation.mp4")
	makeRecording(t, presenter, 8)
	makeRecording(t, presentation, 10)

	prober := ffprobe.NewProber("ffprobe", nil)
	pipeline := syncfix.NewPipeline(prober, ffmpeg.NewTranscoder("ffmpeg", ffmpeg.DefaultProfile(), nil),
		syncfix.Options{WorkDir: filepath.Join(dir, "work"), MinOutputBytes: 10000}, nil)
	ctx := context.Background()

	var durations []float64
	for _, name := range []string{"first.mp4", "second.mp4"} {
		output := filepath.Join(dir, name)
		res, err := pipeline.Run(ctx, syncfix.Request{
			Mode:         syncfix.ModeEvaluateAndFix,
			Presenter:    presenter,
			Presentation: presentation,
			Output:       output,
		})
		if err != nil {
			t.Fatalf("run %s: %v", name, err)
		}
		if res.Decision.Defective != syncfix.RolePresenter {
			t.Fatalf("defective = %q, want presenter", res.Decision.Defective)
		}
		got, err := prober.ContainerDuration(ctx, output)
		if err != nil {
			t.Fatalf("probe %s: %v", name, err)
		}
		if math.Abs(got-10) > 0.15 {
			t.Fatalf("%s duration = %.3f, want about 10", name, got)
		}
		durations = append(durations, got)
	}
	if math.Abs(durations[0]-durations[1]) > 0.05 {
		t.Fatalf("outputs differ: %.3f vs %.3f", durations[0], durations[1])
	}
}
