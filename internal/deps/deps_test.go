package deps

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"lecturesync/internal/config"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	writeStub(t, present)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement to resolve to %s, got %#v", present, results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("expected only the required missing binary, got %#v", missing)
	}
}

func TestMediaRequirementsUseConfiguredBinaries(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.FFmpeg = "/opt/ffmpeg/bin/ffmpeg-7"
	cfg.Tools.FFprobe = "/opt/ffmpeg/bin/ffprobe-7"

	reqs := MediaRequirements(&cfg)
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != cfg.Tools.FFmpeg || reqs[1].Command != cfg.Tools.FFprobe {
		t.Fatalf("unexpected commands %q / %q", reqs[0].Command, reqs[1].Command)
	}
}

func TestFFprobeForPrefersSibling(t *testing.T) {
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	ffprobePath := filepath.Join(tmp, executableName("ffprobe"))
	writeStub(t, ffmpegPath)
	writeStub(t, ffprobePath)

	if got := FFprobeFor(ffmpegPath, "ffprobe"); got != ffprobePath {
		t.Fatalf("FFprobeFor = %q, want sibling %q", got, ffprobePath)
	}
	if got := FFprobeFor(ffmpegPath, ""); got != ffprobePath {
		t.Fatalf("FFprobeFor with empty config = %q, want sibling %q", got, ffprobePath)
	}
}

func TestFFprobeForExplicitConfigWins(t *testing.T) {
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	writeStub(t, ffmpegPath)
	writeStub(t, filepath.Join(tmp, executableName("ffprobe")))

	if got := FFprobeFor(ffmpegPath, "/usr/local/bin/ffprobe"); got != "/usr/local/bin/ffprobe" {
		t.Fatalf("FFprobeFor = %q, want configured path", got)
	}
}

func TestFFprobeForFallsBackToPath(t *testing.T) {
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	writeStub(t, ffmpegPath)

	if got := FFprobeFor(ffmpegPath, "ffprobe"); got != "ffprobe" {
		t.Fatalf("FFprobeFor = %q, want PATH lookup name", got)
	}

	t.Setenv("PATH", "")
	if got := FFprobeFor("ffmpeg", ""); got != "ffprobe" {
		t.Fatalf("FFprobeFor without ffmpeg = %q, want PATH lookup name", got)
	}
}

func TestFFprobeForIgnoresNonExecutableSibling(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, "ffmpeg")
	writeStub(t, ffmpegPath)
	if err := os.WriteFile(filepath.Join(tmp, "ffprobe"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := FFprobeFor(ffmpegPath, ""); got != "ffprobe" {
		t.Fatalf("FFprobeFor = %q, want PATH lookup name", got)
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
