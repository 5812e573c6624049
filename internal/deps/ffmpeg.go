package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultFFprobe = "ffprobe"

// FFprobeFor picks the ffprobe binary paired with ffmpegCommand.
//
// An explicitly configured ffprobe wins. Otherwise an ffprobe sitting next to
// the resolved ffmpeg is preferred over the one on PATH, so a static ffmpeg
// build unpacked outside PATH probes with its own ffprobe.
func FFprobeFor(ffmpegCommand, ffprobeCommand string) string {
	configured := strings.TrimSpace(ffprobeCommand)
	if configured != "" && configured != defaultFFprobe {
		return configured
	}
	ffmpegBinary := strings.TrimSpace(ffmpegCommand)
	if ffmpegBinary != "" {
		if resolved, err := exec.LookPath(ffmpegBinary); err == nil {
			candidate := siblingBinary(resolved, defaultFFprobe)
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate
			}
		}
	}
	return defaultFFprobe
}

func siblingBinary(path, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(path), name)
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
