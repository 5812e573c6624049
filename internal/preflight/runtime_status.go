package preflight

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

const versionTimeout = 5 * time.Second

// ToolVersion returns the first line of "<binary> -version", or "" when the
// binary cannot be executed. ffmpeg and ffprobe both print
// "<name> version <x> Copyright ..." on that line.
func ToolVersion(ctx context.Context, binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return ""
	}
	runCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(runCtx, binary, "-version").Output() //nolint:gosec
	if err != nil {
		return ""
	}
	return parseVersionLine(out)
}

func parseVersionLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if !scanner.Scan() {
		return ""
	}
	line := strings.TrimSpace(scanner.Text())
	if idx := strings.Index(line, " Copyright"); idx > 0 {
		line = line[:idx]
	}
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[1] == "version" {
		return fields[2]
	}
	return line
}
