package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"lecturesync/internal/logging"
	"lecturesync/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   Number `json:"duration"`
	BitRate    string `json:"bit_rate"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   Number `json:"duration"`
	Size       Number `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Number holds a numeric ffprobe field. ffprobe quotes these ("120.000000")
// but bare JSON numbers are accepted too; validation happens at parse time.
type Number string

// UnmarshalJSON accepts a JSON string, a bare number, or null.
func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*n = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*n = Number(value)
	default:
		var value json.Number
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*n = Number(value)
	}
	return nil
}

// Runner executes ffprobe and returns its standard output.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Prober wraps the ffprobe binary.
type Prober struct {
	binary string
	run    Runner
	logger *slog.Logger
}

// NewProber constructs a prober for the given binary; an empty binary resolves
// "ffprobe" from PATH.
func NewProber(binary string, logger *slog.Logger) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{
		binary: binary,
		run:    defaultRunner,
		logger: logging.NewComponentLogger(logger, "ffprobe"),
	}
}

// WithRunner allows injecting a custom runner for tests.
func (p *Prober) WithRunner(r Runner) *Prober {
	if p != nil && r != nil {
		p.run = r
	}
	return p
}

// AudioDuration returns the duration in seconds of the first audio stream.
func (p *Prober) AudioDuration(ctx context.Context, path string) (float64, error) {
	const op = "audio duration"
	result, err := p.query(ctx, op, path, "-select_streams", "a:0", "-show_entries", "stream=duration")
	if err != nil {
		return 0, err
	}
	if len(result.Streams) == 0 {
		return 0, services.Wrap(services.ErrProbe, "probe", op, path, errors.New("no audio stream reported"))
	}
	seconds, err := parseDuration(string(result.Streams[0].Duration))
	if err != nil {
		return 0, services.Wrap(services.ErrProbe, "probe", op, path, err)
	}
	return seconds, nil
}

// ContainerDuration returns the container-level duration in seconds.
func (p *Prober) ContainerDuration(ctx context.Context, path string) (float64, error) {
	const op = "container duration"
	result, err := p.query(ctx, op, path, "-show_entries", "format=duration")
	if err != nil {
		return 0, err
	}
	seconds, err := parseDuration(string(result.Format.Duration))
	if err != nil {
		return 0, services.Wrap(services.ErrProbe, "probe", op, path, err)
	}
	return seconds, nil
}

// Inspect executes ffprobe against the provided path and decodes the full
// stream and format listing.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	return p.query(ctx, "inspect", path, "-show_format", "-show_streams")
}

func (p *Prober) query(ctx context.Context, op, path string, selection ...string) (Result, error) {
	if p == nil {
		return Result{}, services.Wrap(services.ErrProbe, "probe", op, "prober not initialized", nil)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Wrap(services.ErrProbe, "probe", op, "empty path", nil)
	}

	args := make([]string, 0, len(selection)+6)
	args = append(args, "-v", "error")
	args = append(args, selection...)
	args = append(args, "-of", "json", "--", path)

	output, err := p.run(ctx, p.binary, args...)
	p.logger.Debug("ffprobe output",
		logging.String("path", path),
		logging.String("operation", op),
		logging.String("stdout", strings.TrimSpace(string(output))),
	)
	if err != nil {
		return Result{}, services.Wrap(services.ErrProbe, "probe", op, path, err)
	}
	if len(bytes.TrimSpace(output)) == 0 {
		return Result{}, services.Wrap(services.ErrProbe, "probe", op, path, errors.New("empty ffprobe output"))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, services.Wrap(services.ErrProbe, "probe", op, path, fmt.Errorf("ffprobe parse: %w", err))
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

func defaultRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// parseDuration accepts ffprobe's decimal seconds string. "N/A", empty,
// non-numeric, negative, and non-finite values are rejected.
func parseDuration(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, errors.New("duration missing")
	}
	seconds, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("duration %q is not numeric", cleaned)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, fmt.Errorf("duration %q is out of range", cleaned)
	}
	return seconds, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) countStreams(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	seconds, err := parseDuration(string(r.Format.Duration))
	if err != nil {
		return 0
	}
	return seconds
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size, err := strconv.ParseFloat(strings.TrimSpace(string(r.Format.Size)), 64)
	if err != nil || math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}
