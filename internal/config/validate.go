package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSync() error {
	if math.IsNaN(c.Sync.ThresholdSeconds) || c.Sync.ThresholdSeconds <= 0 {
		return errors.New("sync.threshold_seconds must be positive")
	}
	if c.Sync.MinOutputBytes < 0 {
		return errors.New("sync.min_output_bytes must not be negative")
	}
	switch c.Sync.PassthroughSource {
	case PassthroughPresenter, PassthroughPresentation:
	default:
		return fmt.Errorf("sync.passthrough_source: unsupported value %q (use %q or %q)",
			c.Sync.PassthroughSource, PassthroughPresenter, PassthroughPresentation)
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if _, _, err := c.Encoding.Dimensions(); err != nil {
		return fmt.Errorf("encoding.%w", err)
	}
	return ensurePositiveMap(map[string]int{
		"encoding.frame_rate":        c.Encoding.FrameRate,
		"encoding.audio_sample_rate": c.Encoding.AudioSampleRate,
		"encoding.audio_channels":    c.Encoding.AudioChannels,
	})
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
