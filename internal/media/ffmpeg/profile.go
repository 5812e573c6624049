package ffmpeg

import (
	"fmt"
	"strconv"

	"lecturesync/internal/config"
)

// Profile is the canonical encoding shared by leader clips and re-encoded
// streams.
type Profile struct {
	Width        int
	Height       int
	FrameRate    int
	SampleRate   int
	Channels     int
	AudioBitrate string
	VideoCodec   string
	AudioCodec   string
}

// DefaultProfile returns 1280x720 at 25 fps with 44.1 kHz stereo AAC at
// 192k and H.264 video.
func DefaultProfile() Profile {
	return Profile{
		Width:        1280,
		Height:       720,
		FrameRate:    25,
		SampleRate:   44100,
		Channels:     2,
		AudioBitrate: "192k",
		VideoCodec:   "libx264",
		AudioCodec:   "aac",
	}
}

// ProfileFromConfig builds the profile described by the encoding section.
func ProfileFromConfig(enc config.Encoding) (Profile, error) {
	width, height, err := enc.Dimensions()
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Width:        width,
		Height:       height,
		FrameRate:    enc.FrameRate,
		SampleRate:   enc.AudioSampleRate,
		Channels:     enc.AudioChannels,
		AudioBitrate: enc.AudioBitrate,
		VideoCodec:   enc.VideoCodec,
		AudioCodec:   enc.AudioCodec,
	}, nil
}

// Size renders the lavfi "WxH" size.
func (p Profile) Size() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// VideoFilter renders the scale and frame rate filter chain.
func (p Profile) VideoFilter() string {
	return fmt.Sprintf("scale=%d:%d,fps=%d", p.Width, p.Height, p.FrameRate)
}

func (p Profile) audioFormatArgs() []string {
	return []string{"-ar", strconv.Itoa(p.SampleRate), "-ac", strconv.Itoa(p.Channels)}
}

func (p Profile) codecArgs() []string {
	return []string{"-c:v", p.VideoCodec, "-c:a", p.AudioCodec, "-b:a", p.AudioBitrate}
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 6, 64)
}
