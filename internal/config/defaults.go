package config

const (
	defaultConfigPath        = "~/.config/lecturesync/config.toml"
	defaultWorkDir           = "~/.cache/lecturesync/work"
	defaultLogDir            = "~/.local/share/lecturesync/logs"
	defaultHistoryPath       = "~/.local/share/lecturesync/history.db"
	defaultFFmpeg            = "ffmpeg"
	defaultFFprobe           = "ffprobe"
	defaultThresholdSeconds  = 0.1
	defaultMinOutputBytes    = 10000
	defaultPassthroughSource = PassthroughPresenter
	defaultResolution        = "1280x720"
	defaultFrameRate         = 25
	defaultAudioSampleRate   = 44100
	defaultAudioChannels     = 2
	defaultAudioBitrate      = "192k"
	defaultVideoCodec        = "libx264"
	defaultAudioCodec        = "aac"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Passthrough sources accepted by sync.passthrough_source.
const (
	PassthroughPresenter    = "presenter"
	PassthroughPresentation = "presentation"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Sync: Sync{
			ThresholdSeconds:  defaultThresholdSeconds,
			MinOutputBytes:    defaultMinOutputBytes,
			PassthroughSource: defaultPassthroughSource,
		},
		Encoding: Encoding{
			Resolution:      defaultResolution,
			FrameRate:       defaultFrameRate,
			AudioSampleRate: defaultAudioSampleRate,
			AudioChannels:   defaultAudioChannels,
			AudioBitrate:    defaultAudioBitrate,
			VideoCodec:      defaultVideoCodec,
			AudioCodec:      defaultAudioCodec,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
