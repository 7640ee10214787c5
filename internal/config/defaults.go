package config

// Defaults applied before a config file is decoded.
const (
	defaultRecognizerModel    = "fun-asr-realtime"
	defaultRecognizerEndpoint = "wss://dashscope.aliyuncs.com/api-ws/v1/inference"
	defaultSampleRate         = 16000
	defaultLiveBaseURL        = "https://api.live.bilibili.com"
	defaultPollInterval       = 60
	defaultReconnectBackoff   = 5
	defaultResyncThreshold    = 60
	defaultResyncInterval     = 300
)

// Default returns the repository default configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: "~/livescribe/transcripts",
			LogDir:    "~/.local/share/livescribe/logs",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
		Recognizer: Recognizer{
			Model:      defaultRecognizerModel,
			Endpoint:   defaultRecognizerEndpoint,
			SampleRate: defaultSampleRate,
		},
		Capture: Capture{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
		},
		Live: Live{
			BaseURL:        defaultLiveBaseURL,
			RequestTimeout: 15,
		},
		Session: Session{
			ReconnectBackoffSeconds: defaultReconnectBackoff,
			ResyncThresholdSeconds:  defaultResyncThreshold,
			ResyncIntervalSeconds:   defaultResyncInterval,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
		},
	}
}
