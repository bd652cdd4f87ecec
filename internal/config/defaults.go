package config

const (
	defaultDownloadDir    = "~/.local/share/creatorsync/downloads"
	defaultFetchBinary    = "yt-dlp"
	defaultFFmpegBinary   = "ffmpeg"
	defaultBaseURL        = "https://www.patreon.com/c"
	defaultReferer        = "https://www.patreon.com/"
	defaultMaxDownloads   = 100
	defaultInterJobDelay  = 10
	defaultPollIntervalMS = 100
	defaultProbeTimeout   = 60
	defaultDaysBack       = 30
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadDir: defaultDownloadDir,
		},
		Fetch: Fetch{
			Binary:         defaultFetchBinary,
			FFmpegBinary:   defaultFFmpegBinary,
			BaseURL:        defaultBaseURL,
			Referer:        defaultReferer,
			MaxDownloads:   defaultMaxDownloads,
			InterJobDelay:  defaultInterJobDelay,
			PollIntervalMS: defaultPollIntervalMS,
			ProbeTimeout:   defaultProbeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
