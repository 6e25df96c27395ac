package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string         `yaml:"log_level" envconfig:"LOG_LEVEL" default:"info"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	YtDlp    YtDlpConfig    `yaml:"ytdlp"`
	Threads  ThreadsConfig  `yaml:"threads"`
	Worker   WorkerConfig   `yaml:"worker"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Download DownloadConfig `yaml:"download"`
	History  HistoryConfig  `yaml:"history"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" envconfig:"SERVER_PORT" default:"3000"`
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"30m"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// StorageConfig holds filesystem storage configuration.
type StorageConfig struct {
	DownloadsPath   string        `yaml:"downloads_path" envconfig:"DOWNLOADS_PATH" default:"./downloads"`
	TempPath        string        `yaml:"temp_path" envconfig:"TEMP_PATH" default:"./temp"`
	FileMaxAge      time.Duration `yaml:"file_max_age" envconfig:"FILE_MAX_AGE" default:"1h"`
	TempFileTTL     time.Duration `yaml:"temp_file_ttl" envconfig:"TEMP_FILE_TTL" default:"1m"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" envconfig:"CLEANUP_INTERVAL" default:"10m"`
}

// YtDlpConfig holds yt-dlp invocation settings.
type YtDlpConfig struct {
	// Path is the yt-dlp binary. Empty means ./yt-dlp when present, else PATH.
	Path                string        `yaml:"path" envconfig:"YTDLP_PATH"`
	DefaultQuality      string        `yaml:"default_quality" envconfig:"YTDLP_DEFAULT_QUALITY" default:"720p"`
	UseAria2c           bool          `yaml:"use_aria2c" envconfig:"YTDLP_USE_ARIA2C" default:"true"`
	ConcurrentFragments int           `yaml:"concurrent_fragments" envconfig:"YTDLP_CONCURRENT_FRAGMENTS" default:"8"`
	Aria2cArgs          string        `yaml:"aria2c_args" envconfig:"YTDLP_ARIA2C_ARGS" default:"aria2c:-x 16 -s 16 -k 1M -j 16"`
	InfoTimeout         time.Duration `yaml:"info_timeout" envconfig:"YTDLP_INFO_TIMEOUT" default:"60s"`
}

// ThreadsConfig holds the Threads embed page and GraphQL client settings.
// The session token list goes stale over time and is expected to be updated
// through configuration.
type ThreadsConfig struct {
	APIEndpoint       string        `yaml:"api_url" envconfig:"THREADS_API_URL" default:"https://www.threads.net/api/graphql"`
	DocID             string        `yaml:"doc_id" envconfig:"THREADS_DOC_ID" default:"5587632691339264"`
	LSDTokens         []string      `yaml:"lsd_tokens" envconfig:"THREADS_LSD_TOKENS" default:"AdG81DnT7rk,AVqbxe3J_YA,AVp1gF_TM2Q"`
	AppID             string        `yaml:"app_id" envconfig:"THREADS_APP_ID" default:"238260118697367"`
	ASBDID            string        `yaml:"asbd_id" envconfig:"THREADS_ASBD_ID" default:"129477"`
	UserAgent         string        `yaml:"user_agent" envconfig:"THREADS_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	EmbedUserAgent    string        `yaml:"embed_user_agent" envconfig:"THREADS_EMBED_USER_AGENT" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Safari/605.1.15"`
	Timeout           time.Duration `yaml:"api_timeout" envconfig:"THREADS_API_TIMEOUT" default:"15s"`
	EmbedTimeout      time.Duration `yaml:"embed_timeout" envconfig:"THREADS_EMBED_TIMEOUT" default:"15s"`
	MaxRedirects      int           `yaml:"max_redirects" envconfig:"THREADS_MAX_REDIRECTS" default:"5"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"THREADS_REQUESTS_PER_SECOND" default:"2"`
	Burst             int           `yaml:"burst" envconfig:"THREADS_BURST" default:"3"`
	ResolveAttempts   int           `yaml:"resolve_attempts" envconfig:"THREADS_RESOLVE_ATTEMPTS" default:"3"`
	ResolveRetryDelay time.Duration `yaml:"resolve_retry_delay" envconfig:"THREADS_RESOLVE_RETRY_DELAY" default:"2s"`
}

// WorkerConfig holds worker pool configuration.
type WorkerConfig struct {
	Count        int           `yaml:"count" envconfig:"WORKER_COUNT" default:"2"`
	PollInterval time.Duration `yaml:"poll_interval" envconfig:"WORKER_POLL_INTERVAL" default:"500ms"`
}

// JobsConfig bounds the in-memory download job table.
type JobsConfig struct {
	MaxEntries int           `yaml:"max_entries" envconfig:"JOBS_MAX_ENTRIES" default:"500"`
	TTL        time.Duration `yaml:"ttl" envconfig:"JOBS_TTL" default:"1h"`
}

// DownloadConfig holds direct media download configuration.
type DownloadConfig struct {
	Timeout       time.Duration `yaml:"timeout" envconfig:"DOWNLOAD_TIMEOUT" default:"60s"`
	RetryDelay    time.Duration `yaml:"retry_delay" envconfig:"DOWNLOAD_RETRY_DELAY" default:"2s"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" envconfig:"DOWNLOAD_MAX_RETRY_DELAY" default:"30s"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"DOWNLOAD_READ_TIMEOUT" default:"60s"`
	UserAgent     string        `yaml:"user_agent" envconfig:"DOWNLOAD_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
}

// HistoryConfig holds the download history database settings.
type HistoryConfig struct {
	// DBPath is the SQLite file. Empty disables history.
	DBPath string `yaml:"db_path" envconfig:"HISTORY_DB_PATH" default:"./data/history.db"`
}

var validQualities = map[string]bool{
	"best": true, "1080p": true, "720p": true, "480p": true, "360p": true, "audio": true,
}

// Load builds the configuration from defaults and environment variables, then
// overlays the YAML file when one is given.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Defaults and environment
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Storage.DownloadsPath == "" {
		return fmt.Errorf("DOWNLOADS_PATH is required")
	}
	if c.Storage.TempPath == "" {
		return fmt.Errorf("TEMP_PATH is required")
	}
	if !validQualities[c.YtDlp.DefaultQuality] {
		return fmt.Errorf("YTDLP_DEFAULT_QUALITY %q is not a known quality", c.YtDlp.DefaultQuality)
	}
	if len(c.Threads.LSDTokens) == 0 {
		return fmt.Errorf("THREADS_LSD_TOKENS must list at least one token")
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	if c.Jobs.MaxEntries < 1 {
		return fmt.Errorf("JOBS_MAX_ENTRIES must be at least 1")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
