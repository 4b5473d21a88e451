package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Download DownloadConfig `mapstructure:"download"`
	Events   EventsConfig   `mapstructure:"events"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// WriteTimeout bounds a whole download response, so it is generous.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
}

// ProviderConfig contains extraction-provider configuration
type ProviderConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// DownloadConfig contains streaming and session-lifecycle configuration
type DownloadConfig struct {
	ChunkSize           int           `mapstructure:"chunk_size"`
	SuccessRemovalDelay time.Duration `mapstructure:"success_removal_delay"`
	ErrorRemovalDelay   time.Duration `mapstructure:"error_removal_delay"`
}

// EventsConfig contains subscriber-channel configuration
type EventsConfig struct {
	BufferSize   int           `mapstructure:"buffer_size"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			WriteTimeout: 10 * time.Minute,
			ReadTimeout:  30 * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL:         "http://localhost:9090",
			MetadataTimeout: 30 * time.Second,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Download: DownloadConfig{
			ChunkSize:           64 * 1024,
			SuccessRemovalDelay: 5 * time.Second,
			ErrorRemovalDelay:   10 * time.Second,
		},
		Events: EventsConfig{
			BufferSize:   64,
			PingInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
