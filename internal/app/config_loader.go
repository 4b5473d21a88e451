package app

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/vidstream-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	// Set up viper
	v := viper.New()
	v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.vidstream")
		v.AddConfigPath("/etc/vidstream")
	}

	// Read environment variables
	v.SetEnvPrefix("VIDSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Provider.BaseURL == "" {
		return fmt.Errorf("provider base URL not configured")
	}

	if config.Provider.MetadataTimeout <= 0 {
		return fmt.Errorf("metadata timeout must be positive")
	}

	if config.Download.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be at least 1 byte")
	}

	if config.Download.SuccessRemovalDelay < 0 || config.Download.ErrorRemovalDelay < 0 {
		return fmt.Errorf("removal delays cannot be negative")
	}

	if config.Events.BufferSize < 1 {
		return fmt.Errorf("event buffer size must be at least 1")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}
