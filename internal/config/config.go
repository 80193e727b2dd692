package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Database   DatabaseConfig   `mapstructure:"database"`
	AI         AIConfig         `mapstructure:"ai"`
	Automation AutomationConfig `mapstructure:"automation"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Mode               string        `mapstructure:"mode"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	MaxRequestBodySize int           `mapstructure:"max_request_body_size"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	AddSource bool   `mapstructure:"add_source"`
}

// JWTConfig configures token signing.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AIProviderConfig configures one AI provider.
type AIProviderConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
}

// AIConfig configures the AI gateway.
type AIConfig struct {
	DefaultProvider string                      `mapstructure:"default_provider"`
	Timeout         time.Duration               `mapstructure:"timeout"`
	Providers       map[string]AIProviderConfig `mapstructure:"providers"`
}

// AutomationConfig configures the n8n gateway.
type AutomationConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads the configuration file with PILOT_-prefixed env overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server mode: %s, must be 'debug' or 'release'", c.Server.Mode)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("jwt.secret must be at least 32 characters")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.AI.DefaultProvider == "" {
		c.AI.DefaultProvider = "openai"
	}
	if _, ok := c.AI.Providers[c.AI.DefaultProvider]; !ok {
		return fmt.Errorf("ai.providers is missing the default provider %q", c.AI.DefaultProvider)
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 60 * time.Second
	}

	if c.Automation.Timeout <= 0 {
		c.Automation.Timeout = 30 * time.Second
	}

	return nil
}

// GetServerAddr returns the host:port listen address.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetReadTimeout returns the server read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return c.Server.ReadTimeout
}

// GetWriteTimeout returns the server write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return c.Server.WriteTimeout
}
