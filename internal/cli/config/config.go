package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config stores CLI configuration.
type Config struct {
	Server      string `json:"server"`                // API server address
	AccessToken string `json:"access_token"`          // JWT access token
	Username    string `json:"username"`              // Current logged-in username
	UserID      string `json:"user_id"`               // Current logged-in user ID
	WorkflowID  string `json:"workflow_id,omitempty"` // Default workflow for chat
	SessionID   string `json:"session_id,omitempty"`  // Last chat session
}

// GetConfigPath returns the configuration file path (~/.pilotctl/config.json).
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".pilotctl", "config.json"), nil
}

// Load loads configuration from file.
func Load() (*Config, error) {
	configFile, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return &Config{
			Server: "http://localhost:8080",
		}, nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Server == "" {
		cfg.Server = "http://localhost:8080"
	}

	return &cfg, nil
}

// Save saves configuration to file.
func (c *Config) Save() error {
	configFile, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Token inside, so user read/write only.
	if err := os.WriteFile(configFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsAuthenticated checks if user is logged in.
func (c *Config) IsAuthenticated() bool {
	return c.AccessToken != ""
}
