package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Assembler AssemblerConfig `mapstructure:"assembler"`
	History   HistoryConfig   `mapstructure:"history"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile string `mapstructure:"log_file"`
	Persist bool   `mapstructure:"persist"`
	Level   string `mapstructure:"level"`
}

// AssemblerConfig holds stream assembly configuration
type AssemblerConfig struct {
	ShowThinking bool `mapstructure:"show_thinking"`
	Strict       bool `mapstructure:"strict"`
	MaxMessages  int  `mapstructure:"max_messages"`
}

// HistoryConfig holds conversation history handoff configuration
type HistoryConfig struct {
	Directory string `mapstructure:"directory"`
	Persist   bool   `mapstructure:"persist"`
}

// Global config instance
var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			xdgConfigHome = filepath.Join(home, ".config")
		}

		viper.AddConfigPath("./.agui") // Check project directory first
		viper.AddConfigPath(filepath.Join(xdgConfigHome, "agui"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix("AGUI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Missing config file is fine; defaults and env cover everything.
	// An explicitly requested file that fails to parse is not.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	// Logging defaults
	viper.SetDefault("logging.log_file", "./.agui/system.log")
	viper.SetDefault("logging.persist", false)
	viper.SetDefault("logging.level", "info")

	// Assembler defaults
	viper.SetDefault("assembler.show_thinking", true)
	viper.SetDefault("assembler.strict", false)
	viper.SetDefault("assembler.max_messages", 0) // 0 = unbounded

	// History defaults
	viper.SetDefault("history.directory", "./.agui/history")
	viper.SetDefault("history.persist", false)
}

// BuildSettingsPath resolves a filename relative to the settings directory
func BuildSettingsPath(filename string) string {
	return filepath.Join("./.agui", filename)
}

// GetConfigFileUsed returns the config file viper loaded, if any
func GetConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
