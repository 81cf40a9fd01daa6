package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "EDITORSHELL"

type Config struct {
	Host              string        `mapstructure:"host"`
	Port              uint          `mapstructure:"port"`
	SettingsFile      string        `mapstructure:"settings_file"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFormat         string        `mapstructure:"log_format"`
	LogOutput         string        `mapstructure:"log_output"`
	Workers           int           `mapstructure:"workers"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout"`
	TerminalDir       string        `mapstructure:"terminal_dir"`
	Picker            string        `mapstructure:"picker"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	KnownHosts        string        `mapstructure:"known_hosts"`
}

// Load reads the config file (if any), then EDITORSHELL_* environment variables.
// A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	v, err := initViper(configPath, filepath.Join(home, ".editorshell"), "editorshell", "toml")
	if err != nil {
		return nil, err
	}

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 1234)
	v.SetDefault("settings_file", defaultSettingsFile(home))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_output", "stderr")
	v.SetDefault("workers", 8)
	v.SetDefault("connection_timeout", time.Minute)
	v.SetDefault("terminal_dir", "")
	v.SetDefault("picker", "")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("known_hosts", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.SettingsFile = expandPath(cfg.SettingsFile)
	cfg.TerminalDir = expandPath(cfg.TerminalDir)
	cfg.KnownHosts = expandPath(cfg.KnownHosts)
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	return &cfg, nil
}

func defaultSettingsFile(home string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "editorshell", "settings.json")
}

func initViper(configPath, defaultDir, defaultName, defaultType string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(defaultType)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(defaultDir)
		v.AddConfigPath(".")
		v.SetConfigName(defaultName)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
