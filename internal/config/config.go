// Package config loads ~/.lnf/config.toml and LNF_* overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Duration is a time.Duration written as a string such as "1s" or "2h".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config represents the global ~/.lnf/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`
	LogLevel       string `toml:"log_level"`
	// SimulateReplies schedules canned finder replies.
	SimulateReplies bool `toml:"simulate_replies"`
	// ReplyDelay scales the canned reply delays; "1s" keeps them as is.
	ReplyDelay  Duration `toml:"reply_delay"`
	SeedDemo    bool     `toml:"seed_demo"`
	MetricsAddr string   `toml:"metrics_addr"`

	TokenSecret   string   `toml:"token_secret"`
	TokenTTL      Duration `toml:"token_ttl"`
	HandoffSecret string   `toml:"handoff_secret"`
	HandoffTTL    Duration `toml:"handoff_ttl"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		SimulateReplies: true,
		ReplyDelay:      Duration{time.Second},
		SeedDemo:        true,
		TokenTTL:        Duration{24 * time.Hour},
		HandoffTTL:      Duration{2 * time.Hour},
	}
}

// Load reads config from path over the defaults. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve loads path if it exists, then applies envPath and process LNF_* variables.
// Process variables win over the .env file.
func Resolve(path, envPath string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
	} else if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	env := map[string]string{}
	if envPath != "" {
		fileEnv, err := godotenv.Read(envPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envPath, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

const (
	EnvLogLevel        = "LNF_LOG_LEVEL"
	EnvSimulateReplies = "LNF_SIMULATE_REPLIES"
	EnvReplyDelay      = "LNF_REPLY_DELAY"
	EnvSeedDemo        = "LNF_SEED_DEMO"
	EnvMetricsAddr     = "LNF_METRICS_ADDR"
	EnvTokenSecret     = "LNF_TOKEN_SECRET"
	EnvHandoffSecret   = "LNF_HANDOFF_SECRET"
)

var envKeys = []string{
	EnvLogLevel, EnvSimulateReplies, EnvReplyDelay, EnvSeedDemo,
	EnvMetricsAddr, EnvTokenSecret, EnvHandoffSecret,
}

// ApplyEnv overrides fields from LNF_* keys in env.
func (c *Config) ApplyEnv(env map[string]string) error {
	for _, key := range envKeys {
		v, ok := env[key]
		if !ok {
			continue
		}
		var err error
		switch key {
		case EnvLogLevel:
			c.LogLevel = v
		case EnvSimulateReplies:
			c.SimulateReplies, err = strconv.ParseBool(v)
		case EnvReplyDelay:
			err = c.ReplyDelay.UnmarshalText([]byte(v))
		case EnvSeedDemo:
			c.SeedDemo, err = strconv.ParseBool(v)
		case EnvMetricsAddr:
			c.MetricsAddr = v
		case EnvTokenSecret:
			c.TokenSecret = v
		case EnvHandoffSecret:
			c.HandoffSecret = v
		}
		if err != nil {
			return fmt.Errorf("%s=%q: %w", key, v, err)
		}
	}
	return nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
