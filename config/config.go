// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads the factory daemon settings from a key = value file
// in the data directory, overlaid with LIBFACTORY_* environment variables.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

// Creator policies applied once a gate token is set.
const (
	PolicyOpen      = "open"
	PolicyAllowList = "allowlist"
)

// Config holds the daemon settings.
type Config struct {
	DataDir      string        `env:"LIBFACTORY_DATADIR"`
	ListenAddr   string        `env:"LIBFACTORY_LISTEN"`
	Store        string        `env:"LIBFACTORY_STORE"`
	Owner        string        `env:"LIBFACTORY_OWNER"` // hex identity; empty keeps the stored owner
	Self         string        `env:"LIBFACTORY_SELF"`  // label the factory's deployer identity is derived from
	NonceTTL     time.Duration `env:"LIBFACTORY_NONCE_TTL"`
	DefaultTypes bool          `env:"LIBFACTORY_DEFAULT_TYPES"`

	CreatorPolicy string   `env:"LIBFACTORY_CREATOR_POLICY"`
	Creators      []string `env:"LIBFACTORY_CREATORS" envSeparator:","` // hex identities for the allowlist policy

	LogLevel string `env:"LIBFACTORY_LOGLEVEL"`
	LogFile  string `env:"LIBFACTORY_LOGFILE"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:       DefaultDataDir(),
		ListenAddr:    ":8080",
		Store:         StoreBolt,
		Self:          "libfactory",
		NonceTTL:      5 * time.Minute,
		DefaultTypes:  true,
		CreatorPolicy: PolicyOpen,
		LogLevel:      "info",
	}
}

// DefaultDataDir returns ~/.libfactory, or ./.libfactory when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".libfactory"
	}
	return filepath.Join(home, ".libfactory")
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// DBPath returns the bolt database location for cfg.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "factory.db")
}

// LoadConfig reads path on top of DefaultConfig. Unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", err, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d", err, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits a line on its first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return strings.ToLower(key), strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	switch key {
	case "datadir":
		c.DataDir = value
	case "listen":
		c.ListenAddr = value
	case "store":
		c.Store = value
	case "owner":
		c.Owner = value
	case "self":
		c.Self = value
	case "noncettl":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: noncettl: %w", ErrInvalidConfigValue, err)
		}
		c.NonceTTL = d
	case "defaulttypes":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: defaulttypes: %w", ErrInvalidConfigValue, err)
		}
		c.DefaultTypes = b
	case "creatorpolicy":
		c.CreatorPolicy = value
	case "creators":
		c.Creators = nil
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				c.Creators = append(c.Creators, id)
			}
		}
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	}
	return nil
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# libfactory configuration\n\n")
	writeKV(&b, "datadir", cfg.DataDir)
	writeKV(&b, "listen", cfg.ListenAddr)
	writeKV(&b, "store", cfg.Store)
	writeKV(&b, "owner", cfg.Owner)
	writeKV(&b, "self", cfg.Self)
	writeKV(&b, "noncettl", cfg.NonceTTL.String())
	writeKV(&b, "defaulttypes", strconv.FormatBool(cfg.DefaultTypes))
	writeKV(&b, "creatorpolicy", cfg.CreatorPolicy)
	writeKV(&b, "creators", strings.Join(cfg.Creators, ","))
	writeKV(&b, "loglevel", cfg.LogLevel)
	writeKV(&b, "logfile", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func writeKV(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s = %s\n", key, value)
}

// ApplyEnv overlays LIBFACTORY_* environment variables onto cfg. Variables
// that are unset leave the corresponding field untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Load reads the config file in dataDir if present, then applies the
// environment. A missing file is not an error.
func Load(dataDir string) (Config, error) {
	cfg, err := LoadConfig(ConfigPath(dataDir))
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return cfg, err
	}
	if cfg.DataDir == DefaultDataDir() {
		cfg.DataDir = dataDir
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
