// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, StoreBolt, cfg.Store)
	assert.Equal(t, "libfactory", cfg.Self)
	assert.Equal(t, 5*time.Minute, cfg.NonceTTL)
	assert.True(t, cfg.DefaultTypes)
	assert.Equal(t, PolicyOpen, cfg.CreatorPolicy)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Owner)
	assert.Equal(t, filepath.Join(cfg.DataDir, "factory.db"), cfg.DBPath())
	assert.NoError(t, ValidateConfig(cfg))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config")
	want := Config{
		DataDir:       "/var/lib/libfactory",
		ListenAddr:    "127.0.0.1:9000",
		Store:         StoreMemory,
		Owner:         "0x1111111111111111111111111111111111111111",
		Self:          "factory-2",
		NonceTTL:      90 * time.Second,
		DefaultTypes:  false,
		CreatorPolicy: PolicyAllowList,
		Creators: []string{
			"0x2222222222222222222222222222222222222222",
			"0x3333333333333333333333333333333333333333",
		},
		LogLevel: "debug",
		LogFile:  "/tmp/factory.log",
	}
	require.NoError(t, SaveConfig(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# libfactory configuration")
	assert.Contains(t, string(data), "noncettl = 1m30s")
	assert.Contains(t, string(data), "creators = 0x2222222222222222222222222222222222222222,0x3333333333333333333333333333333333333333")

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfig_Parsing(t *testing.T) {
	path := writeFile(t, `# comment

LogLevel = debug
unknown = ignored
logfile = /tmp/a=b.log
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/a=b.log", cfg.LogFile)
	assert.Equal(t, ":8080", cfg.ListenAddr, "unset keys keep defaults")
}

func TestLoadConfig_Creators(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "creatorpolicy = allowlist\ncreators = 0xaa, ,0xbb \n"))
	require.NoError(t, err)
	assert.Equal(t, PolicyAllowList, cfg.CreatorPolicy)
	assert.Equal(t, []string{"0xaa", "0xbb"}, cfg.Creators)

	cfg, err = LoadConfig(writeFile(t, "creators =\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Creators)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = LoadConfig(writeFile(t, "listen :8080\n"))
	assert.ErrorIs(t, err, ErrInvalidConfigLine)

	_, err = LoadConfig(writeFile(t, " = value\n"))
	assert.ErrorIs(t, err, ErrInvalidConfigLine)

	_, err = LoadConfig(writeFile(t, "noncettl = soon\n"))
	assert.ErrorIs(t, err, ErrInvalidConfigValue)

	_, err = LoadConfig(writeFile(t, "defaulttypes = maybe\n"))
	assert.ErrorIs(t, err, ErrInvalidConfigValue)
}

func TestLoadConfig_Unreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	path := writeFile(t, "loglevel = info\n")
	require.NoError(t, os.Chmod(path, 0000))
	t.Cleanup(func() { _ = os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigNotFound)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LIBFACTORY_STORE", "memory")
	t.Setenv("LIBFACTORY_NONCE_TTL", "30s")
	t.Setenv("LIBFACTORY_DEFAULT_TYPES", "false")
	t.Setenv("LIBFACTORY_CREATORS", "0xaa,0xbb")

	cfg := DefaultConfig()
	cfg.ListenAddr = ":7000"
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.NonceTTL)
	assert.False(t, cfg.DefaultTypes)
	assert.Equal(t, []string{"0xaa", "0xbb"}, cfg.Creators)
	assert.Equal(t, ":7000", cfg.ListenAddr)

	t.Setenv("LIBFACTORY_NONCE_TTL", "whenever")
	assert.Error(t, ApplyEnv(&cfg))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)

	saved := DefaultConfig()
	saved.DataDir = dir
	saved.ListenAddr = ":9191"
	require.NoError(t, SaveConfig(ConfigPath(dir), saved))
	t.Setenv("LIBFACTORY_LOGLEVEL", "warn")

	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.ListenAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"empty datadir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"unknown store", func(c *Config) { c.Store = "sqlite" }, ErrInvalidStore},
		{"listen without port", func(c *Config) { c.ListenAddr = "localhost" }, ErrInvalidListenAddr},
		{"empty listen", func(c *Config) { c.ListenAddr = "" }, ErrInvalidListenAddr},
		{"unknown level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"empty level", func(c *Config) { c.LogLevel = "" }, ErrInvalidLogLevel},
		{"short owner", func(c *Config) { c.Owner = "0x1234" }, ErrInvalidOwner},
		{"zero nonce ttl", func(c *Config) { c.NonceTTL = 0 }, ErrInvalidNonceTTL},
		{"unknown policy", func(c *Config) { c.CreatorPolicy = "holders" }, ErrInvalidCreatorPolicy},
		{"bad allowlist entry", func(c *Config) {
			c.CreatorPolicy = PolicyAllowList
			c.Creators = []string{"0x2222222222222222222222222222222222222222", "nobody"}
		}, ErrInvalidCreator},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			assert.ErrorIs(t, ValidateConfig(cfg), tc.wantErr)
		})
	}

	for _, level := range []string{"INFO", "Debug", "warn", "eRRor"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		assert.NoError(t, ValidateConfig(cfg), level)
	}
	for _, addr := range []string{"127.0.0.1:80", ":8080", "localhost:3000", "[::1]:8080"} {
		cfg := DefaultConfig()
		cfg.ListenAddr = addr
		assert.NoError(t, ValidateConfig(cfg), addr)
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/srv/factory", "config"), ConfigPath("/srv/factory"))
	assert.Equal(t, filepath.Join("/foo", "config"), ConfigPath("/foo/"))
}
