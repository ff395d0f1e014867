// Package config loads the pksave command line configuration from YAML.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/pksave"
	"github.com/arloliu/pksave/checksum"
	"github.com/arloliu/pksave/compress"
	"github.com/arloliu/pksave/errs"
	"github.com/arloliu/pksave/format"
)

// Config represents the pksave configuration.
type Config struct {
	Envelope Envelope `yaml:"envelope"`
	Archive  Archive  `yaml:"archive"`
	Backup   Backup   `yaml:"backup"`
	Logging  Logging  `yaml:"logging"`
}

// Envelope describes the envelope of the game's save files.
type Envelope struct {
	// Magic is the four-byte marker, hex encoded ("53415631").
	Magic string `yaml:"magic"`
	// Checksum names a checksum.Lookup algorithm.
	Checksum   string `yaml:"checksum"`
	SkipVerify bool   `yaml:"skip_verify"`
}

// Archive contains settings for rebuilt containers.
type Archive struct {
	CompressionLevel int `yaml:"compression_level"`
}

// Backup contains settings for copies taken before a save is overwritten.
type Backup struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
	// Dir holds backups; empty means next to the save file.
	Dir string `yaml:"dir"`
}

// Logging contains logging configuration.
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration. The envelope section is
// left empty: magic and checksum depend on the game.
func DefaultConfig() *Config {
	return &Config{
		Archive: Archive{
			CompressionLevel: compress.DefaultDeflateLevel,
		},
		Backup: Backup{
			Enabled:     true,
			Compression: "zstd",
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from the specified path. Fields missing from
// the file keep their DefaultConfig values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path.
func SaveConfig(config *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns ~/.config/pksave/config.yaml, or
// ./pksave.yaml when there is no home directory.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./pksave.yaml"
	}

	return filepath.Join(homeDir, ".config", "pksave", "config.yaml")
}

// ConfigExists checks if a configuration file exists.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

// ParseMagic decodes a hex encoded four-byte envelope marker.
func ParseMagic(s string) ([4]byte, error) {
	var magic [4]byte

	if s == "" {
		return magic, fmt.Errorf("%w: envelope magic", errs.ErrMissingOption)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return magic, fmt.Errorf("invalid envelope magic %q: %w", s, err)
	}
	if len(b) != len(magic) {
		return magic, fmt.Errorf("%w: envelope magic %q is %d bytes, want 4", errs.ErrInvalidFormat, s, len(b))
	}
	copy(magic[:], b)

	return magic, nil
}

// Options converts the configuration to pksave options.
func (c *Config) Options() ([]pksave.Option, error) {
	magic, err := ParseMagic(c.Envelope.Magic)
	if err != nil {
		return nil, err
	}
	if c.Envelope.Checksum == "" {
		return nil, fmt.Errorf("%w: envelope checksum", errs.ErrMissingOption)
	}
	sum, err := checksum.Lookup(c.Envelope.Checksum)
	if err != nil {
		return nil, err
	}

	opts := []pksave.Option{
		pksave.WithEnvelopeMagic(magic),
		pksave.WithEnvelopeChecksum(sum),
		pksave.WithCompressionLevel(c.Archive.CompressionLevel),
	}
	if c.Envelope.SkipVerify {
		opts = append(opts, pksave.WithSkipEnvelopeVerify())
	}

	return opts, nil
}

// BackupCompression returns the configured backup compression.
func (c *Config) BackupCompression() (format.CompressionType, error) {
	return format.ParseCompressionType(c.Backup.Compression)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}

	return level, nil
}
