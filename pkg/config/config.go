// Package config loads channel configuration from YAML files and
// environment variables and resolves it into a channel.Config.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
	"github.com/aegis-flow/aegis-go/pkg/channel"
	"github.com/aegis-flow/aegis-go/pkg/crypto"
	"github.com/aegis-flow/aegis-go/pkg/metrics"
)

// Config is the on-disk configuration schema.
type Config struct {
	Listen  ListenConfig  `yaml:"listen"`
	Channel ChannelConfig `yaml:"channel"`
	Logging LoggingConfig `yaml:"logging"`
}

// ListenConfig contains transport settings.
type ListenConfig struct {
	Network string `yaml:"network"`
	Address string `yaml:"address"`
}

// ChannelConfig contains key exchange and record protection settings.
type ChannelConfig struct {
	// CipherSuite names the AEAD: "chacha20-poly1305" or "aes-256-gcm".
	CipherSuite string `yaml:"cipher_suite"`

	// KEMVariant names the post-quantum parameter set: "ml-kem-768" or
	// "ml-kem-1024". The historical names "kyber768" and "kyber1024"
	// still parse but are refused with an error naming the replacement.
	KEMVariant string `yaml:"kem_variant"`

	// ChunkSize is the maximum plaintext bytes per record.
	ChunkSize int `yaml:"chunk_size"`

	// HandshakeTimeout bounds channel establishment.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file and applies environment
// overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if addr := os.Getenv("AEGIS_LISTEN_ADDRESS"); addr != "" {
		cfg.Listen.Address = addr
	}
	if suite := os.Getenv("AEGIS_CIPHER_SUITE"); suite != "" {
		cfg.Channel.CipherSuite = suite
	}
	if variant := os.Getenv("AEGIS_KEM_VARIANT"); variant != "" {
		cfg.Channel.KEMVariant = variant
	}
	if level := os.Getenv("AEGIS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Listen.Network == "" {
		cfg.Listen.Network = "tcp"
	}
	if cfg.Listen.Address == "" {
		cfg.Listen.Address = "0.0.0.0:8474"
	}
	if cfg.Channel.CipherSuite == "" {
		cfg.Channel.CipherSuite = "chacha20-poly1305"
	}
	if cfg.Channel.KEMVariant == "" {
		cfg.Channel.KEMVariant = "ml-kem-768"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// ParseCipherSuite resolves a suite name to its identifier.
func ParseCipherSuite(name string) (constants.CipherSuite, error) {
	switch strings.ToLower(name) {
	case "aes-256-gcm", "aes256gcm":
		return constants.CipherSuiteAES256GCM, nil
	case "chacha20-poly1305", "chacha20poly1305":
		return constants.CipherSuiteChaCha20Poly1305, nil
	default:
		return 0, fmt.Errorf("%w: %q", aerrors.ErrUnsupportedCipherSuite, name)
	}
}

// ParseKEMVariant resolves a variant name to its identifier. Historical
// Kyber names resolve but are refused with a migration hint, matching
// the wire-level handling of deprecated variant codes.
func ParseKEMVariant(name string) (crypto.KEMVariant, error) {
	switch strings.ToLower(name) {
	case "ml-kem-768", "mlkem768":
		return crypto.KEMMLKEM768, nil
	case "ml-kem-1024", "mlkem1024":
		return crypto.KEMMLKEM1024, nil
	case "kyber768":
		return 0, fmt.Errorf("%w: %q is pre-standard, use \"ml-kem-768\"", aerrors.ErrUnsupportedVariant, name)
	case "kyber1024":
		return 0, fmt.Errorf("%w: %q is pre-standard, use \"ml-kem-1024\"", aerrors.ErrUnsupportedVariant, name)
	default:
		return 0, fmt.Errorf("%w: %q", aerrors.ErrUnsupportedVariant, name)
	}
}

// ChannelConfig resolves the loaded file into a validated channel.Config.
func (c *Config) ChannelConfig() (channel.Config, error) {
	suite, err := ParseCipherSuite(c.Channel.CipherSuite)
	if err != nil {
		return channel.Config{}, err
	}
	variant, err := ParseKEMVariant(c.Channel.KEMVariant)
	if err != nil {
		return channel.Config{}, err
	}

	out := channel.Config{
		CipherSuite:      suite,
		KEMVariant:       variant,
		ChunkSize:        c.Channel.ChunkSize,
		HandshakeTimeout: c.Channel.HandshakeTimeout,
	}
	if err := out.Validate(); err != nil {
		return channel.Config{}, err
	}
	return out, nil
}

// Logger builds a logger from the logging section.
func (c *Config) Logger() *metrics.Logger {
	format := metrics.FormatText
	if strings.EqualFold(c.Logging.Format, "json") {
		format = metrics.FormatJSON
	}
	return metrics.NewLogger(
		metrics.WithLevel(metrics.ParseLevel(c.Logging.Level)),
		metrics.WithFormat(format),
	)
}
