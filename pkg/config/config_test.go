package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aegis-flow/aegis-go/internal/constants"
	aerrors "github.com/aegis-flow/aegis-go/internal/errors"
	"github.com/aegis-flow/aegis-go/pkg/crypto"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aegis.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
listen:
  network: tcp
  address: 127.0.0.1:9000
channel:
  cipher_suite: aes-256-gcm
  kem_variant: ml-kem-1024
  chunk_size: 32768
  handshake_timeout: 5s
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	ch, err := cfg.ChannelConfig()
	if err != nil {
		t.Fatalf("ChannelConfig() error = %v", err)
	}
	if ch.CipherSuite != constants.CipherSuiteAES256GCM {
		t.Errorf("suite = %v", ch.CipherSuite)
	}
	if ch.KEMVariant != crypto.KEMMLKEM1024 {
		t.Errorf("variant = %v", ch.KEMVariant)
	}
	if ch.ChunkSize != 32768 {
		t.Errorf("chunk size = %d", ch.ChunkSize)
	}
	if ch.HandshakeTimeout != 5*time.Second {
		t.Errorf("handshake timeout = %v", ch.HandshakeTimeout)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Listen.Network != "tcp" {
		t.Errorf("default network = %q", cfg.Listen.Network)
	}
	if cfg.Channel.CipherSuite != "chacha20-poly1305" {
		t.Errorf("default suite = %q", cfg.Channel.CipherSuite)
	}
	if cfg.Channel.KEMVariant != "ml-kem-768" {
		t.Errorf("default variant = %q", cfg.Channel.KEMVariant)
	}

	ch, err := cfg.ChannelConfig()
	if err != nil {
		t.Fatalf("ChannelConfig() error = %v", err)
	}
	if ch.ChunkSize != constants.DefaultChunkSize {
		t.Errorf("default chunk size = %d", ch.ChunkSize)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
channel:
  cipher_suite: chacha20-poly1305
`)
	t.Setenv("AEGIS_CIPHER_SUITE", "aes-256-gcm")
	t.Setenv("AEGIS_LISTEN_ADDRESS", "10.0.0.1:7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Channel.CipherSuite != "aes-256-gcm" {
		t.Errorf("env override lost, suite = %q", cfg.Channel.CipherSuite)
	}
	if cfg.Listen.Address != "10.0.0.1:7000" {
		t.Errorf("env override lost, address = %q", cfg.Listen.Address)
	}
}

func TestParseKEMVariant(t *testing.T) {
	tests := []struct {
		name    string
		want    crypto.KEMVariant
		wantErr bool
	}{
		{"ml-kem-768", crypto.KEMMLKEM768, false},
		{"ML-KEM-1024", crypto.KEMMLKEM1024, false},
		{"mlkem768", crypto.KEMMLKEM768, false},
		{"kyber768", 0, true},
		{"kyber1024", 0, true},
		{"rsa", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseKEMVariant(tt.name)
		if tt.wantErr {
			if !errors.Is(err, aerrors.ErrUnsupportedVariant) {
				t.Errorf("ParseKEMVariant(%q) error = %v, want ErrUnsupportedVariant", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKEMVariant(%q) error = %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKEMVariant(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseCipherSuite(t *testing.T) {
	if _, err := ParseCipherSuite("des"); !errors.Is(err, aerrors.ErrUnsupportedCipherSuite) {
		t.Errorf("ParseCipherSuite(des) error = %v", err)
	}
	if s, err := ParseCipherSuite("ChaCha20-Poly1305"); err != nil || s != constants.CipherSuiteChaCha20Poly1305 {
		t.Errorf("ParseCipherSuite case-insensitivity broken: %v %v", s, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
