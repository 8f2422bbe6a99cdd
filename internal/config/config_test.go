package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDecodeDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Decode(v)
	if err != nil {
		t.Fatalf("decode defaults failed: %v", err)
	}
	if cfg.Otp.MaxAttempts != 5 {
		t.Fatalf("otp max attempts want 5 got %d", cfg.Otp.MaxAttempts)
	}
	if cfg.Otp.MinValidityMinutes != 5 || cfg.Otp.MaxValidityMinutes != 60 {
		t.Fatalf("otp validity bounds want 5-60 got %d-%d", cfg.Otp.MinValidityMinutes, cfg.Otp.MaxValidityMinutes)
	}
	if !cfg.Lifecycle.ShipperCancelAfterAward {
		t.Fatalf("shipper cancel after award should default to true")
	}
	if cfg.Lifecycle.UnavailableReentryStatus != "pending" {
		t.Fatalf("reentry status want pending got %s", cfg.Lifecycle.UnavailableReentryStatus)
	}
	solo := cfg.Compliance.Requirements["solo"]["carrier"]
	if len(solo) != 4 {
		t.Fatalf("solo carrier requirements want 4 got %v", solo)
	}
	if got := cfg.Compliance.Requirements["enterprise"]["driver"]; len(got) != 1 || got[0] != "driving_license" {
		t.Fatalf("enterprise driver requirements unexpected: %v", got)
	}
}

func TestDecodeFromYAML(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	yml := `
lifecycle:
  unavailable_reentry_status: " OPEN_FOR_BID "
otp:
  min_validity_minutes: 15
  max_validity_minutes: 3
compliance:
  requirements:
    solo:
      carrier: [insurance]
`
	if err := v.ReadConfig(strings.NewReader(yml)); err != nil {
		t.Fatalf("read yaml failed: %v", err)
	}
	cfg, err := Decode(v)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Lifecycle.UnavailableReentryStatus != "open_for_bid" {
		t.Fatalf("reentry status want open_for_bid got %q", cfg.Lifecycle.UnavailableReentryStatus)
	}
	if cfg.Otp.MaxValidityMinutes != 15 {
		t.Fatalf("max validity should be raised to min, got %d", cfg.Otp.MaxValidityMinutes)
	}
	if got := cfg.Compliance.Requirements["solo"]["carrier"]; len(got) != 1 || got[0] != "insurance" {
		t.Fatalf("solo carrier requirements want [insurance] got %v", got)
	}
}

func TestLoadFromExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "freight.yml")
	content := "server:\n  port: \"9090\"\notp:\n  max_attempts: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Otp.MaxAttempts != 3 {
		t.Fatalf("file values not applied: port=%s attempts=%d", cfg.Server.Port, cfg.Otp.MaxAttempts)
	}
	if cfg.Server.ShutdownTimeoutSeconds != 15 {
		t.Fatalf("defaults should still apply, got %d", cfg.Server.ShutdownTimeoutSeconds)
	}

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("missing explicit file should fail")
	}
}

func TestWeakJWTSecret(t *testing.T) {
	cases := []struct {
		secret string
		weak   bool
	}{
		{secret: "short", weak: true},
		{secret: "please-change-me-before-going-live-0001", weak: true},
		{secret: "7c1f0e9a4b2d48e6a3f5c8b1d0e2f4a6b8c0d2e4", weak: false},
	}
	for _, tc := range cases {
		if got := (JWTConfig{SecretKey: tc.secret}).WeakJWTSecret(); got != tc.weak {
			t.Fatalf("secret %q weak want %v got %v", tc.secret, tc.weak, got)
		}
	}
}
