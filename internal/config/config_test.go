package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Storage.Driver != "memory" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if d, _ := cfg.AccessTTL(); d != time.Hour {
		t.Fatalf("access ttl = %v", d)
	}
	if d, _ := cfg.RotateInterval(); d != 168*time.Hour {
		t.Fatalf("rotate interval = %v", d)
	}
	if d, _ := cfg.RenewalWindow(); d != 240*time.Hour {
		t.Fatalf("renewal window = %v", d)
	}
	if d, _ := cfg.KeyValidity(); d != 8760*time.Hour {
		t.Fatalf("validity = %v", d)
	}
	if cfg.Resource.Issuer != cfg.JWT.Issuer {
		t.Fatalf("resource issuer should default to jwt issuer")
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
server:
  addr: ":9090"
jwt:
  issuer: "https://file.example.com"
  access_ttl: "30m"
keys:
  renewal_window: "72h"
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("KEYSMITH_ISSUER", "https://env.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %s", cfg.Server.Addr)
	}
	// env pisa al archivo
	if cfg.JWT.Issuer != "https://env.example.com" {
		t.Fatalf("issuer = %s", cfg.JWT.Issuer)
	}
	if d, _ := cfg.AccessTTL(); d != 30*time.Minute {
		t.Fatalf("access ttl = %v", d)
	}
	if d, _ := cfg.RenewalWindow(); d != 72*time.Hour {
		t.Fatalf("renewal window = %v", d)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("keys:\n  validity: \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("invalid duration accepted")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("missing file accepted")
	}
}
