package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Scrape.Host != "pump.fun" {
		t.Errorf("Scrape.Host = %q, want pump.fun", cfg.Scrape.Host)
	}
	if len(cfg.Airdrop.RPCURLs) == 0 {
		t.Error("Airdrop.RPCURLs empty, want mainnet default")
	}
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`
port: "9999"
scrape:
  host: example.test
airdrop:
  rpc_urls:
    - https://rpc.example.test
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "7777")
	t.Setenv("RPC_URLS", "https://a.test, https://b.test")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Port != "7777" {
		t.Errorf("Port = %q, want env to beat file", cfg.Port)
	}
	if cfg.Scrape.Host != "example.test" {
		t.Errorf("Scrape.Host = %q, want file value", cfg.Scrape.Host)
	}
	if len(cfg.Airdrop.RPCURLs) != 2 || cfg.Airdrop.RPCURLs[0] != "https://a.test" {
		t.Errorf("RPCURLs = %v, want env-split list", cfg.Airdrop.RPCURLs)
	}
}
