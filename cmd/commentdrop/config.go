package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values come from an optional
// YAML file, overridden by environment variables.
type Config struct {
	Port     string `yaml:"port"`
	DataDir  string `yaml:"data_dir"`
	RunDB    string `yaml:"run_db"`
	LogLevel string `yaml:"log_level"`

	Browser struct {
		// RemoteURL connects to an external Chrome instead of
		// launching one.
		RemoteURL       string   `yaml:"remote_url"`
		MemoryLimitMB   int      `yaml:"memory_limit_mb"`
		RecycleHours    int      `yaml:"recycle_hours"`
		BlockResources  []string `yaml:"block_resources"`
	} `yaml:"browser"`

	Scrape struct {
		// Host restricts scrape targets to this site and subdomains.
		Host          string `yaml:"host"`
		ProfileBase   string `yaml:"profile_base"`
		NavTimeoutSec int    `yaml:"nav_timeout_sec"`
		ScrollCycles  int    `yaml:"scroll_cycles"`
		SettleMs      int    `yaml:"settle_ms"`
	} `yaml:"scrape"`

	Airdrop struct {
		// RPCURLs in failover priority order.
		RPCURLs []string `yaml:"rpc_urls"`
		// PrivateKey is the funding wallet key in base58. KeyFile
		// points at a solana-keygen JSON file instead. When both are
		// empty the execute endpoint is disabled.
		PrivateKey        string `yaml:"private_key"`
		KeyFile           string `yaml:"key_file"`
		ConfirmTimeoutSec int    `yaml:"confirm_timeout_sec"`
	} `yaml:"airdrop"`
}

// loadConfig reads the YAML file when path is non-empty, then applies
// environment overrides and defaults.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.Port, "PORT")
	setStr(&c.DataDir, "DATA_DIR")
	setStr(&c.RunDB, "RUN_DB")
	setStr(&c.LogLevel, "LOG_LEVEL")
	setStr(&c.Browser.RemoteURL, "BROWSER_URL")
	setStr(&c.Scrape.Host, "SCRAPE_HOST")
	setStr(&c.Airdrop.PrivateKey, "AIRDROP_KEY")
	setStr(&c.Airdrop.KeyFile, "AIRDROP_KEYFILE")

	if v := os.Getenv("RPC_URLS"); v != "" {
		var urls []string
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		c.Airdrop.RPCURLs = urls
	}
	if v := os.Getenv("BROWSER_MEMORY_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Browser.MemoryLimitMB = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.RunDB == "" {
		c.RunDB = "db/runs.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Browser.MemoryLimitMB <= 0 {
		c.Browser.MemoryLimitMB = 1024
	}
	if c.Browser.RecycleHours <= 0 {
		c.Browser.RecycleHours = 4
	}
	if c.Browser.BlockResources == nil {
		c.Browser.BlockResources = []string{"images", "fonts", "media"}
	}
	if c.Scrape.Host == "" {
		c.Scrape.Host = "pump.fun"
	}
	if c.Scrape.ProfileBase == "" {
		c.Scrape.ProfileBase = "https://pump.fun/profile/"
	}
	if c.Scrape.NavTimeoutSec <= 0 {
		c.Scrape.NavTimeoutSec = 30
	}
	if c.Scrape.ScrollCycles <= 0 {
		c.Scrape.ScrollCycles = 3
	}
	if c.Scrape.SettleMs <= 0 {
		c.Scrape.SettleMs = 2000
	}
	if len(c.Airdrop.RPCURLs) == 0 {
		c.Airdrop.RPCURLs = []string{"https://api.mainnet-beta.solana.com"}
	}
	if c.Airdrop.ConfirmTimeoutSec <= 0 {
		c.Airdrop.ConfirmTimeoutSec = 90
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
