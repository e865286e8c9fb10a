package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// Plex holds the catalog server connection settings.
type Plex struct {
	URL      string
	Token    string
	ClientID string
	Library  string
}

// Fetch holds the list-source fetch policy.
type Fetch struct {
	MinInterval time.Duration
	Timeout     time.Duration
	MaxAttempts int
	MaxJitter   time.Duration
}

// Ingest holds ingestion pipeline settings.
type Ingest struct {
	Workers   int
	CachePath string
}

// Config is the full tool configuration.
type Config struct {
	Plex   Plex
	Fetch  Fetch
	Ingest Ingest
}

// Load reads the ini config at path. Only [plex] url and token are
// required; everything else has working defaults.
func Load(path string) (Config, error) {
	var c Config
	cfg, err := ini.Load(path)
	if err != nil {
		return c, fmt.Errorf("load config %s: %w", path, err)
	}

	plex := cfg.Section("plex")
	c.Plex.URL = plex.Key("url").String()
	c.Plex.Token = plex.Key("token").String()
	c.Plex.ClientID = plex.Key("client_id").String()
	c.Plex.Library = plex.Key("library").MustString("Movies")

	if c.Plex.URL == "" {
		return c, errors.New("config: [plex] url is required")
	}
	if c.Plex.Token == "" {
		return c, errors.New("config: [plex] token is required")
	}

	fetch := cfg.Section("fetch")
	c.Fetch.MinInterval = time.Duration(fetch.Key("min_interval_ms").MustInt(1000)) * time.Millisecond
	c.Fetch.Timeout = time.Duration(fetch.Key("timeout_seconds").MustInt(15)) * time.Second
	c.Fetch.MaxAttempts = fetch.Key("max_attempts").MustInt(6)
	c.Fetch.MaxJitter = time.Duration(fetch.Key("max_jitter_ms").MustInt(500)) * time.Millisecond

	ingest := cfg.Section("ingest")
	c.Ingest.Workers = ingest.Key("workers").MustInt(6)
	c.Ingest.CachePath = ingest.Key("cache_path").String()

	return c, nil
}
