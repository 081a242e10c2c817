// Package config loads command line defaults from a TOML file and
// PBTEXT_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/reoring/pbtext"
)

const (
	EnvSchema     = "PBTEXT_SCHEMA"
	EnvType       = "PBTEXT_TYPE"
	EnvMaxDepth   = "PBTEXT_MAX_DEPTH"
	EnvMaxBytes   = "PBTEXT_MAX_BYTES"
	EnvLang       = "PBTEXT_LANG"
	EnvDuplicates = "PBTEXT_DUPLICATES"
)

// Config holds the settings shared by every subcommand.
type Config struct {
	Schema     string
	Type       string
	Indent     int
	MaxDepth   int
	MaxBytes   int64
	FailFast   bool
	Duplicates pbtext.Severity
	Lang       string
	LogLevel   string
}

type fileConfig struct {
	Schema     string `toml:"schema"`
	Type       string `toml:"type"`
	Indent     int    `toml:"indent"`
	MaxDepth   int    `toml:"max_depth"`
	MaxBytes   int64  `toml:"max_bytes"`
	FailFast   bool   `toml:"fail_fast"`
	Duplicates string `toml:"duplicates"`
	Lang       string `toml:"lang"`
	LogLevel   string `toml:"log_level"`
}

func Default() Config {
	return Config{Indent: 2, MaxDepth: pbtext.DefaultMaxDepth, Lang: "en", LogLevel: "warn"}
}

// Load reads path over the defaults; only keys present in the file
// override.
func Load(path string) (Config, error) {
	cfg := Default()
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undec[0].String())
	}
	if meta.IsDefined("schema") {
		cfg.Schema = strings.TrimSpace(raw.Schema)
	}
	if meta.IsDefined("type") {
		cfg.Type = strings.TrimSpace(raw.Type)
	}
	if meta.IsDefined("indent") {
		cfg.Indent = raw.Indent
	}
	if meta.IsDefined("max_depth") {
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("max_bytes") {
		cfg.MaxBytes = raw.MaxBytes
	}
	if meta.IsDefined("fail_fast") {
		cfg.FailFast = raw.FailFast
	}
	if meta.IsDefined("duplicates") {
		sev, err := ParseSeverity(raw.Duplicates)
		if err != nil {
			return Config{}, fmt.Errorf("parse duplicates: %w", err)
		}
		cfg.Duplicates = sev
	}
	if meta.IsDefined("lang") {
		cfg.Lang = strings.TrimSpace(raw.Lang)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from PBTEXT_* variables read through getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvSchema)); v != "" {
		cfg.Schema = v
	}
	if v := strings.TrimSpace(getenv(EnvType)); v != "" {
		cfg.Type = v
	}
	if v := strings.TrimSpace(getenv(EnvLang)); v != "" {
		cfg.Lang = v
	}
	if v := strings.TrimSpace(getenv(EnvMaxDepth)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxDepth, err)
		}
		cfg.MaxDepth = n
	}
	if v := strings.TrimSpace(getenv(EnvMaxBytes)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxBytes, err)
		}
		cfg.MaxBytes = n
	}
	if v := strings.TrimSpace(getenv(EnvDuplicates)); v != "" {
		sev, err := ParseSeverity(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDuplicates, err)
		}
		cfg.Duplicates = sev
	}
	return nil
}

// ParseSeverity accepts ignore, warn or error.
func ParseSeverity(raw string) (pbtext.Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ignore", "":
		return pbtext.Ignore, nil
	case "warn", "warning":
		return pbtext.Warn, nil
	case "error":
		return pbtext.Error, nil
	}
	return pbtext.Ignore, fmt.Errorf("unknown severity %q", raw)
}

// ParseOpt converts the settings into parser options.
func (c Config) ParseOpt() pbtext.ParseOpt {
	depth := c.MaxDepth
	if depth == 0 {
		depth = -1
	}
	return pbtext.ParseOpt{
		Strictness: pbtext.Strictness{OnDuplicateField: c.Duplicates},
		MaxDepth:   depth,
		MaxBytes:   c.MaxBytes,
		FailFast:   c.FailFast,
	}
}
