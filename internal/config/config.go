// Package config loads the scene bridge configuration from YAML, TOML or JSON.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/scenebridge/internal/core/observability/log"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnsupportedFormat = errors.New("unsupported configuration format")
)

type Config struct {
	Log      log.Config     `json:"log" yaml:"log" toml:"log"`
	Server   ServerConfig   `json:"server" yaml:"server" toml:"server"`
	Scene    SceneConfig    `json:"scene" yaml:"scene" toml:"scene"`
	Scan     ScanConfig     `json:"scan" yaml:"scan" toml:"scan"`
	Dispatch DispatchConfig `json:"dispatch" yaml:"dispatch" toml:"dispatch"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics" toml:"metrics"`
}

type ServerConfig struct {
	ListenAddr     string   `json:"listen_addr" yaml:"listen_addr" toml:"listen_addr"`
	MaxClients     int      `json:"max_clients" yaml:"max_clients" toml:"max_clients"`
	MaxMessageSize int64    `json:"max_message_size" yaml:"max_message_size" toml:"max_message_size"`
	WriteTimeout   Duration `json:"write_timeout" yaml:"write_timeout" toml:"write_timeout"`
	// AuthToken, when set, must be passed by clients as the "token" query
	// parameter or as a bearer token.
	AuthToken string `json:"auth_token" yaml:"auth_token" toml:"auth_token"`
}

type SceneConfig struct {
	// RebuildInterval rebuilds the scene tree periodically. Zero leaves rebuilds
	// to explicit requests.
	RebuildInterval Duration `json:"rebuild_interval" yaml:"rebuild_interval" toml:"rebuild_interval"`
}

type ScanConfig struct {
	BatchSize int `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
}

type DispatchConfig struct {
	Async bool `json:"async" yaml:"async" toml:"async"`
}

type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Namespace string `json:"namespace" yaml:"namespace" toml:"namespace"`
	Path      string `json:"path" yaml:"path" toml:"path"`
}

func Default() *Config {
	return &Config{
		Log: log.Config{
			Level:    "info",
			Encoding: "json",
		},
		Server: ServerConfig{
			ListenAddr:     "127.0.0.1:46735",
			MaxClients:     16,
			MaxMessageSize: 4 << 20,
			WriteTimeout:   Duration{10 * time.Second},
		},
		Scan: ScanConfig{
			BatchSize: 10,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "scenebridge",
			Path:      "/metrics",
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if c.Server.MaxClients < 1 {
		errs = append(errs, fmt.Errorf("server.max_clients must be positive, got %d", c.Server.MaxClients))
	}
	if c.Server.MaxMessageSize < 1 {
		errs = append(errs, fmt.Errorf("server.max_message_size must be positive, got %d", c.Server.MaxMessageSize))
	}
	if c.Server.WriteTimeout.Duration < 0 || c.Scene.RebuildInterval.Duration < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.Scan.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("scan.batch_size must be positive, got %d", c.Scan.BatchSize))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Load reads the file at path over the defaults. The format follows the
// extension: .yaml/.yml, .toml or .json.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := decode(filepath.Ext(path), data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(ext string, data []byte, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(cfg)
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown keys %v", undecoded)
		}
		return nil
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Duration reads durations written as strings such as "10s" in every format.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}
