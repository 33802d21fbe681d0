package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Resource struct {
		Addr     string `yaml:"addr"`
		Audience string `yaml:"audience"`
		Issuer   string `yaml:"issuer"`
		JWKSURL  string `yaml:"jwks_url"`
	} `yaml:"resource"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	Keys struct {
		RotateInterval string `yaml:"rotate_interval"`
		RenewalWindow  string `yaml:"renewal_window"`
		Validity       string `yaml:"validity"`
	} `yaml:"keys"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"rate"`

	Log struct {
		Env   string `yaml:"env"`
		Level string `yaml:"level"`
	} `yaml:"log"`

	Admin struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// Load lee el YAML, aplica defaults y luego overrides por env.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if _, err := cfg.AccessTTL(); err != nil {
		return nil, err
	}
	if _, err := cfg.RotateInterval(); err != nil {
		return nil, err
	}
	if _, err := cfg.RenewalWindow(); err != nil {
		return nil, err
	}
	if _, err := cfg.KeyValidity(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Resource.Addr == "" {
		cfg.Resource.Addr = ":8081"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "https://keysmith.local"
	}
	if cfg.JWT.AccessTTL == "" {
		cfg.JWT.AccessTTL = "1h"
	}
	// La cadencia del loop y la ventana de renovación son knobs separados a
	// propósito: el ciclo es idempotente, así que correrlo más seguido que
	// la ventana no rota de más, y correrlo más lento solo adelanta la
	// rotación hasta RenewalWindow antes del vencimiento.
	if cfg.Keys.RotateInterval == "" {
		cfg.Keys.RotateInterval = "168h" // 7d
	}
	if cfg.Keys.RenewalWindow == "" {
		cfg.Keys.RenewalWindow = "240h" // 10d
	}
	if cfg.Keys.Validity == "" {
		cfg.Keys.Validity = "8760h" // 1y
	}
	if cfg.Rate.Login.Limit == 0 {
		cfg.Rate.Login.Limit = 10
	}
	if cfg.Rate.Login.Window == "" {
		cfg.Rate.Login.Window = "1m"
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Resource.Issuer == "" {
		cfg.Resource.Issuer = cfg.JWT.Issuer
	}
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Server.Addr, "KEYSMITH_ADDR")
	set(&cfg.Resource.Addr, "KEYSMITH_RESOURCE_ADDR")
	set(&cfg.Resource.JWKSURL, "KEYSMITH_JWKS_URL")
	set(&cfg.Resource.Audience, "KEYSMITH_AUDIENCE")
	set(&cfg.Storage.Driver, "KEYSMITH_STORAGE_DRIVER")
	set(&cfg.Storage.DSN, "KEYSMITH_DSN")
	set(&cfg.JWT.Issuer, "KEYSMITH_ISSUER")
	set(&cfg.Admin.APIKey, "KEYSMITH_ADMIN_KEY")
	set(&cfg.Log.Level, "KEYSMITH_LOG_LEVEL")
	if v := os.Getenv("KEYSMITH_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Flags.Migrate = b
		}
	}
}

func (c *Config) AccessTTL() (time.Duration, error)      { return parseDur("jwt.access_ttl", c.JWT.AccessTTL) }
func (c *Config) RotateInterval() (time.Duration, error) { return parseDur("keys.rotate_interval", c.Keys.RotateInterval) }
func (c *Config) RenewalWindow() (time.Duration, error)  { return parseDur("keys.renewal_window", c.Keys.RenewalWindow) }
func (c *Config) KeyValidity() (time.Duration, error)    { return parseDur("keys.validity", c.Keys.Validity) }
func (c *Config) LoginRateWindow() (time.Duration, error) {
	return parseDur("rate.login.window", c.Rate.Login.Window)
}

func parseDur(name, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", name)
	}
	return d, nil
}
