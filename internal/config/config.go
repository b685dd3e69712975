// Package config loads server settings from .env files and CHORES_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeDebug Mode = "debug"
	ModeProd  Mode = "prod"
)

type Config struct {
	Port       int           `mapstructure:"port"`
	DBPath     string        `mapstructure:"db_path"`
	Host       string        `mapstructure:"host"`
	Mode       Mode          `mapstructure:"mode"`
	LogLevel   string        `mapstructure:"log_level"`
	LogFormat  string        `mapstructure:"log_format"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	InviteTTL  time.Duration `mapstructure:"invite_ttl"`
}

// EnvFiles are loaded in order; earlier files win and real environment
// variables win over both.
var EnvFiles = []string{".env.local", ".env"}

// New returns a viper instance with defaults and CHORES_ environment
// binding. Callers may bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CHORES")
	v.AutomaticEnv()

	v.SetDefault("port", 8001)
	v.SetDefault("db_path", "chores.db")
	v.SetDefault("host", "")
	v.SetDefault("mode", string(ModeProd))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("session_ttl", 30*24*time.Hour)
	v.SetDefault("invite_ttl", 24*time.Hour)
	return v
}

// LoadEnvFiles loads .env.local and .env, skipping files that do not exist.
func LoadEnvFiles() error {
	for _, f := range EnvFiles {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Mode = Mode(strings.ToLower(string(cfg.Mode)))
	cfg.Host = strings.TrimRight(strings.TrimSpace(cfg.Host), "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("CHORES_HOST is required"))
	} else if u, err := url.Parse(c.Host); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("CHORES_HOST %q must be an absolute URL", c.Host))
	}
	if c.Mode != ModeDebug && c.Mode != ModeProd {
		errs = append(errs, fmt.Errorf("CHORES_MODE %q must be debug or prod", c.Mode))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("CHORES_PORT %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("CHORES_DB_PATH must not be empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("CHORES_SESSION_TTL must be positive"))
	}
	if c.InviteTTL <= 0 {
		errs = append(errs, errors.New("CHORES_INVITE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AllowedOrigin is the origin browsers present for the configured host.
func (c *Config) AllowedOrigin() string {
	return c.Host
}

// OriginHost is the configured host without its scheme, as websocket origin
// patterns expect.
func (c *Config) OriginHost() string {
	u, err := url.Parse(c.Host)
	if err != nil {
		return c.Host
	}
	return u.Host
}

func (c *Config) Debug() bool { return c.Mode == ModeDebug }

func (c *Config) String() string {
	return fmt.Sprintf("port=%d db=%s host=%s mode=%s log_level=%s log_format=%s session_ttl=%s invite_ttl=%s",
		c.Port, c.DBPath, c.Host, c.Mode, c.LogLevel, c.LogFormat, c.SessionTTL, c.InviteTTL)
}
