package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the client configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	APIBaseURL            string        `mapstructure:"api_base_url"`
	APIPrefix             string        `mapstructure:"api_prefix"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`

	SessionStore      string        `mapstructure:"session_store"`
	SessionPath       string        `mapstructure:"session_path"`
	SessionTTLSeconds int64         `mapstructure:"session_ttl_seconds"`
	SessionTTL        time.Duration `mapstructure:"-"`

	PublishersFile       string        `mapstructure:"publishers_file"`
	ReportTimeoutSeconds int64         `mapstructure:"report_timeout_seconds"`
	ReportTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
// Changed flags whose names match a key with dashes for underscores
// (--api-base-url) override both.
func Load(flags ...*pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "blogmind-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "warn")
	v.SetDefault("api_base_url", "http://localhost:8000")
	v.SetDefault("api_prefix", "/api")
	v.SetDefault("request_timeout_seconds", 5)
	v.SetDefault("session_store", "bbolt")
	v.SetDefault("session_path", "./data/session.db")
	v.SetDefault("session_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("publishers_file", "")
	v.SetDefault("report_timeout_seconds", 5)

	v.SetEnvPrefix("blogmind")
	v.AutomaticEnv()

	known := make(map[string]struct{})
	for _, k := range v.AllKeys() {
		known[k] = struct{}{}
	}
	for _, fs := range flags {
		if fs == nil {
			continue
		}
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := known[key]; !ok || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(key, f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize validates raw values and derives the duration fields.
func (c *Config) normalize() error {
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q", c.APIBaseURL)
	}

	// "/" means no prefix and must survive normalization; "" picks the client default.
	c.APIPrefix = strings.TrimSpace(c.APIPrefix)
	if c.APIPrefix != "" {
		c.APIPrefix = "/" + strings.Trim(c.APIPrefix, "/")
	}

	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	c.RequestTimeout = time.Duration(c.RequestTimeoutSeconds) * time.Second

	if c.SessionTTLSeconds <= 0 {
		return fmt.Errorf("invalid session_ttl_seconds (must be positive seconds)")
	}
	c.SessionTTL = time.Duration(c.SessionTTLSeconds) * time.Second

	if c.ReportTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid report_timeout_seconds (must be positive seconds)")
	}
	c.ReportTimeout = time.Duration(c.ReportTimeoutSeconds) * time.Second

	c.SessionStore = strings.ToLower(strings.TrimSpace(c.SessionStore))
	c.PublishersFile = strings.TrimSpace(c.PublishersFile)
	return nil
}
