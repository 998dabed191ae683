package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Lemmy struct {
		APIURL    string `mapstructure:"api_url"`
		URLPrefix string `mapstructure:"url_prefix"`
		PageLimit int    `mapstructure:"page_limit"`
		MaxPages  int    `mapstructure:"max_pages"`
		Timeout   string `mapstructure:"timeout"`
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"lemmy"`
	Sitemap struct {
		Location string `mapstructure:"location"`
	} `mapstructure:"sitemap"`
	Scheduler struct {
		Cron       string `mapstructure:"cron"`
		RunOnStart bool   `mapstructure:"run_on_start"`
	} `mapstructure:"scheduler"`
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		Driver string `mapstructure:"driver"`
		URL    string `mapstructure:"url"`
	} `mapstructure:"database"`
	Log struct {
		Level string `mapstructure:"level"`
		Dir   string `mapstructure:"dir"`
	} `mapstructure:"log"`
	Checker struct {
		Samples   int    `mapstructure:"samples"`
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"checker"`
}

// legacyEnv maps the environment names used by the previous deployment.
var legacyEnv = map[string]string{
	"lemmy.api_url":    "LEMMY_API_URL",
	"lemmy.url_prefix": "LEMMY_URL_PREFIX",
	"sitemap.location": "SITEMAP_LOCATION",
}

// LoadConfig reads defaults, an optional YAML file, .env files and the
// process environment, in increasing order of precedence. An empty path
// searches for config.yaml in . and ./config.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SITEMAPGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "SITEMAPGEN_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("lemmy.api_url", "https://rabotaem.app")
	v.SetDefault("lemmy.url_prefix", "https://rabotaem.app")
	v.SetDefault("lemmy.page_limit", 50)
	v.SetDefault("lemmy.max_pages", 10000)
	v.SetDefault("lemmy.timeout", "30s")
	v.SetDefault("lemmy.user_agent", "Sitemap Generator Bot v1.0")
	v.SetDefault("sitemap.location", "./output")
	v.SetDefault("scheduler.cron", "10 * * * *")
	v.SetDefault("scheduler.run_on_start", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.url", "sitemapgen.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
	v.SetDefault("checker.samples", 3)
	v.SetDefault("checker.user_agent", "")
}

func (c *Config) normalize() error {
	c.Lemmy.APIURL = strings.TrimRight(strings.TrimSpace(c.Lemmy.APIURL), "/")
	c.Lemmy.URLPrefix = strings.TrimRight(strings.TrimSpace(c.Lemmy.URLPrefix), "/")

	if err := validateHTTPURL("lemmy.api_url", c.Lemmy.APIURL); err != nil {
		return err
	}
	if err := validateHTTPURL("lemmy.url_prefix", c.Lemmy.URLPrefix); err != nil {
		return err
	}
	if strings.TrimSpace(c.Sitemap.Location) == "" {
		return fmt.Errorf("sitemap.location must not be empty")
	}
	if c.Lemmy.PageLimit <= 0 {
		c.Lemmy.PageLimit = 50
	}
	if c.Checker.UserAgent == "" {
		c.Checker.UserAgent = c.Lemmy.UserAgent
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// GetTimeout returns the request timeout for the Lemmy API.
func (c *Config) GetTimeout() time.Duration {
	duration, err := time.ParseDuration(c.Lemmy.Timeout)
	if err != nil || duration <= 0 {
		return 30 * time.Second
	}
	return duration
}
