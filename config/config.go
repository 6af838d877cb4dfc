package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	BackendEndpoint = "endpoint"
	BackendSerpAPI  = "serpapi"
)

type Config struct {
	AppPort       int           `yaml:"app_port"`
	SearchURL     string        `yaml:"search_url"`
	ContentURL    string        `yaml:"content_url"`
	SearchBackend string        `yaml:"search_backend"`
	SerpAPIKey    string        `yaml:"serpapi_key"`
	ProxyURL      string        `yaml:"proxy_url"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	SearchTimeout time.Duration `yaml:"search_timeout"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	LogLevel      string        `yaml:"log_level"`
}

// Default returns the configuration used when neither a file nor the
// environment sets a value.
func Default() *Config {
	return &Config{
		AppPort:       8080,
		SearchURL:     "http://localhost:8081/query",
		ContentURL:    "http://localhost:8081/scrape_link",
		SearchBackend: BackendEndpoint,
		FetchTimeout:  5 * time.Second,
		SearchTimeout: 10 * time.Second,
		CORSOrigins:   []string{"*"},
		LogLevel:      "info",
	}
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("APP_PORT: %w", err)
		}
		c.AppPort = port
	}

	c.SearchURL = getEnv("SEARCH_URL", c.SearchURL)
	c.ContentURL = getEnv("CONTENT_URL", c.ContentURL)
	c.SearchBackend = getEnv("SEARCH_BACKEND", c.SearchBackend)
	c.SerpAPIKey = getEnv("SERPAPI_KEY", c.SerpAPIKey)
	c.ProxyURL = getEnv("PROXY_URL", c.ProxyURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	var err error
	if c.FetchTimeout, err = getDuration("FETCH_TIMEOUT", c.FetchTimeout); err != nil {
		return err
	}
	if c.SearchTimeout, err = getDuration("SEARCH_TIMEOUT", c.SearchTimeout); err != nil {
		return err
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}
	return nil
}

// Validate checks ranges, required endpoints and backend selection.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AppPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SearchURL,
			validation.When(c.SearchBackend != BackendSerpAPI, validation.Required),
			validation.By(absoluteURL),
		),
		validation.Field(&c.ContentURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.SearchBackend, validation.Required, validation.In(BackendEndpoint, BackendSerpAPI)),
		validation.Field(&c.SerpAPIKey, validation.When(c.SearchBackend == BackendSerpAPI, validation.Required)),
		validation.Field(&c.ProxyURL, validation.By(absoluteURL)),
		validation.Field(&c.FetchTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.SearchTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
