package registry

import (
	"errors"
	"net/url"
	"time"

	"github.com/otec/backoffice/internal/infrastructure/config"
)

const (
	defaultRequestTimeout   = 30 * time.Second
	defaultMaxResponseBytes = 10 * 1024 * 1024
)

// Errors for registry configuration
var (
	ErrConfigMissingEndpoint = errors.New("registry: endpoint is required")
	ErrConfigInvalidEndpoint = errors.New("registry: endpoint must be an absolute http(s) URL")
)

// Config holds the settings of the sworn statement registry client
type Config struct {
	// Endpoint receives the POST with the declaration query
	Endpoint string
	// Timeout bounds a single call, including reading the body
	Timeout time.Duration
	// MaxResponseBytes caps how much of the response body is read
	MaxResponseBytes int64
}

// ConfigFrom builds the client configuration from sync settings
func ConfigFrom(sc config.SyncConfig) *Config {
	return &Config{
		Endpoint:         sc.Endpoint,
		Timeout:          sc.RequestTimeout,
		MaxResponseBytes: sc.MaxResponseBytes,
	}
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrConfigMissingEndpoint
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrConfigInvalidEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultRequestTimeout
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = defaultMaxResponseBytes
	}
	return nil
}
