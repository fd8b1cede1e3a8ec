package automodeler

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// HTTPHook is re-exported from pkg/http.
type HTTPHook = pkghttp.HTTPHook

// HTTPHookFunc is re-exported from pkg/http.
type HTTPHookFunc = pkghttp.HTTPHookFunc

// Default configuration values.
const (
	// DefaultBaseURL is where a locally started backend listens.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout is the default request timeout. Training requests run
	// synchronously on the backend, so it is generous.
	DefaultTimeout = 5 * time.Minute

	// DefaultPreviewCacheSize is the number of predefined dataset previews
	// kept in memory.
	DefaultPreviewCacheSize = 8

	// DefaultMaxResponseSize caps how much of a response body is read.
	DefaultMaxResponseSize = 32 << 20

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "automodeler-go/" + Version

	// MaxTimeout is the maximum allowed request timeout.
	MaxTimeout = time.Hour
)

// Config holds the configuration for the AutoModeler client.
type Config struct {
	// BaseURL is the backend's root URL (required).
	BaseURL string

	// HTTPClient is the HTTP client to use for requests.
	// The client is copied; a cookie jar and redirect policy are installed on
	// the copy so the caller's client is never mutated.
	HTTPClient *http.Client

	// Timeout is the request timeout.
	// Defaults to DefaultTimeout if not set.
	Timeout time.Duration

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// Debug enables debug logging to stderr when no logger is set.
	Debug bool

	// StructuredLogger is used for client logging.
	// If nil, logging is disabled unless Debug is true.
	StructuredLogger StructuredLogger

	// HTTPHooks are called before and after each HTTP request.
	HTTPHooks []HTTPHook

	// PreviewCacheSize is the number of predefined dataset previews cached in
	// memory. Zero disables the cache. New sets DefaultPreviewCacheSize.
	PreviewCacheSize int

	// MaxResponseSize caps the bytes read from a response body.
	// Defaults to DefaultMaxResponseSize if not set.
	MaxResponseSize int64
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Config{BaseURL: %q, Timeout: %v, PreviewCacheSize: %d, Debug: %v}",
		c.BaseURL, c.Timeout, c.PreviewCacheSize, c.Debug)
}

// applyDefaults sets default values for unset configuration options.
func (c *Config) applyDefaults() {
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxResponseSize == 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}

	if c.StructuredLogger == nil {
		if c.Debug {
			c.StructuredLogger = &stdLogger{logger: log.New(os.Stderr, "automodeler: ", log.LstdFlags)}
		} else {
			c.StructuredLogger = NopLogger{}
		}
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
}

// validate checks that the configuration is valid.
func (c *Config) validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: base URL must use http or https, got %q", ErrInvalidConfig, c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: base URL has no host: %q", ErrInvalidConfig, c.BaseURL)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	if c.Timeout > MaxTimeout {
		return fmt.Errorf("%w: timeout cannot exceed %v", ErrInvalidConfig, MaxTimeout)
	}
	if c.PreviewCacheSize < 0 {
		return fmt.Errorf("%w: preview cache size cannot be negative, got %d", ErrInvalidConfig, c.PreviewCacheSize)
	}
	if c.MaxResponseSize < 0 {
		return fmt.Errorf("%w: max response size cannot be negative", ErrInvalidConfig)
	}
	return nil
}
