package automodeler

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names for configuration.
const (
	// EnvBaseURL is the environment variable for the backend root URL.
	EnvBaseURL = "AUTOMODELER_BASE_URL"
	// EnvTimeout is the request timeout, as a Go duration or whole seconds.
	EnvTimeout = "AUTOMODELER_TIMEOUT"
	// EnvDebug is the environment variable to enable debug mode.
	EnvDebug = "AUTOMODELER_DEBUG"
)

// NewFromEnv creates a new client using environment variables for configuration.
// It reads AUTOMODELER_BASE_URL (falling back to DefaultBaseURL), and
// optionally AUTOMODELER_TIMEOUT and AUTOMODELER_DEBUG. Explicit options
// override the environment.
func NewFromEnv(opts ...ConfigOption) (*Client, error) {
	baseURL := os.Getenv(EnvBaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	envOpts := make([]ConfigOption, 0, 2)

	if raw := os.Getenv(EnvTimeout); raw != "" {
		d, err := parseTimeout(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvTimeout, err)
		}
		envOpts = append(envOpts, WithTimeout(d))
	}

	if debug := os.Getenv(EnvDebug); debug == "true" || debug == "1" {
		envOpts = append(envOpts, WithDebug(true))
	}

	return New(baseURL, append(envOpts, opts...)...)
}

// parseTimeout accepts "90s" style durations and bare seconds.
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
