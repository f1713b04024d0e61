// Package config loads API credentials and client tuning from the
// environment and the desired-state manifest from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultEndpoint is the production SiteHost API base URL.
const DefaultEndpoint = "https://api.sitehost.nz/1.2"

// Credentials identify one SiteHost account. They are immutable for the
// lifetime of an invocation.
type Credentials struct {
	Endpoint string
	APIKey   string
	ClientID string
}

// Timeouts holds configurable API client tuning values.
type Timeouts struct {
	APITimeout   time.Duration // per-request HTTP timeout
	JobPollLimit int           // maximum job polls before giving up
	JobMaxDelay  time.Duration // cap on the backoff between job polls
}

// LoadCredentials reads the account credentials from environment
// variables:
//
//   - SH_API_ENDPOINT (default: https://api.sitehost.nz/1.2)
//   - SH_API_KEY (required)
//   - SH_CLIENT_ID (required)
func LoadCredentials() (*Credentials, error) {
	creds := &Credentials{
		Endpoint: os.Getenv("SH_API_ENDPOINT"),
		APIKey:   os.Getenv("SH_API_KEY"),
		ClientID: os.Getenv("SH_CLIENT_ID"),
	}
	if creds.Endpoint == "" {
		creds.Endpoint = DefaultEndpoint
	}
	if creds.APIKey == "" {
		return nil, fmt.Errorf("SH_API_KEY must be set")
	}
	if creds.ClientID == "" {
		return nil, fmt.Errorf("SH_CLIENT_ID must be set")
	}
	return creds, nil
}

// LoadTimeouts loads tuning from environment variables. If a variable is
// not set or invalid, a default value is used.
//
// Environment Variables:
//   - SH_API_TIMEOUT (default: 60s)
//   - SH_API_RETRIES (default: 30)
//   - SH_API_RETRY_MAX_DELAY (default: 60s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		APITimeout:   parseDuration("SH_API_TIMEOUT", 60*time.Second),
		JobPollLimit: parseInt("SH_API_RETRIES", 30),
		JobMaxDelay:  parseDuration("SH_API_RETRY_MAX_DELAY", 60*time.Second),
	}
}

// parseDuration parses a duration from an environment variable. Bare
// integers are read as seconds for parity with the API's documented
// knobs. If the variable is not set or parsing fails, the default value
// is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable. If the
// variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return n
}
