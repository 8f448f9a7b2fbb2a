package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RemoteConfig holds the connection settings for the storefront backend.
type RemoteConfig struct {
	BaseURL string        `koanf:"baseUrl"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
}

// String returns a string representation of the remote configuration.
// The bearer token is masked.
func (c *RemoteConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Remote ---\n")
	b.WriteString(fmt.Sprintf("  baseUrl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  token: %s\n", maskToken(c.Token)))
	b.WriteString(fmt.Sprintf("  timeout: %v\n", c.Timeout))
	return b.String()
}

func (c *RemoteConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("remote base URL is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid remote base URL %q: %w", c.BaseURL, err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid remote timeout: %v", c.Timeout)
	}
	return nil
}

func maskToken(token string) string {
	if token == "" {
		return "<not configured>"
	}
	return "****"
}
