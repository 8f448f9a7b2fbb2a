package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/cartsync/pkg/config"
	"github.com/abgdnv/cartsync/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	Remote config.RemoteConfig `koanf:"remote"`
	Store  config.StoreConfig  `koanf:"store"`
	Log    config.LogConfig    `koanf:"log"`
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Storefront Configuration ---\n")
	b.WriteString(fmt.Sprintf("  remote.baseUrl: %s\n", c.Remote.BaseURL))
	b.WriteString(fmt.Sprintf("  remote.timeout: %v\n", c.Remote.Timeout))
	b.WriteString(fmt.Sprintf("  store.dir: %s\n", c.Store.Dir))
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
