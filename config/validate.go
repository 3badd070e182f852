package config

import (
	"fmt"
	"strings"

	"github.com/AbdelrahmanSuliman/Graduation-Project/pkg/validation"
)

// Validate checks field constraints and the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.Model.Hyperparameters.Validate(); err != nil {
		return fmt.Errorf("model.hyperparameters: %w", err)
	}

	switch c.Catalog.Source {
	case CatalogSourceFile:
		if strings.TrimSpace(c.Catalog.Path) == "" {
			return fmt.Errorf("catalog.path is required when catalog.source is %q", CatalogSourceFile)
		}
	case CatalogSourceRedis:
		if strings.TrimSpace(c.Catalog.Redis.Addr) == "" {
			return fmt.Errorf("catalog.redis.addr is required when catalog.source is %q", CatalogSourceRedis)
		}
	}
	if c.Catalog.Source != CatalogSourceFile && c.Catalog.Size > c.Model.Hyperparameters.NumItems {
		return fmt.Errorf("catalog.size %d exceeds model.hyperparameters.num_items %d",
			c.Catalog.Size, c.Model.Hyperparameters.NumItems)
	}

	for _, o := range c.CORS.AllowedOrigins {
		if o == "*" && c.CORS.AllowCredentials {
			return fmt.Errorf("cors.allowed_origins cannot contain * when cors.allow_credentials is set")
		}
	}
	return nil
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
