package config

import (
	"fmt"
	"strings"
)

// requiredFields maps a description to an accessor, used by ValidateConfig.
var requiredFields = []struct {
	name  string
	value func(*Config) string
}{
	{"SERVER_PORT", func(c *Config) string { return c.ServerPort }},
	{"DB_HOST", func(c *Config) string { return c.DBHost }},
	{"DB_PORT", func(c *Config) string { return c.DBPort }},
	{"DB_USER", func(c *Config) string { return c.DBUser }},
	{"DB_NAME", func(c *Config) string { return c.DBName }},
	{"JWT_SECRET", func(c *Config) string { return c.JWTSecret }},
}

// ValidateConfig checks that every field the server cannot run without is
// set. In production the default JWT secret is rejected outright.
func ValidateConfig(cfg *Config) error {
	var errors []string

	for _, field := range requiredFields {
		if field.value(cfg) == "" {
			errors = append(errors, fmt.Sprintf("required configuration %s is not set", field.name))
		}
	}

	if IsProduction() && cfg.JWTSecret == "your-secret-key" {
		errors = append(errors, "JWT_SECRET must be set to a real secret in production")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "\n"))
	}
	return nil
}
