// Package config loads the process-wide configuration once at startup.
// The resulting struct is immutable and injected into components; nothing
// reads the environment after Load returns.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"vacinajp"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// App is the full application configuration.
type App struct {
	// HTTP
	Port string `envconfig:"PORT" default:"8080"`

	// Store selects the persistence backend: "postgres" or "memory".
	// The memory store is for local development only.
	Store string `envconfig:"STORE" default:"postgres"`

	Database Database

	// Redis site-directory cache; disabled when the address is empty.
	RedisAddr        string `envconfig:"REDIS_ADDR" default:""`
	SiteCacheTTLMins int    `envconfig:"SITE_CACHE_TTL_MIN" default:"60"`

	// AMQP event publishing; disabled when the URL is empty.
	AMQPURL      string `envconfig:"AMQP_URL" default:""`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"vacinajp.events"`
}

// Load reads configuration from the environment.
func Load() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, fmt.Errorf("load config: %w", err)
	}
	return c, nil
}
