package config

import (
	"strings"
	"time"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// ServiceName prefixes environment variables, e.g. CATALOG_SERVER_PORT.
const ServiceName = "catalog"

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Database   config.DatabaseConfig  `koanf:"database"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	NATS       config.NATSConfig      `koanf:"nats"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
}

// Defaults are applied before config.yaml, .env and the environment.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":               3000,
		"server.maxheaderbytes":     1 << 20,
		"server.timeout.read":       10 * time.Second,
		"server.timeout.write":      10 * time.Second,
		"server.timeout.idle":       60 * time.Second,
		"server.timeout.readheader": 5 * time.Second,

		"database.driver":     config.DriverMongo,
		"database.url":        "mongodb://localhost:27017",
		"database.name":       "nodeproj",
		"database.collection": "products",
		"database.timeout":    10 * time.Second,

		"log.level": "info",

		"pprof.enabled": false,
		"pprof.addr":    "localhost:6060",

		"shutdown.timeout": 15 * time.Second,

		"nats.enabled": false,
		"nats.url":     "nats://localhost:4222",
		"nats.timeout": 5 * time.Second,

		"telemetry.enabled":                  false,
		"telemetry.traces.otlphttp.endpoint": "localhost:4318",
		"telemetry.traces.otlphttp.insecure": true,
		"telemetry.traces.otlphttp.timeout":  5 * time.Second,
		"telemetry.metrics.enabled":          false,
	}
}

// Load reads the catalog configuration.
func Load() (*Config, error) {
	return configloader.Load[*Config](ServiceName, Defaults())
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Database.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.Database,
		&c.Log,
		&c.PProf,
		&c.Shutdown,
		&c.NATS,
		&c.Telemetry,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
