package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when MAPCOLOR_CONFIG is not set.
const DefaultPath = "service.yaml"

type ServiceConfig struct {
	Version int `yaml:"version"`
	Service struct {
		Name       string `yaml:"name"`
		InstanceID string `yaml:"instance_id"`
	} `yaml:"service"`
	Network struct {
		HTTPPort    int      `yaml:"http_port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"network"`
	Solver   SolverConfig   `yaml:"solver"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SolverConfig bounds the work a single request may cause.
// MaxSteps defaults to 1,000,000 and a negative value disables the cap.
// Zero MaxNodes or MaxColors means no limit.
type SolverConfig struct {
	MaxSteps  int           `yaml:"max_steps"`
	MaxNodes  int           `yaml:"max_nodes"`
	MaxColors int           `yaml:"max_colors"`
	Timeout   time.Duration `yaml:"timeout"`
}

type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BrokerURL   string `yaml:"broker_url"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type PostgresConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is present.
func Default() *ServiceConfig {
	cfg := &ServiceConfig{Version: 1}
	cfg.applyDefaults()
	return cfg
}

// HTTPPort returns the configured HTTP port, defaulting to 8000 if not set.
func (c *ServiceConfig) HTTPPort() int {
	if c.Network.HTTPPort == 0 {
		return 8000
	}
	return c.Network.HTTPPort
}

// Name returns the service name used in logs and metrics.
func (c *ServiceConfig) Name() string {
	if c.Service.Name == "" {
		return "mapcolor"
	}
	return c.Service.Name
}

// InstanceID identifies this process in persisted events. Defaults to the hostname.
func (c *ServiceConfig) InstanceID() string {
	if c.Service.InstanceID != "" {
		return c.Service.InstanceID
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return c.Name()
}

func (c *ServiceConfig) applyDefaults() {
	if len(c.Network.CORSOrigins) == 0 {
		c.Network.CORSOrigins = []string{"*"}
	}
	if c.Solver.MaxSteps == 0 {
		c.Solver.MaxSteps = 1_000_000
	}
	if c.Solver.Timeout == 0 {
		c.Solver.Timeout = 10 * time.Second
	}
	if c.MQTT.BrokerURL == "" {
		c.MQTT.BrokerURL = "tcp://localhost:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "mapcolor"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "mapcolor"
	}
}

// applyEnv lets a few deployment-specific values be overridden without
// editing service.yaml.
func (c *ServiceConfig) applyEnv() {
	if url := os.Getenv("MQTT_URL"); url != "" {
		c.MQTT.BrokerURL = url
	}
	if os.Getenv("MAPCOLOR_MQTT_ENABLED") == "true" {
		c.MQTT.Enabled = true
	}
	if os.Getenv("MAPCOLOR_POSTGRES_ENABLED") == "true" {
		c.Postgres.Enabled = true
	}
}

// Path returns the config file path from MAPCOLOR_CONFIG or DefaultPath.
func Path() string {
	if p := os.Getenv("MAPCOLOR_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// LoadServiceConfig reads service.yaml. A missing file yields Default().
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg ServiceConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported service.yaml version: %d", cfg.Version)
	}
	if cfg.Solver.MaxNodes < 0 || cfg.Solver.MaxColors < 0 {
		return nil, fmt.Errorf("solver.max_nodes and solver.max_colors must not be negative")
	}
	if cfg.Solver.Timeout < 0 {
		return nil, fmt.Errorf("solver.timeout must not be negative")
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}
