package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/claude/perfutils/internal/formula"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Formulas  FormulasConfig  `yaml:"formulas"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type FormulasConfig struct {
	// Default is used when a request names no formula.
	Default string `yaml:"default"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, fills defaults, then applies
// environment variable overrides. Env vars use the prefix PERFUTILS_:
//
//	PERFUTILS_SERVER_HOST, PERFUTILS_SERVER_PORT,
//	PERFUTILS_DB_DRIVER, PERFUTILS_DB_PATH,
//	PERFUTILS_DB_HOST, PERFUTILS_DB_PORT, PERFUTILS_DB_NAME,
//	PERFUTILS_DB_USER, PERFUTILS_DB_PASSWORD, PERFUTILS_DB_SSLMODE,
//	PERFUTILS_AUTH_API_KEY, PERFUTILS_TAILSCALE_ENABLED,
//	PERFUTILS_FORMULA
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PERFUTILS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PERFUTILS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PERFUTILS_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("PERFUTILS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PERFUTILS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PERFUTILS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PERFUTILS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PERFUTILS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PERFUTILS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PERFUTILS_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("PERFUTILS_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("PERFUTILS_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("PERFUTILS_FORMULA"); v != "" {
		cfg.Formulas.Default = v
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "perfutils.db"
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "perfutils"
	}
	if c.Formulas.Default == "" {
		c.Formulas.Default = formula.Brzycki.Name()
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("database.driver %q: want %q or %q", c.Database.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if _, err := formula.Lookup(c.Formulas.Default); err != nil {
		return fmt.Errorf("formulas.default: %w", err)
	}
	return nil
}
