package config

import (
	"path/filepath"
	"strings"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 8080
	defaultEnv      = "development"
	defaultRegion   = "eu-west-2"
	defaultPageSize = 200

	DriverDynamoDB = "dynamodb"
	DriverSQL      = "sql"
	DriverRedis    = "redis"
)

// AppConfig holds runtime startup configuration loaded from YAML and the
// environment.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Storage        StorageConfig  `yaml:"storage"`
	DynamoDB       DynamoDBConfig `yaml:"dynamodb"`
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	// RateLimit is the number of requests per second allowed per
	// organisation. Zero disables it.
	RateLimit int64       `yaml:"rate_limit"`
	Paths     PathsConfig `yaml:"paths"`

	// baseDir anchors relative paths; it is the config file's directory.
	baseDir string
}

type StorageConfig struct {
	Driver             string `yaml:"driver"`
	DisruptionsTable   string `yaml:"disruptions_table"`
	TemplatesTable     string `yaml:"templates_table"`
	OrganisationsTable string `yaml:"organisations_table"`
	PageSize           int    `yaml:"page_size"`
}

type DynamoDBConfig struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// DatabaseConfig configures the MySQL store used by the sql driver.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type PathsConfig struct {
	Logs string `yaml:"logs"`
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// LogDir returns the log directory, or "" when file logging is off.
// Relative paths are taken from the directory holding the config file.
func (c *AppConfig) LogDir() string {
	dir := strings.TrimSpace(c.Paths.Logs)
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.baseDir, dir)
}
