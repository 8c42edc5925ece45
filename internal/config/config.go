package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at configPath, applies environment overrides and
// validates the result. A missing file at the default path is not an error;
// the service can be configured from the environment alone.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	cfg.baseDir = filepath.Dir(path)
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Storage: StorageConfig{
			Driver:   DriverDynamoDB,
			PageSize: defaultPageSize,
		},
		DynamoDB: DynamoDBConfig{Region: defaultRegion},
	}
}

// applyEnv overrides file values with the deployment environment variables.
func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"TABLE_NAME":               &cfg.Storage.DisruptionsTable,
		"TEMPLATE_TABLE_NAME":      &cfg.Storage.TemplatesTable,
		"ORGANISATIONS_TABLE_NAME": &cfg.Storage.OrganisationsTable,
		"STORAGE_DRIVER":           &cfg.Storage.Driver,
		"AWS_REGION":               &cfg.DynamoDB.Region,
		"DYNAMODB_ENDPOINT":        &cfg.DynamoDB.Endpoint,
		"DATABASE_DSN":             &cfg.Database.DSN,
		"REDIS_URL":                &cfg.RedisURL,
		"JWT_SECRET":               &cfg.JWTSecret,
		"APP_ENV":                  &cfg.Env,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	return nil
}

func normalize(cfg *AppConfig) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.PageSize <= 0 {
		cfg.Storage.PageSize = defaultPageSize
	}
	if cfg.DynamoDB.Region == "" {
		cfg.DynamoDB.Region = defaultRegion
	}
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	cfg.AllowedOrigins = origins
}

// Validate rejects configurations the server cannot start with.
func (c *AppConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Storage.Driver {
	case DriverDynamoDB:
	case DriverSQL:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required by the sql storage driver")
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required by the redis storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	tables := []struct{ name, value string }{
		{"storage.disruptions_table", c.Storage.DisruptionsTable},
		{"storage.templates_table", c.Storage.TemplatesTable},
		{"storage.organisations_table", c.Storage.OrganisationsTable},
	}
	for _, t := range tables {
		if t.value == "" {
			return fmt.Errorf("%s is required", t.name)
		}
	}
	// The built-in signing key is for development only.
	if !c.IsDev() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt_secret is required when env is %q", c.Env)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate_limit %d, expected >= 0", c.RateLimit)
	}
	return nil
}
