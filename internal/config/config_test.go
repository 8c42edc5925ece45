package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envNames = []string{
	"TABLE_NAME", "TEMPLATE_TABLE_NAME", "ORGANISATIONS_TABLE_NAME", "STORAGE_DRIVER",
	"AWS_REGION", "DYNAMODB_ENDPOINT", "DATABASE_DSN", "REDIS_URL", "JWT_SECRET", "APP_ENV", "PORT",
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	for _, name := range envNames {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const sampleYAML = `
port: 3000
env: Production
jwt_secret: s3cret
allowed_origins: [" https://*.example.com ", ""]
storage:
  driver: sql
  disruptions_table: disruptions
  templates_table: templates
  organisations_table: organisations
database:
  dsn: "root:pw@tcp(127.0.0.1:3306)/disruptions?parseTime=true"
rate_limit: 20
paths:
  logs: logs
`

func TestLoad(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, []string{"https://*.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, DriverSQL, cfg.Storage.Driver)
	assert.Equal(t, "templates", cfg.Storage.TemplatesTable)
	assert.Equal(t, defaultPageSize, cfg.Storage.PageSize)
	assert.Equal(t, defaultRegion, cfg.DynamoDB.Region)
	assert.Equal(t, int64(20), cfg.RateLimit)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "logs"), cfg.LogDir())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABLE_NAME", "Disruptions-prod")
	t.Setenv("STORAGE_DRIVER", "DynamoDB")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("PORT", "9000")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "Disruptions-prod", cfg.Storage.DisruptionsTable)
	assert.Equal(t, DriverDynamoDB, cfg.Storage.Driver)
	assert.Equal(t, "eu-west-1", cfg.DynamoDB.Region)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("TABLE_NAME", "d")
	t.Setenv("TEMPLATE_TABLE_NAME", "t")
	t.Setenv("ORGANISATIONS_TABLE_NAME", "o")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, DriverDynamoDB, cfg.Storage.Driver)
	assert.Empty(t, cfg.LogDir())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = Load(writeConfig(t, "port: 3000\nunknown_key: 1\n"))
	assert.Error(t, err, "unknown keys are rejected")

	t.Setenv("PORT", "eighty")
	_, err = Load(writeConfig(t, sampleYAML))
	assert.ErrorContains(t, err, "PORT")
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		cfg := defaultAppConfig()
		cfg.Storage.DisruptionsTable = "d"
		cfg.Storage.TemplatesTable = "t"
		cfg.Storage.OrganisationsTable = "o"
		return cfg
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Storage.Driver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unknown storage driver")

	cfg = valid()
	cfg.Storage.Driver = DriverSQL
	assert.ErrorContains(t, cfg.Validate(), "database.dsn")

	cfg = valid()
	cfg.Storage.Driver = DriverRedis
	assert.ErrorContains(t, cfg.Validate(), "redis_url")

	cfg = valid()
	cfg.Storage.TemplatesTable = ""
	assert.ErrorContains(t, cfg.Validate(), "storage.templates_table")

	cfg = valid()
	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Env = "production"
	assert.ErrorContains(t, cfg.Validate(), "jwt_secret")
	cfg.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ProductionNeedsJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("TABLE_NAME", "d")
	t.Setenv("TEMPLATE_TABLE_NAME", "t")
	t.Setenv("ORGANISATIONS_TABLE_NAME", "o")
	t.Chdir(t.TempDir())

	_, err := Load("")
	assert.ErrorContains(t, err, "jwt_secret")

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestApplyEnv_IgnoresBlankValues(t *testing.T) {
	cfg := defaultAppConfig()
	cfg.JWTSecret = "from-file"
	lookup := func(name string) (string, bool) {
		if name == "JWT_SECRET" {
			return "  ", true
		}
		return "", false
	}
	require.NoError(t, applyEnv(&cfg, lookup))
	assert.Equal(t, "from-file", cfg.JWTSecret)
}
