package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "docker", cfg.Scanner.Binary)
	assert.Equal(t, "zricethezav/gitleaks:latest", cfg.Scanner.Image)
	assert.Equal(t, "/code", cfg.Scanner.MountPoint)
	assert.Equal(t, "error_report.json", cfg.Scanner.ErrorReport)
	assert.Empty(t, cfg.Database.Driver)
	assert.Empty(t, cfg.Minio.Endpoint)
	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
scanner:
  image: zricethezav/gitleaks:v8.18.4
log:
  level: debug
database:
  driver: postgres
  host: db
  port: 5432
  user: scan
  password: secret
  name: leakscan
server:
  apiKeys: [k1, k2]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "zricethezav/gitleaks:v8.18.4", cfg.Scanner.Image)
	assert.Equal(t, "/code", cfg.Scanner.MountPoint)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "host=db port=5432 user=scan password=secret dbname=leakscan sslmode=disable", cfg.PostgresDSN())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "database:\n  driver: sqlite\n")

	_, err := Load(path)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "scanner: [")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolveExplicitPathMustExist(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveUsesEnv(t *testing.T) {
	path := writeConfig(t, "scanner:\n  mountPoint: /src\n")
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "/src", cfg.Scanner.MountPoint)
}

func TestMySQLDSN(t *testing.T) {
	cfg := Defaults()
	cfg.Database.User, cfg.Database.Password = "u", "p"
	cfg.Database.Host, cfg.Database.Port, cfg.Database.Name = "h", 3306, "n"
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}
