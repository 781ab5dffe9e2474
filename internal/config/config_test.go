package config

import (
	"os"
	"path/filepath"
	"testing"

	"grocerybi/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestGetConfigPath(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".grocerybi"), GetConfigPath())
	assert.Equal(t, filepath.Join(home, ".grocerybi", "config.yaml"), GetConfigFile())
}

func TestConfigFileOverride(t *testing.T) {
	tempDir := t.TempDir()
	override := filepath.Join(tempDir, "custom.yaml")
	t.Setenv(EnvConfigFile, override)

	assert.Equal(t, tempDir, GetConfigPath())
	assert.Equal(t, override, GetConfigFile())
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv(EnvConfigFile, filepath.Join(tempDir, "config.yaml"))

	assert.False(t, Exists())

	testConfig := models.Default()
	testConfig.Dataset.Path = "/data/grocery.csv"
	testConfig.Warehouse.Driver = "mysql"
	testConfig.Warehouse.Host = "localhost"
	testConfig.Normalize.Aliases = map[string]string{"LF": "Low Fat", "reg": "Regular"}

	require.NoError(t, Save(testConfig))
	assert.True(t, Exists())

	info, err := os.Stat(GetConfigFile())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/grocery.csv", loaded.Dataset.Path)
	assert.Equal(t, "mysql", loaded.Warehouse.Driver)
	assert.Equal(t, "Regular", loaded.Normalize.Aliases["reg"])
	assert.Equal(t, 500, loaded.Warehouse.BatchSize)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, models.SourceCSV, config.Dataset.Source)
	assert.Equal(t, "table", config.Output.Format)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataset: [unclosed"), 0600))

	_, err := LoadFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GROCERYBI_TEST_DOTENV=loaded\n"), 0600))
	t.Setenv("GROCERYBI_TEST_DOTENV", "")
	os.Unsetenv("GROCERYBI_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "loaded", os.Getenv("GROCERYBI_TEST_DOTENV"))
}

func TestPasswordKeyringFallback(t *testing.T) {
	keyring.MockInit()

	config := models.Default()
	config.Warehouse.Driver = "postgres"
	config.Warehouse.Username = "analyst"
	config.Warehouse.Host = "db.internal"

	require.NoError(t, ResolvePassword(config))
	assert.Empty(t, config.Warehouse.Password)

	require.NoError(t, StorePassword(config.Warehouse, "s3cret"))
	require.NoError(t, ResolvePassword(config))
	assert.Equal(t, "s3cret", config.Warehouse.Password)

	config.Warehouse.Password = "explicit"
	require.NoError(t, ResolvePassword(config))
	assert.Equal(t, "explicit", config.Warehouse.Password)

	require.NoError(t, DeletePassword(config.Warehouse))
	require.NoError(t, DeletePassword(config.Warehouse))
}
