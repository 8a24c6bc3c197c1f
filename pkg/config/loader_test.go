package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/pkg/config"
)

type successConfig struct {
	Name    string `env:"MENUKIT_TEST_NAME" envDefault:"default"`
	Count   int    `env:"MENUKIT_TEST_COUNT" envDefault:"42"`
	Enabled bool   `env:"MENUKIT_TEST_ENABLED" envDefault:"true"`
}

type defaultConfig struct {
	Name  string `env:"MENUKIT_TEST_DEFAULT_NAME" envDefault:"fallback"`
	Count int    `env:"MENUKIT_TEST_DEFAULT_COUNT" envDefault:"7"`
}

type cachedConfig struct {
	Value string `env:"MENUKIT_TEST_CACHED" envDefault:"first"`
}

type requiredConfig struct {
	Value string `env:"MENUKIT_TEST_REQUIRED,required"`
}

type fileConfig struct {
	Value string `env:"MENUKIT_TEST_FROM_FILE"`
	Kept  string `env:"MENUKIT_TEST_KEPT"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("MENUKIT_TEST_NAME", "menukit")
	t.Setenv("MENUKIT_TEST_COUNT", "100")
	t.Setenv("MENUKIT_TEST_ENABLED", "false")

	var cfg successConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "menukit", cfg.Name)
	assert.Equal(t, 100, cfg.Count)
	assert.False(t, cfg.Enabled)
}

func TestLoad_DefaultValues(t *testing.T) {
	var cfg defaultConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "fallback", cfg.Name)
	assert.Equal(t, 7, cfg.Count)
}

func TestLoad_CachedPerType(t *testing.T) {
	var first cachedConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "first", first.Value)

	t.Setenv("MENUKIT_TEST_CACHED", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.ResetCache()

	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&requiredConfig{}) })
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *successConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MENUKIT_TEST_FROM_FILE=loaded\nMENUKIT_TEST_KEPT=file\n"), 0o600))

	t.Setenv("MENUKIT_TEST_KEPT", "process")
	// t.Setenv restores the previous value; make sure the variable is unset while loading.
	t.Setenv("MENUKIT_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("MENUKIT_TEST_FROM_FILE"))

	require.NoError(t, config.LoadEnv(path))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "loaded", cfg.Value)
	assert.Equal(t, "process", cfg.Kept)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(t.TempDir(), "missing.env")), config.ErrLoadingEnvFile)
	assert.NoError(t, config.LoadEnv())
}
