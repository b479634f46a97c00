package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"FINNHUB_TOKEN", "SQLITE_PATH", "MODEL_PATH", "MODEL_STORE", "REDIS_ADDR",
	"REDIS_PASSWORD", "REDIS_DB", "MODEL_KEY", "HTTP_ADDR", "LOG_LEVEL",
	"CV_FOLDS", "FOLD_POLICY", "BUILD_WORKERS", "LEARNERS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	c := fromEnv()

	assert.Equal(t, "data/mltrainingdata.db", c.SQLitePath)
	assert.Equal(t, "data/model.json", c.ModelPath)
	assert.Equal(t, "file", c.ModelStore)
	assert.False(t, c.UseRedis())
	assert.Equal(t, "localhost:6379", c.RedisAddr)
	assert.Equal(t, "model:forecast:current", c.ModelKey)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 10, c.CVFolds)
	assert.Equal(t, "average", c.FoldPolicy)
	assert.Equal(t, 0, c.BuildWorkers)
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_STORE", "Redis")
	t.Setenv("CV_FOLDS", "4")
	t.Setenv("BUILD_WORKERS", "oops")
	t.Setenv("FINNHUB_TOKEN", "tok")

	c := fromEnv()
	assert.True(t, c.UseRedis())
	assert.Equal(t, 4, c.CVFolds)
	assert.Equal(t, 0, c.BuildWorkers, "invalid ints fall back")
	assert.Equal(t, "tok", c.RequireFinnhub())
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=:9999\nCV_FOLDS=3\n"), 0o600))

	t.Setenv("CV_FOLDS", "7")
	os.Unsetenv("HTTP_ADDR")
	require.NoError(t, godotenv.Load(path))
	t.Cleanup(func() { os.Unsetenv("HTTP_ADDR") })

	c := fromEnv()
	assert.Equal(t, ":9999", c.HTTPAddr)
	assert.Equal(t, 7, c.CVFolds)
}
