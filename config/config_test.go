package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "HUDDLE_STATE", cfg.Storage.Bucket)
	assert.True(t, cfg.NATS.Embedded)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Run("rejects unknown backend", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Backend = "redis"
		assert.Error(t, cfg.Validate())
	})

	t.Run("nats backend requires a bucket", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.Backend = BackendNATS
		cfg.Storage.Bucket = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive sweep interval", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Session.SweepInterval = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "huddle.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: nats\n"), 0644))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, BackendNATS, cfg.Storage.Backend)
		assert.Equal(t, "HUDDLE_STATE", cfg.Storage.Bucket)
		assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	})

	t.Run("missing file surfaces os error", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("invalid yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "huddle.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage: [broken"), 0644))

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "huddle.yaml")

	cfg := DefaultConfig()
	cfg.Storage.Dir = "/var/lib/huddle"
	cfg.Metrics.ListenAddr = ":9101"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()

	base.Merge(&Config{
		Storage: StorageConfig{Dir: "/data"},
		NATS:    NATSConfig{URL: "nats://localhost:4222"},
		Session: SessionConfig{SweepInterval: 30 * time.Second},
	})

	assert.Equal(t, "/data", base.Storage.Dir)
	assert.Equal(t, BackendFile, base.Storage.Backend, "unset fields keep base values")
	assert.Equal(t, "nats://localhost:4222", base.NATS.URL)
	assert.False(t, base.NATS.Embedded, "an external URL disables the embedded server")
	assert.Equal(t, 30*time.Second, base.Session.SweepInterval)

	base.Merge(nil)
	assert.Equal(t, "/data", base.Storage.Dir)
}
