package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "client.json", map[string]any{
		"server_endpoint_addr":  "www.example:9000",
		"online_check_interval": "10s",
		"request_timeout":       int64(2 * time.Second),
		"cache_ttl":             "1m",
		"s3_bucket":             "photos",
	})

	t.Run("overlays present fields only", func(t *testing.T) {
		cfg := &Config{ClientID: "keep", RequestTimeout: time.Hour}
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:9000", cfg.ServerEndpointAddr)
		assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
		assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
		assert.Equal(t, time.Minute, cfg.CacheTTL)
		assert.Equal(t, "photos", cfg.S3Bucket)
		assert.Equal(t, "keep", cfg.ClientID)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		cfg := &Config{ServerEndpointAddr: "defaults:1234"}
		require.NoError(t, parseJson(cfg, nil))
		assert.Equal(t, "defaults:1234", cfg.ServerEndpointAddr)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		assert.Error(t, parseJson(&Config{}, []string{"-c", bad}))
	})
}
