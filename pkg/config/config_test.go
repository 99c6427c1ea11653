package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/ourtrips/pkg/ourtrips/vision"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, "ourtrips.yaml", `
server:
  port: 9090
  allowed_origins: ["https://ourtrips.example"]
  request_timeout: 5s
storage:
  db_path: /var/lib/ourtrips/db.sqlite3
log:
  level: debug
vision:
  timeout: 3s
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, []string{"https://ourtrips.example"}, c.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Second, c.Server.RequestTimeout)
	assert.Equal(t, 2*time.Minute, c.Server.UploadTimeout, "unset keys keep defaults")
	assert.Equal(t, "/var/lib/ourtrips/db.sqlite3", c.Storage.DBPath)
	assert.Equal(t, "ourtrips-bucket", c.Storage.BucketDir)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 3*time.Second, c.Vision.Timeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvDBPath, "/tmp/env.sqlite3")
	t.Setenv(EnvBucketDir, "/tmp/env-bucket")
	t.Setenv(EnvVisionAPIKey, "secret")
	t.Setenv(EnvPort, "7000")

	c, err := Load(writeFile(t, "c.yaml", "storage:\n  db_path: file.sqlite3\n"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.sqlite3", c.Storage.DBPath)
	assert.Equal(t, "/tmp/env-bucket", c.Storage.BucketDir)
	assert.Equal(t, "secret", c.Vision.APIKey)
	assert.Equal(t, 7000, c.Server.Port)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "server: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "port.yaml", "server:\n  port: 70000\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "level.yaml", "log:\n  level: loud\n"))
	assert.Error(t, err)

	t.Setenv(EnvPort, "eighty")
	_, err = Load("")
	assert.Error(t, err)
}

func TestDetectorSelection(t *testing.T) {
	c := Default()
	d, err := c.Detector()
	require.NoError(t, err)
	assert.Nil(t, d, "no provider configured")

	c.Vision.APIKey = "k"
	c.Vision.Endpoint = "http://localhost:1/annotate"
	d, err = c.Detector()
	require.NoError(t, err)
	cloud, ok := d.(*vision.CloudClient)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:1/annotate", cloud.Endpoint)

	c.Vision.Fixture = writeFile(t, "fixture.yaml", "default:\n  - name: Pantheon\n    confidence: 0.5\n")
	d, err = c.Detector()
	require.NoError(t, err)
	_, ok = d.(*vision.FixtureDetector)
	assert.True(t, ok, "fixture wins over api key")

	c.Vision.Fixture = filepath.Join(t.TempDir(), "nope.yaml")
	d, err = c.Detector()
	assert.Error(t, err)
	assert.Nil(t, d)
}

func TestServiceOptions(t *testing.T) {
	c := Default()
	opts, err := c.ServiceOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	c.Vision.APIKey = "k"
	opts, err = c.ServiceOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}
