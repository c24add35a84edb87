package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "throttle.db")
}

func TestCheckUntilDenied(t *testing.T) {
	db := tempDB(t)

	for i := 0; i < 2; i++ {
		out, err := run(t, "check", "newsletter", "--db", db, "-o", "json")
		require.NoError(t, err)

		var v checkView
		require.NoError(t, json.Unmarshal([]byte(out), &v))
		assert.True(t, v.Allowed)
		assert.Equal(t, int64(1-i), v.Remaining)
		assert.Equal(t, "newsletter:anon:server", v.Key)
	}

	out, err := run(t, "check", "newsletter", "--db", db, "-o", "json")
	require.NoError(t, err)

	var v checkView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.False(t, v.Allowed)
	assert.Equal(t, int64(3600), v.RetryAfter)
	assert.Equal(t, "Too many requests. Please try again in 1 hours.", v.Message)
}

func TestCheckTableOutput(t *testing.T) {
	out, err := run(t, "check", "auth", "--db", tempDB(t), "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "auth:user:alice:server")
	assert.Contains(t, out, "allowed")
}

func TestCheckFingerprintFlags(t *testing.T) {
	db := tempDB(t)

	plain, err := run(t, "check", "api", "--db", db, "-o", "json")
	require.NoError(t, err)
	fingerprinted, err := run(t, "check", "api", "--db", db, "-o", "json",
		"--user-agent", "Mozilla/5.0", "--screen", "1920x1080", "--tz-offset", "-60")
	require.NoError(t, err)

	var a, b checkView
	require.NoError(t, json.Unmarshal([]byte(plain), &a))
	require.NoError(t, json.Unmarshal([]byte(fingerprinted), &b))
	assert.NotEqual(t, a.Key, b.Key)
	assert.Equal(t, int64(59), b.Remaining)

	_, err = run(t, "check", "api", "--db", db, "--screen", "wide")
	assert.Error(t, err)
}

func TestResetClearsKey(t *testing.T) {
	db := tempDB(t)

	for i := 0; i < 3; i++ {
		_, err := run(t, "check", "newsletter", "--db", db, "--user", "bob")
		require.NoError(t, err)
	}

	out, err := run(t, "reset", "newsletter", "--db", db, "--user", "bob")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset newsletter:user:bob:server")

	out, err = run(t, "check", "newsletter", "--db", db, "--user", "bob", "-o", "json")
	require.NoError(t, err)
	var v checkView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.True(t, v.Allowed)
}

func TestListEntries(t *testing.T) {
	db := tempDB(t)

	out, err := run(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "no stored throttle entries")

	_, err = run(t, "check", "contact", "--db", db)
	require.NoError(t, err)
	_, err = run(t, "check", "auth", "--db", db, "--user", "a:b")
	require.NoError(t, err)

	out, err = run(t, "list", "--db", db, "-o", "json")
	require.NoError(t, err)

	var views []entryView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "auth:user:a_cb:server", views[0].Key)
	assert.Equal(t, "contact:anon:server", views[1].Key)
	assert.Equal(t, int64(1), views[1].Count)
	assert.Nil(t, views[1].BlockedUntil)

	out, err = run(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "contact:anon:server")
	assert.Contains(t, out, "2 entries")
}

func TestSweep(t *testing.T) {
	db := tempDB(t)

	_, err := run(t, "check", "api", "--db", db)
	require.NoError(t, err)

	out, err := run(t, "sweep", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Evicted 0")

	time.Sleep(5 * time.Millisecond)

	out, err = run(t, "sweep", "--db", db, "--retention", "1ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Evicted 1")

	_, err = run(t, "sweep", "--db", db, "--retention", "0s")
	assert.Error(t, err)
}

func TestConfigsOverlay(t *testing.T) {
	overlay := filepath.Join(t.TempDir(), "throttle.yaml")
	require.NoError(t, os.WriteFile(overlay, []byte(`
categories:
  contact:
    max_requests: 1
  search:
    max_requests: 20
    window: 10s
    block_duration: 30s
`), 0o600))

	out, err := run(t, "configs", "--config", overlay, "-o", "json")
	require.NoError(t, err)

	var views []configView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 6)

	byName := make(map[string]configView, len(views))
	for _, v := range views {
		byName[v.Category] = v
	}
	assert.Equal(t, int64(1), byName["contact"].MaxRequests)
	assert.Equal(t, "15m0s", byName["contact"].BlockDuration)
	assert.Equal(t, "10s", byName["search"].Window)
	assert.True(t, byName["auth"].ExponentialBackoff)

	// The overlay drives checks too.
	db := tempDB(t)
	_, err = run(t, "check", "contact", "--db", db, "--config", overlay)
	require.NoError(t, err)
	out, err = run(t, "check", "contact", "--db", db, "--config", overlay, "-o", "json")
	require.NoError(t, err)
	var v checkView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.False(t, v.Allowed)
}

func TestConfigsTable(t *testing.T) {
	out, err := run(t, "configs")
	require.NoError(t, err)
	for _, name := range []string{"auth", "profile", "contact", "api", "newsletter"} {
		assert.Contains(t, out, name)
	}
}

func TestDBFromEnvironment(t *testing.T) {
	db := tempDB(t)
	t.Setenv("THROTTLE_DB", db)

	_, err := run(t, "check", "profile")
	require.NoError(t, err)

	_, err = os.Stat(db)
	require.NoError(t, err)

	out, err := run(t, "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "profile:anon:server")
}

func TestInvalidInput(t *testing.T) {
	_, err := run(t, "list", "--db", tempDB(t), "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")

	_, err = run(t, "check", "--db", tempDB(t))
	assert.Error(t, err)

	_, err = run(t, "configs", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "open config")
}
