package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestParseArgs_Defaults(t *testing.T) {
	// run from an empty directory so no config.json is picked up
	t.Chdir(t.TempDir())

	opts, err := ParseArgs(nil, env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":3001", opts.Port)
	assert.Equal(t, models.DefaultModel, opts.Model)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, int64(10<<20), opts.MaxBodyBytes)
	assert.Equal(t, []string{"*"}, opts.Origins)
	assert.Empty(t, opts.APIKey)
	assert.False(t, opts.TLSEnabled())
}

func TestParseArgs_Flags(t *testing.T) {
	t.Chdir(t.TempDir())

	opts, err := ParseArgs([]string{
		"-a", "127.0.0.1:9000",
		"-model", "gemini-2.0-flash",
		"-max-body", "1024",
		"-origins", "http://a.test, http://b.test",
		"-tls-cert", "server.crt", "-tls-key", "server.key",
	}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", opts.Port)
	assert.Equal(t, "gemini-2.0-flash", opts.Model)
	assert.Equal(t, int64(1024), opts.MaxBodyBytes)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, opts.Origins)
	assert.True(t, opts.TLSEnabled())
}

func TestParseArgs_NoKeyFlag(t *testing.T) {
	_, err := ParseArgs([]string{"-gemini-api-key", "secret"}, env(nil))
	assert.Error(t, err)
}

func TestParseArgs_JSONFile(t *testing.T) {
	path := writeFile(t, "proxy.json", `{"address":":4000","geminiApiKey":"from-file","model":"file-model","origins":["http://x.test"]}`)

	opts, err := ParseArgs([]string{"-c", path}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, ":4000", opts.Port)
	assert.Equal(t, "from-file", opts.APIKey)
	assert.Equal(t, "file-model", opts.Model)
	assert.Equal(t, []string{"http://x.test"}, opts.Origins)
	assert.Equal(t, "info", opts.LogLevel, "unset file fields keep defaults")
}

func TestParseArgs_YAMLFile(t *testing.T) {
	path := writeFile(t, "proxy.yaml", "address: \":5000\"\ngeminiApiKey: yaml-key\nlogLevel: debug\nmaxBodyBytes: 2048\n")

	opts, err := ParseArgs(nil, env(map[string]string{"CONFIG": path}))
	require.NoError(t, err)

	assert.Equal(t, ":5000", opts.Port)
	assert.Equal(t, "yaml-key", opts.APIKey)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, int64(2048), opts.MaxBodyBytes)
}

func TestParseArgs_Precedence(t *testing.T) {
	path := writeFile(t, "proxy.json", `{"address":":4000","model":"file-model","logLevel":"warn","geminiApiKey":"file-key"}`)

	opts, err := ParseArgs(
		[]string{"-c", path, "-a", ":4001", "-model", "flag-model"},
		env(map[string]string{"GEMINI_MODEL": "env-model", "GEMINI_API_KEY": "env-key"}),
	)
	require.NoError(t, err)

	assert.Equal(t, ":4001", opts.Port, "flag beats file")
	assert.Equal(t, "env-model", opts.Model, "env beats flag")
	assert.Equal(t, "warn", opts.LogLevel, "file beats default")
	assert.Equal(t, "env-key", opts.APIKey, "env beats file")
}

func TestParseArgs_PortEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	opts, err := ParseArgs(nil, env(map[string]string{"PORT": "8080"}))
	require.NoError(t, err)
	assert.Equal(t, ":8080", opts.Port)

	opts, err = ParseArgs(nil, env(map[string]string{"PORT": "8080", "SERVER_ADDRESS": "0.0.0.0:9090"}))
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", opts.Port)
}

func TestParseArgs_FileErrors(t *testing.T) {
	_, err := ParseArgs([]string{"-config", filepath.Join(t.TempDir(), "missing.json")}, env(nil))
	assert.Error(t, err, "an explicitly requested file must exist")

	bad := writeFile(t, "bad.json", "{not json")
	_, err = ParseArgs([]string{"-c", bad}, env(nil))
	assert.Error(t, err)
}

func TestParseArgs_InvalidMaxBody(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := ParseArgs([]string{"-max-body", "0"}, env(nil))
	assert.Error(t, err)
}
