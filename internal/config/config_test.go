package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, used, err := Load(nil, "")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, Config{
		Prefix:  ".",
		Branch:  "master",
		Bind:    "localhost:8080",
		Net:     "tcp",
		BaseURL: "http://localhost:8080",
		APIURL:  "http://localhost:8080",
		Timeout: 10 * time.Second,
	}, c)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "glubcms.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestFile(t *testing.T) {
	p := writeConfig(t, "prefix: /srv/site\ngit: true\nbind: /run/glubcms.sock\nnet: unix\nbase_url: https://example.org\ntimeout: 3s\n")

	c, used, err := Load(nil, p)
	require.NoError(t, err)
	assert.Equal(t, p, used)
	assert.Equal(t, "/srv/site", c.Prefix)
	assert.True(t, c.Git)
	assert.Equal(t, "master", c.Branch)
	assert.Equal(t, "/run/glubcms.sock", c.Bind)
	assert.Equal(t, "unix", c.Net)
	assert.Equal(t, "https://example.org", c.BaseURL)
	assert.Equal(t, 3*time.Second, c.Timeout)
}

func TestPrecedence(t *testing.T) {
	p := writeConfig(t, "bind: file:1\nbranch: file\nbase_url: https://file.example.org\n")
	t.Setenv("GLUBCMS_BIND", "env:2")
	t.Setenv("GLUBCMS_BASE_URL", "https://env.example.org")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("bind", "localhost:8080", "")
	flags.String("base-url", "", "")
	flags.String("branch", "master", "")
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--bind=flag:3"}))

	c, _, err := Load(flags, p)
	require.NoError(t, err)
	assert.Equal(t, "flag:3", c.Bind)
	assert.Equal(t, "https://env.example.org", c.BaseURL)
	assert.Equal(t, "file", c.Branch)
}

func TestLoadErrors(t *testing.T) {
	_, _, err := Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, _, err = Load(nil, writeConfig(t, "bind: [unterminated\n"))
	assert.Error(t, err)

	_, _, err = Load(nil, writeConfig(t, "timeout: soon\n"))
	assert.Error(t, err)
}
