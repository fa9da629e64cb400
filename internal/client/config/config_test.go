package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, "bulletin.db", c.StateFile)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.NoError(t, c.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_endpoint_addr": "json:1",
		"state_file": "json.db",
		"request_timeout": "3s"
	}`), 0o600))

	cfg, err := load([]string{"-c", path, "-a", "flag:2"})
	require.NoError(t, err)

	want := &Config{ServerEndpointAddr: "flag:2", StateFile: "json.db", RequestTimeout: 3 * time.Second}
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    *Config
		wantErr bool
	}{
		{name: "all flags", args: []string{"-a", "127.0.0.1:9090", "-f", "x.db", "-t", "30"},
			want: &Config{ServerEndpointAddr: "127.0.0.1:9090", StateFile: "x.db", RequestTimeout: 30 * time.Second}},
		{name: "unknown flags ignored", args: []string{"-z", "1", "-a", "h:1"},
			want: &Config{ServerEndpointAddr: "h:1", StateFile: "bulletin.db", RequestTimeout: 10 * time.Second}},
		{name: "bad timeout", args: []string{"-t", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()

			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.want, cfg))
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	_, err := load([]string{"-t", "0"})
	assert.Error(t, err)

	_, err = load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
