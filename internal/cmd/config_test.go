package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

func TestConfigKey(t *testing.T) {
	type s struct {
		ConnectDelay    time.Duration
		Addr            string
		HTTPAddr        string
		MinAngularSpeed float64
		Renamed         string `name:"log-file"`
	}
	typ := reflect.TypeOf(s{})
	want := []string{"connect_delay", "addr", "http_addr", "min_angular_speed", "log_file"}
	for i, w := range want {
		assert.Equal(t, w, configKey(typ.Field(i)))
	}
}

func TestServeTemplate(t *testing.T) {
	root, err := Template("serve")
	require.NoError(t, err)

	api := root["api"].(map[string]any)
	assert.Equal(t, ":3243", api["addr"])
	assert.Equal(t, "30s", api["session_idle_timeout"])
	assert.NotContains(t, api, "connection_timeout")

	tr := root["tracker"].(map[string]any)
	assert.Equal(t, "500ms", tr["connect_delay"])
	assert.Equal(t, 0.1, tr["haptic_intensity"])

	arm := root["arm"].(map[string]any)
	assert.Equal(t, []any{0.155, -0.465, -0.15}, arm["head_elbow"])

	assert.Equal(t, "", root["feed"].(map[string]any)["addr"])
	assert.Equal(t, "30s", root["connection_timeout"])
}

func TestReplayTemplateSkipsArgs(t *testing.T) {
	root, err := Template("replay")
	require.NoError(t, err)
	assert.NotContains(t, root, "file")
	assert.Equal(t, false, root["json"])
	assert.Contains(t, root, "tracker")

	_, err = Template("nope")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	tests := []struct {
		format string
		decode func([]byte, *map[string]any) error
	}{
		{format: "json", decode: func(b []byte, v *map[string]any) error { return json.Unmarshal(b, v) }},
		{format: "yaml", decode: func(b []byte, v *map[string]any) error { return yaml.Unmarshal(b, v) }},
		{format: "toml", decode: func(b []byte, v *map[string]any) error { return toml.Unmarshal(b, v) }},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "nested", "serve."+tt.format)
			c := &ConfigInit{Command: "serve", Format: tt.format, Output: dest}
			require.NoError(t, c.Run())

			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, tt.decode(data, &got))
			assert.Contains(t, got, "tracker")

			assert.ErrorContains(t, c.Run(), "--force")
			c.Force = true
			assert.NoError(t, c.Run())
		})
	}
}
