package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type linkSection struct {
	Device      string        `mapstructure:"device"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type bridgeSection struct {
	ID         string `mapstructure:"id"`
	PublishAll bool   `mapstructure:"publish_frames"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	dir, err := os.MkdirTemp("", "env")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := writeFile(t, dir, "bench.toml", `
[link]
device = "/dev/ttyUSB1"
read_timeout = "250ms"

[bridge]
publish_frames = true
`)
	link := linkSection{Device: "/dev/ttyACM0", Baud: 115200}
	bridge := bridgeSection{ID: "machine"}
	var sim struct {
		Period uint32 `mapstructure:"period"`
	}
	used, err := LoadConfigFile(path, map[string]interface{}{
		"link":   &link,
		"bridge": &bridge,
		"sim":    &sim,
	})
	require.NoError(t, err)
	require.Equal(t, path, used)
	require.Equal(t, linkSection{Device: "/dev/ttyUSB1", Baud: 115200, ReadTimeout: 250 * time.Millisecond}, link)
	require.Equal(t, bridgeSection{ID: "machine", PublishAll: true}, bridge)
	require.Zero(t, sim.Period)
}

func TestLoadConfigFileSearch(t *testing.T) {
	dir, err := os.MkdirTemp("", "env")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	saved := ConfigPaths
	defer func() { ConfigPaths = saved }()

	ConfigPaths = []string{dir}
	used, err := LoadConfigFile("", nil)
	require.NoError(t, err, "missing file is fine")
	require.Empty(t, used)

	writeFile(t, dir, "sensorlink.yaml", "link:\n  baud: 9600\n")
	link := linkSection{Baud: 115200}
	used, err = LoadConfigFile("", map[string]interface{}{"link": &link})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "sensorlink.yaml"), used)
	require.Equal(t, 9600, link.Baud)

	_, err = LoadConfigFile(filepath.Join(dir, "absent.toml"), nil)
	require.Error(t, err)
}
