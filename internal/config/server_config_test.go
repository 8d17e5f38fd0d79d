package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadServerAcceptsValidConfig(t *testing.T) {
	path := writeTempYAML(t, "server.yaml", `
game:
  tick_duration: 120
  flag_format: 'FLAG\{[a-z0-9]+\}'
  team_ip: 10.10.10.10
submitter:
  interval: 30
  module: "python3 submit.py"
server:
  host: 0.0.0.0
  port: 8080
database:
  path: fast.db
`)
	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.10.10.10"}, []string(cfg.Game.TeamIP))
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadServerTeamIPAcceptsList(t *testing.T) {
	path := writeTempYAML(t, "server.yaml", `
game:
  tick_duration: 120
  flag_format: 'FLAG\{[a-z0-9]+\}'
  team_ip: [10.0.0.1, 10.0.0.2]
submitter:
  delay: 20
  module: "x"
server:
  host: 0.0.0.0
  port: 8080
database:
  path: fast.db
`)
	cfg, err := LoadServer(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, []string(cfg.Game.TeamIP))
}

func TestLoadServerRejectsUnknownKey(t *testing.T) {
	path := writeTempYAML(t, "server.yaml", `
game:
  tick_duration: 120
  flag_format: 'FLAG\{[a-z0-9]+\}'
  team_ip: 10.10.10.10
  bogus_key: true
submitter:
  interval: 30
  module: "x"
server:
  host: 0.0.0.0
  port: 8080
database:
  path: fast.db
`)
	_, err := LoadServer(path)
	assert.Error(t, err)
}

func TestLoadServerRejectsBothDelayAndInterval(t *testing.T) {
	path := writeTempYAML(t, "server.yaml", `
game:
  tick_duration: 120
  flag_format: 'FLAG\{[a-z0-9]+\}'
  team_ip: 10.10.10.10
submitter:
  delay: 10
  interval: 30
  module: "x"
server:
  host: 0.0.0.0
  port: 8080
database:
  path: fast.db
`)
	_, err := LoadServer(path)
	assert.Error(t, err)
}

func TestLoadServerRejectsIntervalNotDivisor(t *testing.T) {
	path := writeTempYAML(t, "server.yaml", `
game:
  tick_duration: 100
  flag_format: 'FLAG\{[a-z0-9]+\}'
  team_ip: 10.10.10.10
submitter:
  interval: 30
  module: "x"
server:
  host: 0.0.0.0
  port: 8080
database:
  path: fast.db
`)
	_, err := LoadServer(path)
	assert.Error(t, err)
}

func TestGameConfigStartTimeParsesBothLayouts(t *testing.T) {
	g := GameConfig{Start: "2026-07-31 09:00:00"}
	_, ok, err := g.StartTime()
	require.NoError(t, err)
	assert.True(t, ok)

	g2 := GameConfig{Start: "2026-07-31 09:00"}
	_, ok2, err2 := g2.StartTime()
	require.NoError(t, err2)
	assert.True(t, ok2)
}

func TestGameConfigStartTimeEmptyIsNotSet(t *testing.T) {
	g := GameConfig{}
	_, ok, err := g.StartTime()
	require.NoError(t, err)
	assert.False(t, ok)
}
