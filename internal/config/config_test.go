package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, int64(12345), cfg.World.Seed)
	assert.Equal(t, 32, cfg.World.ChunkSize)
	assert.Equal(t, 10.0, cfg.World.HeightScale)
	assert.Equal(t, 20, cfg.Room.TickRate)
	assert.Equal(t, 2, cfg.Room.ChunkLoadRadius)
	assert.Equal(t, 10, cfg.Room.MaxClients)
	assert.Equal(t, 1000.0, cfg.Room.StartingCredits)
	assert.Equal(t, 1000.0, cfg.Room.VehicleCost)
	assert.Equal(t, "MINER_EVENTS", cfg.EventBus.Stream)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yml")
	yaml := `
server:
  ws_port: 9100
world:
  seed: 999
room:
  max_clients: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.WSPort)
	assert.Equal(t, int64(999), cfg.World.Seed)
	assert.Equal(t, 4, cfg.Room.MaxClients)
	// Незатронутые секции остаются дефолтными
	assert.Equal(t, 32, cfg.World.ChunkSize)
	assert.Equal(t, 20, cfg.Room.TickRate)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/server.yml")
	assert.Error(t, err)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	t.Setenv("MINER_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), cfg.World.Seed)
}

func TestPorts_EnvFallback(t *testing.T) {
	t.Setenv("MINER_WS_PORT", "9999")

	s := &ServerConfig{}
	assert.Equal(t, 9999, s.GetWSPort(), "порт из ENV при нулевом конфиге")
	assert.Equal(t, 7778, s.GetKCPPort(), "дефолт при пустом ENV и конфиге")

	s.WSPort = 7000
	assert.Equal(t, 7000, s.GetWSPort(), "конфиг имеет приоритет над ENV")
}

func TestPorts_BadEnvIgnored(t *testing.T) {
	t.Setenv("MINER_REST_PORT", "не число")

	s := &ServerConfig{}
	assert.Equal(t, 8088, s.GetRESTPort())
}

func TestJWTSecret_Precedence(t *testing.T) {
	t.Setenv("MINER_JWT_SECRET", "env-secret")

	a := &AuthConfig{}
	assert.Equal(t, "env-secret", a.GetJWTSecret())

	a.JWTSecret = "cfg-secret"
	assert.Equal(t, "cfg-secret", a.GetJWTSecret(), "конфиг имеет приоритет над ENV")
}
