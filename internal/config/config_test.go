package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "m3u8kit", cfg.Fetch.UserAgent)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 6, cfg.Server.Window)
	assert.False(t, cfg.Cluster.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("M3U8KIT_SERVER_PORT", "9090")
	t.Setenv("M3U8KIT_FETCH_TIMEOUT", "5s")
	t.Setenv("M3U8KIT_SELECT_VIDEO", "^Main")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "^Main", cfg.Select.Video)
}

func TestLoadOverride(t *testing.T) {
	chdir(t, t.TempDir())

	v := New()
	v.Set("server.window", 3)
	v.Set("log.level", "debug")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Server.Window)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Fetch:  FetchConfig{Timeout: time.Second},
			Server: ServerConfig{Port: 8080, Window: 6},
		}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "zero timeout", modify: func(c *Config) { c.Fetch.Timeout = 0 }, wantErr: true},
		{name: "port too low", modify: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "port too high", modify: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "zero window", modify: func(c *Config) { c.Server.Window = 0 }, wantErr: true},
		{name: "negative loop after", modify: func(c *Config) { c.Server.LoopAfter = -time.Second }, wantErr: true},
		{name: "bad video pattern", modify: func(c *Config) { c.Select.Video = "(" }, wantErr: true},
		{name: "good audio pattern", modify: func(c *Config) { c.Select.Audio = "AAC|MP3" }},
		{
			name: "cluster valid",
			modify: func(c *Config) {
				c.Cluster = ClusterConfig{
					Enabled: true,
					RaftID:  "node1",
					Bind:    "127.0.0.1:7000",
					Peers:   []string{"127.0.0.1:7000", "127.0.0.1:7001"},
				}
			},
		},
		{
			name: "cluster bind missing from peers",
			modify: func(c *Config) {
				c.Cluster = ClusterConfig{
					Enabled: true,
					RaftID:  "node1",
					Bind:    "127.0.0.1:7002",
					Peers:   []string{"127.0.0.1:7000", "127.0.0.1:7001"},
				}
			},
			wantErr: true,
		},
		{
			name:    "cluster missing raft id",
			modify:  func(c *Config) { c.Cluster = ClusterConfig{Enabled: true, Bind: "127.0.0.1:7000", Peers: []string{"127.0.0.1:7000"}} },
			wantErr: true,
		},
		{
			name:   "cluster disabled ignores fields",
			modify: func(c *Config) { c.Cluster = ClusterConfig{Bind: "garbage"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClusterRaft(t *testing.T) {
	cc := ClusterConfig{
		RaftID:    "node1",
		Bind:      "127.0.0.1:7000",
		Peers:     []string{"127.0.0.1:7000"},
		Heartbeat: 200 * time.Millisecond,
		Election:  300 * time.Millisecond,
	}

	rc := cc.Raft()
	assert.Equal(t, "node1", rc.RaftID)
	assert.Equal(t, "127.0.0.1:7000", rc.BindAddr)
	assert.Equal(t, 200*time.Millisecond, rc.HeartbeatTimeout)
	assert.Equal(t, 300*time.Millisecond, rc.ElectionTimeout)
}
