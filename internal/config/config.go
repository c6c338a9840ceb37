// Package config loads m3u8kit settings from defaults, an optional
// m3u8kit.yaml, M3U8KIT_* environment variables and bound CLI flags.
package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/agleyzer/m3u8kit/internal/cluster"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log     LogConfig
	Fetch   FetchConfig
	Select  SelectConfig
	Server  ServerConfig
	Cluster ClusterConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// FetchConfig holds HTTP client configuration
type FetchConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// SelectConfig holds variant selection patterns. Empty patterns fall back
// to the default predicates.
type SelectConfig struct {
	Video string
	Audio string
}

// ServerConfig holds live loop server configuration
type ServerConfig struct {
	Port   int
	Window int
	// LoopAfter limits how much of the source is looped; 0 uses all of it.
	LoopAfter time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ClusterConfig holds playhead replication configuration
type ClusterConfig struct {
	Enabled   bool
	RaftID    string
	Bind      string
	Peers     []string
	Heartbeat time.Duration
	Election  time.Duration
}

// New returns a viper instance with defaults, config paths and environment
// binding set up. Callers may bind flags before passing it to Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName("m3u8kit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/m3u8kit")

	setDefaults(v)

	v.SetEnvPrefix("M3U8KIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and unmarshals v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; continue with defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.useragent", "m3u8kit")

	v.SetDefault("select.video", "")
	v.SetDefault("select.audio", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.window", 6)
	v.SetDefault("server.loopafter", time.Duration(0))
	v.SetDefault("server.readtimeout", 10*time.Second)
	v.SetDefault("server.writetimeout", 10*time.Second)

	v.SetDefault("cluster.enabled", false)
	v.SetDefault("cluster.raftid", "")
	v.SetDefault("cluster.bind", "")
	v.SetDefault("cluster.peers", []string{})
	v.SetDefault("cluster.heartbeat", time.Second)
	v.SetDefault("cluster.election", time.Second)
}

// Validate checks the values the commands depend on.
func (c *Config) Validate() error {
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.Window < 1 {
		return fmt.Errorf("server.window must be at least 1, got %d", c.Server.Window)
	}

	if c.Server.LoopAfter < 0 {
		return fmt.Errorf("server.loopafter must not be negative, got %s", c.Server.LoopAfter)
	}

	for key, pattern := range map[string]string{"select.video": c.Select.Video, "select.audio": c.Select.Audio} {
		if pattern == "" {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid %s pattern %q: %w", key, pattern, err)
		}
	}

	if c.Cluster.Enabled {
		cc := c.Cluster.Raft()
		if err := cc.Validate(); err != nil {
			return err
		}
		if !containsAddr(c.Cluster.Peers, c.Cluster.Bind) {
			return fmt.Errorf("cluster.peers must include cluster.bind %q", c.Cluster.Bind)
		}
	}

	return nil
}

// Raft converts the cluster section into a Raft node configuration.
func (c ClusterConfig) Raft() cluster.Config {
	return cluster.Config{
		RaftID:           c.RaftID,
		BindAddr:         c.Bind,
		Peers:            c.Peers,
		HeartbeatTimeout: c.Heartbeat,
		ElectionTimeout:  c.Election,
	}
}

// containsAddr reports whether addr appears in peers, comparing host and
// port separately.
func containsAddr(peers []string, addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	for _, peer := range peers {
		h, p, err := net.SplitHostPort(peer)
		if err == nil && h == host && p == port {
			return true
		}
	}
	return false
}
