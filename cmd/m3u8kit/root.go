package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agleyzer/m3u8kit/internal/collector"
	"github.com/agleyzer/m3u8kit/internal/config"
	"github.com/agleyzer/m3u8kit/internal/fetch"
	"github.com/agleyzer/m3u8kit/pkg/logger"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	v         *viper.Viper
	cfg       *config.Config
	logger    *logger.Logger
	collector *collector.Collector

	// bindings maps a subcommand to the config keys its local flags set.
	// They are bound only for the command being run since several
	// commands share keys.
	bindings map[*cobra.Command]map[string]string
}

// bind records that flag of cmd overrides the config key.
func (a *app) bind(cmd *cobra.Command, key, flag string) {
	if a.bindings == nil {
		a.bindings = make(map[*cobra.Command]map[string]string)
	}
	if a.bindings[cmd] == nil {
		a.bindings[cmd] = make(map[string]string)
	}
	a.bindings[cmd][key] = flag
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:           "m3u8kit",
		Short:         "Inspect, filter, trim and loop HLS playlists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (default m3u8kit.yaml in ., ./config or /etc/m3u8kit)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")
	flags.Duration("timeout", fetch.DefaultTimeout, "HTTP timeout for playlist fetches")
	flags.String("user-agent", "m3u8kit", "User-Agent header for playlist fetches")

	lo.Must0(a.v.BindPFlag("log.level", flags.Lookup("log-level")))
	lo.Must0(a.v.BindPFlag("log.format", flags.Lookup("log-format")))
	lo.Must0(a.v.BindPFlag("fetch.timeout", flags.Lookup("timeout")))
	lo.Must0(a.v.BindPFlag("fetch.useragent", flags.Lookup("user-agent")))

	rootCmd.AddCommand(
		newInspectCmd(a),
		newSelectCmd(a),
		newTrimCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// setup loads configuration and builds the shared logger and collector.
func (a *app) setup(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.v.SetConfigFile(path)
	}

	for key, flag := range a.bindings[cmd] {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	a.logger = logger.NewWithWriter(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	fetcher := fetch.NewHTTPFetcher(
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
	)
	a.collector = collector.New(fetcher, a.logger)

	return nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func (a *app) signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			a.logger.Infow("received signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
