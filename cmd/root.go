package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/proxymancer/internal/cache"
	"github.com/arcanaland/proxymancer/internal/config"
	"github.com/arcanaland/proxymancer/internal/logger"
	"github.com/arcanaland/proxymancer/internal/resolver"
	"github.com/arcanaland/proxymancer/internal/scryfall"
)

var (
	verbosity  string
	timestamp  bool
	configPath string
	server     string
	noCache    bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "proxymancer",
	Short: "Find, download and lay out card images for printing proxies",
	Long: `Proxymancer queries the Scryfall card database, downloads card images and
prepares them for printing: rotating, resizing, redacting and stitching them
onto sheets.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "info", "Log level: critical, error, warning, info or debug")
	RootCmd.PersistentFlags().BoolVar(&timestamp, "timestamp", false, "Prefix log lines with the time")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/proxymancer/config.toml)")
	RootCmd.PersistentFlags().StringVar(&server, "server", "", "Scryfall API base URL")
	RootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not read or write the card data cache")

	RootCmd.AddCommand(listCmd, downloadCmd, rotateCmd, stitchCmd, resizeCmd, redactCmd, previewCmd, checkCmd, configCmd, cacheCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute(ctx context.Context) error {
	return RootCmd.ExecuteContext(ctx)
}

// env is everything a command needs, built once per invocation
type env struct {
	cfg      *config.Config
	log      *slog.Logger
	client   *scryfall.Client
	cache    *cache.Store
	resolver *resolver.Resolver
}

type envKey struct{}

func envFrom(cmd *cobra.Command) *env {
	e, _ := cmd.Context().Value(envKey{}).(*env)
	return e
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := logger.ParseLevel(verbosity)
	if err != nil {
		return nil, err
	}
	w := cmd.ErrOrStderr()
	return logger.New(w, logger.Options{
		Level:     level,
		Timestamp: timestamp,
		NoColor:   !isTerminal(w),
	}), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFrom(configPath)
	}
	return config.LoadConfig()
}

// setup loads config and builds the logger, API client, cache and resolver
func setup(cmd *cobra.Command, _ []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if server != "" {
		cfg.Server = server
	}
	if noCache {
		cfg.Cache = false
	}

	client, err := scryfall.New(scryfall.Options{
		Server:            cfg.Server,
		UserAgent:         cfg.UserAgent,
		ImageVersion:      cfg.ImageVersion,
		RequestsPerSecond: cfg.RequestsPerSecond,
		HTTPClient:        scryfall.NewHTTPClient(cfg.TimeoutDuration()),
		Logger:            log,
	})
	if err != nil {
		return err
	}

	e := &env{cfg: cfg, log: log, client: client}
	var rc resolver.Cache
	if cfg.Cache {
		store, err := cache.New(config.GetCacheDir(), log)
		if err != nil {
			return fmt.Errorf("error opening cache: %v", err)
		}
		e.cache = store
		rc = store
	}
	e.resolver = resolver.New(client, rc, log)

	log.Debug("configuration loaded", "server", cfg.Server, "cache", cfg.Cache, "jobs", cfg.Jobs)
	cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, e))
	return nil
}

// setupLogging is the lighter hook for commands that never talk to the API
func setupLogging(cmd *cobra.Command, _ []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, &env{log: log}))
	return nil
}
