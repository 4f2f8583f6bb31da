package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentuity/go-resultcache/env"
	"github.com/agentuity/go-resultcache/resultcache"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "resultcache",
	Short:         "Exercise a result cache against a configured backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if fn, _ := cmd.Flags().GetString("env-file"); fn != "" {
			return env.Load(fn)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a YAML or TOML cache config")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error, none)")
	rootCmd.PersistentFlags().String("env-file", "", "load environment variables from this file first")
	rootCmd.PersistentFlags().String("name", "resultcache", "cache name, used to namespace store keys")
}

// loadConfig returns the config named by --config, or the in-memory default.
func loadConfig(cmd *cobra.Command) (resultcache.Config, error) {
	var cfg resultcache.Config
	path := env.FlagOrEnv(cmd, "config", "RESULTCACHE_CONFIG", "")
	if path != "" {
		c, err := resultcache.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	cfg.Logger = env.NewLogger(cmd)
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
