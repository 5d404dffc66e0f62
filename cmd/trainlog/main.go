package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/trainlog/internal/config"
	"github.com/Zuo-Peng/trainlog/internal/index"
	"github.com/Zuo-Peng/trainlog/internal/logging"
)

var version = "dev"

type globalFlags struct {
	configPath string
	verbose    bool
}

// setup loads the config and builds the logger shared by all commands.
func (g *globalFlags) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if g.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, g.verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openArchive is setup plus the archive database.
func (g *globalFlags) openArchive() (*config.Config, *zap.Logger, *index.DB, error) {
	cfg, logger, err := g.setup()
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		logger.Sync()
		return nil, nil, nil, fmt.Errorf("open db: %w", err)
	}
	return cfg, logger, db, nil
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "trainlog",
		Short:         "Training log - detect team training sessions in WhatsApp chat exports",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default ~/.config/trainlog/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(reportCmd(g))
	rootCmd.AddCommand(serveCmd(g))
	rootCmd.AddCommand(indexCmd(g))
	rootCmd.AddCommand(searchCmd(g))
	rootCmd.AddCommand(previewCmd(g))
	rootCmd.AddCommand(openCmd(g))
	rootCmd.AddCommand(doctorCmd(g))

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
