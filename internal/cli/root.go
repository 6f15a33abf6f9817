// Package cli implements the cyborgbench command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/cyborgbench/internal/config"
	"github.com/hyperjump/cyborgbench/pkg/utils"
)

// Version is set at build time with -ldflags.
var Version = "dev"

const defaultConfigPath = "/usr/local/etc/cyborgbench/config.yaml"

var (
	cfgFile   string
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "cyborgbench",
	Short:         "cyborgbench: encrypted vector search latency chat and benchmark",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newBenchCmd())
	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig loads config from path. When path is the default, a config.yaml
// in the working directory takes precedence; when neither exists the built-in
// defaults are used. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			cfg := config.Default()
			if err := config.ApplyEnvOverrides(cfg); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads the config and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debug))
	return cfg, logger, nil
}
