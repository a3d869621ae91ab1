package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alc6/vec2stubs/internal/config"
	"github.com/alc6/vec2stubs/internal/logging"
)

var (
	cfgFile      string
	logLevel     string
	qdrantURL    string
	qdrantPort   int
	qdrantAPIKey string

	appConfig  *config.Config
	logCleanup func() error
)

var rootCmd = &cobra.Command{
	Use:   "vec2stubs",
	Short: "Generate type stubs from a Qdrant vector database",
	Long: `vec2stubs inspects every collection of a Qdrant instance, samples one record
from each, and writes a type_stubs.json document describing the object types and
collections a query engine can expose.

Commands:
  download   infer and write type_stubs.json
  import     bulk load a data file into Qdrant
  vectorize  serve text embeddings over HTTP
  validate   check a type_stubs.json document against its JSON Schema
  mcp        run as a Model Context Protocol server`,
	SilenceUsage:      true,
	PersistentPreRunE: setupCommand,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
			}
			logCleanup = nil
		}
	},
}

func main() {
	if err := run(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	registerFlags()
	return rootCmd.Execute()
}

func registerFlags() {
	pf := rootCmd.PersistentFlags()
	if pf.Lookup("qdrant_url") == nil {
		pf.StringVar(&qdrantURL, "qdrant_url", config.Default().Qdrant.URL, "Qdrant host or URL")
		pf.IntVar(&qdrantPort, "qdrant_port", config.Default().Qdrant.Port, "Qdrant REST port")
		pf.StringVar(&qdrantAPIKey, "qdrant_api_key", "", "Qdrant API key")
		pf.StringVar(&cfgFile, "config", "", "YAML configuration file")
		pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	}

	for _, cmd := range []*cobra.Command{downloadCmd, importCmd, vectorizeCmd, validateCmd, mcpCmd} {
		if !hasCommand(cmd) {
			rootCmd.AddCommand(cmd)
		}
	}
	registerDownloadFlags()
	registerImportFlags()
	registerVectorizeFlags()
	registerValidateFlags()
}

func hasCommand(cmd *cobra.Command) bool {
	for _, c := range rootCmd.Commands() {
		if c == cmd {
			return true
		}
	}
	return false
}

// setupCommand resolves the configuration and installs the logger before any
// subcommand runs
func setupCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	appConfig = cfg

	cleanup, err := logging.Setup(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logCleanup = cleanup
	return nil
}

// loadConfig layers explicitly set flags over config.Load
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("qdrant_url") {
		cfg.Qdrant.URL = qdrantURL
	}
	if flags.Changed("qdrant_port") {
		cfg.Qdrant.Port = qdrantPort
	}
	if flags.Changed("qdrant_api_key") {
		cfg.Qdrant.APIKey = qdrantAPIKey
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	applyVectorizeFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
