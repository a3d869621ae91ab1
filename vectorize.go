package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alc6/vec2stubs/internal/config"
	"github.com/alc6/vec2stubs/vectorize"
)

const vectorizeShutdown = 10 * time.Second

var (
	vectorizeAddr     string
	modelCacheSize    int
	pythonInterpreter string
	disablePython     bool
)

var vectorizeCmd = &cobra.Command{
	Use:   "vectorize",
	Short: "Serve text embeddings over HTTP",
	Long: `vectorize starts an HTTP service exposing
  GET  /health/          liveness check
  POST /text_transform/  {"model": "...", "search": "..."} -> [floats]

Models named hash:<dims> use a built-in feature hashing encoder. Any other model
id is loaded by a python sentence-transformers worker.`,
	Args: cobra.NoArgs,
	RunE: runVectorize,
}

func registerVectorizeFlags() {
	if vectorizeCmd.Flags().Lookup("addr") != nil {
		return
	}
	def := config.Default().Vectorize
	vectorizeCmd.Flags().StringVar(&vectorizeAddr, "addr", def.Addr, "Listen address")
	vectorizeCmd.Flags().IntVar(&modelCacheSize, "model-cache-size", def.ModelCacheSize, "Maximum number of loaded models")
	vectorizeCmd.Flags().StringVar(&pythonInterpreter, "python", def.Python, "Python interpreter for model workers")
	vectorizeCmd.Flags().BoolVar(&disablePython, "no-python", false, "Only serve built-in hash models")
}

func applyVectorizeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Lookup("addr") == nil {
		return
	}
	if flags.Changed("addr") {
		cfg.Vectorize.Addr = vectorizeAddr
	}
	if flags.Changed("model-cache-size") {
		cfg.Vectorize.ModelCacheSize = modelCacheSize
	}
	if flags.Changed("python") {
		cfg.Vectorize.Python = pythonInterpreter
	}
	if flags.Changed("no-python") {
		cfg.Vectorize.PythonEnabled = !disablePython
	}
}

func runVectorize(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	handler, closeModels, err := newEmbeddingHandler(appConfig.Vectorize)
	if err != nil {
		return err
	}
	defer closeModels()

	if err := vectorize.Serve(ctx, appConfig.Vectorize.Addr, handler, vectorizeShutdown); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("embedding service failed: %w", err)
	}
	slog.Info("embedding service stopped")
	return nil
}

// newEmbeddingHandler wires the loaders, cache and HTTP handler. The returned
// func closes every loaded model.
func newEmbeddingHandler(cfg config.VectorizeConfig) (http.Handler, func(), error) {
	loader := &vectorize.RouterLoader{Hash: vectorize.HashLoader{}}
	if cfg.PythonEnabled {
		python, err := vectorize.NewPythonLoader(cfg.Python)
		if err != nil {
			slog.Warn("python models disabled", "error", err)
		} else {
			loader.Python = python
		}
	}

	cache, err := vectorize.NewModelCache(loader, cfg.ModelCacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model cache: %w", err)
	}
	return vectorize.NewServer(cache).Handler(), cache.Close, nil
}
