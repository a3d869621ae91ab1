package main

import (
	"log/slog"

	"github.com/alc6/vec2stubs/dataset"
	"github.com/alc6/vec2stubs/internal/config"
	"github.com/alc6/vec2stubs/qdrant"
)

// NewVectorStore connects a REST client to the configured Qdrant instance
func NewVectorStore(cfg config.QdrantConfig) (VectorStore, error) {
	baseURL, err := qdrant.BaseURL(cfg.URL, cfg.Port)
	if err != nil {
		return nil, err
	}

	opts := []qdrant.Option{}
	if cfg.APIKey != "" {
		opts = append(opts, qdrant.WithAPIKey(cfg.APIKey))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, qdrant.WithTimeout(cfg.Timeout))
	}

	slog.Debug("using qdrant", "url", baseURL, "api_key_set", cfg.APIKey != "")
	return qdrant.New(baseURL, opts...), nil
}

type FileDatasetReader struct{}

func NewFileDatasetReader() DatasetReader {
	return &FileDatasetReader{}
}

func (r *FileDatasetReader) ReadDataset(path string) (dataset.Data, error) {
	return dataset.Load(path)
}
