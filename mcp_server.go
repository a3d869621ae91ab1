package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/alc6/vec2stubs/internal/config"
	"github.com/alc6/vec2stubs/stubs"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as a Model Context Protocol server on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		slog.Info("starting mcp server")
		if err := StartMCPServer(appConfig.Qdrant); err != nil {
			return fmt.Errorf("failed to start mcp server: %w", err)
		}
		return nil
	},
}

// storeFactory builds the store a tool call talks to
type storeFactory func(cfg config.QdrantConfig) (VectorStore, error)

// StartMCPServer serves the type stub tools over stdio. defaults supplies the
// connection settings a tool call does not override.
func StartMCPServer(defaults config.QdrantConfig) error {
	s := newMCPServer(defaults, NewVectorStore)
	slog.Info("starting vec2stubs mcp server")
	return server.ServeStdio(s)
}

func newMCPServer(defaults config.QdrantConfig, newStore storeFactory) *server.MCPServer {
	s := server.NewMCPServer(
		"vec2stubs",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	generateTool := mcp.NewTool("generate_type_stubs",
		mcp.WithDescription("Infer type stubs for every collection of a Qdrant instance and return the type_stubs.json document"),
		mcp.WithString("qdrant_url",
			mcp.Description("Qdrant host or URL (default: configured value)"),
		),
		mcp.WithNumber("qdrant_port",
			mcp.Description("Qdrant REST port (default: configured value)"),
		),
		mcp.WithString("qdrant_api_key",
			mcp.Description("Qdrant API key"),
		),
		mcp.WithBoolean("basic_arguments",
			mcp.Description("Emit only the vector and search collection arguments"),
		),
	)
	s.AddTool(generateTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGenerateTypeStubs(ctx, request, defaults, newStore)
	})

	listTool := mcp.NewTool("list_collections",
		mcp.WithDescription("List the collections of a Qdrant instance"),
		mcp.WithString("qdrant_url",
			mcp.Description("Qdrant host or URL (default: configured value)"),
		),
		mcp.WithNumber("qdrant_port",
			mcp.Description("Qdrant REST port (default: configured value)"),
		),
		mcp.WithString("qdrant_api_key",
			mcp.Description("Qdrant API key"),
		),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListCollections(ctx, request, defaults, newStore)
	})

	return s
}

// qdrantConfigFromRequest overlays the connection arguments of a tool call on defaults
func qdrantConfigFromRequest(request mcp.CallToolRequest, defaults config.QdrantConfig) config.QdrantConfig {
	cfg := defaults
	cfg.URL = request.GetString("qdrant_url", cfg.URL)
	cfg.Port = request.GetInt("qdrant_port", cfg.Port)
	cfg.APIKey = request.GetString("qdrant_api_key", cfg.APIKey)
	return cfg
}

func handleGenerateTypeStubs(ctx context.Context, request mcp.CallToolRequest, defaults config.QdrantConfig, newStore storeFactory) (*mcp.CallToolResult, error) {
	store, err := newStore(qdrantConfigFromRequest(request, defaults))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	output, err := generateTypeStubsCore(ctx, store, request.GetBool("basic_arguments", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(output), nil
}

// generateTypeStubsCore returns the indented document, separated for testing
func generateTypeStubsCore(ctx context.Context, src stubs.Source, basic bool) (string, error) {
	doc, err := stubs.Build(ctx, src, argumentVariant(basic))
	if err != nil {
		return "", fmt.Errorf("failed to generate type stubs: %w", err)
	}

	data, err := stubs.Serialize(doc, stubs.SerializeOptions{Indent: true})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func handleListCollections(ctx context.Context, request mcp.CallToolRequest, defaults config.QdrantConfig, newStore storeFactory) (*mcp.CallToolResult, error) {
	store, err := newStore(qdrantConfigFromRequest(request, defaults))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	output, err := listCollectionsCore(ctx, store)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(output), nil
}

// listCollectionsCore contains the core logic for listing collections, separated for testing
func listCollectionsCore(ctx context.Context, src stubs.Source) (string, error) {
	names, err := src.ListCollectionNames(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list collections: %w", err)
	}
	if names == nil {
		names = []string{}
	}

	result := map[string]any{
		"collection_count": len(names),
		"collections":      names,
	}
	jsonOutput, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result to JSON: %w", err)
	}
	return string(jsonOutput), nil
}
