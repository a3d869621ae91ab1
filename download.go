package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alc6/vec2stubs/stubs"
)

var (
	outFile        string
	indentOutput   bool
	basicArguments bool
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Infer type stubs from Qdrant and write them to a file",
	Long: `download lists every collection, samples one record from each, infers the
payload field types and writes the resulting document. Nothing is written when any
collection fails.`,
	Args: cobra.NoArgs,
	RunE: runDownload,
}

func registerDownloadFlags() {
	if downloadCmd.Flags().Lookup("out_file") != nil {
		return
	}
	downloadCmd.Flags().StringVar(&outFile, "out_file", stubs.DefaultOutputFile, "Output path, or - for stdout")
	downloadCmd.Flags().BoolVar(&indentOutput, "indent", false, "Indent the JSON output")
	downloadCmd.Flags().BoolVar(&basicArguments, "basic-arguments", false, "Emit only the vector and search collection arguments")
}

func runDownload(cmd *cobra.Command, _ []string) error {
	store, err := NewVectorStore(appConfig.Qdrant)
	if err != nil {
		return fmt.Errorf("failed to create qdrant client: %w", err)
	}

	var sink stubs.Sink
	if outFile == "-" {
		sink = &stubs.WriterSink{Name: "stdout", W: cmd.OutOrStdout()}
	} else {
		sink = stubs.NewFileSink(outFile)
	}

	return processStubs(cmd.Context(), store, sink, argumentVariant(basicArguments), stubs.SerializeOptions{Indent: indentOutput})
}

func argumentVariant(basic bool) stubs.Arguments {
	if basic {
		return stubs.ArgumentsBasic
	}
	return stubs.ArgumentsExtended
}

func processStubs(ctx context.Context, src stubs.Source, sink stubs.Sink, variant stubs.Arguments, opts stubs.SerializeOptions) error {
	slog.Info("generating type stubs")
	doc, err := stubs.Generate(ctx, src, sink, variant, opts)
	if err != nil {
		return fmt.Errorf("failed to generate type stubs: %w", err)
	}

	slog.Info("type stubs generated", "collections", len(doc.Collections), "object_types", len(doc.ObjectTypes))
	return nil
}
