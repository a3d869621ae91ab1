package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alc6/vec2stubs/stubs"
)

var printSchema bool

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a type stubs document against its JSON Schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if printSchema {
			return writeDocumentSchema(cmd.OutOrStdout())
		}
		path := stubs.DefaultOutputFile
		if len(args) == 1 {
			path = args[0]
		}
		return processValidate(path, cmd.OutOrStdout())
	},
}

func registerValidateFlags() {
	if validateCmd.Flags().Lookup("print-schema") != nil {
		return
	}
	validateCmd.Flags().BoolVar(&printSchema, "print-schema", false, "Print the document JSON Schema and exit")
}

func writeDocumentSchema(w io.Writer) error {
	schema, err := stubs.DocumentSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}
	_, err = fmt.Fprintln(w, string(schema))
	return err
}

func processValidate(path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := stubs.ValidateDocument(data); err != nil {
		return fmt.Errorf("%s is not a valid type stubs document: %w", path, err)
	}

	slog.Info("type stubs document is valid", "file", path)
	_, err = fmt.Fprintf(w, "%s: ok\n", path)
	return err
}
