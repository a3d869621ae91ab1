package stubs

import (
	"bytes"
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const documentSchemaURL = "type_stubs.schema.json"

// DocumentSchema returns the JSON Schema of a serialized Document
func DocumentSchema() ([]byte, error) {
	r := &invopop.Reflector{}
	schema := r.Reflect(&Document{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document schema: %w", err)
	}
	return data, nil
}

func compileDocumentSchema() (*jsonschema.Schema, error) {
	raw, err := DocumentSchema()
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(documentSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add document schema: %w", err)
	}
	compiled, err := compiler.Compile(documentSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile document schema: %w", err)
	}
	return compiled, nil
}

// ValidateDocument checks that data is a well-formed type stubs document
func ValidateDocument(data []byte) error {
	schema, err := compileDocumentSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
