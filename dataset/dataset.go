// Package dataset loads the static import file and bulk inserts it into a
// vector store.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/alc6/vec2stubs/qdrant"
)

// DefaultFile is the import file read when none is given
const DefaultFile = "data.json"

//go:embed data.schema.json
var dataSchema []byte

// Data maps dataset names to their records
type Data map[string][]qdrant.Point

// Names returns the dataset names in sorted order
func (d Data) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads and validates an import file
func Load(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	return Parse(raw)
}

// Parse validates raw against the data file schema and converts every record
// into a point. Keys other than id, vector and payload are folded into the payload.
func Parse(raw []byte) (Data, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}

	var sets map[string][]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sets); err != nil {
		return nil, fmt.Errorf("failed to decode data file: %w", err)
	}

	data := make(Data, len(sets))
	for name, records := range sets {
		points := make([]qdrant.Point, 0, len(records))
		for i, record := range records {
			point, err := parseRecord(record)
			if err != nil {
				return nil, fmt.Errorf("dataset %s record %d: %w", name, i, err)
			}
			points = append(points, point)
		}
		data[name] = points
	}
	return data, nil
}

func validate(raw []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(dataSchema))
	if err != nil {
		return fmt.Errorf("failed to parse data schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("data.schema.json", schemaDoc); err != nil {
		return fmt.Errorf("failed to add data schema: %w", err)
	}
	schema, err := compiler.Compile("data.schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile data schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON in data file: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("data file does not match schema: %w", err)
	}
	return nil
}

func parseRecord(record map[string]json.RawMessage) (qdrant.Point, error) {
	id, err := parseID(record["id"])
	if err != nil {
		return qdrant.Point{}, err
	}

	var vector []float32
	if err := json.Unmarshal(record["vector"], &vector); err != nil {
		return qdrant.Point{}, fmt.Errorf("invalid vector: %w", err)
	}

	payload := map[string]any{}
	if rawPayload, ok := record["payload"]; ok && string(rawPayload) != "null" {
		if err := decodeNumbers(rawPayload, &payload); err != nil {
			return qdrant.Point{}, fmt.Errorf("invalid payload: %w", err)
		}
	}
	for key, value := range record {
		if key == "id" || key == "vector" || key == "payload" {
			continue
		}
		var v any
		if err := decodeNumbers(value, &v); err != nil {
			return qdrant.Point{}, fmt.Errorf("invalid payload field %s: %w", key, err)
		}
		payload[key] = v
	}

	point := qdrant.Point{ID: id, Vector: vector}
	if len(payload) > 0 {
		point.Payload = payload
	}
	return point, nil
}

// parseID accepts an unsigned integer or a UUID string
func parseID(raw json.RawMessage) (any, error) {
	var v any
	if err := decodeNumbers(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}

	switch id := v.(type) {
	case json.Number:
		n, err := strconv.ParseUint(id.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("id %s is not an unsigned integer", id)
		}
		return n, nil
	case string:
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("id %q is not a UUID: %w", id, err)
		}
		return parsed.String(), nil
	default:
		return nil, fmt.Errorf("id must be an unsigned integer or a UUID, got %T", v)
	}
}

func decodeNumbers(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// VectorSize returns the vector length of the first record
func VectorSize(points []qdrant.Point) (int, error) {
	if len(points) == 0 {
		return 0, fmt.Errorf("dataset has no records")
	}
	size := len(points[0].Vector)
	if size == 0 || size > math.MaxInt32 {
		return 0, fmt.Errorf("first record has an invalid vector length %d", size)
	}
	for i, p := range points {
		if len(p.Vector) != size {
			return 0, fmt.Errorf("record %d has vector length %d, expected %d", i, len(p.Vector), size)
		}
	}
	return size, nil
}
