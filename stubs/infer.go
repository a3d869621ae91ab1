package stubs

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// valueKind is the closed set of value kinds the inference engine recognises
type valueKind int

const (
	kindOther valueKind = iota
	kindNull
	kindBool
	kindString
	kindInteger
	kindFloat
	kindSequence
	kindMapping
)

func classify(v any) valueKind {
	if v == nil {
		return kindNull
	}

	switch val := v.(type) {
	case bool:
		return kindBool
	case string:
		return kindString
	case json.Number:
		// integral literals only; 1.0 and 1e3 are floats
		if _, err := val.Int64(); err == nil {
			return kindInteger
		}
		if strings.IndexAny(val.String(), ".eE") < 0 {
			// too large for int64 but still written as an integer
			return kindInteger
		}
		return kindFloat
	case []byte:
		return kindOther
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool:
		return kindBool
	case reflect.String:
		return kindString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindInteger
	case reflect.Float32, reflect.Float64:
		return kindFloat
	case reflect.Slice, reflect.Array:
		if reflect.TypeOf(v).Elem().Kind() == reflect.Uint8 {
			return kindOther
		}
		return kindSequence
	case reflect.Map:
		return kindMapping
	default:
		return kindOther
	}
}

// Infer maps a decoded JSON value to its type descriptor. The result is
// always wrapped in exactly one Nullable.
//
// Rules apply in order: sequence, bool, string, integer, float. Booleans are
// matched before numbers so a runtime that treats bool as a number subtype can
// never turn a Bool field into Int. Anything else yields an
// UnsupportedTypeError.
func Infer(v any) (*Type, error) {
	switch classify(v) {
	case kindSequence:
		return inferSequence(v)
	case kindBool:
		return Nullable(Named(ScalarBool)), nil
	case kindString:
		return Nullable(Named(ScalarString)), nil
	case kindInteger:
		return Nullable(Named(ScalarInt)), nil
	case kindFloat:
		return Nullable(Named(ScalarFloat)), nil
	default:
		return nil, &UnsupportedTypeError{Kind: describeKind(v)}
	}
}

// inferSequence types a sequence by its first element; an empty sequence is
// treated as a sequence of strings.
func inferSequence(v any) (*Type, error) {
	var first any = ""
	rv := reflect.ValueOf(v)
	if rv.Len() > 0 {
		first = rv.Index(0).Interface()
	}

	elem, err := Infer(first)
	if err != nil {
		return nil, err
	}
	return Nullable(Array(elem)), nil
}

func describeKind(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
