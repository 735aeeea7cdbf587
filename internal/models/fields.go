package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// FieldShapeVersion is the envelope version written for JSON list fields.
const FieldShapeVersion = 1

// ErrMalformedField is returned when a stored list field has an unexpected shape.
var ErrMalformedField = errors.New("malformed structured field")

type listEnvelope[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// EncodeList writes items as a versioned envelope. Empty lists encode to "".
func EncodeList[T any](items []T) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	data, err := json.Marshal(listEnvelope[T]{Version: FieldShapeVersion, Items: items})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeList parses a stored list field. Empty input is an empty list; a bare
// JSON array is accepted as the unversioned shape. Anything else wraps
// ErrMalformedField.
func DecodeList[T any](raw string) ([]T, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedField, err)
		}
		return items, nil
	case '{':
		var env listEnvelope[T]
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedField, err)
		}
		if env.Version < 1 || env.Version > FieldShapeVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedField, env.Version)
		}
		return env.Items, nil
	default:
		return nil, fmt.Errorf("%w: unexpected leading %q", ErrMalformedField, data[0])
	}
}

// CorruptFieldError reports a structured field an operation needs but cannot parse.
type CorruptFieldError struct {
	Record string
	Field  string
}

func (e *CorruptFieldError) Error() string {
	return fmt.Sprintf("stored %s of %s is corrupt and cannot be parsed", e.Field, e.Record)
}
