package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB stores V in a jsonb column.
type JSONB[T any] struct {
	V T
}

func NewJSONB[T any](v T) JSONB[T] {
	return JSONB[T]{V: v}
}

func (j JSONB[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb value: %w", err)
	}

	return string(b), nil
}

func (j *JSONB[T]) Scan(src any) error {
	var raw []byte

	switch v := src.(type) {
	case nil:
		var zero T
		j.V = zero

		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}

	if err := json.Unmarshal(raw, &j.V); err != nil {
		return fmt.Errorf("failed to unmarshal jsonb value: %w", err)
	}

	return nil
}

func (j JSONB[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V) //nolint:wrapcheck
}

func (j *JSONB[T]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &j.V) //nolint:wrapcheck
}
