package common

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// List decodes a collection answered either as a bare JSON array or wrapped
// in an object under "data" or "items".
type List[T any] []T

// UnmarshalJSON accepts `[...]`, `{"data":[...]}` and `{"items":[...]}`
func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = List[T]{}
		return nil
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decoding list: %w", err)
		}
		*l = items
		return nil
	}

	var envelope struct {
		Data  *[]T `json:"data"`
		Items *[]T `json:"items"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decoding list envelope: %w", err)
	}
	switch {
	case envelope.Data != nil:
		*l = *envelope.Data
	case envelope.Items != nil:
		*l = *envelope.Items
	default:
		*l = List[T]{}
	}
	return nil
}
