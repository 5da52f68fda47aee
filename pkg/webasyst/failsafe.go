package webasyst

import (
	"bytes"
	"encoding/json"
)

// FailSafe decodes T when it can and otherwise leaves the field absent,
// so one malformed nested object does not fail the whole payload.
type FailSafe[T any] struct {
	Value *T
}

// Get returns the value and whether it decoded.
func (f FailSafe[T]) Get() (T, bool) {
	if f.Value == nil {
		var zero T

		return zero, false
	}

	return *f.Value, true
}

func (f FailSafe[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}

	return json.Marshal(f.Value)
}

func (f *FailSafe[T]) UnmarshalJSON(data []byte) error {
	f.Value = nil

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil
	}

	f.Value = &value

	return nil
}
