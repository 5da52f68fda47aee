package webasyst

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// FlexList decodes either a JSON array or an object whose values are the
// elements. PHP backends return the latter for arrays with sparse keys.
// Object values keep their document order.
type FlexList[T any] []T

func (l FlexList[T]) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]T(l))
}

func (l *FlexList[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*l = nil

		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}

		*l = items

		return nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		items := make([]T, 0)

		var decodeErr error

		gjson.ParseBytes(trimmed).ForEach(func(key, value gjson.Result) bool {
			var item T
			if err := json.Unmarshal([]byte(value.Raw), &item); err != nil {
				decodeErr = fmt.Errorf("decoding list element %q: %w", key.String(), err)

				return false
			}

			items = append(items, item)

			return true
		})

		if decodeErr != nil {
			return decodeErr
		}

		*l = items

		return nil
	default:
		return fmt.Errorf("%w: %s", errNotAList, string(trimmed))
	}
}

var errNotAList = errors.New("expected JSON array or object")
