package webasyst

import (
	"errors"
	"reflect"
)

// RootCause follows the Unwrap chain to its last element. Cycles stop at the
// first repeated error.
func RootCause(err error) error {
	if err == nil {
		return nil
	}

	seen := map[error]struct{}{}

	for {
		if reflect.TypeOf(err).Comparable() {
			if _, ok := seen[err]; ok {
				return err
			}

			seen[err] = struct{}{}
		}

		next := errors.Unwrap(err)
		if next == nil {
			return err
		}

		err = next
	}
}
