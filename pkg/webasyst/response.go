package webasyst

// Response carries exactly one of a value or a failure cause.
type Response[T any] struct {
	value T
	err   error
}

// Success wraps a value.
func Success[T any](value T) Response[T] {
	return Response[T]{value: value}
}

// Failure wraps a cause. A nil cause is replaced with an unrecognized error
// so that a Failure never looks like a Success.
func Failure[T any](err error) Response[T] {
	if err == nil {
		err = NewErrorBuilder().Build()
	}

	return Response[T]{err: err}
}

// Try runs fn and converts its outcome into a Response. Errors that are not
// already *Error are kept as they are; callers that need attribution wrap
// them with WrapError first.
func Try[T any](fn func() (T, error)) Response[T] {
	value, err := fn()
	if err != nil {
		return Failure[T](err)
	}

	return Success(value)
}

// IsSuccess reports whether the response holds a value.
func (r Response[T]) IsSuccess() bool {
	return r.err == nil
}

// IsFailure reports whether the response holds a cause.
func (r Response[T]) IsFailure() bool {
	return r.err != nil
}

// Value returns the value and whether there is one.
func (r Response[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// Err returns the failure cause, or nil on success.
func (r Response[T]) Err() error {
	return r.err
}

// Unwrap returns the pair in the usual Go shape.
func (r Response[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// OnSuccess calls fn with the value when there is one.
func (r Response[T]) OnSuccess(fn func(T)) Response[T] {
	if r.err == nil {
		fn(r.value)
	}

	return r
}

// OnFailure calls fn with the cause when there is one.
func (r Response[T]) OnFailure(fn func(error)) Response[T] {
	if r.err != nil {
		fn(r.err)
	}

	return r
}
