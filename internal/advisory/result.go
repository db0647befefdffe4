package advisory

// RenderError is the error panel shown in place of a view that could not be
// built.
type RenderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result carries either a value or a RenderError. Callers branch on OK
// instead of relying on panics or nil checks.
type Result[T any] struct {
	OK    bool         `json:"ok"`
	Value T            `json:"value,omitempty"`
	Err   *RenderError `json:"error,omitempty"`
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v}
}

// Failed wraps a render error.
func Failed[T any](code, message string) Result[T] {
	return Result[T]{Err: &RenderError{Code: code, Message: message}}
}
