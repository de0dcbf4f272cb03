package errors

import "fmt"

// Error codes used by the config and binding loaders. These are the Go
// equivalent of the source's tagged error variants (ConfigPropertiesError,
// etc.) — callers switch on Code rather than on a Go error type hierarchy.
const (
	CodeMissingProperty = "MISSING_PROPERTY"
	CodeInvalidKey      = "INVALID_KEY"
	CodeConfigRead      = "CONFIG_READ"
	CodeBindingParse    = "BINDING_PARSE"
)

// AppError represents an application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping another error
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
