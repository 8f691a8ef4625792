package analysis

import "fmt"

// ValidationError reports the first request field that failed validation.
// It is returned before any network traffic happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error: %s", e.Message)
}

// TransportError reports a failed exchange with the analysis service:
// a network-level failure, a non-2xx status, or an unparseable payload.
type TransportError struct {
	StatusCode int    // zero when the request never completed
	Message    string // user-facing message
	Err        error  // underlying cause, when any
}

func (e *TransportError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "analysis request failed"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
