package suggest

import "fmt"

// GenericFailure is shown when the backend gives no detail of its own.
const GenericFailure = "failed to generate suggestions"

// ValidationError reports a missing input. It is produced before any network
// activity.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RequestError reports a transport failure, a non-2xx response or an
// unusable body. Message is fit for display; Err holds the cause.
type RequestError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }
