package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// NetworkError is a transport-level failure: the request never produced a
// response, or the response carried a non-2xx status. Its JSON form is the
// raw diagnostic shown to the user by the preview dialog.
type NetworkError struct {
	Method     string `json:"method"`
	URL        string `json:"url"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
	Body       string `json:"error,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *NetworkError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf(
		"%s %s: unexpected status %d: %s", e.Method, e.URL, e.Status, e.Body,
	)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// JSON returns the error serialized as a JSON object.
func (e *NetworkError) JSON() string {
	data, err := json.Marshal(e)
	if err != nil {
		return e.Error()
	}
	return string(data)
}

// ValidationError reports a payload whose shape or content type does not
// match what the endpoint promises.
type ValidationError struct {
	Endpoint string
	Reason   string
	Err      error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid payload from %s: %s: %v", e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid payload from %s: %s", e.Endpoint, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FetchError reports a failure to retrieve document bytes for an
// attachment.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AuthError indicates the backend rejected the configured token.
type AuthError struct {
	BaseURL string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf(
		"authentication failed (401): check the token for %s "+
			"(run 'epaper login')", e.BaseURL,
	)
}

// IsNetworkError reports whether err (or any error in its chain) is a
// NetworkError.
func IsNetworkError(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsValidationError reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsFetchError reports whether err (or any error in its chain) is a
// FetchError.
func IsFetchError(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}
