// Package spyerr defines the errors returned by mrspy components.
//
// Remote calls fail with exactly one of TransportError, InvalidResponseError
// or RemoteAPIError. None of them is retried.
package spyerr

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned when a required configuration value is
// missing or invalid. It is returned before any network call happens.
type ConfigurationError struct {
	Setting string
	Msg     string
}

func NewConfigurationError(setting, msg string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Msg: msg}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Msg)
}

// TransportError is returned when the connection to a remote API failed.
type TransportError struct {
	// Err is the wrapped original error
	Err error
	URL string
}

func NewTransportError(url string, originalErr error) *TransportError {
	return &TransportError{URL: url, Err: originalErr}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Err)
}

// InvalidResponseError is returned when a remote API responded with a non-2xx
// status code or with a body that could not be decoded.
type InvalidResponseError struct {
	URL    string
	Status int
	Body   []byte
	// Err is the decoding error, it is nil if the status code was not 2xx.
	Err error
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}

func (e *InvalidResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid response from %s (status: %d): %s", e.URL, e.Status, e.Err)
	}

	return fmt.Sprintf("request to %s failed with status code: %d, response: %q", e.URL, e.Status, string(e.Body))
}

// RemoteAPIError is returned when a remote API answered successfully on the
// transport level but reported a failure in its response, e.g. a Slack
// response with "ok": false.
type RemoteAPIError struct {
	Msg string
}

func NewRemoteAPIError(msg string) *RemoteAPIError {
	if msg == "" {
		msg = "unknown"
	}

	return &RemoteAPIError{Msg: msg}
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("api error: %s", e.Msg)
}

// ReconciliationInvariantError indicates a programming error, e.g. an
// attachment being built for a merge request without approvals.
type ReconciliationInvariantError struct {
	Msg string
}

func NewReconciliationInvariantError(format string, a ...any) *ReconciliationInvariantError {
	return &ReconciliationInvariantError{Msg: fmt.Sprintf(format, a...)}
}

func (e *ReconciliationInvariantError) Error() string {
	return "reconciliation invariant violated: " + e.Msg
}

// AggregateError collects the failures of independently processed items.
type AggregateError struct {
	Msg  string
	Errs []error
}

// NewAggregateError returns nil if errs is empty.
func NewAggregateError(msg string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	return &AggregateError{Msg: msg, Errs: errs}
}

func (e *AggregateError) Unwrap() []error {
	return e.Errs
}

func (e *AggregateError) Error() string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("%s (%d failed): ", e.Msg, len(e.Errs)))

	for i, err := range e.Errs {
		if i > 0 {
			result.WriteString("; ")
		}

		result.WriteString(fmt.Sprintf("error %d: %s", i, err))
	}

	return result.String()
}
