package sitehost

import (
	"errors"
	"fmt"
)

// TransportError wraps a network-level failure (DNS, connection refused,
// timeout). The client never retries these.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure calling %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// InternalError is an HTTP 500 from the provider. It carries the request
// path and body for operator diagnosis and is never retried.
type InternalError struct {
	Path string
	Body string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("SiteHost API internal error calling %q (body: %s), contact SiteHost support", e.Path, e.Body)
}

// APIError is a logical failure: the provider answered with a well-formed
// envelope whose status field is false. It takes precedence over a
// successful transport status code.
type APIError struct {
	Msg        string
	HTTPStatus int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("SiteHost API error: %s", e.Msg)
}

// UnexpectedStatusError reports a transport status code outside the
// provider's documented conventions.
type UnexpectedStatusError struct {
	Method     string
	Path       string
	HTTPStatus int
	Msg        string
}

func (e *UnexpectedStatusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("unexpected status %d calling %s %q: %s", e.HTTPStatus, e.Method, e.Path, e.Msg)
	}
	return fmt.Sprintf("unexpected status %d calling %s %q", e.HTTPStatus, e.Method, e.Path)
}

// JobFailedError reports a job the provider moved to the Failed state.
type JobFailedError struct {
	JobID  string
	Detail map[string]any
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed", e.JobID)
}

// JobTimeoutError reports a job that reached neither its target state nor
// Failed within the poll bound. Distinct from JobFailedError so callers
// can tell "gave up" from "provider said no".
type JobTimeoutError struct {
	JobID  string
	Target string
	Polls  int
	Detail map[string]any
}

func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("wait for job %s to become %s timed out after %d polls", e.JobID, e.Target, e.Polls)
}

// IsAPIError reports whether err is a logical API failure and, if so,
// returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsJobFailed reports whether err marks a job the provider failed.
func IsJobFailed(err error) bool {
	var jobErr *JobFailedError
	return errors.As(err, &jobErr)
}

// IsJobTimeout reports whether err marks an exhausted job poll bound.
func IsJobTimeout(err error) bool {
	var timeoutErr *JobTimeoutError
	return errors.As(err, &timeoutErr)
}
