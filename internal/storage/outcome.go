package storage

import (
	"context"
	"fmt"
)

// ResourceKind tells the fetcher what it is downloading. It only affects
// request headers and log fields.
type ResourceKind string

const (
	ResourceImage ResourceKind = "image"
	ResourceAudio ResourceKind = "audio"
)

// FailureCause names why a single resource could not be fetched.
type FailureCause string

const (
	CauseHTTPStatus   FailureCause = "http_status"
	CauseSizeExceeded FailureCause = "size_exceeded"
	CauseTimeout      FailureCause = "timeout"
	CauseNetworkError FailureCause = "network_error"
	CauseUnexpected   FailureCause = "unexpected"
)

// FetchFailure is the soft failure recorded for a resource. StatusCode is
// only set for CauseHTTPStatus.
type FetchFailure struct {
	Cause      FailureCause
	StatusCode int
	Err        error
}

func (f *FetchFailure) Error() string {
	if f.Cause == CauseHTTPStatus {
		return fmt.Sprintf("%s(%d): %v", f.Cause, f.StatusCode, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Cause, f.Err)
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// FetchOutcome holds either a payload or a failure, never both.
// Index is the position of the URL in the originating request.
type FetchOutcome struct {
	Index   int
	URL     string
	Kind    ResourceKind
	Payload []byte
	Failure *FetchFailure
}

// Succeeded builds a successful outcome. An empty body still counts as a
// payload, so Payload is never nil on success.
func Succeeded(resourceURL string, kind ResourceKind, payload []byte) FetchOutcome {
	if payload == nil {
		payload = []byte{}
	}
	return FetchOutcome{URL: resourceURL, Kind: kind, Payload: payload}
}

// Failed builds a failed outcome.
func Failed(resourceURL string, kind ResourceKind, failure *FetchFailure) FetchOutcome {
	return FetchOutcome{URL: resourceURL, Kind: kind, Failure: failure}
}

// OK reports whether the resource was fetched.
func (o FetchOutcome) OK() bool {
	return o.Failure == nil
}

// Fetcher retrieves a single resource. Implementations never return a hard
// error: every failure is folded into the outcome.
type Fetcher interface {
	Fetch(ctx context.Context, resourceURL string, kind ResourceKind) FetchOutcome
}
