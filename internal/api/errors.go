// In file: internal/api/errors.go
package api

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by every layer of the gateway. Callers wrap them with
// fmt.Errorf("...: %w", ...) and the HTTP edge matches them with errors.Is.
var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrIssuerUnavailable    = errors.New("token issuer unavailable")
	ErrConnectionExhausted  = errors.New("database connection attempts exhausted")
	ErrPersistence          = errors.New("persistence error")
	ErrUpstreamLookupFailed = errors.New("upstream lookup failed")
	ErrBatchLimitExceeded   = errors.New("batch limit exceeded")
	ErrToolNotFound         = errors.New("tool not found")
)

// Code is the machine-readable error discriminator returned to callers.
type Code string

const (
	CodeInvalidArgument      Code = "invalid_argument"
	CodeIssuerUnavailable    Code = "issuer_unavailable"
	CodeConnectionExhausted  Code = "connection_exhausted"
	CodePersistence          Code = "persistence_error"
	CodeUpstreamLookupFailed Code = "upstream_lookup_failed"
	CodeBatchLimitExceeded   Code = "batch_limit_exceeded"
	CodeToolNotFound         Code = "tool_not_found"
	CodeInternal             Code = "internal"
)

var codes = []struct {
	err    error
	code   Code
	status int
}{
	{ErrInvalidArgument, CodeInvalidArgument, http.StatusBadRequest},
	{ErrBatchLimitExceeded, CodeBatchLimitExceeded, http.StatusBadRequest},
	{ErrToolNotFound, CodeToolNotFound, http.StatusNotFound},
	{ErrIssuerUnavailable, CodeIssuerUnavailable, http.StatusBadGateway},
	{ErrUpstreamLookupFailed, CodeUpstreamLookupFailed, http.StatusBadGateway},
	{ErrConnectionExhausted, CodeConnectionExhausted, http.StatusServiceUnavailable},
	{ErrPersistence, CodePersistence, http.StatusInternalServerError},
}

// CodeOf maps an error onto its discriminated code. Unknown errors are CodeInternal.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// StatusOf maps an error onto the HTTP status used when it fails a whole call.
func StatusOf(err error) int {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.status
		}
	}
	return http.StatusInternalServerError
}
