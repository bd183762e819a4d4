// ABOUTME: Single error kind for every remote store failure
// ABOUTME: Covers transport, auth, not-found and validation rejections without separate types
package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a RemoteError caused by a missing record or collection.
var ErrNotFound = errors.New("not found")

// Remote store error types that mean the target does not exist.
var notFoundTypes = map[string]bool{
	"NOT_FOUND":          true,
	"MODEL_ID_NOT_FOUND": true,
	"TABLE_NOT_FOUND":    true,
}

// RemoteError is returned by every store operation that fails.
type RemoteError struct {
	Op         string // list, create, update, remove
	Collection string
	RecordID   string
	StatusCode int
	Type       string
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Collection)
	if e.RecordID != "" {
		msg += "/" + e.RecordID
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	switch {
	case e.Type != "" && e.Message != "":
		msg += fmt.Sprintf(": %s: %s", e.Type, e.Message)
	case e.Type != "":
		msg += ": " + e.Type
	case e.Message != "":
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is enables errors.Is(err, ErrNotFound) for HTTP 404s and not-found error types.
func (e *RemoteError) Is(target error) bool {
	if target != ErrNotFound {
		return false
	}
	return e.StatusCode == http.StatusNotFound || notFoundTypes[e.Type]
}

// IsRemoteError reports whether err is or wraps a RemoteError.
func IsRemoteError(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
