package syncstore

import (
	"errors"
	"fmt"
	"strings"
)

// Tag classifies a failure so the caller can react without string matching:
// auth failures prompt re-authentication, transport failures are transient,
// backend failures mean the AI service rejected or never saw the request.
type Tag string

const (
	TagTransport  Tag = "transport"
	TagAuth       Tag = "auth"
	TagValidation Tag = "validation"
	TagBackend    Tag = "backend"
)

// Error is the tagged failure surfaced by every store operation.
type Error struct {
	Tag Tag
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Tag, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasTag reports whether err is a store error carrying the given tag.
func HasTag(err error, tag Tag) bool {
	var se *Error
	return errors.As(err, &se) && se.Tag == tag
}

var authErrorHints = []string{
	"jwt",
	"token",
	"unauthorized",
	"401",
	"session expired",
	"authentication",
}

// isAuthFailure inspects the error text. Reads must fail fast on these so an
// expired session is surfaced instead of masked by retries.
func isAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	for _, hint := range authErrorHints {
		if strings.Contains(text, hint) {
			return true
		}
	}
	return false
}

func classify(err error) Tag {
	if isAuthFailure(err) {
		return TagAuth
	}
	return TagTransport
}
