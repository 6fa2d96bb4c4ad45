// Package kesterr defines the structured error-summary shape shared by the
// retry engine, the reverting stack, and the report parser's cause-unwrapping
// rule: a message plus an optional name, stack trace, and wrapped cause.
package kesterr

import (
	"errors"
	"fmt"
	"regexp"
)

// Summary is the structured view of an error used for reporting and for
// serializing into events. It composes with the standard library's error
// chain via Unwrap.
type Summary struct {
	Name    string
	Message string
	Stack   string
	Cause   *Summary
}

func (s *Summary) Error() string {
	return s.Message
}

// Unwrap exposes the cause to errors.Is/errors.As and %w formatting.
func (s *Summary) Unwrap() error {
	if s.Cause == nil {
		return nil
	}
	return s.Cause
}

// Summarize builds a Summary from any error, walking its Unwrap chain so
// wrapped causes become nested Summary.Cause values. An error that already
// carries a stack (via the optional Stacker interface) has it copied across.
func Summarize(err error) *Summary {
	if err == nil {
		return nil
	}

	s := &Summary{Message: err.Error()}

	var named interface{ Name() string }
	if errors.As(err, &named) {
		s.Name = named.Name()
	}

	var stacked Stacker
	if errors.As(err, &stacked) {
		s.Stack = stacked.Stack()
	}

	if u := errors.Unwrap(err); u != nil {
		s.Cause = Summarize(u)
	}

	return s
}

// Stacker is implemented by errors that carry a raw stack trace string, the
// form the trace renderer (spec §4.9) expects.
type Stacker interface {
	Stack() string
}

// notFoundPattern matches the cluster-client "(NotFound)" protocol marker
// (spec §6): a cluster-client error must contain this literal substring for
// AssertAbsence to recognize it as a miss rather than a real failure.
var notFoundPattern = regexp.MustCompile(`\(NotFound\)`)

// NotFound wraps a cluster-client error known to carry the "(NotFound)"
// marker, letting callers use errors.As instead of substring matching.
type NotFound struct {
	Err error
}

func (e *NotFound) Error() string { return e.Err.Error() }
func (e *NotFound) Unwrap() error { return e.Err }

// IsNotFound reports whether err is, or wraps, a NotFound, or whether its
// message contains the literal "(NotFound)" marker — the two ways a
// cluster-client adapter may signal a miss.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nf *NotFound
	if errors.As(err, &nf) {
		return true
	}
	return notFoundPattern.MatchString(err.Error())
}

// TimedOutPattern matches the retry engine's synthesized timeout message
// (spec §4.9's cause-unwrapping rule: "^Timed out after ").
var TimedOutPattern = regexp.MustCompile(`^Timed out after `)

// Timeout is the error the retry engine raises when the deadline elapses:
// it wraps the last attempt's failure as Cause so the original diagnostic
// survives underneath the "Timed out after ..." message (spec §4.3 step 5,
// §4.9, §7).
type Timeout struct {
	After string
	Cause error
}

func (e *Timeout) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Timed out after %s: %s", e.After, e.Cause.Error())
	}
	return fmt.Sprintf("Timed out after %s", e.After)
}

func (e *Timeout) Unwrap() error { return e.Cause }
