package txn

import "github.com/pingcap/errors"

// Fault is the error-kind taxonomy from spec.md §7. OK/FOUND never
// surface as Go errors — only the remaining kinds are represented as
// sentinel errors, matching the teacher's server/innodb/manager/errors.go
// style of one sentinel per condition.
type Fault uint8

const (
	FaultNotFound Fault = iota + 1
	FaultEnd
	FaultOutOfMemory
	FaultInvalidParameters
	FaultInvalidState
	FaultUnexpected
)

func (f Fault) String() string {
	switch f {
	case FaultNotFound:
		return "NOT_FOUND"
	case FaultEnd:
		return "END"
	case FaultOutOfMemory:
		return "OUT_OF_MEMORY"
	case FaultInvalidParameters:
		return "INVALID_PARAMETERS"
	case FaultInvalidState:
		return "INVALID_STATE"
	case FaultUnexpected:
		return "UNEXPECTED"
	default:
		return "UNKNOWN_FAULT"
	}
}

// faultError wraps a Fault with a human-readable cause. UNEXPECTED and
// OUT_OF_MEMORY faults are wrapped through pingcap/errors so they carry
// a stack trace, since those two are the ones worth a post-mortem; the
// remaining kinds are ordinary first-class outcomes (spec.md §7) and
// stay lightweight.
type faultError struct {
	kind  Fault
	cause error
}

func (e *faultError) Error() string {
	if e.cause == nil {
		return e.kind.String()
	}
	return e.kind.String() + ": " + e.cause.Error()
}

func (e *faultError) Unwrap() error { return e.cause }

// NewFault builds an error carrying kind. UNEXPECTED and OUT_OF_MEMORY
// are annotated with a stack trace via pingcap/errors so a fatal cache
// or I/O inconsistency can be diagnosed after the fact.
func NewFault(kind Fault, cause error) error {
	if kind == FaultUnexpected || kind == FaultOutOfMemory {
		if cause != nil {
			cause = errors.Trace(cause)
		} else {
			cause = errors.Errorf("%s", kind)
		}
	}
	return &faultError{kind: kind, cause: cause}
}

// Is reports whether err carries Fault kind.
func Is(err error, kind Fault) bool {
	fe, ok := err.(*faultError)
	return ok && fe.kind == kind
}

// KindOf extracts the Fault carried by err, if any.
func KindOf(err error) (Fault, bool) {
	fe, ok := err.(*faultError)
	if !ok {
		return 0, false
	}
	return fe.kind, true
}
