package errors

import (
	stderrors "errors"
	"strings"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = stderrors.New("not found")
	// ErrInvalidArgument marks a caller contract violation. Never retried.
	ErrInvalidArgument = stderrors.New("invalid argument")
	// ErrExhaustedEntropy means the strong random source could not produce an
	// acceptable draw. Fatal for the session.
	ErrExhaustedEntropy = stderrors.New("exhausted entropy")
	// ErrRateLimited is returned when a game exceeds its request budget.
	ErrRateLimited = stderrors.New("rate limited")
	// ErrSessionBlocked is returned after repeated hard integrity violations.
	ErrSessionBlocked = stderrors.New("session blocked")
	// ErrGenerationFailed means every backend attempt failed.
	ErrGenerationFailed = stderrors.New("generation failed")
	// ErrNoStructuredPayload means backend output held no JSON object.
	ErrNoStructuredPayload = stderrors.New("no structured payload")
)

type Code string

const (
	CodeInvalidArgument     Code = "invalid_argument"
	CodeExhaustedEntropy    Code = "exhausted_entropy"
	CodeRateLimited         Code = "rate_limited"
	CodeSessionBlocked      Code = "session_blocked"
	CodeGenerationFailed    Code = "generation_failed"
	CodeNoStructuredPayload Code = "no_structured_payload"
	CodeNotFound            Code = "not_found"
	CodeIntegrityViolation  Code = "integrity_violation"
)

// Error carries a machine code, the failing operation and itemized reasons.
// errors.Is matches both the sentinel for its code and the wrapped cause.
type Error struct {
	Code    Code
	Op      string
	Reasons []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	case e.Code != "":
		b.WriteString(string(e.Code))
	default:
		b.WriteString("error")
	}
	if len(e.Reasons) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Reasons, "; "))
		b.WriteString(")")
	}
	return b.String()
}

// Is matches the sentinel for e's code even when Err wraps another cause.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	return sentinelFor(e.Code) == target
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Err != nil {
		return e.Err
	}
	return sentinelFor(e.Code)
}

func New(code Code, op string, err error, reasons ...string) *Error {
	if err == nil {
		err = sentinelFor(code)
	}
	return &Error{Code: code, Op: op, Reasons: reasons, Err: err}
}

func InvalidArgument(op string, reasons ...string) *Error {
	return New(CodeInvalidArgument, op, ErrInvalidArgument, reasons...)
}

func RateLimited(op string, reasons ...string) *Error {
	return New(CodeRateLimited, op, ErrRateLimited, reasons...)
}

// CodeOf returns the code of the first *Error in err's chain, falling back to
// sentinel matching.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	for code, sentinel := range sentinels {
		if stderrors.Is(err, sentinel) {
			return code
		}
	}
	return ""
}

// ReasonsOf returns the itemized reasons attached to err, if any.
func ReasonsOf(err error) []string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Reasons
	}
	return nil
}

var sentinels = map[Code]error{
	CodeInvalidArgument:     ErrInvalidArgument,
	CodeExhaustedEntropy:    ErrExhaustedEntropy,
	CodeRateLimited:         ErrRateLimited,
	CodeSessionBlocked:      ErrSessionBlocked,
	CodeGenerationFailed:    ErrGenerationFailed,
	CodeNoStructuredPayload: ErrNoStructuredPayload,
	CodeNotFound:            ErrNotFound,
}

func sentinelFor(code Code) error {
	if s, ok := sentinels[code]; ok {
		return s
	}
	return nil
}
