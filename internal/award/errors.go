package award

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrTenantRequired         = errors.New("tenant context required")
	ErrAlreadyAwarded         = errors.New("RFQ item already awarded")
	ErrDeadlinePassed         = errors.New("deadline passed")
	ErrRFQNotOpen             = errors.New("RFQ is not open for awarding")
	ErrInvalidTransition      = errors.New("invalid RFQ status transition")
	ErrPurchaseOrderCancelled = errors.New("purchase order already cancelled")
)

// ValidationError rejects a malformed request. Field names the offending
// input and IDs, when set, lists the offending identifiers.
type ValidationError struct {
	Field  string
	IDs    []string
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	b.WriteString(e.Field)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.IDs, ", "))
	}
	return b.String()
}

func invalid(field, reason string, ids ...string) error {
	return &ValidationError{Field: field, Reason: reason, IDs: ids}
}

// transitionError keeps ErrInvalidTransition matchable while carrying the
// user-facing reason.
type transitionError struct {
	reason string
}

func (e *transitionError) Error() string { return e.reason }

func (e *transitionError) Unwrap() error { return ErrInvalidTransition }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
