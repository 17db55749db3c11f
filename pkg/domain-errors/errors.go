// Package domainerrors defines the typed errors services return to transports.
//
// Stores return sentinel errors (see pkg/platform/sentinel); services translate
// those into an *Error carrying a Code so handlers can map them to responses
// without inspecting messages.
package domainerrors

import "errors"

// Code classifies a domain error.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"

	// Registration intake.
	CodeIncompleteSubmission Code = "incomplete_submission"
	CodeDuplicateEmailInTeam Code = "duplicate_email_in_team"
	CodeUniquenessConflict   Code = "uniqueness_conflict"

	// Infrastructure failures surfaced to the caller with a retry affordance.
	CodeStoreUnavailable Code = "store_unavailable"
	CodePermissionDenied Code = "permission_denied"

	// Review workflow.
	CodeInvalidTransition     Code = "invalid_transition"
	CodeNoNotifiableRecipient Code = "no_notifiable_recipient"
	CodeNotificationFailed    Code = "notification_failed"
)

// Error is a classified domain error. Message is safe to show to users.
type Error struct {
	Code    Code
	Message string
	Err     error
	// Details carries structured context for clients, e.g. the conflicting
	// emails of a uniqueness conflict.
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithDetail returns the error with an extra detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias for HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}
