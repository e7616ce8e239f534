package apperr

import "errors"

// Kind classifies an error so transport code can pick a response without
// inspecting message text.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindAuth
)

// Error is a business-level failure with a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validation reports malformed or rule-violating input.
func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

// NotFound reports a missing entity.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict reports an operation that clashes with current state.
func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

// Auth reports a credential or permission failure.
func Auth(msg string) error { return &Error{Kind: KindAuth, Message: msg} }

// KindOf returns the kind of err and whether err is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func is(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}

func IsValidation(err error) bool { return is(err, KindValidation) }
func IsNotFound(err error) bool   { return is(err, KindNotFound) }
func IsConflict(err error) bool   { return is(err, KindConflict) }
func IsAuth(err error) bool       { return is(err, KindAuth) }
