package ipbauth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes double as the reason codes surfaced to the host login flow.
const (
	TextCodeDBAccess          = "db-access-error"
	TextCodeDB                = "db-error"
	TextCodeNoUser            = "no-user-error"
	TextCodeUnexpectedRequest = "unexpected-error"
	TextCodeMalformedHash     = "malformed-hash"
	TextCodeInvalidConfig     = "invalid-config"
)

// ErrDBAccess is returned when the forum database cannot be reached
var ErrDBAccess = goerrors.New("unable to access forum database", goerrors.CategoryOperation).
	WithTextCode(TextCodeDBAccess).
	WithCode(goerrors.CodeInternal)

// ErrDB is returned when a forum query cannot be prepared or executed
var ErrDB = goerrors.New("forum database error", goerrors.CategoryInternal).
	WithTextCode(TextCodeDB).
	WithCode(goerrors.CodeInternal)

// ErrNoUser is returned for unknown users, banned users and wrong passwords alike
var ErrNoUser = goerrors.New("no such user or wrong password", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoUser).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnexpectedRequest is returned when the login request lacks credentials
var ErrUnexpectedRequest = goerrors.New("unexpected authentication request", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnexpectedRequest).
	WithCode(goerrors.CodeBadRequest)

// ErrMalformedHash is returned when a stored password hash is missing
var ErrMalformedHash = goerrors.New("stored password hash is missing or malformed", goerrors.CategoryValidation).
	WithTextCode(TextCodeMalformedHash).
	WithCode(goerrors.CodeInternal)

func dbAccessError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "unable to access forum database").
		WithTextCode(TextCodeDBAccess).
		WithCode(goerrors.CodeInternal)
}

func dbError(err error, op string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, "forum database error").
		WithTextCode(TextCodeDB).
		WithCode(goerrors.CodeInternal).
		WithMetadata(map[string]any{"operation": op})
}

// ReasonOf returns the reason code carried by err, or an empty string
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
