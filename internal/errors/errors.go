// Package errors provides standardized error types for heroku-auto-ssl.
//
// Every failure that aborts a run is reported as an *Error carrying a Code
// that says which stage failed (preflight, signing, challenge, ...), an
// optional Subject (the Heroku app or domain involved) and the underlying
// error, if any.
//
// # Sentinel Errors
//
// Common abort reasons have pre-defined sentinels that match by code:
//
//	errors.ErrNotLoggedIn      // heroku whoami exited with 100
//	errors.ErrNonCompliant     // a domain failed the Challenge Post check
//	errors.ErrTooManyAttempts  // passphrase entered incorrectly too often
//
// # Usage
//
//	return errors.Wrap(errors.ErrCodeConfig, "failed to load sites", err)
//	return errors.WrapSubject(errors.ErrCodePreflight, "my-app", err)
//
// Use errors.Is for sentinel comparison and errors.As to read the code:
//
//	var e *errors.Error
//	if errors.As(err, &e) {
//	    fmt.Println(e.Code, e.Subject)
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for the stages of a run.
const (
	ErrCodeConfig     ErrorCode = "CONFIG"     // Tool config or site file
	ErrCodeValidation ErrorCode = "VALIDATION" // Input validation failed
	ErrCodeDependency ErrorCode = "DEPENDENCY" // Required CLI missing
	ErrCodeAuth       ErrorCode = "AUTH"       // Heroku authentication
	ErrCodePreflight  ErrorCode = "PREFLIGHT"  // Heroku app/domain/addon checks
	ErrCodeSigning    ErrorCode = "SIGNING"    // External signing helper
	ErrCodeChallenge  ErrorCode = "CHALLENGE"  // Challenge Post Protocol
	ErrCodeIssue      ErrorCode = "ISSUE"      // ACME issuance
	ErrCodeDeploy     ErrorCode = "DEPLOY"     // Pushing certificates to Heroku
	ErrCodeHook       ErrorCode = "HOOK"       // Hook dispatch and chains
	ErrCodeScan       ErrorCode = "SCAN"       // Expiry scan
	ErrCodeAborted    ErrorCode = "ABORTED"    // User declined a confirmation
	ErrCodeInternal   ErrorCode = "INTERNAL"   // Internal/unexpected error
)

// Error represents a structured error with context about the operation.
type Error struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message
	Subject string    // App or domain (if applicable)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Subject != "" && e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Subject, e.Message, e.Err)
	case e.Subject != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Subject, e.Message)
	case e.Subject != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Subject, e.Err)
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code, plus message for sentinels that set one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for common abort reasons.
var (
	// ErrDependencyMissing indicates a required CLI is not on PATH.
	ErrDependencyMissing = &Error{Code: ErrCodeDependency}

	// ErrNotLoggedIn indicates the Heroku CLI has no session.
	ErrNotLoggedIn = &Error{Code: ErrCodeAuth, Message: "not logged in"}

	// ErrPreflight matches any failed preflight check.
	ErrPreflight = &Error{Code: ErrCodePreflight}

	// ErrWrongPassphrase indicates the signing helper rejected the passphrase.
	ErrWrongPassphrase = &Error{Code: ErrCodeSigning, Message: "wrong passphrase"}

	// ErrTooManyAttempts indicates the passphrase re-prompt budget is spent.
	ErrTooManyAttempts = &Error{Code: ErrCodeSigning, Message: "too many passphrase attempts"}

	// ErrNonCompliant indicates at least one domain failed the Challenge Post check.
	ErrNonCompliant = &Error{Code: ErrCodeChallenge, Message: "not Challenge Post protocol compliant"}

	// ErrAborted indicates the user declined to continue.
	ErrAborted = &Error{Code: ErrCodeAborted}

	// ErrConfigInvalid indicates the configuration is invalid or corrupt.
	ErrConfigInvalid = &Error{Code: ErrCodeConfig}
)

// New creates an error with the given code and message.
func New(code ErrorCode, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an error with the given code and a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WrapSubject creates an error with app or domain context and underlying error.
func WrapSubject(code ErrorCode, subject string, err error) error {
	return &Error{Code: code, Subject: subject, Err: err}
}

// Subject creates an error about an app or domain with a message.
func Subject(code ErrorCode, subject, msg string) error {
	return &Error{Code: code, Subject: subject, Message: msg}
}

// CodeOf returns the code of the first *Error in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
