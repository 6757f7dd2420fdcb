package shared

import "errors"

var (
	// ErrNotFound indicates the resource does not exist or is outside the caller's scope.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates a role or ownership violation.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates a missing or malformed request field.
	ErrValidation = errors.New("validation failed")
	// ErrNoFieldsToUpdate occurs when an update carries no updatable fields.
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	// ErrMissingCredential occurs when the Authorization header is absent.
	ErrMissingCredential = errors.New("credential missing")
	// ErrMalformedCredential occurs when the Authorization header lacks the Bearer scheme.
	ErrMalformedCredential = errors.New("credential malformed")
	// ErrInvalidCredential occurs when the token is rejected or carries no subject.
	ErrInvalidCredential = errors.New("credential invalid")
	// ErrProfileNotFound occurs when the subject has no profile row to resolve a role from.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDuplicate indicates a uniqueness conflict, e.g. an already registered email.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrUpstream wraps storage or identity provider failures surfaced to callers.
	ErrUpstream = errors.New("upstream fault")
)
