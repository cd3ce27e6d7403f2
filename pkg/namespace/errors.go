package namespace

import "errors"

// Error represents a domain error from namespace operations.
//
// These are business logic errors (path not found, malformed path, rename
// collision, etc.) as opposed to infrastructure errors (network failure,
// database error). Infrastructure errors are wrapped with fmt.Errorf and
// surface as plain errors.
//
// Host adapters translate the Code to their own error surface (HTTP status
// codes, protocol error numbers).
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the namespace path related to the error (if applicable)
	Path string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a namespace error.
type ErrorCode int

const (
	// CodeInvalidPath indicates a malformed path or name: not absolute,
	// empty component, or characters outside the allowed set.
	// Always a caller error, never retried.
	CodeInvalidPath ErrorCode = iota

	// CodeNotFound indicates the path, node, or mapping does not exist.
	// A negative result, not an exceptional condition.
	CodeNotFound

	// CodeDuplicate indicates a duplicate-name insert was rejected by the
	// node store's uniqueness constraint. Resolved internally by re-reading
	// during vivification; it does not normally surface past the resolver.
	CodeDuplicate

	// CodeHasChildren indicates a delete was refused because the node still
	// has children.
	CodeHasChildren

	// CodeRenameFailed indicates a rename hit a destination-name collision
	// or the final move update failed. No partial rollback is attempted.
	CodeRenameFailed

	// CodeDomainInactive indicates the domain does not have the namespace
	// feature enabled.
	CodeDomainInactive

	// CodeUnavailable indicates a collaborator call failed or the store
	// returned an inconsistent answer; a hard failure for the current
	// operation.
	CodeUnavailable
)

// NewNotFound returns a CodeNotFound error for the given path.
func NewNotFound(path string) *Error {
	return &Error{Code: CodeNotFound, Message: "not found", Path: path}
}

// NewInvalidPath returns a CodeInvalidPath error for the given path.
func NewInvalidPath(path, reason string) *Error {
	return &Error{Code: CodeInvalidPath, Message: "invalid path (" + reason + ")", Path: path}
}

// NewDuplicate returns a CodeDuplicate error for a name that already exists
// under its parent.
func NewDuplicate(name string) *Error {
	return &Error{Code: CodeDuplicate, Message: "name already exists", Path: name}
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var nsErr *Error
	return errors.As(err, &nsErr) && nsErr.Code == code
}

// IsNotFound reports whether err is a CodeNotFound error.
func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

// IsDuplicate reports whether err is a CodeDuplicate error.
func IsDuplicate(err error) bool { return IsCode(err, CodeDuplicate) }

// IsInvalidPath reports whether err is a CodeInvalidPath error.
func IsInvalidPath(err error) bool { return IsCode(err, CodeInvalidPath) }
