// Package apperr defines the error kinds every service operation surfaces.
// The HTTP layer maps a Kind to a status code; the Message is shown to the caller.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindForbidden
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
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

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Wrap attaches a cause to a kind and message.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of err, KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Server error"
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	ErrAlreadyMember      = Conflict("Already a member of this group")
	ErrNotMember          = Conflict("Not a member of this group")
	ErrDuplicateJoin      = Conflict("Join request already pending")
	ErrDuplicateFriend    = Conflict("Friend request already exists")
	ErrSelfFriend         = Validation("Cannot add yourself as friend")
	ErrGroupNameTaken     = Validation("Group with this name already exists")
	ErrConcurrentUpdate   = Conflict("Group was modified concurrently, retry")
	ErrCannotRemoveAdmin  = Forbidden("Cannot remove group admin")
	ErrNotAuthorized      = Forbidden("Not authorized")
	ErrPrivateGroup       = Forbidden("This is a private group")
	ErrUserNotFound       = NotFound("User not found")
	ErrGroupNotFound      = NotFound("Group not found")
	ErrRecipeNotFound     = NotFound("Recipe not found")
	ErrPostNotFound       = NotFound("Post not found")
	ErrCommentNotFound    = NotFound("Comment not found")
	ErrRequestNotFound    = NotFound("Friend request not found")
	ErrNoPendingRequest   = NotFound("No pending request from this user")
	ErrNotificationAbsent = NotFound("Notification not found")
	ErrBadCredentials     = Unauthorized("Invalid email or password")
)
