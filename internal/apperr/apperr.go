// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr defines the error taxonomy shared by stores and handlers.
// Stores classify failures into a small set of kinds; handlers map each
// kind to an HTTP status without inspecting database internals.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of an application error.
type Kind int

const (
	// KindValidation marks a missing or invalid input field.
	KindValidation Kind = iota
	// KindConflict marks a unique-constraint violation (duplicate slug,
	// duplicate relation edge).
	KindConflict
	// KindNotFound marks an unknown slug or ID.
	KindNotFound
	// KindUnauthorized marks a request without a valid session.
	KindUnauthorized
	// KindForbidden marks an authenticated but insufficiently
	// privileged request.
	KindForbidden
	// KindDependency marks a failure in an external side channel
	// (e.g. the comment notification sender). Never surfaced to clients.
	KindDependency
)

// Error carries a kind, a human-readable message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a validation error with the given message.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Conflict returns a conflict error with the given message.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// NotFound returns a not-found error with the given message.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Unauthorized returns an authentication-required error.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Forbidden returns an insufficient-privilege error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Dependency wraps a side-channel failure. Callers log these and continue.
func Dependency(msg string, err error) *Error {
	return &Error{Kind: KindDependency, Message: msg, Err: err}
}

// KindOf extracts the kind from err. Returns ok=false for errors that
// are not application errors (treated as internal by handlers).
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
