package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidLocale is returned for locale codes outside the supported set.
var ErrInvalidLocale = errors.New("unsupported locale")

// ErrDanglingReference is returned when a catalog edge points at nothing.
var ErrDanglingReference = errors.New("dangling menu reference")

// ErrAlreadyRegistered is returned by user registries on a uniqueness conflict.
var ErrAlreadyRegistered = errors.New("user already registered")

// ErrUserNotFound is returned when no user exists for a phone number.
var ErrUserNotFound = errors.New("user not found")

// ErrUnknownField is returned when an update targets a column outside the fixed table.
var ErrUnknownField = errors.New("unknown user field")

// ErrActionNotFound is returned when a successor names an unregistered handler.
var ErrActionNotFound = errors.New("action not found")
