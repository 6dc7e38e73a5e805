package main

import "errors"

var (
	// ErrNotFound marks a referenced tank, world or session that no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a command against a dead tank or an empty gun slot.
	ErrInvalidState = errors.New("invalid state")
	// ErrResourceExhausted marks a bounded search that ran out of candidates.
	ErrResourceExhausted = errors.New("resource exhausted")
)
