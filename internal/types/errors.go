package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrCommentTooShort = errors.New("comment below minimum length")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrNoProducts      = errors.New("no products found for search term")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrStoreClosed     = errors.New("store is closed")
)

// SetupError wraps failures that are fatal to the whole run: the browser
// engine cannot start or the datastore is unreachable. No retry.
type SetupError struct {
	Component string
	Err       error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup error (%s): %v", e.Component, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// PageError wraps failures scoped to one page: a missing selector or a
// navigation timeout. The page is skipped and harvesting continues.
type PageError struct {
	URL  string
	Page int
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page error for %s (page %d): %v", e.URL, e.Page, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// StoreError wraps datastore failures that are not partial-batch outcomes
// (connect, clear, backfill).
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s on %s): %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
