package browser

import (
	"context"
	"errors"
	"time"
)

// Typed driver failures. Everything the driver reports collapses into one of
// these two sentinels so callers can decide between retrying and giving up.
var (
	// ErrTimeout is returned when navigation or a wait exceeded its deadline
	ErrTimeout = errors.New("browser: operation timed out")
	// ErrDriver is returned for any other driver-level failure
	ErrDriver = errors.New("browser: driver error")
)

// Session is a single isolated browser page, created per quiz attempt and torn
// down when the attempt finishes. Implementations must be safe to close twice.
type Session interface {
	// Navigate loads url and waits for the DOM to be ready
	Navigate(ctx context.Context, url string) error

	// Content returns the full rendered HTML of the current page
	Content(ctx context.Context) (string, error)

	// InnerText returns the flattened visible text of the current page body
	InnerText(ctx context.Context) (string, error)

	// URL returns the current page URL after any redirects
	URL(ctx context.Context) (string, error)

	// Count returns how many elements match selector
	Count(ctx context.Context, selector string) (int, error)

	// Click clicks the index-th element matching selector; found reports
	// whether such an element existed
	Click(ctx context.Context, selector string, index int) (found bool, err error)

	// Checked reports the checked state of the index-th element matching selector
	Checked(ctx context.Context, selector string, index int) (bool, error)

	// ScrollIntoView scrolls the index-th matching element into the viewport
	ScrollIntoView(ctx context.Context, selector string, index int) error

	// Reveal clears hiding styles (display:none, visibility:hidden, zero
	// opacity) on the index-th matching element and up to two ancestors
	Reveal(ctx context.Context, selector string, index int) error

	// ForceCheck sets the checked property of the index-th matching element
	// directly and dispatches synthetic change/input events
	ForceCheck(ctx context.Context, selector string, index int) error

	// WaitNetworkIdle waits until the page has no in-flight requests, up to timeout
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error

	// Close releases the remote page
	Close(ctx context.Context) error
}

// Factory creates one Session per quiz attempt.
type Factory interface {
	NewSession() Session
}
