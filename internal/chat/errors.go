package chat

import "errors"

// Error taxonomy surfaced by every service operation. Callers branch with
// errors.Is; the HTTP and websocket layers map these onto wire responses.
var (
	// ErrNotFound means the referenced entity does not exist, or is deleted.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrBlocked means direct messaging is blocked by either party.
	ErrBlocked = errors.New("blocked")
	// ErrInvariant means the operation would violate a structural rule,
	// such as removing the last admin of a populated group.
	ErrInvariant = errors.New("invariant violation")
	// ErrConflict means a concurrent-mutation race was lost after retries;
	// the caller may try again.
	ErrConflict = errors.New("conflict")
	// ErrRateLimited means the caller is sending updates too fast.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable means the persistence layer failed.
	ErrUnavailable = errors.New("upstream unavailable")
)
