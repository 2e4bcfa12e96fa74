package service

import "fmt"

// UserResolutionError means neither the upsert nor the fallback lookup produced a user.
// The join is aborted and no room membership is granted.
type UserResolutionError struct {
	SSOID string
	Err   error
}

func (e *UserResolutionError) Error() string {
	return fmt.Sprintf("resolve user %q: %v", e.SSOID, e.Err)
}

func (e *UserResolutionError) Unwrap() error { return e.Err }

// SessionResolutionError means the open session could not be found or created.
type SessionResolutionError struct {
	UserID uint
	Err    error
}

func (e *SessionResolutionError) Error() string {
	return fmt.Sprintf("resolve chat session for user %d: %v", e.UserID, e.Err)
}

func (e *SessionResolutionError) Unwrap() error { return e.Err }

// RoutingError means a message was dropped. It is logged, never sent to the sender.
type RoutingError struct {
	RoomID string
	Reason string
	Err    error
}

func (e *RoutingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("route message to room %q: %s: %v", e.RoomID, e.Reason, e.Err)
	}
	return fmt.Sprintf("route message to room %q: %s", e.RoomID, e.Reason)
}

func (e *RoutingError) Unwrap() error { return e.Err }
