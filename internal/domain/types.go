package domain

import "time"

type SessionID string
type UserID string
type MessageID string
type VideoID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SessionState tracks where a session is in the load-then-chat lifecycle.
type SessionState string

const (
	// StateUnloaded is the initial state: no video, empty message log.
	StateUnloaded SessionState = "unloaded"
	// StateLoading means a video fetch is in flight.
	StateLoading SessionState = "loading"
	// StateLoaded means a video and its transcript are available for questions.
	StateLoaded SessionState = "loaded"
	// StateLoadFailed means the last video fetch failed. Recoverable by retrying.
	StateLoadFailed SessionState = "load_failed"
)

type Timestamp = time.Time
