package domain

// VideoInfo holds the metadata of a successfully loaded video.
// Immutable once set; cleared only when the session resets.
type VideoInfo struct {
	VideoID  VideoID
	URL      string
	Title    string
	Duration string // human-readable, e.g. "18:42"
}

// Session is the single state object behind one conversation. Its message log
// is non-empty only while State == StateLoaded; a reset empties both.
type Session struct {
	ID        SessionID
	UserID    UserID
	CreatedAt Timestamp
	UpdatedAt Timestamp

	State SessionState
	Video *VideoInfo // nil unless State == StateLoaded
	Title string
}

// Message is one entry in a session's ordered, append-only log.
type Message struct {
	ID        MessageID
	SessionID SessionID
	Author    Role
	Text      string
	CreatedAt Timestamp
}
