package domain

import "context"

// LoadedVideo is what a VideoLoader returns on success: the metadata plus the
// transcript the conversation will be grounded on.
type LoadedVideo struct {
	Info     VideoInfo
	Segments []TranscriptSegment
}

// VideoLoader fetches video metadata and its transcript from a provider.
// Implementations must be safe to retry; failures are ErrInvalidReference,
// ErrTranscriptUnavailable, or a ProviderError.
type VideoLoader interface {
	Fetch(ctx context.Context, reference string) (*LoadedVideo, error)
}

// AnswerContext gives the generator everything it may ground an answer on.
type AnswerContext struct {
	Video    VideoInfo
	History  []*Message   // full prior log, oldest first
	Excerpts []ChunkMatch // transcript chunks relevant to the question, best first
}

// AnswerGenerator produces the assistant's reply to one question.
// Implementations must be safe to retry; failures are ErrContextTooLarge or a
// ProviderError. The controller never issues concurrent calls for one session.
type AnswerGenerator interface {
	Answer(ctx context.Context, answerCtx AnswerContext, question string) (string, error)
}

// SessionStore defines session persistence.
type SessionStore interface {
	CreateSession(ctx context.Context, session *Session) error
	UpdateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id SessionID) (*Session, error)
	ListSessionsByUser(ctx context.Context, userID UserID, limit int) ([]*Session, error)
}

// MessageStore defines message persistence. Messages are append-only; the only
// destructive operation is clearing a whole session on reset.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	GetMessagesBySession(ctx context.Context, sessionID SessionID, limit int) ([]*Message, error)
	ClearSession(ctx context.Context, sessionID SessionID) error
}

// TranscriptStore persists transcript chunks and retrieves the ones most
// relevant to a query.
type TranscriptStore interface {
	StoreSegments(ctx context.Context, videoID VideoID, segments []TranscriptSegment) error
	Search(ctx context.Context, videoID VideoID, query string, limit int) ([]ChunkMatch, error)
	DeleteVideo(ctx context.Context, videoID VideoID) error
}

// Embedder converts text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
