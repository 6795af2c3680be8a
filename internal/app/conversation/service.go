package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NicoPedraza/vidqa/internal/domain"
	"github.com/NicoPedraza/vidqa/internal/observability"
)

// seedMessage is the first assistant entry of every successfully loaded video.
const seedMessage = "I have loaded the transcript for %q. Ask me anything about the video."

// excerptLimit is how many transcript chunks are retrieved per question.
const excerptLimit = 4

// Service is the session controller: every state transition of a session goes
// through it. It enforces at-most-one in-flight video load and at-most-one
// in-flight answer per session; concurrent attempts fail with domain.ErrBusy
// instead of queueing.
type Service struct {
	loader      domain.VideoLoader
	generator   domain.AnswerGenerator
	sessions    domain.SessionStore
	messages    domain.MessageStore
	transcripts domain.TranscriptStore
	now         func() time.Time

	mu        sync.Mutex
	loading   map[domain.SessionID]struct{}
	answering map[domain.SessionID]struct{}
}

func NewService(
	loader domain.VideoLoader,
	generator domain.AnswerGenerator,
	sessions domain.SessionStore,
	messages domain.MessageStore,
	transcripts domain.TranscriptStore,
) *Service {
	return &Service{
		loader:      loader,
		generator:   generator,
		sessions:    sessions,
		messages:    messages,
		transcripts: transcripts,
		now:         time.Now,
		loading:     make(map[domain.SessionID]struct{}),
		answering:   make(map[domain.SessionID]struct{}),
	}
}

type StartSessionInput struct {
	UserID domain.UserID
	Title  string
}

type StartSessionOutput struct {
	Session *domain.Session
}

// StartSession creates a fresh session with no video and an empty message log.
func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	now := s.now()

	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)
	log.Info("starting new session")

	session := &domain.Session{
		ID:        domain.SessionID(newID()),
		UserID:    in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
		State:     domain.StateUnloaded,
		Title:     in.Title,
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}

	log.Info("session started", "session_id", session.ID)

	return &StartSessionOutput{Session: session}, nil
}

type LoadVideoInput struct {
	SessionID domain.SessionID
	Reference string
}

type LoadVideoOutput struct {
	Session     *domain.Session
	SeedMessage *domain.Message
}

// LoadVideo fetches the referenced video and transitions the session to loaded.
// On success the message log is seeded with one assistant greeting; on failure
// the session moves to load_failed and the log is left untouched, so a retry
// starts from a clean slate. The reference is validated before the loader is
// ever invoked. A session that already holds a video rejects further loads;
// the caller resets first, which keeps the log and the seed greeting tied to
// exactly one video.
func (s *Service) LoadVideo(ctx context.Context, in LoadVideoInput) (*LoadVideoOutput, error) {
	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return nil, domain.ErrEmptyReference
	}

	session, err := s.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.State == domain.StateLoaded {
		return nil, domain.ErrVideoAlreadyLoaded
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"reference", reference,
	)

	// The in-flight map, not the persisted state, is the authoritative guard:
	// a stale StateLoading left behind by a crashed process must stay retryable.
	if !s.acquire(s.loading, session.ID) {
		log.Warn("rejected concurrent video load")
		return nil, domain.ErrBusy
	}
	defer s.release(s.loading, session.ID)

	session.State = domain.StateLoading
	session.Video = nil
	session.UpdatedAt = s.now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		log.Error("failed to mark session loading", "error", err)
		return nil, err
	}

	loaded, err := s.loader.Fetch(ctx, reference)
	if err != nil {
		log.Warn("video load failed", "error", err)
		s.markLoadFailed(ctx, session)
		return nil, err
	}

	if err := s.transcripts.StoreSegments(ctx, loaded.Info.VideoID, loaded.Segments); err != nil {
		log.Error("failed to store transcript", "error", err)
		s.markLoadFailed(ctx, session)
		return nil, fmt.Errorf("storing transcript: %w", err)
	}

	now := s.now()
	session.Video = &loaded.Info
	session.State = domain.StateLoaded
	session.UpdatedAt = now
	if session.Title == "" {
		session.Title = loaded.Info.Title
	}
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		log.Error("failed to mark session loaded", "error", err)
		return nil, err
	}

	seed := &domain.Message{
		ID:        domain.MessageID(newID()),
		SessionID: session.ID,
		Author:    domain.RoleAssistant,
		Text:      fmt.Sprintf(seedMessage, loaded.Info.Title),
		CreatedAt: now,
	}
	if err := s.messages.AppendMessage(ctx, seed); err != nil {
		log.Error("failed to append seed message", "error", err)
		return nil, err
	}

	log.Info("video loaded",
		"video_id", loaded.Info.VideoID,
		"title", loaded.Info.Title,
		"segments", len(loaded.Segments),
	)

	return &LoadVideoOutput{Session: session, SeedMessage: seed}, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	Text      string
}

type SendMessageOutput struct {
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
}

// SendMessage appends the user's question and asks the generator for a reply.
// The user message is appended before the generator call; if the call fails it
// stays in the log without a matching reply and the caller decides whether to
// retry. A second call while one is pending fails with ErrBusy and leaves the
// log unchanged.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}

	session, err := s.sessions.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if session.State != domain.StateLoaded || session.Video == nil {
		return nil, domain.ErrNoVideoLoaded
	}

	log := observability.LoggerFromContext(ctx).With("session_id", session.ID)

	if !s.acquire(s.answering, session.ID) {
		log.Warn("rejected concurrent question")
		return nil, domain.ErrBusy
	}
	defer s.release(s.answering, session.ID)

	// History is the log before this question; the question itself travels
	// separately so the generator never sees it twice.
	history, err := s.messages.GetMessagesBySession(ctx, session.ID, 0)
	if err != nil {
		log.Error("failed to load history", "error", err)
		return nil, err
	}

	userMsg := &domain.Message{
		ID:        domain.MessageID(newID()),
		SessionID: session.ID,
		Author:    domain.RoleUser,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.messages.AppendMessage(ctx, userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	excerpts, err := s.transcripts.Search(ctx, session.Video.VideoID, text, excerptLimit)
	if err != nil {
		// Retrieval is an aid, not a requirement; answer from history alone.
		log.Warn("transcript search failed", "error", err)
		excerpts = nil
	}

	answerCtx := domain.AnswerContext{
		Video:    *session.Video,
		History:  history,
		Excerpts: excerpts,
	}

	reply, err := s.generator.Answer(ctx, answerCtx, text)
	if err != nil {
		log.Warn("answer generation failed", "error", err)
		return nil, err
	}

	assistantMsg := &domain.Message{
		ID:        domain.MessageID(newID()),
		SessionID: session.ID,
		Author:    domain.RoleAssistant,
		Text:      reply,
		CreatedAt: s.now(),
	}
	if err := s.messages.AppendMessage(ctx, assistantMsg); err != nil {
		log.Error("failed to append assistant message", "error", err)
		return nil, err
	}

	session.UpdatedAt = s.now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		log.Error("failed to update session", "error", err)
		return nil, err
	}

	log.Info("question answered", "history_len", len(history), "excerpts", len(excerpts))

	return &SendMessageOutput{UserMessage: userMsg, AssistantMessage: assistantMsg}, nil
}

type ResetOutput struct {
	Session *domain.Session
}

// Reset clears the loaded video, its stored transcript, and the message log,
// returning the session to unloaded regardless of its current state.
func (s *Service) Reset(ctx context.Context, sessionID domain.SessionID) (*ResetOutput, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With("session_id", session.ID)

	if err := s.messages.ClearSession(ctx, session.ID); err != nil {
		log.Error("failed to clear messages", "error", err)
		return nil, err
	}

	if session.Video != nil {
		if err := s.transcripts.DeleteVideo(ctx, session.Video.VideoID); err != nil {
			log.Error("failed to delete transcript", "error", err)
			return nil, err
		}
	}

	session.Video = nil
	session.State = domain.StateUnloaded
	session.UpdatedAt = s.now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		log.Error("failed to update session", "error", err)
		return nil, err
	}

	log.Info("session reset")

	return &ResetOutput{Session: session}, nil
}

// GetTimeline returns a session and its ordered message log.
func (s *Service) GetTimeline(
	ctx context.Context,
	sessionID domain.SessionID,
	limit int,
) (*domain.Session, []*domain.Message, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := s.messages.GetMessagesBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, nil, err
	}

	return session, msgs, nil
}

// markLoadFailed records a failed load without touching the message log, so
// the session stays in a stable, previously valid shape.
func (s *Service) markLoadFailed(ctx context.Context, session *domain.Session) {
	session.State = domain.StateLoadFailed
	session.Video = nil
	session.UpdatedAt = s.now()
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		observability.LoggerFromContext(ctx).Error(
			"failed to mark session load_failed",
			"session_id", session.ID,
			"error", err,
		)
	}
}

func (s *Service) acquire(set map[domain.SessionID]struct{}, id domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := set[id]; busy {
		return false
	}
	set[id] = struct{}{}
	return true
}

func (s *Service) release(set map[domain.SessionID]struct{}, id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(set, id)
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
