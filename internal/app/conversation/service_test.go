package conversation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	memstore "github.com/NicoPedraza/vidqa/internal/adapters/storage/memory"
	"github.com/NicoPedraza/vidqa/internal/app/conversation"
	"github.com/NicoPedraza/vidqa/internal/domain"
)

// fakeLoader counts calls and can block or fail on demand.
type fakeLoader struct {
	mu      sync.Mutex
	calls   int
	err     error
	entered chan struct{} // receives once Fetch has started, if set
	release chan struct{} // Fetch waits on this before returning, if set
}

func (f *fakeLoader) Fetch(_ context.Context, reference string) (*domain.LoadedVideo, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}

	return &domain.LoadedVideo{
		Info: domain.VideoInfo{
			VideoID:  "abc12345678",
			URL:      reference,
			Title:    "Test Video",
			Duration: "10:00",
		},
		Segments: []domain.TranscriptSegment{
			{Text: "hello and welcome", Start: 0, Duration: 2},
			{Text: "today we talk about testing", Start: 2, Duration: 3},
		},
	}, nil
}

func (f *fakeLoader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeGenerator mirrors fakeLoader for the answer side.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeGenerator) Answer(_ context.Context, _ domain.AnswerContext, question string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	return "answer to: " + question, nil
}

func newTestService(loader domain.VideoLoader, generator domain.AnswerGenerator) *conversation.Service {
	return conversation.NewService(
		loader,
		generator,
		memstore.NewSessionStore(),
		memstore.NewMessageStore(),
		memstore.NewTranscriptStore(),
	)
}

func startSession(t *testing.T, svc *conversation.Service) domain.SessionID {
	t.Helper()

	out, err := svc.StartSession(context.Background(), conversation.StartSessionInput{
		UserID: "test-user",
	})
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if out.Session.State != domain.StateUnloaded {
		t.Fatalf("new session state = %q, want %q", out.Session.State, domain.StateUnloaded)
	}
	return out.Session.ID
}

func loadVideo(t *testing.T, svc *conversation.Service, id domain.SessionID) {
	t.Helper()

	_, err := svc.LoadVideo(context.Background(), conversation.LoadVideoInput{
		SessionID: id,
		Reference: "https://youtube.com/watch?v=abc12345678",
	})
	if err != nil {
		t.Fatalf("LoadVideo failed: %v", err)
	}
}

func TestLoadVideoSeedsLog(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeLoader{}, &fakeGenerator{})
	id := startSession(t, svc)

	out, err := svc.LoadVideo(ctx, conversation.LoadVideoInput{
		SessionID: id,
		Reference: "https://youtube.com/watch?v=abc12345678",
	})
	if err != nil {
		t.Fatalf("LoadVideo failed: %v", err)
	}

	if out.Session.State != domain.StateLoaded {
		t.Errorf("state = %q, want %q", out.Session.State, domain.StateLoaded)
	}
	if out.Session.Video == nil || out.Session.Video.Title != "Test Video" {
		t.Errorf("video not populated: %+v", out.Session.Video)
	}

	_, msgs, err := svc.GetTimeline(ctx, id, 0)
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("message log length = %d, want 1 seed message", len(msgs))
	}
	if msgs[0].Author != domain.RoleAssistant {
		t.Errorf("seed author = %q, want %q", msgs[0].Author, domain.RoleAssistant)
	}
	if !strings.HasPrefix(msgs[0].Text, "I have loaded the transcript") {
		t.Errorf("seed text = %q, want it to start with the transcript greeting", msgs[0].Text)
	}
}

func TestLoadVideoEmptyReferenceRejectedWithoutLoaderCall(t *testing.T) {
	loader := &fakeLoader{}
	svc := newTestService(loader, &fakeGenerator{})
	id := startSession(t, svc)

	_, err := svc.LoadVideo(context.Background(), conversation.LoadVideoInput{
		SessionID: id,
		Reference: "   ",
	})
	if !errors.Is(err, domain.ErrEmptyReference) {
		t.Fatalf("error = %v, want ErrEmptyReference", err)
	}
	if loader.callCount() != 0 {
		t.Errorf("loader invoked %d times for an empty reference, want 0", loader.callCount())
	}
}

func TestLoadVideoFailureLeavesLogEmptyAndIsRecoverable(t *testing.T) {
	ctx := context.Background()
	loader := &fakeLoader{err: domain.ErrTranscriptUnavailable}
	svc := newTestService(loader, &fakeGenerator{})
	id := startSession(t, svc)

	_, err := svc.LoadVideo(ctx, conversation.LoadVideoInput{
		SessionID: id,
		Reference: "https://youtube.com/watch?v=abc12345678",
	})
	if !errors.Is(err, domain.ErrTranscriptUnavailable) {
		t.Fatalf("error = %v, want ErrTranscriptUnavailable", err)
	}

	session, msgs, err := svc.GetTimeline(ctx, id, 0)
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if session.State != domain.StateLoadFailed {
		t.Errorf("state = %q, want %q", session.State, domain.StateLoadFailed)
	}
	if session.Video != nil {
		t.Errorf("video = %+v, want nil after failed load", session.Video)
	}
	if len(msgs) != 0 {
		t.Errorf("message log length = %d after failed load, want 0", len(msgs))
	}

	// A retry from the failed state succeeds.
	loader.err = nil
	loadVideo(t, svc, id)

	session, msgs, _ = svc.GetTimeline(ctx, id, 0)
	if session.State != domain.StateLoaded {
		t.Errorf("state after retry = %q, want %q", session.State, domain.StateLoaded)
	}
	if len(msgs) != 1 {
		t.Errorf("message log length after retry = %d, want 1", len(msgs))
	}
}

func TestLoadVideoRejectedWhenAlreadyLoaded(t *testing.T) {
	ctx := context.Background()
	loader := &fakeLoader{}
	svc := newTestService(loader, &fakeGenerator{})
	id := startSession(t, svc)
	loadVideo(t, svc, id)

	if _, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "hi"}); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	_, err := svc.LoadVideo(ctx, conversation.LoadVideoInput{
		SessionID: id,
		Reference: "https://youtube.com/watch?v=xyz98765432",
	})
	if !errors.Is(err, domain.ErrVideoAlreadyLoaded) {
		t.Fatalf("second load error = %v, want ErrVideoAlreadyLoaded", err)
	}
	if loader.callCount() != 1 {
		t.Errorf("loader invoked %d times, want 1 (rejected load never reaches it)", loader.callCount())
	}

	// The session is untouched: still loaded, same video, conversation intact.
	session, msgs, err := svc.GetTimeline(ctx, id, 0)
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if session.State != domain.StateLoaded {
		t.Errorf("state = %q, want %q", session.State, domain.StateLoaded)
	}
	if session.Video == nil || session.Video.Title != "Test Video" {
		t.Errorf("video = %+v, want the originally loaded video", session.Video)
	}
	if len(msgs) != 3 {
		t.Errorf("message log length = %d, want 3 (seed + one pair)", len(msgs))
	}

	// Reset reopens the path to a new video.
	if _, err := svc.Reset(ctx, id); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	loadVideo(t, svc, id)
}

func TestConcurrentLoadVideoRejected(t *testing.T) {
	ctx := context.Background()
	loader := &fakeLoader{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(loader, &fakeGenerator{})
	id := startSession(t, svc)

	done := make(chan error, 1)
	go func() {
		_, err := svc.LoadVideo(ctx, conversation.LoadVideoInput{
			SessionID: id,
			Reference: "https://youtube.com/watch?v=abc12345678",
		})
		done <- err
	}()

	<-loader.entered // first load is now in flight

	_, err := svc.LoadVideo(ctx, conversation.LoadVideoInput{
		SessionID: id,
		Reference: "https://youtube.com/watch?v=abc12345678",
	})
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("second load error = %v, want ErrBusy", err)
	}

	close(loader.release)
	if err := <-done; err != nil {
		t.Fatalf("first load failed: %v", err)
	}
	if loader.callCount() != 1 {
		t.Errorf("loader invoked %d times, want 1", loader.callCount())
	}
}

func TestSendMessageGrowsLogByPairs(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeLoader{}, &fakeGenerator{})
	id := startSession(t, svc)
	loadVideo(t, svc, id)

	const n = 3
	for i := 0; i < n; i++ {
		out, err := svc.SendMessage(ctx, conversation.SendMessageInput{
			SessionID: id,
			Text:      fmt.Sprintf("question %d", i),
		})
		if err != nil {
			t.Fatalf("SendMessage %d failed: %v", i, err)
		}
		if out.UserMessage == nil || out.AssistantMessage == nil {
			t.Fatalf("SendMessage %d returned incomplete pair: %+v", i, out)
		}
	}

	_, msgs, err := svc.GetTimeline(ctx, id, 0)
	if err != nil {
		t.Fatalf("GetTimeline failed: %v", err)
	}
	if len(msgs) != 1+2*n {
		t.Fatalf("message log length = %d, want %d (seed + %d pairs)", len(msgs), 1+2*n, n)
	}

	// Strict insertion order: seed, then alternating user/assistant pairs.
	for i := 0; i < n; i++ {
		userMsg := msgs[1+2*i]
		assistantMsg := msgs[2+2*i]
		if userMsg.Author != domain.RoleUser {
			t.Errorf("msgs[%d].Author = %q, want %q", 1+2*i, userMsg.Author, domain.RoleUser)
		}
		if userMsg.Text != fmt.Sprintf("question %d", i) {
			t.Errorf("msgs[%d].Text = %q, out of order", 1+2*i, userMsg.Text)
		}
		if assistantMsg.Author != domain.RoleAssistant {
			t.Errorf("msgs[%d].Author = %q, want %q", 2+2*i, assistantMsg.Author, domain.RoleAssistant)
		}
	}

	// IDs are unique within the session.
	seen := make(map[domain.MessageID]bool, len(msgs))
	for _, m := range msgs {
		if seen[m.ID] {
			t.Errorf("duplicate message id %q", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestSendMessageRejectedWhilePending(t *testing.T) {
	ctx := context.Background()
	generator := &fakeGenerator{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(&fakeLoader{}, generator)
	id := startSession(t, svc)
	loadVideo(t, svc, id)

	done := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "hi"})
		done <- err
	}()

	<-generator.entered // first question is now pending

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "hi"})
	if !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("second send error = %v, want ErrBusy", err)
	}

	close(generator.release)
	if err := <-done; err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	_, msgs, _ := svc.GetTimeline(ctx, id, 0)
	hiCount := 0
	for _, m := range msgs {
		if m.Author == domain.RoleUser && m.Text == "hi" {
			hiCount++
		}
	}
	if hiCount != 1 {
		t.Errorf(`%d user messages for "hi", want exactly 1`, hiCount)
	}
	if len(msgs) != 3 {
		t.Errorf("message log length = %d, want 3 (seed + one pair)", len(msgs))
	}
}

func TestSendMessagePreconditions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeLoader{}, &fakeGenerator{})
	id := startSession(t, svc)

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "hello"})
	if !errors.Is(err, domain.ErrNoVideoLoaded) {
		t.Errorf("send before load error = %v, want ErrNoVideoLoaded", err)
	}

	loadVideo(t, svc, id)

	_, err = svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "  "})
	if !errors.Is(err, domain.ErrEmptyMessage) {
		t.Errorf("blank send error = %v, want ErrEmptyMessage", err)
	}
}

func TestAnswerFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	generator := &fakeGenerator{err: domain.NewProviderError("test.answer", errors.New("boom"))}
	svc := newTestService(&fakeLoader{}, generator)
	id := startSession(t, svc)
	loadVideo(t, svc, id)

	_, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "why?"})
	if !domain.IsProviderError(err) {
		t.Fatalf("error = %v, want a provider error", err)
	}

	_, msgs, _ := svc.GetTimeline(ctx, id, 0)
	if len(msgs) != 2 {
		t.Fatalf("message log length = %d, want 2 (seed + orphaned user message)", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if last.Author != domain.RoleUser || last.Text != "why?" {
		t.Errorf("last message = %+v, want the orphaned user message", last)
	}

	// The pending flag cleared: the next send goes through.
	generator.err = nil
	if _, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "why?"}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
}

func TestResetReturnsToUnloaded(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeLoader{}, &fakeGenerator{})
	id := startSession(t, svc)
	loadVideo(t, svc, id)

	if _, err := svc.SendMessage(ctx, conversation.SendMessageInput{SessionID: id, Text: "hello"}); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	out, err := svc.Reset(ctx, id)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if out.Session.State != domain.StateUnloaded {
		t.Errorf("state = %q, want %q", out.Session.State, domain.StateUnloaded)
	}
	if out.Session.Video != nil {
		t.Errorf("video = %+v, want nil", out.Session.Video)
	}

	_, msgs, _ := svc.GetTimeline(ctx, id, 0)
	if len(msgs) != 0 {
		t.Errorf("message log length = %d after reset, want 0", len(msgs))
	}

	// Reset is state-independent: resetting an unloaded session also succeeds.
	if _, err := svc.Reset(ctx, id); err != nil {
		t.Fatalf("Reset of unloaded session failed: %v", err)
	}

	// The session is reusable after reset.
	loadVideo(t, svc, id)
	_, msgs, _ = svc.GetTimeline(ctx, id, 0)
	if len(msgs) != 1 {
		t.Errorf("message log length after reload = %d, want 1", len(msgs))
	}
}
