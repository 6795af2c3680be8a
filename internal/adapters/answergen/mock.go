package answergen

import (
	"context"
	"fmt"
	"time"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

// Mock answers every question with a canned reply after a fixed delay.
type Mock struct {
	delay time.Duration
}

func NewMock() *Mock {
	return &Mock{delay: time.Second}
}

// NewMockWithDelay is meant for tests that don't want to wait.
func NewMockWithDelay(delay time.Duration) *Mock {
	return &Mock{delay: delay}
}

func (m *Mock) Answer(ctx context.Context, answerCtx domain.AnswerContext, question string) (string, error) {
	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if len(answerCtx.Excerpts) > 0 {
		best := answerCtx.Excerpts[0].Chunk
		return fmt.Sprintf(
			"Around %s the video covers that: %q. Does that answer %q?",
			formatTimestamp(best.Start), best.Text, question,
		), nil
	}

	return fmt.Sprintf(
		"Based on the transcript of %q, here is what I can tell you about %q: the video touches on it, but only briefly.",
		answerCtx.Video.Title, question,
	), nil
}
