package videoloader

import (
	"context"
	"strings"
	"time"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

// Mock returns a canned video after a fixed delay, so the whole flow can be
// exercised without touching the network. Any reference containing "fail"
// fails the load, which makes the error path reachable from the client.
type Mock struct {
	delay time.Duration
}

func NewMock() *Mock {
	return &Mock{delay: 1500 * time.Millisecond}
}

// NewMockWithDelay is meant for tests that don't want to wait.
func NewMockWithDelay(delay time.Duration) *Mock {
	return &Mock{delay: delay}
}

func (m *Mock) Fetch(ctx context.Context, reference string) (*domain.LoadedVideo, error) {
	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if strings.Contains(reference, "fail") {
		return nil, domain.ErrTranscriptUnavailable
	}

	videoID, ok := ExtractVideoID(reference)
	if !ok {
		videoID = "dQw4w9WgXcQ"
	}

	segments := []domain.TranscriptSegment{
		{Text: "welcome back to the channel", Start: 0, Duration: 2.4},
		{Text: "today we are building a neural network from scratch", Start: 2.4, Duration: 3.8},
		{Text: "starting with a single neuron and its weights", Start: 6.2, Duration: 3.1},
		{Text: "then we add the activation function", Start: 9.3, Duration: 2.7},
		{Text: "backpropagation is just the chain rule applied carefully", Start: 12.0, Duration: 4.2},
		{Text: "finally we train on the full dataset and plot the loss", Start: 16.2, Duration: 4.0},
	}

	return &domain.LoadedVideo{
		Info: domain.VideoInfo{
			VideoID:  videoID,
			URL:      "https://www.youtube.com/watch?v=" + string(videoID),
			Title:    "Neural Networks from Scratch",
			Duration: formatDuration(transcriptEnd(segments)),
		},
		Segments: segments,
	}, nil
}
