package domain_test

import (
	"strings"
	"testing"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

func TestChunkSegmentsGroupsByLength(t *testing.T) {
	segments := []domain.TranscriptSegment{
		{Text: strings.Repeat("a", 30), Start: 0, Duration: 2},
		{Text: strings.Repeat("b", 30), Start: 2, Duration: 2},
		{Text: strings.Repeat("c", 30), Start: 4, Duration: 2},
	}

	chunks := domain.ChunkSegments("vid", segments, 65)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	// First chunk fits two segments, the third spills over.
	if !strings.Contains(chunks[0].Text, "aaa") || !strings.Contains(chunks[0].Text, "bbb") {
		t.Errorf("chunks[0].Text = %q", chunks[0].Text)
	}
	if chunks[0].Start != 0 || chunks[0].End != 4 {
		t.Errorf("chunks[0] span = [%v, %v], want [0, 4]", chunks[0].Start, chunks[0].End)
	}
	if chunks[1].Start != 4 || chunks[1].End != 6 {
		t.Errorf("chunks[1] span = [%v, %v], want [4, 6]", chunks[1].Start, chunks[1].End)
	}
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Errorf("chunk indices = %d, %d", chunks[0].Index, chunks[1].Index)
	}
}

func TestChunkSegmentsOversizedSegment(t *testing.T) {
	segments := []domain.TranscriptSegment{
		{Text: strings.Repeat("x", 500), Start: 0, Duration: 10},
	}

	chunks := domain.ChunkSegments("vid", segments, 100)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 (a segment is never split)", len(chunks))
	}
}

func TestChunkSegmentsSkipsEmpty(t *testing.T) {
	chunks := domain.ChunkSegments("vid", []domain.TranscriptSegment{
		{Text: "", Start: 0, Duration: 1},
	}, 100)
	if len(chunks) != 0 {
		t.Fatalf("got %d chunks from empty segments, want 0", len(chunks))
	}
}
