package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

// TranscriptStore holds transcript chunks in memory and ranks them by plain
// term overlap. Good enough for local mode; the postgres store does the real
// similarity search.
type TranscriptStore struct {
	mu     sync.RWMutex
	chunks map[domain.VideoID][]domain.TranscriptChunk
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		chunks: make(map[domain.VideoID][]domain.TranscriptChunk),
	}
}

func (s *TranscriptStore) StoreSegments(_ context.Context, videoID domain.VideoID, segments []domain.TranscriptSegment) error {
	chunks := domain.ChunkSegments(videoID, segments, domain.DefaultChunkChars)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-loading the same video replaces its previous transcript.
	s.chunks[videoID] = chunks
	return nil
}

func (s *TranscriptStore) Search(_ context.Context, videoID domain.VideoID, query string, limit int) ([]domain.ChunkMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.ChunkMatch
	for _, chunk := range s.chunks[videoID] {
		score := overlap(terms, tokenize(chunk.Text))
		if score == 0 {
			continue
		}
		matches = append(matches, domain.ChunkMatch{Chunk: chunk, Similarity: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *TranscriptStore) DeleteVideo(_ context.Context, videoID domain.VideoID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chunks, videoID)
	return nil
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	out := fields[:0]
	for _, f := range fields {
		if len(f) > 2 { // skip stop-word sized tokens
			out = append(out, f)
		}
	}
	return out
}

// overlap is the fraction of query terms present in the chunk.
func overlap(queryTerms, chunkTerms []string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}

	present := make(map[string]struct{}, len(chunkTerms))
	for _, t := range chunkTerms {
		present[t] = struct{}{}
	}

	hits := 0
	for _, t := range queryTerms {
		if _, ok := present[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTerms))
}
