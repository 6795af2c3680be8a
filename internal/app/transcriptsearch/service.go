package transcriptsearch

import (
	"context"
	"strings"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

const defaultLimit = 5

// Service exposes transcript retrieval directly, without going through a
// conversation. Useful for debugging what the answer generator will see.
type Service struct {
	store domain.TranscriptStore
}

func NewService(store domain.TranscriptStore) *Service {
	return &Service{store: store}
}

// Search returns the transcript chunks of a video most relevant to the query.
func (s *Service) Search(
	ctx context.Context,
	videoID domain.VideoID,
	query string,
	limit int,
) ([]domain.ChunkMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyMessage
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	return s.store.Search(ctx, videoID, query, limit)
}
