package domain

// TranscriptSegment is one caption line as returned by a video provider.
type TranscriptSegment struct {
	Text     string
	Start    float64 // seconds from the beginning of the video
	Duration float64 // seconds
}

// TranscriptChunk groups consecutive segments for storage and retrieval.
type TranscriptChunk struct {
	VideoID VideoID
	Index   int
	Text    string
	Start   float64
	End     float64
}

// ChunkMatch is a transcript chunk scored against a search query.
type ChunkMatch struct {
	Chunk      TranscriptChunk
	Similarity float64 // 1.0 = identical, 0.0 = unrelated
}

// DefaultChunkChars is the target chunk size used by transcript stores.
// Caption lines are short; grouping them keeps retrieval results readable.
const DefaultChunkChars = 400

// ChunkSegments groups consecutive segments into chunks of roughly maxChars
// characters. Every chunk contains at least one segment, so a single oversized
// segment becomes its own chunk.
func ChunkSegments(videoID VideoID, segments []TranscriptSegment, maxChars int) []TranscriptChunk {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}

	var chunks []TranscriptChunk
	var (
		text  string
		start float64
		end   float64
		open  bool
	)

	flush := func() {
		if !open {
			return
		}
		chunks = append(chunks, TranscriptChunk{
			VideoID: videoID,
			Index:   len(chunks),
			Text:    text,
			Start:   start,
			End:     end,
		})
		text, open = "", false
	}

	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		if open && len(text)+1+len(seg.Text) > maxChars {
			flush()
		}
		if !open {
			start = seg.Start
			text = seg.Text
			open = true
		} else {
			text += " " + seg.Text
		}
		end = seg.Start + seg.Duration
	}
	flush()

	return chunks
}
