package answergen

import (
	"fmt"
	"strings"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

const baseSystemPrompt = `You are a helpful assistant answering questions about one specific video.

Your role:
- You answer ONLY from the video's transcript and metadata given below.
- If the transcript does not cover the question, say so plainly instead of guessing.
- Quote or paraphrase the transcript when it helps; mention timestamps when you have them.

Style:
- Answer in the same language as the user.
- Be concise: a few short paragraphs at most.
- Plain language, no filler.`

// BuildSystemPrompt assembles the system prompt from the video's metadata and
// the transcript excerpts retrieved for the current question.
func BuildSystemPrompt(answerCtx domain.AnswerContext) string {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)

	b.WriteString("\n\nVideo:\n")
	fmt.Fprintf(&b, "- Title: %s\n", answerCtx.Video.Title)
	fmt.Fprintf(&b, "- Duration: %s\n", answerCtx.Video.Duration)
	fmt.Fprintf(&b, "- URL: %s\n", answerCtx.Video.URL)

	if len(answerCtx.Excerpts) > 0 {
		b.WriteString("\nTranscript excerpts relevant to the question:\n")
		for _, match := range answerCtx.Excerpts {
			fmt.Fprintf(&b, "- [%s–%s] %s\n",
				formatTimestamp(match.Chunk.Start),
				formatTimestamp(match.Chunk.End),
				match.Chunk.Text,
			)
		}
	}

	return b.String()
}

func formatTimestamp(seconds float64) string {
	total := int(seconds)
	m := total / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
