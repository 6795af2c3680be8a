package videoloader

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

const (
	defaultOEmbedURL    = "https://www.youtube.com/oembed"
	defaultTimedtextURL = "https://video.google.com/timedtext"
)

// videoIDPattern matches the 11-character id in the usual YouTube URL shapes:
// watch?v=, /v/, youtu.be/, /embed/ and /shorts/.
var videoIDPattern = regexp.MustCompile(`(?:v=|/v/|youtu\.be/|/embed/|/shorts/)([A-Za-z0-9_-]{11})`)

// ExtractVideoID pulls the video id out of a YouTube URL.
func ExtractVideoID(reference string) (domain.VideoID, bool) {
	m := videoIDPattern.FindStringSubmatch(reference)
	if m == nil {
		return "", false
	}
	return domain.VideoID(m[1]), true
}

// YouTube loads video metadata via the oEmbed endpoint and captions via the
// timedtext endpoint. Both calls are plain GETs, so the loader is safe to retry.
type YouTube struct {
	client       *http.Client
	oembedURL    string
	timedtextURL string
	lang         string
}

type YouTubeOption func(*YouTube)

// WithEndpoints overrides the upstream URLs, mainly for tests.
func WithEndpoints(oembedURL, timedtextURL string) YouTubeOption {
	return func(y *YouTube) {
		y.oembedURL = oembedURL
		y.timedtextURL = timedtextURL
	}
}

// WithLanguage selects the caption track language (default "en").
func WithLanguage(lang string) YouTubeOption {
	return func(y *YouTube) { y.lang = lang }
}

func NewYouTube(opts ...YouTubeOption) *YouTube {
	y := &YouTube{
		client:       &http.Client{Timeout: 15 * time.Second},
		oembedURL:    defaultOEmbedURL,
		timedtextURL: defaultTimedtextURL,
		lang:         "en",
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Fetch implements domain.VideoLoader.
func (y *YouTube) Fetch(ctx context.Context, reference string) (*domain.LoadedVideo, error) {
	videoID, ok := ExtractVideoID(reference)
	if !ok {
		return nil, fmt.Errorf("%w: could not extract a video id from %q", domain.ErrInvalidReference, reference)
	}

	title, err := y.fetchTitle(ctx, videoID)
	if err != nil {
		return nil, err
	}

	segments, err := y.fetchTranscript(ctx, videoID)
	if err != nil {
		return nil, err
	}

	return &domain.LoadedVideo{
		Info: domain.VideoInfo{
			VideoID:  videoID,
			URL:      "https://www.youtube.com/watch?v=" + string(videoID),
			Title:    title,
			Duration: formatDuration(transcriptEnd(segments)),
		},
		Segments: segments,
	}, nil
}

func (y *YouTube) fetchTitle(ctx context.Context, videoID domain.VideoID) (string, error) {
	watchURL := "https://www.youtube.com/watch?v=" + string(videoID)
	reqURL := y.oembedURL + "?format=json&url=" + url.QueryEscape(watchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", domain.NewProviderError("youtube.oembed", err)
	}

	res, err := y.client.Do(req)
	if err != nil {
		return "", domain.NewProviderError("youtube.oembed", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
	case res.StatusCode == http.StatusNotFound, res.StatusCode == http.StatusBadRequest:
		return "", fmt.Errorf("%w: the video is unavailable or has been removed", domain.ErrInvalidReference)
	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: the video is private", domain.ErrInvalidReference)
	default:
		return "", domain.NewProviderError("youtube.oembed", fmt.Errorf("unexpected status %d", res.StatusCode))
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", domain.NewProviderError("youtube.oembed", fmt.Errorf("decoding response: %w", err))
	}

	return payload.Title, nil
}

// timedtextDoc mirrors the caption XML: <transcript><text start dur>…</text></transcript>.
type timedtextDoc struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

func (y *YouTube) fetchTranscript(ctx context.Context, videoID domain.VideoID) ([]domain.TranscriptSegment, error) {
	reqURL := y.timedtextURL + "?lang=" + url.QueryEscape(y.lang) + "&v=" + url.QueryEscape(string(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.NewProviderError("youtube.timedtext", err)
	}

	res, err := y.client.Do(req)
	if err != nil {
		return nil, domain.NewProviderError("youtube.timedtext", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, domain.NewProviderError("youtube.timedtext", fmt.Errorf("unexpected status %d", res.StatusCode))
	}

	segments, err := parseTimedtext(res.Body)
	if err != nil {
		return nil, domain.NewProviderError("youtube.timedtext", err)
	}
	if len(segments) == 0 {
		// An empty document is how the endpoint reports missing or disabled captions.
		return nil, fmt.Errorf("%w: no %s caption track found", domain.ErrTranscriptUnavailable, y.lang)
	}

	return segments, nil
}

func parseTimedtext(r io.Reader) ([]domain.TranscriptSegment, error) {
	var doc timedtextDoc
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		// The endpoint answers an empty body for unknown videos.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing caption xml: %w", err)
	}

	segments := make([]domain.TranscriptSegment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(t.Body))
		if text == "" {
			continue
		}
		segments = append(segments, domain.TranscriptSegment{
			Text:     text,
			Start:    t.Start,
			Duration: t.Dur,
		})
	}
	return segments, nil
}

func transcriptEnd(segments []domain.TranscriptSegment) float64 {
	if len(segments) == 0 {
		return 0
	}
	last := segments[len(segments)-1]
	return last.Start + last.Duration
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
