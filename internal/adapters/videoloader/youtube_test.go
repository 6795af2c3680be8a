package videoloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NicoPedraza/vidqa/internal/domain"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		want      domain.VideoID
		ok        bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"shorts url", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", true},
		{"not a video url", "https://example.com/page", "", false},
		{"plain text", "hello world", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVideoID(tt.reference)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)",
					tt.reference, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseTimedtext(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">hello &amp; welcome</text>
  <text start="2.5" dur="3.0">   </text>
  <text start="5.5" dur="1.5">that&#39;s all</text>
</transcript>`

	segments, err := parseTimedtext(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parseTimedtext failed: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2 (blank line skipped)", len(segments))
	}
	if segments[0].Text != "hello & welcome" {
		t.Errorf("segments[0].Text = %q, entities not unescaped", segments[0].Text)
	}
	if segments[1].Text != "that's all" || segments[1].Start != 5.5 || segments[1].Duration != 1.5 {
		t.Errorf("segments[1] = %+v", segments[1])
	}
}

func TestParseTimedtextEmptyBody(t *testing.T) {
	segments, err := parseTimedtext(strings.NewReader(""))
	if err != nil {
		t.Fatalf("parseTimedtext on empty body failed: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("got %d segments from empty body, want 0", len(segments))
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{59.9, "0:59"},
		{61, "1:01"},
		{1122, "18:42"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFetchHappyPath(t *testing.T) {
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"A Real Video"}`))
	}))
	defer oembed.Close()

	timedtext := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "dQw4w9WgXcQ" {
			http.Error(w, "wrong video", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`<transcript>
			<text start="0.0" dur="60.0">first minute</text>
			<text start="60.0" dur="62.0">second minute</text>
		</transcript>`))
	}))
	defer timedtext.Close()

	loader := NewYouTube(WithEndpoints(oembed.URL, timedtext.URL))

	loaded, err := loader.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if loaded.Info.Title != "A Real Video" {
		t.Errorf("title = %q", loaded.Info.Title)
	}
	if loaded.Info.Duration != "2:02" {
		t.Errorf("duration = %q, want 2:02", loaded.Info.Duration)
	}
	if len(loaded.Segments) != 2 {
		t.Errorf("got %d segments, want 2", len(loaded.Segments))
	}
}

func TestFetchInvalidReference(t *testing.T) {
	loader := NewYouTube()

	_, err := loader.Fetch(context.Background(), "not a url at all")
	if !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("error = %v, want ErrInvalidReference", err)
	}
}

func TestFetchUnavailableVideo(t *testing.T) {
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer oembed.Close()

	loader := NewYouTube(WithEndpoints(oembed.URL, oembed.URL))

	_, err := loader.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !errors.Is(err, domain.ErrInvalidReference) {
		t.Fatalf("error = %v, want ErrInvalidReference", err)
	}
}

func TestFetchMissingCaptions(t *testing.T) {
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"No Captions"}`))
	}))
	defer oembed.Close()

	timedtext := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The endpoint answers 200 with an empty body for missing tracks.
	}))
	defer timedtext.Close()

	loader := NewYouTube(WithEndpoints(oembed.URL, timedtext.URL))

	_, err := loader.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !errors.Is(err, domain.ErrTranscriptUnavailable) {
		t.Fatalf("error = %v, want ErrTranscriptUnavailable", err)
	}
}

func TestFetchUpstreamFailure(t *testing.T) {
	oembed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusInternalServerError)
	}))
	defer oembed.Close()

	loader := NewYouTube(WithEndpoints(oembed.URL, oembed.URL))

	_, err := loader.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !domain.IsProviderError(err) {
		t.Fatalf("error = %v, want a provider error", err)
	}
}
