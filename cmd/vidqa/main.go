package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/NicoPedraza/vidqa/internal/adapters/answergen"
	memstore "github.com/NicoPedraza/vidqa/internal/adapters/storage/memory"
	"github.com/NicoPedraza/vidqa/internal/adapters/videoloader"
	"github.com/NicoPedraza/vidqa/internal/app/conversation"
	"github.com/NicoPedraza/vidqa/internal/config"
	"github.com/NicoPedraza/vidqa/internal/domain"
	"github.com/NicoPedraza/vidqa/internal/observability"
	"github.com/NicoPedraza/vidqa/internal/tui"
)

// The terminal client keeps everything in process: one session, in-memory
// stores, and whichever collaborators the config selects.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	// The TUI owns stdout; logs go to a file next to the cache dir.
	if dir, err := os.UserCacheDir(); err == nil {
		path := filepath.Join(dir, "vidqa.log")
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			defer f.Close()
			observability.SetOutput(f)
		}
	}

	ctx := context.Background()

	var loader domain.VideoLoader
	if cfg.UseMockLoader {
		loader = videoloader.NewMock()
	} else {
		loader = videoloader.NewYouTube()
	}

	var (
		generator domain.AnswerGenerator
		err       error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		generator, err = answergen.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)
	case config.ProviderGemini:
		generator, err = answergen.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.GeminiModel)
	default:
		generator = answergen.NewMock()
	}
	if err != nil {
		log.Fatalf("error initializing answer generator: %v", err)
	}

	svc := conversation.NewService(
		loader,
		generator,
		memstore.NewSessionStore(),
		memstore.NewMessageStore(),
		memstore.NewTranscriptStore(),
	)

	out, err := svc.StartSession(ctx, conversation.StartSessionInput{
		UserID: domain.UserID("local"),
	})
	if err != nil {
		log.Fatalf("error starting session: %v", err)
	}

	p := tea.NewProgram(tui.NewModel(svc, out.Session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
