package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/NicoPedraza/vidqa/internal/adapters/answergen"
	"github.com/NicoPedraza/vidqa/internal/adapters/embeddings"
	httpadapter "github.com/NicoPedraza/vidqa/internal/adapters/http"
	firestorestore "github.com/NicoPedraza/vidqa/internal/adapters/storage/firestore"
	memstore "github.com/NicoPedraza/vidqa/internal/adapters/storage/memory"
	"github.com/NicoPedraza/vidqa/internal/adapters/storage/postgres"
	"github.com/NicoPedraza/vidqa/internal/adapters/videoloader"
	"github.com/NicoPedraza/vidqa/internal/app/conversation"
	"github.com/NicoPedraza/vidqa/internal/app/transcriptsearch"
	"github.com/NicoPedraza/vidqa/internal/config"
	"github.com/NicoPedraza/vidqa/internal/domain"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	// Video loader: canned or real YouTube.
	var loader domain.VideoLoader
	if cfg.UseMockLoader {
		log.Println("[LOADER] Using mock video loader")
		loader = videoloader.NewMock()
	} else {
		log.Println("[LOADER] Using YouTube video loader")
		loader = videoloader.NewYouTube()
	}

	// Answer generator.
	var (
		generator domain.AnswerGenerator
		err       error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		log.Println("[LLM] Using OpenAI answer generator")
		generator, err = answergen.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)
		if err != nil {
			log.Fatalf("error initializing OpenAI client: %v", err)
		}
	case config.ProviderGemini:
		log.Println("[LLM] Using Gemini answer generator")
		generator, err = answergen.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
	default:
		log.Println("[LLM] Using mock answer generator")
		generator = answergen.NewMock()
	}

	// Session and message storage.
	var sessionStore domain.SessionStore
	var messageStore domain.MessageStore
	switch cfg.SessionBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		// one store, implements both interfaces
		sessionStore = fsStore
		messageStore = fsStore
	default:
		log.Println("[STORE] Using in-memory session storage")
		sessionStore = memstore.NewSessionStore()
		messageStore = memstore.NewMessageStore()
	}

	// Transcript storage.
	var transcriptStore domain.TranscriptStore
	switch cfg.TranscriptBackend {
	case "postgres":
		log.Println("[STORE] Using postgres transcript storage")
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("error connecting to postgres: %v", err)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("error migrating transcript schema: %v", err)
		}
		embedder, err := embeddings.NewClient(cfg.OpenAIKey)
		if err != nil {
			log.Fatalf("error initializing embeddings client: %v", err)
		}
		transcriptStore = postgres.NewTranscriptStore(db, embedder)
	default:
		log.Println("[STORE] Using in-memory transcript storage")
		transcriptStore = memstore.NewTranscriptStore()
	}

	convSvc := conversation.NewService(loader, generator, sessionStore, messageStore, transcriptStore)
	searchSvc := transcriptsearch.NewService(transcriptStore)

	handler := httpadapter.NewServer(convSvc, searchSvc, cfg.ServiceAPIKey)

	addr := ":" + cfg.Port
	log.Println("vidqa API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
