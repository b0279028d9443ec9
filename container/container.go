package container

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"

	"reelforge/config"
	"reelforge/domain/ports"
	"reelforge/infrastructure/ai"
	"reelforge/infrastructure/knowledge"
	"reelforge/infrastructure/messenger"
	"reelforge/infrastructure/storage"
	"reelforge/infrastructure/tts"
	"reelforge/infrastructure/video"
	"reelforge/use_cases"
)

// Container - Dependency Injection Container
type Container struct {
	Config *config.Config

	// External connections
	NATSConn *nats.Conn
	DB       *sql.DB

	// Ports (Interfaces)
	ScriptWriter   ports.ScriptWriterPort
	Chunker        ports.ChunkerPort
	TTSService     ports.TTSPort
	PromptExpander ports.PromptExpanderPort
	VideoService   ports.VideoPort
	Knowledge      ports.KnowledgePort
	Messenger      ports.MessengerPort
	Storage        ports.StoragePort

	// Use Cases
	PipelineHandler *use_cases.Handler

	// Internal
	geminiClient *ai.GeminiClient
	logger       *slog.Logger
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		logger: slog.Default().With("component", "container"),
	}

	var err error

	// ─────────────────────────────────────────────────────────────────────────────
	// 1. External Connections
	// ─────────────────────────────────────────────────────────────────────────────

	// NATS Connection (optional - progress events)
	if cfg.NATS.URL != "" {
		c.NATSConn, err = nats.Connect(cfg.NATS.URL,
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		c.logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	}

	// Database Connection (optional - knowledge store)
	if cfg.Knowledge.DatabaseURL != "" {
		c.DB, err = sql.Open("postgres", cfg.Knowledge.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := c.DB.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		c.logger.Info("Connected to database")
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// 2. Infrastructure Layer
	// ─────────────────────────────────────────────────────────────────────────────

	// Gemini AI Service (script writer, chunker, prompt expander, embedder)
	c.geminiClient, err = ai.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.ScriptWriter = c.geminiClient
	c.Chunker = c.geminiClient
	c.PromptExpander = c.geminiClient
	c.logger.Info("Gemini client created", "model", cfg.Gemini.Model)

	// ElevenLabs TTS Service
	c.TTSService = tts.NewElevenLabsClient(tts.ElevenLabsConfig{
		APIKey:  cfg.ElevenLabs.APIKey,
		VoiceID: cfg.ElevenLabs.VoiceID,
		Model:   cfg.ElevenLabs.Model,
		Speed:   cfg.ElevenLabs.Speed,
	})
	c.logger.Info("ElevenLabs client created",
		"voice_id", cfg.ElevenLabs.VoiceID,
		"model", cfg.ElevenLabs.Model,
	)

	// Veo Video Service
	c.VideoService = video.NewVeoClient(video.VeoConfig{
		APIKey:          cfg.Video.APIKey,
		Models:          cfg.Video.Models,
		AspectRatio:     cfg.Video.AspectRatio,
		DurationSeconds: cfg.Video.DurationSeconds,
		PollTimeout:     cfg.Video.PollTimeout,
	})
	c.logger.Info("Veo client created", "models", cfg.Video.Models)

	// pgvector Knowledge Store
	if c.DB != nil {
		c.Knowledge = knowledge.NewPgVectorClient(c.DB, c.geminiClient, cfg.Knowledge.SearchLimit)
		c.logger.Info("pgvector knowledge store created", "limit", cfg.Knowledge.SearchLimit)
	} else {
		c.logger.Warn("DATABASE_URL not set, knowledge store disabled")
	}

	// NATS Messenger (Progress Publisher)
	if c.NATSConn != nil {
		c.Messenger = messenger.NewNATSPublisher(c.NATSConn, cfg.NATS.Subject)
		c.logger.Info("NATS messenger created", "subject", cfg.NATS.Subject)
	} else {
		c.Messenger = messenger.NewNoop()
		c.logger.Warn("NATS_URL not set, progress events disabled")
	}

	// R2 Storage - for publishing finished run artifacts
	if cfg.Storage.Endpoint != "" {
		storageClient, err := storage.NewR2Client(storage.R2Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		c.Storage = storageClient
		c.logger.Info("R2 storage created", "bucket", cfg.Storage.Bucket)
	} else {
		c.logger.Warn("Storage endpoint not set, artifact publication disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────────
	// 3. Use Cases Layer
	// ─────────────────────────────────────────────────────────────────────────────

	c.PipelineHandler = use_cases.NewHandler(
		c.ScriptWriter,
		c.Chunker,
		c.TTSService,
		c.PromptExpander,
		c.VideoService,
		c.Knowledge,
		c.Messenger,
		c.Storage,
		use_cases.Options{
			CacheDir:          cfg.Pipeline.CacheDir,
			VoiceConcurrency:  cfg.Pipeline.VoiceConcurrency,
			VideoConcurrency:  cfg.Pipeline.VideoConcurrency,
			PromptConcurrency: cfg.Pipeline.PromptConcurrency,
			CollisionPolicy:   use_cases.CollisionPolicy(cfg.Pipeline.CollisionPolicy),
		},
	)
	c.logger.Info("Pipeline handler created")

	c.logger.Info("Container initialized successfully")
	return c, nil
}

// Stop closes external connections (graceful shutdown)
func (c *Container) Stop() {
	c.logger.Info("Stopping container services...")

	// Close Gemini client
	if c.geminiClient != nil {
		c.geminiClient.Close()
		c.logger.Info("Gemini client closed")
	}

	// Close database
	if c.DB != nil {
		c.DB.Close()
		c.logger.Info("Database connection closed")
	}

	// Close NATS
	if c.NATSConn != nil {
		c.NATSConn.Close()
		c.logger.Info("NATS connection closed")
	}

	c.logger.Info("Container stopped")
}
