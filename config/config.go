package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Pipeline   PipelineConfig
	Gemini     GeminiConfig
	ElevenLabs ElevenLabsConfig
	Video      VideoConfig
	Knowledge  KnowledgeConfig
	NATS       NATSConfig
	Storage    StorageConfig
}

type PipelineConfig struct {
	CacheDir          string
	VoiceConcurrency  int
	VideoConcurrency  int
	PromptConcurrency int // 0 = unbounded
	CollisionPolicy   string
}

type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
}

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	Model   string // eleven_multilingual_v2, eleven_v3
	Speed   float64
}

type VideoConfig struct {
	APIKey          string   // falls back to the Gemini key
	Models          []string // tried in order
	AspectRatio     string
	DurationSeconds string
	PollTimeout     time.Duration
}

type KnowledgeConfig struct {
	DatabaseURL string // empty disables the knowledge store
	SearchLimit int
}

type NATSConfig struct {
	URL     string // empty disables progress events
	Subject string
}

type StorageConfig struct {
	Endpoint  string // empty disables artifact publication
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	voiceConc, _ := strconv.Atoi(getEnv("VOICE_CONCURRENCY", "3"))
	videoConc, _ := strconv.Atoi(getEnv("VIDEO_CONCURRENCY", "2"))
	promptConc, _ := strconv.Atoi(getEnv("PROMPT_CONCURRENCY", "4"))
	searchLimit, _ := strconv.Atoi(getEnv("KNOWLEDGE_SEARCH_LIMIT", "8"))
	speed, _ := strconv.ParseFloat(getEnv("ELEVENLABS_SPEED", "1.1"), 64)
	pollTimeout, err := time.ParseDuration(getEnv("VIDEO_POLL_TIMEOUT", "15m"))
	if err != nil {
		pollTimeout = 15 * time.Minute
	}

	return &Config{
		Pipeline: PipelineConfig{
			CacheDir:          getEnv("CACHE_DIR", ".cache"),
			VoiceConcurrency:  voiceConc,
			VideoConcurrency:  videoConc,
			PromptConcurrency: promptConc,
			CollisionPolicy:   getEnv("VIDEO_COLLISION_POLICY", "dedup"),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			Model:          getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
			EmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  getEnv("ELEVENLABS_API_KEY", ""),
			VoiceID: getEnv("ELEVENLABS_VOICE_ID", "nrbjbLmJZ7T1FcsFbbeE"),
			Model:   getEnv("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
			Speed:   speed,
		},
		Video: VideoConfig{
			APIKey:          getEnv("VIDEO_API_KEY", getEnv("GEMINI_API_KEY", "")),
			Models:          splitList(getEnv("VIDEO_MODELS", "veo-3.0-generate-001,veo-3.0-fast-generate-001,veo-2.0-generate-001")),
			AspectRatio:     getEnv("VIDEO_ASPECT_RATIO", "9:16"),
			DurationSeconds: getEnv("VIDEO_DURATION_SECONDS", "8"),
			PollTimeout:     pollTimeout,
		},
		Knowledge: KnowledgeConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
			SearchLimit: searchLimit,
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "reelforge.run.progress"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "reelforge-runs"),
			PublicURL: getEnv("STORAGE_PUBLIC_URL", ""),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
