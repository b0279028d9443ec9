package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"reelforge/domain/models"
)

const (
	elevenLabsAPIURL = "https://api.elevenlabs.io/v1"
	outputFormat     = "mp3_44100_128"
	defaultTimeout   = 60 * time.Second
)

type ElevenLabsClient struct {
	apiKey     string
	voiceID    string
	model      string
	speed      float64
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	Model   string
	Speed   float64
}

func NewElevenLabsClient(cfg ElevenLabsConfig) *ElevenLabsClient {
	model := cfg.Model
	if model == "" {
		model = "eleven_multilingual_v2"
	}
	speed := cfg.Speed
	if speed == 0 {
		speed = 1.1
	}

	return &ElevenLabsClient{
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		model:   model,
		speed:   speed,
		baseURL: elevenLabsAPIURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default().With("component", "elevenlabs"),
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
	Speed           float64 `json:"speed"`
}

// Synthesize renders one chunk of narration to MP3. The artifact's
// duration is derived from the returned frames, so the same number falls
// out again when the file is restored from cache.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) (*models.AudioArtifact, error) {
	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", c.baseURL, c.voiceID, outputFormat)

	reqBody := ttsRequest{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.0,
			UseSpeakerBoost: true,
			Speed:           c.speed,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "audio/mpeg")

	c.logger.InfoContext(ctx, "Synthesizing chunk",
		"voice_id", c.voiceID,
		"char_count", len([]rune(text)),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("TTS API error: %d - %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	duration := models.MP3Duration(audioData)
	c.logger.InfoContext(ctx, "Chunk synthesized",
		"bytes", len(audioData),
		"duration_sec", duration,
	)

	return &models.AudioArtifact{Data: audioData, Duration: duration}, nil
}
