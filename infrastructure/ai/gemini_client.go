package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	maxRetries     = 3
	retryBaseDelay = time.Second
)

// GeminiClient implements the three LLM stage ports (script writer,
// chunker, prompt expander) and the embedding port for the knowledge
// store. One client, one configured model, per-call system instructions.
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	logger         *slog.Logger
}

func NewGeminiClient(ctx context.Context, apiKey, model, embeddingModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		logger:         slog.Default().With("component", "gemini"),
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// WriteScript generates the narration script for a query, grounded on the
// retrieved knowledge context when present.
func (c *GeminiClient) WriteScript(ctx context.Context, query, knowledge string) (string, error) {
	c.logger.InfoContext(ctx, "Generating script", "model", c.model, "has_knowledge", knowledge != "")

	prompt := promptSections(
		section{"question", query},
		section{"knowledge", knowledge},
	)
	text, err := c.generateText(ctx, writerSystemPrompt, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}

	c.logger.InfoContext(ctx, "Script generated", "chars", len(text))
	return text, nil
}

type chunkerResponse struct {
	Chunks []string `json:"chunks"`
}

// SplitScript splits the script into ordered, self-contained narration
// chunks via Gemini JSON mode.
func (c *GeminiClient) SplitScript(ctx context.Context, script string) ([]string, error) {
	c.logger.InfoContext(ctx, "Splitting script", "model", c.model)

	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"chunks": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"chunks"},
	}

	prompt := promptSections(section{"script", script})
	text, err := c.generateText(ctx, chunkerSystemPrompt, prompt, schema)
	if err != nil {
		return nil, fmt.Errorf("split script: %w", err)
	}

	var parsed chunkerResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("parse chunker response: %w", err)
	}
	if len(parsed.Chunks) == 0 {
		return nil, fmt.Errorf("chunker returned no chunks")
	}

	c.logger.InfoContext(ctx, "Script split", "chunks", len(parsed.Chunks))
	return parsed.Chunks, nil
}

type expanderResponse struct {
	Descriptions []string `json:"descriptions"`
}

// ExpandPrompts derives count video-generation prompts from one chunk.
func (c *GeminiClient) ExpandPrompts(ctx context.Context, chunk string, count int) ([]string, error) {
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"descriptions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		},
		Required: []string{"descriptions"},
	}

	prompt := promptSections(
		section{"script", chunk},
		section{"versions", strconv.Itoa(count)},
	)
	text, err := c.generateText(ctx, expanderSystemPrompt, prompt, schema)
	if err != nil {
		return nil, fmt.Errorf("expand prompts: %w", err)
	}

	var parsed expanderResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("parse expander response: %w", err)
	}

	c.logger.InfoContext(ctx, "Prompts expanded", "requested", count, "returned", len(parsed.Descriptions))
	return parsed.Descriptions, nil
}

// EmbedText embeds text for the pgvector knowledge store.
func (c *GeminiClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	em := c.client.EmbeddingModel(c.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if res.Embedding == nil {
		return nil, fmt.Errorf("embedding response was empty")
	}
	return res.Embedding.Values, nil
}

func (c *GeminiClient) generateText(ctx context.Context, systemPrompt, userPrompt string, schema *genai.Schema) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(1)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	if schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = schema
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
		if err == nil {
			text := responseText(resp)
			if text != "" {
				return text, nil
			}
			err = fmt.Errorf("empty response")
		}
		lastErr = err
		if attempt < maxRetries {
			c.logger.WarnContext(ctx, "Generation attempt failed, retrying",
				"attempt", attempt,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryBaseDelay * time.Duration(attempt)):
			}
		}
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", maxRetries, lastErr)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}

type section struct {
	key   string
	value string
}

// promptSections renders the key-value input framing the system prompts
// declare. Empty values are omitted.
func promptSections(sections ...section) string {
	var sb strings.Builder
	for _, s := range sections {
		if s.value == "" {
			continue
		}
		sb.WriteString("### " + s.key + " ###\n")
		sb.WriteString(s.value + "\n\n")
	}
	sb.WriteString("### answer ###")
	return sb.String()
}
