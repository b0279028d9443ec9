package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta"

	pollBaseDelay = 5 * time.Second
	pollMaxDelay  = 60 * time.Second
)

// ErrRenderTimeout - the long-running operation did not finish inside the
// configured poll window. Distinct from a generation failure: the backend
// may still be rendering, and a later resume can try again.
var ErrRenderTimeout = errors.New("video render timed out while polling")

// VeoClient renders one prompt to MP4 through the generative-language
// predictLongRunning API. Backend models are tried in the configured
// order, falling through to the next on any error; only when all are
// exhausted does a render fail definitively.
type VeoClient struct {
	apiKey          string
	models          []string
	aspectRatio     string
	durationSeconds string
	pollTimeout     time.Duration
	baseURL         string
	httpClient      *http.Client
	logger          *slog.Logger
}

type VeoConfig struct {
	APIKey          string
	Models          []string
	AspectRatio     string
	DurationSeconds string
	PollTimeout     time.Duration
}

func NewVeoClient(cfg VeoConfig) *VeoClient {
	models := cfg.Models
	if len(models) == 0 {
		models = []string{"veo-3.0-generate-001", "veo-3.0-fast-generate-001", "veo-2.0-generate-001"}
	}
	aspect := cfg.AspectRatio
	if aspect == "" {
		aspect = "9:16"
	}
	duration := cfg.DurationSeconds
	if duration == "" {
		duration = "8"
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = 15 * time.Minute
	}

	return &VeoClient{
		apiKey:          cfg.APIKey,
		models:          models,
		aspectRatio:     aspect,
		durationSeconds: duration,
		pollTimeout:     pollTimeout,
		baseURL:         geminiAPIBase,
		httpClient:      &http.Client{Timeout: 2 * time.Minute},
		logger:          slog.Default().With("component", "veo"),
	}
}

func (c *VeoClient) Render(ctx context.Context, prompt string) ([]byte, error) {
	var lastErr error
	for _, model := range c.models {
		c.logger.InfoContext(ctx, "Trying video model", "model", model)
		data, err := c.renderWith(ctx, model, prompt)
		if err == nil {
			c.logger.InfoContext(ctx, "Render completed", "model", model, "bytes", len(data))
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WarnContext(ctx, "Video model failed, falling through",
			"model", model,
			"error", err,
		)
		lastErr = err
	}
	return nil, fmt.Errorf("all video models exhausted: %w", lastErr)
}

type renderRequest struct {
	Instances  []renderInstance `json:"instances"`
	Parameters renderParameters `json:"parameters"`
}

type renderInstance struct {
	Prompt string `json:"prompt"`
}

type renderParameters struct {
	AspectRatio     string `json:"aspectRatio"`
	DurationSeconds string `json:"durationSeconds"`
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

func (c *VeoClient) renderWith(ctx context.Context, model, prompt string) ([]byte, error) {
	opName, err := c.startOperation(ctx, model, prompt)
	if err != nil {
		return nil, err
	}

	op, err := c.pollOperation(ctx, opName)
	if err != nil {
		return nil, err
	}

	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return nil, fmt.Errorf("operation finished with no generated video")
	}
	return c.download(ctx, samples[0].Video.URI)
}

func (c *VeoClient) startOperation(ctx context.Context, model, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:predictLongRunning", c.baseURL, model)
	body, err := json.Marshal(renderRequest{
		Instances: []renderInstance{{Prompt: prompt}},
		Parameters: renderParameters{
			AspectRatio:     c.aspectRatio,
			DurationSeconds: c.durationSeconds,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal render request: %w", err)
	}

	var op operationResponse
	if err := c.doJSON(ctx, "POST", url, body, &op); err != nil {
		return "", fmt.Errorf("start render: %w", err)
	}
	if op.Name == "" {
		return "", fmt.Errorf("start render: no operation name returned")
	}
	return op.Name, nil
}

// pollOperation waits for the long-running render with exponential backoff
// capped at pollMaxDelay, giving up after the configured poll window.
func (c *VeoClient) pollOperation(ctx context.Context, opName string) (*operationResponse, error) {
	deadline := time.Now().Add(c.pollTimeout)
	delay := pollBaseDelay

	for {
		var op operationResponse
		url := fmt.Sprintf("%s/%s", c.baseURL, opName)
		if err := c.doJSON(ctx, "GET", url, nil, &op); err != nil {
			return nil, fmt.Errorf("poll render: %w", err)
		}
		if op.Done {
			if op.Error != nil {
				return nil, fmt.Errorf("render failed: %s", op.Error.Message)
			}
			return &op, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w after %s", ErrRenderTimeout, c.pollTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > pollMaxDelay {
			delay = pollMaxDelay
		}
	}
}

func (c *VeoClient) download(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download video: %d - %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func (c *VeoClient) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %d - %s", resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}
