package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// One MPEG1 Layer III frame at 128 kbps / 44.1 kHz: 417 bytes, 1152
// samples. Enough for the duration derivation to produce a real number.
func mp3Frame() []byte {
	frame := make([]byte, 417)
	frame[0] = 0xFF
	frame[1] = 0xFB
	frame[2] = 0x90
	frame[3] = 0xC4
	return frame
}

func TestSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "key" {
			t.Error("missing xi-api-key header")
		}
		if !strings.Contains(r.URL.Path, "/text-to-speech/voice-1") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "mp3_44100_128" {
			t.Errorf("output_format = %s", got)
		}

		var req ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "hello there" {
			t.Errorf("text = %q", req.Text)
		}
		if req.ModelID != "eleven_multilingual_v2" {
			t.Errorf("model_id = %q", req.ModelID)
		}
		if req.VoiceSettings.Speed != 1.1 {
			t.Errorf("speed = %v, want the 1.1 default", req.VoiceSettings.Speed)
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(mp3Frame())
		_, _ = w.Write(mp3Frame())
	}))
	defer server.Close()

	c := NewElevenLabsClient(ElevenLabsConfig{APIKey: "key", VoiceID: "voice-1"})
	c.baseURL = server.URL

	artifact, err := c.Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	if len(artifact.Data) != 2*417 {
		t.Errorf("audio bytes = %d, want %d", len(artifact.Data), 2*417)
	}
	if artifact.Duration <= 0 {
		t.Errorf("duration = %v, want > 0", artifact.Duration)
	}
}

func TestSynthesizeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "invalid voice"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	c := NewElevenLabsClient(ElevenLabsConfig{APIKey: "key", VoiceID: "bad"})
	c.baseURL = server.URL

	if _, err := c.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("Synthesize() succeeded on an API error response")
	}
}
