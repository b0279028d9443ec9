package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewCreatesRunDir(t *testing.T) {
	base := t.TempDir()

	c, err := New(base)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	run := c.Run()
	if run.ID == "" {
		t.Error("run ID is empty")
	}
	if filepath.Dir(run.Dir) != base {
		t.Errorf("run dir %s not under base %s", run.Dir, base)
	}
	if info, err := os.Stat(run.Dir); err != nil || !info.IsDir() {
		t.Errorf("run dir was not created: %v", err)
	}
}

func TestNewRunIDsUnique(t *testing.T) {
	base := t.TempDir()

	a, err := New(base)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	b, err := New(base)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if a.Run().ID == b.Run().ID {
		t.Errorf("two runs got the same ID %s", a.Run().ID)
	}
}

func TestAttachMissingDir(t *testing.T) {
	if _, err := Attach(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Attach to a missing directory should fail")
	}
}

func TestRestoreEmptyRun(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	state, err := c.Restore()
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if state.HasScript {
		t.Error("fresh run reports a script")
	}
	if state.Chunks != nil {
		t.Errorf("fresh run reports chunks: %v", state.Chunks)
	}
	if len(state.Audio) != 0 || len(state.Descriptions) != 0 || len(state.Videos) != 0 {
		t.Error("fresh run reports artifacts")
	}
}

func TestSaveRestoreRoundtrip(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	script := "A short story about tides."
	chunks := []string{"The moon pulls the sea.", "The sea answers twice a day."}
	chunkKeys := []string{Key(chunks[0]), Key(chunks[1])}
	descriptions := map[string][]string{
		chunkKeys[0]: {"the moon over a calm ocean at night"},
		chunkKeys[1]: {"waves rolling onto a beach", "a tide chart on weathered paper"},
	}
	videoKey := CompositeKey(chunkKeys[0], Key(descriptions[chunkKeys[0]][0]))

	if err := c.SaveScript(script); err != nil {
		t.Fatalf("SaveScript() error: %v", err)
	}
	if err := c.SaveChunks(chunks); err != nil {
		t.Fatalf("SaveChunks() error: %v", err)
	}
	if err := c.SaveAudio(chunkKeys[0], []byte("mp3-bytes")); err != nil {
		t.Fatalf("SaveAudio() error: %v", err)
	}
	if err := c.SaveDescriptions(descriptions); err != nil {
		t.Fatalf("SaveDescriptions() error: %v", err)
	}
	if err := c.SaveVideo(videoKey, []byte("mp4-bytes")); err != nil {
		t.Fatalf("SaveVideo() error: %v", err)
	}

	// Reattach the way a resumed run does.
	re, err := Attach(c.Dir())
	if err != nil {
		t.Fatalf("Attach() error: %v", err)
	}
	state, err := re.Restore()
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	if !state.HasScript || state.Script != script {
		t.Errorf("script = %q, want %q", state.Script, script)
	}
	if len(state.Chunks) != 2 || state.Chunks[0] != chunks[0] || state.Chunks[1] != chunks[1] {
		t.Errorf("chunks = %v, want %v", state.Chunks, chunks)
	}
	if len(state.Audio) != 1 {
		t.Fatalf("audio artifacts = %d, want 1", len(state.Audio))
	}
	if got := state.Audio[chunkKeys[0]]; string(got.Data) != "mp3-bytes" || got.Key != chunkKeys[0] {
		t.Errorf("audio artifact = %+v", got)
	}
	if len(state.Descriptions[chunkKeys[1]]) != 2 {
		t.Errorf("descriptions = %v", state.Descriptions)
	}
	if got := state.Videos[videoKey]; string(got.Data) != "mp4-bytes" {
		t.Errorf("video artifact = %+v", got)
	}
}

func TestRestoreReportsPartialState(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	chunks := []string{"first", "second", "third"}
	if err := c.SaveScript("script"); err != nil {
		t.Fatalf("SaveScript() error: %v", err)
	}
	if err := c.SaveChunks(chunks); err != nil {
		t.Fatalf("SaveChunks() error: %v", err)
	}
	// Voice only two of three: the classic interrupted run.
	if err := c.SaveAudio(Key(chunks[0]), []byte("a")); err != nil {
		t.Fatalf("SaveAudio() error: %v", err)
	}
	if err := c.SaveAudio(Key(chunks[2]), []byte("c")); err != nil {
		t.Fatalf("SaveAudio() error: %v", err)
	}

	state, err := c.Restore()
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if len(state.Audio) != 2 {
		t.Errorf("audio artifacts = %d, want 2", len(state.Audio))
	}
	if _, ok := state.Audio[Key(chunks[1])]; ok {
		t.Error("unvoiced chunk reported as present")
	}
	if state.Descriptions != nil {
		t.Error("descriptions reported before being produced")
	}
}

func TestRestoreCorruptChunks(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(c.Dir(), "chunks.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Restore(); err == nil {
		t.Error("corrupt chunks.json should fail Restore, not read as absent")
	}
}
