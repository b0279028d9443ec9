package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/domain/models"
)

// On-disk layout of one run directory:
//
//	script.txt                      raw narration text
//	chunks.json                     JSON array of chunk strings, in order
//	audio/<chunkKey>.mp3            one file per voiced chunk
//	descriptions.json               JSON object chunkKey -> []string
//	video/<chunkKey>_<descKey>.mp4  one file per rendered description
//
// Presence of a file is the sole completeness signal; there is no manifest.

const (
	scriptFile       = "script.txt"
	chunksFile       = "chunks.json"
	descriptionsFile = "descriptions.json"
	audioDir         = "audio"
	videoDir         = "video"
)

// Cacher is the single reader/writer of a run's persisted artifacts. It
// maps artifact kinds to files under the run directory and answers "what
// already exists" for resumption. Distinct keys never contend, so
// concurrent saves for different chunks are safe.
type Cacher struct {
	run    models.Run
	logger *slog.Logger
}

// RunState is the result of Restore. A nil map/slice (or HasScript false)
// means the corresponding artifact kind is absent. Partially-populated
// maps are returned as-is: the store reports existence, never judges
// completeness.
type RunState struct {
	Script       string
	HasScript    bool
	Chunks       []string
	Audio        map[string]models.AudioArtifact
	Descriptions map[string][]string
	Videos       map[string]models.VideoArtifact
}

// New creates a Cacher over a fresh, uniquely-named run directory under
// baseDir.
func New(baseDir string) (*Cacher, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache base dir: %w", err)
	}

	runID := time.Now().UTC().Format("20060102150405") + "_" + uuid.NewString()[:8]
	runDir := filepath.Join(baseDir, runID)
	if err := os.Mkdir(runDir, 0755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	return &Cacher{
		run: models.Run{
			ID:        runID,
			Dir:       runDir,
			CreatedAt: time.Now().UTC(),
		},
		logger: slog.Default().With("component", "cacher", "run_id", runID),
	}, nil
}

// Attach reattaches to an existing run directory verbatim. The directory
// must exist; nothing in it is validated beyond that, since missing files
// are the normal "not produced yet" signal.
func Attach(runDir string) (*Cacher, error) {
	info, err := os.Stat(runDir)
	if err != nil {
		return nil, fmt.Errorf("attach run dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("attach run dir: %s is not a directory", runDir)
	}

	runID := filepath.Base(runDir)
	return &Cacher{
		run: models.Run{
			ID:        runID,
			Dir:       runDir,
			CreatedAt: info.ModTime().UTC(),
		},
		logger: slog.Default().With("component", "cacher", "run_id", runID),
	}, nil
}

func (c *Cacher) Run() models.Run { return c.run }
func (c *Cacher) Dir() string     { return c.run.Dir }

func (c *Cacher) SaveScript(script string) error {
	path := filepath.Join(c.run.Dir, scriptFile)
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		return fmt.Errorf("save script: %w", err)
	}
	c.logger.Info("Script saved", "bytes", len(script))
	return nil
}

func (c *Cacher) SaveChunks(chunks []string) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	path := filepath.Join(c.run.Dir, chunksFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	c.logger.Info("Chunks saved", "count", len(chunks))
	return nil
}

// SaveAudio writes one chunk's audio under its content key. Safe to call
// incrementally while other keys are in flight.
func (c *Cacher) SaveAudio(key string, data []byte) error {
	dir := filepath.Join(c.run.Dir, audioDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	path := filepath.Join(dir, key+".mp3")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save audio %s: %w", key, err)
	}
	return nil
}

func (c *Cacher) SaveDescriptions(descriptions map[string][]string) error {
	data, err := json.Marshal(descriptions)
	if err != nil {
		return fmt.Errorf("marshal descriptions: %w", err)
	}
	path := filepath.Join(c.run.Dir, descriptionsFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save descriptions: %w", err)
	}
	c.logger.Info("Descriptions saved", "chunks", len(descriptions))
	return nil
}

// SaveVideo writes one description's video under its composite key.
func (c *Cacher) SaveVideo(key string, data []byte) error {
	dir := filepath.Join(c.run.Dir, videoDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create video dir: %w", err)
	}
	path := filepath.Join(dir, key+".mp4")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("save video %s: %w", key, err)
	}
	return nil
}

// Restore loads whatever the run directory already holds. Missing files
// and directories are the "absent" signal driving resumption, never an
// error; only unreadable or corrupt data is.
func (c *Cacher) Restore() (*RunState, error) {
	state := &RunState{}

	if data, err := os.ReadFile(filepath.Join(c.run.Dir, scriptFile)); err == nil {
		state.Script = string(data)
		state.HasScript = true
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("restore script: %w", err)
	}

	if data, err := os.ReadFile(filepath.Join(c.run.Dir, chunksFile)); err == nil {
		if err := json.Unmarshal(data, &state.Chunks); err != nil {
			return nil, fmt.Errorf("restore chunks: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("restore chunks: %w", err)
	}

	audio, err := c.restoreAudio()
	if err != nil {
		return nil, err
	}
	state.Audio = audio

	if data, err := os.ReadFile(filepath.Join(c.run.Dir, descriptionsFile)); err == nil {
		if err := json.Unmarshal(data, &state.Descriptions); err != nil {
			return nil, fmt.Errorf("restore descriptions: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("restore descriptions: %w", err)
	}

	videos, err := c.restoreVideos()
	if err != nil {
		return nil, err
	}
	state.Videos = videos

	c.logger.Info("Run state restored",
		"has_script", state.HasScript,
		"chunks", len(state.Chunks),
		"audio", len(state.Audio),
		"described_chunks", len(state.Descriptions),
		"videos", len(state.Videos),
	)
	return state, nil
}

func (c *Cacher) restoreAudio() (map[string]models.AudioArtifact, error) {
	entries, err := os.ReadDir(filepath.Join(c.run.Dir, audioDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore audio: %w", err)
	}

	audio := make(map[string]models.AudioArtifact, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".mp3") {
			continue
		}
		key := strings.TrimSuffix(name, ".mp3")
		data, err := os.ReadFile(filepath.Join(c.run.Dir, audioDir, name))
		if err != nil {
			return nil, fmt.Errorf("restore audio %s: %w", key, err)
		}
		audio[key] = models.AudioArtifact{
			Key:      key,
			Data:     data,
			Duration: models.MP3Duration(data),
		}
	}
	return audio, nil
}

func (c *Cacher) restoreVideos() (map[string]models.VideoArtifact, error) {
	entries, err := os.ReadDir(filepath.Join(c.run.Dir, videoDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore videos: %w", err)
	}

	videos := make(map[string]models.VideoArtifact, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".mp4") {
			continue
		}
		key := strings.TrimSuffix(name, ".mp4")
		data, err := os.ReadFile(filepath.Join(c.run.Dir, videoDir, name))
		if err != nil {
			return nil, fmt.Errorf("restore video %s: %w", key, err)
		}
		videos[key] = models.VideoArtifact{Key: key, Data: data}
	}
	return videos, nil
}
