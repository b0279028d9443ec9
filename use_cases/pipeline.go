package use_cases

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"reelforge/cache"
	"reelforge/domain/models"
	"reelforge/domain/ports"
)

// CollisionPolicy decides what happens when identical description text
// occurs more than once under the same chunk (the composite keys collide).
type CollisionPolicy string

const (
	// CollisionDedup renders one video per distinct composite key. Default.
	CollisionDedup CollisionPolicy = "dedup"
	// CollisionSuffix appends an ordinal to repeated keys so every
	// occurrence gets its own render.
	CollisionSuffix CollisionPolicy = "suffix"
)

// Options - orchestrator tuning. Concurrency values <= 0 mean unbounded.
type Options struct {
	CacheDir          string
	VoiceConcurrency  int
	VideoConcurrency  int
	PromptConcurrency int
	CollisionPolicy   CollisionPolicy
}

// Request - one pipeline invocation. ResumeDir reattaches to an existing
// run directory; empty means a fresh run. Context is optional free text
// prefixed onto every generated description.
type Request struct {
	Query     string
	Context   string
	ResumeDir string
}

// Result - the merged artifact set for the run, covering both restored and
// newly produced entries.
type Result struct {
	Run          models.Run
	Script       string
	Chunks       []models.Chunk
	Audio        map[string]models.AudioArtifact
	Descriptions map[string][]string
	Videos       map[string]models.VideoArtifact
}

// Handler drives the five stages against one run directory. Before every
// stage it consults the restored state, computes the missing-item delta
// for keyed stages, dispatches only the delta through a stage-scoped gate
// and merges results back in chunk order. Stage functions never touch the
// disk; all persistence happens in the collector loops here.
type Handler struct {
	writer    ports.ScriptWriterPort
	chunker   ports.ChunkerPort
	tts       ports.TTSPort
	expander  ports.PromptExpanderPort
	video     ports.VideoPort
	knowledge ports.KnowledgePort // nil when no knowledge store is configured
	messenger ports.MessengerPort
	storage   ports.StoragePort // nil disables artifact publication

	opts   Options
	logger *slog.Logger
}

func NewHandler(
	writer ports.ScriptWriterPort,
	chunker ports.ChunkerPort,
	tts ports.TTSPort,
	expander ports.PromptExpanderPort,
	video ports.VideoPort,
	knowledge ports.KnowledgePort,
	messenger ports.MessengerPort,
	storage ports.StoragePort,
	opts Options,
) *Handler {
	if opts.CollisionPolicy == "" {
		opts.CollisionPolicy = CollisionDedup
	}
	return &Handler{
		writer:    writer,
		chunker:   chunker,
		tts:       tts,
		expander:  expander,
		video:     video,
		knowledge: knowledge,
		messenger: messenger,
		storage:   storage,
		opts:      opts,
		logger:    slog.Default().With("component", "pipeline"),
	}
}

// Run executes the pipeline, resuming from whatever the run directory
// already holds. Re-running against the same directory only ever adds
// artifacts.
func (h *Handler) Run(ctx context.Context, req Request) (*Result, error) {
	cacher, err := h.openCacher(req.ResumeDir)
	if err != nil {
		return nil, err
	}
	run := cacher.Run()
	h.logger.InfoContext(ctx, "Pipeline starting", "run_id", run.ID, "run_dir", run.Dir, "resumed", req.ResumeDir != "")

	result, err := h.process(ctx, cacher, req)
	if err != nil {
		_ = h.messenger.SendFailed(ctx, run.ID, err)
		return result, err
	}

	_ = h.messenger.SendCompleted(ctx, run.ID)
	h.logger.InfoContext(ctx, "Pipeline complete",
		"run_id", run.ID,
		"chunks", len(result.Chunks),
		"videos", len(result.Videos),
	)
	return result, nil
}

func (h *Handler) openCacher(resumeDir string) (*cache.Cacher, error) {
	if resumeDir != "" {
		return cache.Attach(resumeDir)
	}
	return cache.New(h.opts.CacheDir)
}

func (h *Handler) process(ctx context.Context, cacher *cache.Cacher, req Request) (*Result, error) {
	run := cacher.Run()

	state, err := cacher.Restore()
	if err != nil {
		return nil, err
	}

	// Stage 1: script. Fatal on failure; nothing below the first stage is
	// recoverable without it.
	script := state.Script
	if !state.HasScript {
		h.sendProgress(ctx, run.ID, ports.StageScript, 5)
		script, err = h.processScript(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		if err := cacher.SaveScript(script); err != nil {
			return nil, err
		}
	} else {
		h.logger.InfoContext(ctx, "Script restored, skipping", "run_id", run.ID)
	}

	// Stage 2: chunking.
	rawChunks := state.Chunks
	if rawChunks == nil {
		h.sendProgress(ctx, run.ID, ports.StageChunking, 20)
		rawChunks, err = h.chunker.SplitScript(ctx, script)
		if err != nil {
			return nil, fmt.Errorf("chunking stage: %w", err)
		}
		if err := cacher.SaveChunks(rawChunks); err != nil {
			return nil, err
		}
	} else {
		h.logger.InfoContext(ctx, "Chunks restored, skipping", "run_id", run.ID, "count", len(rawChunks))
	}

	chunks := make([]models.Chunk, len(rawChunks))
	for i, text := range rawChunks {
		chunks[i] = models.Chunk{Index: i, Text: text, Key: cache.Key(text)}
	}

	result := &Result{Run: run, Script: script, Chunks: chunks}

	// Stage 3: voice. Keyed; only the missing delta is dispatched, each
	// artifact saved the moment it completes.
	h.sendProgress(ctx, run.ID, ports.StageVoice, 35)
	audio, err := h.processVoice(ctx, cacher, chunks, state.Audio)
	result.Audio = audio
	if err != nil {
		return result, err
	}
	if missing := missingAudio(chunks, audio); missing > 0 {
		return result, &PartialStageError{Stage: ports.StageVoice, Missing: missing, Total: len(chunks), RunDir: run.Dir}
	}

	// Stage 4: descriptions. All-or-nothing: descriptions.json is written
	// once, when every chunk has its prompt list.
	descriptions := state.Descriptions
	if descriptions == nil {
		h.sendProgress(ctx, run.ID, ports.StageDescriptions, 60)
		descriptions, err = h.processDescriptions(ctx, chunks, audio, req.Context)
		if err != nil {
			return result, fmt.Errorf("description stage: %w", err)
		}
		if err := cacher.SaveDescriptions(descriptions); err != nil {
			return result, err
		}
	} else {
		h.logger.InfoContext(ctx, "Descriptions restored, skipping", "run_id", run.ID)
	}
	result.Descriptions = descriptions

	// Stage 5: video.
	jobs := renderJobs(chunks, descriptions, h.opts.CollisionPolicy)
	h.sendProgress(ctx, run.ID, ports.StageVideo, 75)
	videos, err := h.processVideo(ctx, cacher, jobs, state.Videos)
	result.Videos = videos
	if err != nil {
		return result, err
	}
	if missing := missingVideos(jobs, videos); missing > 0 {
		return result, &PartialStageError{Stage: ports.StageVideo, Missing: missing, Total: len(jobs), RunDir: run.Dir}
	}

	// Optional publication of the finished run to object storage.
	if h.storage != nil {
		h.sendProgress(ctx, run.ID, ports.StagePublish, 95)
		h.publishRun(ctx, cacher)
	}

	h.sendProgress(ctx, run.ID, ports.StageVideo, 100)
	return result, nil
}

func (h *Handler) processScript(ctx context.Context, query string) (string, error) {
	knowledge := ""
	if query != "" {
		if h.knowledge == nil {
			return "", ErrKnowledgeStoreRequired
		}
		var err error
		knowledge, err = h.knowledge.RetrieveContext(ctx, query)
		if err != nil {
			return "", fmt.Errorf("retrieve knowledge: %w", err)
		}
	}

	script, err := h.writer.WriteScript(ctx, query, knowledge)
	if err != nil {
		return "", fmt.Errorf("script stage: %w", err)
	}
	return script, nil
}

type voiceResult struct {
	chunk    models.Chunk
	artifact *models.AudioArtifact
	err      error
}

// processVoice fans one synthesis call per missing chunk out through a
// stage-scoped gate. A single item failure is logged and leaves that item
// missing; siblings keep going. The returned map merges preexisting and
// newly produced entries. A returned error is a storage failure, which is
// fatal for the stage.
func (h *Handler) processVoice(ctx context.Context, cacher *cache.Cacher, chunks []models.Chunk, existing map[string]models.AudioArtifact) (map[string]models.AudioArtifact, error) {
	audio := make(map[string]models.AudioArtifact, len(chunks))
	for k, v := range existing {
		audio[k] = v
	}

	var missing []models.Chunk
	queued := make(map[string]bool)
	for _, c := range chunks {
		if _, ok := audio[c.Key]; !ok && !queued[c.Key] {
			queued[c.Key] = true
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		h.logger.InfoContext(ctx, "Voice stage already complete", "chunks", len(chunks))
		return audio, nil
	}
	h.logger.InfoContext(ctx, "Voice stage dispatching", "missing", len(missing), "total", len(chunks))

	gate := NewGate(h.opts.VoiceConcurrency)
	results := make(chan voiceResult)
	var wg sync.WaitGroup
	for _, c := range missing {
		wg.Add(1)
		go func(c models.Chunk) {
			defer wg.Done()
			if err := gate.Acquire(ctx); err != nil {
				results <- voiceResult{chunk: c, err: err}
				return
			}
			defer gate.Release()
			artifact, err := h.tts.Synthesize(ctx, c.Text)
			results <- voiceResult{chunk: c, artifact: artifact, err: err}
		}(c)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collector loop: the single writer. Each success is saved before the
	// next result is handled, so a crash mid-stage loses at most in-flight
	// work.
	var saveErr error
	for r := range results {
		if r.err != nil {
			h.logger.WarnContext(ctx, "Synthesis failed, item left missing",
				"chunk_key", r.chunk.Key,
				"chunk_index", r.chunk.Index,
				"error", r.err,
			)
			continue
		}
		if err := cacher.SaveAudio(r.chunk.Key, r.artifact.Data); err != nil {
			saveErr = err
			continue
		}
		r.artifact.Key = r.chunk.Key
		audio[r.chunk.Key] = *r.artifact
	}
	return audio, saveErr
}

// contextTemplate wraps a generated description with caller-supplied
// context. The two-section framing is part of the prompt contract with the
// video model.
const contextTemplate = "### CONTEXT ###\n%s\n\n### VIDEO INSTRUCTIONS ###\n%s"

// processDescriptions derives each chunk's prompt list. The target count
// comes from the audio duration bucket; zero-budget chunks get an empty
// list without an LLM call. Fan-out is bounded by PromptConcurrency
// (0 restores unbounded dispatch) and is all-or-nothing: any failure fails
// the stage.
func (h *Handler) processDescriptions(ctx context.Context, chunks []models.Chunk, audio map[string]models.AudioArtifact, extraContext string) (map[string][]string, error) {
	results := make([][]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	if h.opts.PromptConcurrency > 0 {
		g.SetLimit(h.opts.PromptConcurrency)
	}

	for i, c := range chunks {
		count := descriptionBudget(audio[c.Key].Duration)
		if count == 0 {
			h.logger.InfoContext(ctx, "Chunk below one video unit, no descriptions",
				"chunk_index", c.Index,
				"duration", audio[c.Key].Duration,
			)
			results[i] = []string{}
			continue
		}

		i, c, count := i, c, count
		g.Go(func() error {
			prompts, err := h.expander.ExpandPrompts(gctx, c.Text, count)
			if err != nil {
				return fmt.Errorf("expand chunk %d: %w", c.Index, err)
			}
			if extraContext != "" {
				for j, p := range prompts {
					prompts[j] = fmt.Sprintf(contextTemplate, extraContext, p)
				}
			}
			results[i] = prompts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	descriptions := make(map[string][]string, len(chunks))
	for i, c := range chunks {
		descriptions[c.Key] = results[i]
	}
	return descriptions, nil
}

// renderJob pairs one description with its parent chunk under the
// composite storage key.
type renderJob struct {
	chunk       models.Chunk
	description models.Description
	key         string
}

// renderJobs flattens the ordered chunk -> descriptions mapping into the
// ordered list of render jobs, applying the collision policy to repeated
// description text under one chunk.
func renderJobs(chunks []models.Chunk, descriptions map[string][]string, policy CollisionPolicy) []renderJob {
	var jobs []renderJob
	seen := make(map[string]int)
	for _, c := range chunks {
		for i, text := range descriptions[c.Key] {
			descKey := cache.Key(text)
			key := cache.CompositeKey(c.Key, descKey)
			n := seen[key]
			seen[key] = n + 1
			if n > 0 {
				if policy == CollisionDedup {
					continue
				}
				key = fmt.Sprintf("%s_%d", key, n)
			}
			jobs = append(jobs, renderJob{
				chunk:       c,
				description: models.Description{ChunkKey: c.Key, Index: i, Text: text, Key: descKey},
				key:         key,
			})
		}
	}
	return jobs
}

type videoResult struct {
	job  renderJob
	data []byte
	err  error
}

// processVideo mirrors processVoice over (chunk, description) pairs:
// missing-set delta, gated fan-out, immediate persistence, per-item error
// isolation.
func (h *Handler) processVideo(ctx context.Context, cacher *cache.Cacher, jobs []renderJob, existing map[string]models.VideoArtifact) (map[string]models.VideoArtifact, error) {
	videos := make(map[string]models.VideoArtifact, len(jobs))
	for k, v := range existing {
		videos[k] = v
	}

	var missing []renderJob
	for _, j := range jobs {
		if _, ok := videos[j.key]; !ok {
			missing = append(missing, j)
		}
	}
	if len(missing) == 0 {
		h.logger.InfoContext(ctx, "Video stage already complete", "videos", len(jobs))
		return videos, nil
	}
	h.logger.InfoContext(ctx, "Video stage dispatching", "missing", len(missing), "total", len(jobs))

	gate := NewGate(h.opts.VideoConcurrency)
	results := make(chan videoResult)
	var wg sync.WaitGroup
	for _, j := range missing {
		wg.Add(1)
		go func(j renderJob) {
			defer wg.Done()
			if err := gate.Acquire(ctx); err != nil {
				results <- videoResult{job: j, err: err}
				return
			}
			defer gate.Release()
			data, err := h.video.Render(ctx, j.description.Text)
			results <- videoResult{job: j, data: data, err: err}
		}(j)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var saveErr error
	for r := range results {
		if r.err != nil {
			h.logger.WarnContext(ctx, "Render failed, item left missing",
				"video_key", r.job.key,
				"chunk_index", r.job.chunk.Index,
				"error", r.err,
			)
			continue
		}
		if err := cacher.SaveVideo(r.job.key, r.data); err != nil {
			saveErr = err
			continue
		}
		videos[r.job.key] = models.VideoArtifact{Key: r.job.key, Data: r.data}
	}
	return videos, saveErr
}

// publishRun mirrors the finished run directory to object storage under
// the run ID prefix. Publication problems are logged, not fatal: the local
// run is the source of truth.
func (h *Handler) publishRun(ctx context.Context, cacher *cache.Cacher) {
	run := cacher.Run()
	root := cacher.Dir()
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		remote := run.ID + "/" + filepath.ToSlash(rel)
		// Artifacts are content-keyed and never rewritten, so anything
		// already in the bucket can be skipped on a resumed publish.
		if ok, err := h.storage.Exists(ctx, remote); err == nil && ok {
			return nil
		}
		if err := h.storage.Upload(ctx, remote, data, contentTypeFor(rel)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		h.logger.WarnContext(ctx, "Artifact publication failed", "run_id", run.ID, "error", err)
		return
	}
	h.logger.InfoContext(ctx, "Artifacts published", "run_id", run.ID, "url", h.storage.GetPublicURL(run.ID+"/"))
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(name, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (h *Handler) sendProgress(ctx context.Context, runID, stage string, percent int) {
	if err := h.messenger.SendProgress(ctx, runID, stage, percent); err != nil {
		h.logger.WarnContext(ctx, "Progress event not delivered", "stage", stage, "error", err)
	}
}

func missingAudio(chunks []models.Chunk, audio map[string]models.AudioArtifact) int {
	n := 0
	for _, c := range chunks {
		if _, ok := audio[c.Key]; !ok {
			n++
		}
	}
	return n
}

func missingVideos(jobs []renderJob, videos map[string]models.VideoArtifact) int {
	n := 0
	for _, j := range jobs {
		if _, ok := videos[j.key]; !ok {
			n++
		}
	}
	return n
}
