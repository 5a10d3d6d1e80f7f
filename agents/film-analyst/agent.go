package filmanalyst

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"film-room/internal/models"
	"film-room/shared/ai"
	"film-room/shared/config"
	"film-room/shared/email"
	"film-room/shared/monitoring"
	"film-room/shared/storage"
	"film-room/agents/film-analyst/youtube"

	"github.com/google/uuid"
)

// FilmAgent is the job runner: it discovers newly submitted game film,
// invokes the analysis pipeline once per video (with retry-on-transient
// semantics), and writes results back to the store. Concurrency across
// different videos is capped by max_concurrent_analyses; within one video
// the pipeline handles its own formatting fan-out.
type FilmAgent struct {
	config      *config.Config
	registry    *config.Registry
	pipeline    *ai.Pipeline
	store       *storage.Store
	youtube     *youtube.Client
	emailSender *email.Sender
	monitor     *monitoring.Monitor
	metrics     *monitoring.Metrics
}

func NewFilmAgent(cfg *config.Config, registry *config.Registry, monitor *monitoring.Monitor, metrics *monitoring.Metrics) *FilmAgent {
	return &FilmAgent{
		config:   cfg,
		registry: registry,
		monitor:  monitor,
		metrics:  metrics,
	}
}

func (f *FilmAgent) Name() string {
	return "Film Analyst"
}

func (f *FilmAgent) Initialize() error {
	log.Printf("Initializing %s...", f.Name())

	if f.pipeline == nil {
		client, err := ai.NewGeminiClient(f.config.AI.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("failed to create Gemini client: %w", err)
		}
		f.pipeline = ai.NewPipeline(client, f.registry, f.metrics)
		log.Println("Analysis pipeline initialized")
	}

	if f.store == nil {
		store, err := storage.NewStore(f.config.Intake.DataDir)
		if err != nil {
			return fmt.Errorf("failed to create analysis store: %w", err)
		}
		f.store = store
		log.Printf("Analysis store initialized (%d requests tracked)", store.Count())
	}

	if f.youtube == nil && (f.config.YouTube.APIKey != "" || f.config.YouTube.TokenFile != "") {
		client, err := youtube.NewClient(context.Background(), &f.config.YouTube)
		if err != nil {
			log.Printf("Warning: YouTube metadata lookups disabled: %v", err)
		} else {
			f.youtube = client
			log.Println("YouTube client initialized")
		}
	}

	if f.emailSender == nil {
		f.emailSender = email.NewSender(&f.config.Email)
	}

	return nil
}

// SetPipeline substitutes the pipeline, for tests.
func (f *FilmAgent) SetPipeline(p *ai.Pipeline) { f.pipeline = p }

// SetStore substitutes the store, for tests.
func (f *FilmAgent) SetStore(s *storage.Store) { f.store = s }

func (f *FilmAgent) RunOnce(ctx context.Context) error {
	startTime := time.Now()

	discovered := f.discoverRequests()
	pending := f.store.Pending()
	if len(pending) == 0 {
		log.Println("No film waiting for analysis")
		f.monitor.RecordSuccess("no pending film", time.Since(startTime))
		return nil
	}

	log.Printf("Processing %d pending videos (%d newly discovered)", len(pending), discovered)

	sem := make(chan struct{}, f.maxConcurrent())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var completed, failed int

	for _, req := range pending {
		wg.Add(1)
		sem <- struct{}{}
		go func(req *models.AnalysisRequest) {
			defer wg.Done()
			defer func() { <-sem }()

			ok := f.process(ctx, req)
			f.monitor.RecordAnalysis(ok)
			mu.Lock()
			if ok {
				completed++
			} else {
				failed++
			}
			mu.Unlock()
		}(req)
	}
	wg.Wait()

	if f.emailSender != nil && f.emailSender.Enabled() && completed > 0 {
		digest := f.store.CompletedSince(startTime)
		if err := f.emailSender.SendDigest(digest); err != nil {
			log.Printf("Warning: failed to send digest email: %v", err)
		}
	}

	duration := time.Since(startTime)
	summary := fmt.Sprintf("analyzed %d videos, %d completed, %d failed", len(pending), completed, failed)
	if failed == len(pending) {
		err := fmt.Errorf("all %d analyses failed", failed)
		f.monitor.RecordCriticalFailure(err, duration)
		return err
	}
	if failed > 0 {
		f.monitor.RecordPartialFailure(fmt.Errorf("%d of %d analyses failed", failed, len(pending)), duration)
	}
	f.monitor.RecordSuccess(summary, duration)
	return nil
}

// process runs one request end to end and returns whether it completed.
func (f *FilmAgent) process(ctx context.Context, req *models.AnalysisRequest) bool {
	log.Printf("Analyzing %s (%s)", req.Source, req.SourceType)

	if err := f.store.SetStatus(req.ID, models.StatusProcessing); err != nil {
		log.Printf("Warning: %v", err)
	}

	src, err := f.resolveSource(req)
	if err != nil {
		log.Printf("Video %s rejected: %v", req.Source, err)
		f.markFailed(req, err)
		return false
	}

	start := time.Now()
	result, err := f.runWithRetry(ctx, src)
	f.metrics.ObserveRunSeconds(time.Since(start).Seconds())

	if err != nil {
		f.markFailed(req, err)
		return false
	}

	outputs := make(map[models.ModuleKind]*models.FormattedOutput)
	failures := make(map[models.ModuleKind]string)
	for kind, res := range result.Modules {
		if res.Err != nil {
			failures[kind] = res.Err.Error()
		} else {
			outputs[kind] = res.Output
		}
	}

	// Extraction succeeded (possibly degraded): the video is completed even
	// when some modules failed. The dashboard omits missing sections.
	var extractionNote string
	if result.ExtractionErr != nil {
		extractionNote = result.ExtractionErr.Error()
	}
	if err := f.store.SaveResult(req.ID, models.StatusCompleted, result.RunID, result.Record, outputs, failures, extractionNote); err != nil {
		log.Printf("Warning: failed to persist result for %s: %v", req.Source, err)
	}

	log.Printf("Completed %s: %d sections ready, %d degraded", req.Source, len(outputs), len(failures))
	return true
}

// runWithRetry re-invokes the whole pipeline run on transient upstream
// failures, with linear backoff. Invalid input is never retried.
func (f *FilmAgent) runWithRetry(ctx context.Context, src ai.VideoSource) (*ai.RunResult, error) {
	attempts := f.config.Analysis.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Duration(f.config.Analysis.RetryBackoffSeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := f.pipeline.Run(ctx, src, nil)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !shouldRetry(err) {
			return nil, err
		}
		if attempt < attempts {
			log.Printf("Upstream unavailable (attempt %d/%d), retrying in %v: %v", attempt, attempts, backoff, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("analysis cancelled: %w", ctx.Err())
			}
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

// shouldRetry reports whether a pipeline failure is transient.
func shouldRetry(err error) bool {
	return errors.Is(err, ai.ErrUpstreamUnavailable)
}

func (f *FilmAgent) markFailed(req *models.AnalysisRequest, err error) {
	if serr := f.store.SaveResult(req.ID, models.StatusFailed, "", nil, nil, nil, err.Error()); serr != nil {
		log.Printf("Warning: failed to persist failure for %s: %v", req.Source, serr)
	}
}

// resolveSource turns a stored request into a pipeline video source.
func (f *FilmAgent) resolveSource(req *models.AnalysisRequest) (ai.VideoSource, error) {
	switch req.SourceType {
	case models.SourceLocalFile:
		return ai.LocalVideo(req.Source)
	case models.SourceYouTubeURL:
		return ai.RemoteVideo(req.Source)
	default:
		return ai.VideoSource{}, fmt.Errorf("unknown source type %q: %w", req.SourceType, ai.ErrInvalidInput)
	}
}

// discoverRequests scans the intake directory and the requests file for film
// not yet in the store. Returns the number of new submissions.
func (f *FilmAgent) discoverRequests() int {
	var discovered int

	entries, err := os.ReadDir(f.config.Intake.VideoDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to scan intake directory: %v", err)
		}
	} else {
		for _, entry := range entries {
			if entry.IsDir() || !isVideoFile(entry.Name()) {
				continue
			}
			path := filepath.Join(f.config.Intake.VideoDir, entry.Name())
			if f.store.HasSource(path) {
				continue
			}
			f.store.Submit(&models.AnalysisRequest{
				ID:         uuid.NewString(),
				Source:     path,
				SourceType: models.SourceLocalFile,
				Title:      entry.Name(),
			})
			discovered++
		}
	}

	for _, rawURL := range f.readRequestsFile() {
		if f.store.HasSource(rawURL) {
			continue
		}
		req := &models.AnalysisRequest{
			ID:         uuid.NewString(),
			Source:     rawURL,
			SourceType: models.SourceYouTubeURL,
		}
		if f.youtube != nil {
			if id, ok := youtube.ExtractVideoID(rawURL); ok {
				if info, err := f.youtube.Lookup(context.Background(), id); err == nil {
					req.Title = info.Title
				} else {
					log.Printf("Warning: YouTube lookup failed for %s: %v", rawURL, err)
				}
			}
		}
		f.store.Submit(req)
		discovered++
	}

	return discovered
}

// readRequestsFile reads queued YouTube URLs, one per line, # for comments.
func (f *FilmAgent) readRequestsFile() []string {
	file, err := os.Open(f.config.Intake.RequestsFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read requests file: %v", err)
		}
		return nil
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}

func (f *FilmAgent) maxConcurrent() int {
	if n := f.registry.Settings().MaxConcurrentAnalyses; n > 0 {
		return n
	}
	return 1
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".webm": true, ".mkv": true, ".m4v": true,
}

func isVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}
