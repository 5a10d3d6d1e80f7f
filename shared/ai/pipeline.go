package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"film-room/internal/models"
	"film-room/shared/config"
	"film-room/shared/monitoring"

	"github.com/google/uuid"
)

// Pipeline sequences extraction before formatting and fans the enabled
// formatting modules out concurrently against the single extracted record.
// It holds no per-run state: Run is idempotent and retry policy belongs to
// the caller.
type Pipeline struct {
	extractor *Extractor
	formatter *Formatter
	registry  *config.Registry
	metrics   *monitoring.Metrics
}

func NewPipeline(gen Generator, registry *config.Registry, metrics *monitoring.Metrics) *Pipeline {
	return &Pipeline{
		extractor: NewExtractor(gen, registry),
		formatter: NewFormatter(gen, registry),
		registry:  registry,
		metrics:   metrics,
	}
}

// ModuleResult is one module's settled outcome: output or error, never both.
type ModuleResult struct {
	Output *models.FormattedOutput
	Err    error
}

// RunResult aggregates one pipeline run. ExtractionErr carries the
// malformed-extraction flag when the run proceeded on the empty fallback.
type RunResult struct {
	RunID         string
	Record        *models.ComprehensiveRecord
	ExtractionErr error
	Modules       map[models.ModuleKind]ModuleResult
}

// SucceededModules returns the kinds that produced output.
func (r *RunResult) SucceededModules() []models.ModuleKind {
	var kinds []models.ModuleKind
	for _, kind := range models.AllModules() {
		if res, ok := r.Modules[kind]; ok && res.Err == nil {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Run executes one full pipeline cycle. A nil enabled slice means "consult
// the registry". The returned error is non-nil only when extraction failed
// so badly that no formatting was dispatched; per-module failures live in
// Modules and never abort the run.
func (p *Pipeline) Run(ctx context.Context, src VideoSource, enabled []models.ModuleKind) (*RunResult, error) {
	if enabled == nil {
		enabled = p.registry.EnabledModules()
	}

	result := &RunResult{
		RunID:   uuid.NewString(),
		Modules: make(map[models.ModuleKind]ModuleResult, len(enabled)),
	}

	record, err := p.extractor.Extract(ctx, src)
	if err != nil {
		if errors.Is(err, ErrMalformedExtraction) {
			// Empty-record fallback: a best-effort sparse analysis is still
			// more useful than none, so formatting proceeds.
			log.Printf("Run %s: extraction degraded to empty record, formatting anyway", result.RunID)
			result.ExtractionErr = err
		} else {
			p.metrics.RecordRun("failed")
			result.ExtractionErr = err
			return result, fmt.Errorf("run %s aborted: %w", result.RunID, err)
		}
	}
	result.Record = record

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, kind := range enabled {
		wg.Add(1)
		go func(kind models.ModuleKind) {
			defer wg.Done()
			output, ferr := p.formatter.Format(ctx, record, kind)
			mu.Lock()
			result.Modules[kind] = ModuleResult{Output: output, Err: ferr}
			mu.Unlock()
			if ferr != nil {
				log.Printf("Run %s: %s module failed: %v", result.RunID, kind, ferr)
				p.metrics.RecordModule(string(kind), "failed")
			} else {
				p.metrics.RecordModule(string(kind), "ok")
			}
		}(kind)
	}
	wg.Wait()

	p.metrics.RecordRun("completed")
	return result, nil
}
