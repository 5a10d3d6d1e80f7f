package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"film-room/internal/models"
)

// Store persists analysis requests and their results as a JSON file. It is
// the system of record the job runner moves requests through:
// uploading -> processing -> completed | failed.
type Store struct {
	filePath string
	requests map[string]*models.AnalysisRequest
	mu       sync.RWMutex
}

// NewStore opens (or creates) the store under dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		filePath: filepath.Join(dataDir, "analyses.json"),
		requests: make(map[string]*models.AnalysisRequest),
	}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load analysis store: %w", err)
	}

	return s, nil
}

// Submit registers a new request in the uploading state. Submitting a source
// that already exists is a no-op returning the existing request.
func (s *Store) Submit(req *models.AnalysisRequest) *models.AnalysisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.requests {
		if existing.Source == req.Source {
			return existing
		}
	}

	now := time.Now()
	req.Status = models.StatusUploading
	req.SubmittedAt = now
	req.UpdatedAt = now
	s.requests[req.ID] = req
	if err := s.save(); err != nil {
		// Keep the in-memory entry; persistence catches up on next save.
		fmt.Fprintf(os.Stderr, "Warning: failed to persist analysis store: %v\n", err)
	}
	return req
}

// HasSource reports whether a video source has already been submitted.
func (s *Store) HasSource(source string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.requests {
		if req.Source == source {
			return true
		}
	}
	return false
}

// Get returns a copy of the request, or nil if unknown.
func (s *Store) Get(id string) *models.AnalysisRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil
	}
	cp := *req
	return &cp
}

// Pending returns requests still waiting for a pipeline run, oldest first.
func (s *Store) Pending() []*models.AnalysisRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*models.AnalysisRequest
	for _, req := range s.requests {
		if req.Status == models.StatusUploading {
			cp := *req
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].SubmittedAt.Before(pending[j].SubmittedAt)
	})
	return pending
}

// SetStatus transitions a request and persists the store.
func (s *Store) SetStatus(id string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("unknown analysis request %s", id)
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	return s.save()
}

// SaveResult records a finished run: the comprehensive record, per-module
// outputs and per-module failure reasons. Status is the caller's choice
// (completed for any extraction success, failed otherwise).
func (s *Store) SaveResult(id string, status models.Status, runID string, record *models.ComprehensiveRecord, outputs map[models.ModuleKind]*models.FormattedOutput, failures map[models.ModuleKind]string, runErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("unknown analysis request %s", id)
	}
	req.Status = status
	req.RunID = runID
	req.Record = record
	req.Outputs = outputs
	req.Failures = failures
	req.Error = runErr
	req.UpdatedAt = time.Now()
	return s.save()
}

// CompletedSince returns completed requests updated after the cutoff,
// newest first. The email digest uses this.
func (s *Store) CompletedSince(cutoff time.Time) []*models.AnalysisRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var done []*models.AnalysisRequest
	for _, req := range s.requests {
		if req.Status == models.StatusCompleted && req.UpdatedAt.After(cutoff) {
			cp := *req
			done = append(done, &cp)
		}
	}
	sort.Slice(done, func(i, j int) bool {
		return done[i].UpdatedAt.After(done[j].UpdatedAt)
	})
	return done
}

// All returns copies of every stored request, oldest first.
func (s *Store) All() []*models.AnalysisRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.AnalysisRequest, 0, len(s.requests))
	for _, req := range s.requests {
		cp := *req
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].SubmittedAt.Before(all[j].SubmittedAt)
	})
	return all
}

// Count returns the number of stored requests.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

func (s *Store) load() error {
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	var requests []*models.AnalysisRequest
	if err := json.NewDecoder(file).Decode(&requests); err != nil {
		return fmt.Errorf("failed to decode store data: %w", err)
	}

	for _, req := range requests {
		// A crash mid-run leaves processing entries behind; requeue them.
		if req.Status == models.StatusProcessing {
			req.Status = models.StatusUploading
		}
		s.requests[req.ID] = req
	}
	return nil
}

func (s *Store) save() error {
	requests := make([]*models.AnalysisRequest, 0, len(s.requests))
	for _, req := range s.requests {
		requests = append(requests, req)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SubmittedAt.Before(requests[j].SubmittedAt)
	})

	file, err := os.Create(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to create store file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(requests)
}
