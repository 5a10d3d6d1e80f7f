package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Monitor tracks the health of the intake agent across runs. Concurrent
// analyses report through it, so access is mutex-guarded.
type Monitor struct {
	mu             sync.Mutex
	lastRunSuccess bool
	lastRunTime    time.Time
	totalAnalyzed  int
	totalFailed    int
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	log.Printf("✅ Run completed successfully - %s (took %v)", summary, duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Partial failures (some modules degraded) don't flip health
	log.Printf("⚠️  PARTIAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.mu.Unlock()

	log.Printf("🚨 CRITICAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

// RecordAnalysis tallies one finished video analysis.
func (m *Monitor) RecordAnalysis(succeeded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if succeeded {
		m.totalAnalyzed++
	} else {
		m.totalFailed++
	}
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	status := "✅"
	if !m.lastRunSuccess {
		status = "❌"
	}
	return fmt.Sprintf("%s Last run: %s (%d videos analyzed, %d failed)",
		status, m.lastRunTime.Format("Jan 2 15:04"), m.totalAnalyzed, m.totalFailed)
}
