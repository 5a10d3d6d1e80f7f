package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestExtractParsesRecord(t *testing.T) {
	stub := &stubGenerator{fn: func(req GenerateRequest) (string, error) {
		if req.Video == nil {
			t.Error("extraction request did not carry the video reference")
		}
		if !req.ForceJSON {
			t.Error("extraction request did not force JSON output")
		}
		return validRecordJSON, nil
	}}
	e := NewExtractor(stub, newTestRegistry(false))

	record, err := e.Extract(context.Background(), localTestSource())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(record.Teams) != 2 {
		t.Errorf("Teams length = %d, want 2", len(record.Teams))
	}
	if len(record.Plays) != 1 || record.Plays[0].Result != "goal" {
		t.Errorf("Plays = %+v, want one play ending in a goal", record.Plays)
	}
	if got := record.Teams[0].Players[0].Number; got != "23" {
		t.Errorf("first player number = %q, want 23", got)
	}
	if stub.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1", stub.callCount())
	}
}

func TestExtractPadsMissingTeams(t *testing.T) {
	// One-team responses still yield a two-team record.
	response := `{"video_metadata": {"duration_seconds": 60}, "teams": [{"jersey_color": "red", "players": []}]}`
	stub := &stubGenerator{fn: func(GenerateRequest) (string, error) { return response, nil }}
	e := NewExtractor(stub, newTestRegistry(false))

	record, err := e.Extract(context.Background(), localTestSource())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(record.Teams) != 2 {
		t.Fatalf("Teams length = %d, want 2", len(record.Teams))
	}
	if record.Teams[1].Players == nil {
		t.Error("padded team has nil player list")
	}
}

func TestExtractMalformedResponseFallsBackToEmptyRecord(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"NotJSON", "not json"},
		{"Empty", ""},
		{"TruncatedObject", `{"teams": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubGenerator{fn: func(GenerateRequest) (string, error) { return tt.response, nil }}
			e := NewExtractor(stub, newTestRegistry(false))

			record, err := e.Extract(context.Background(), localTestSource())
			if !errors.Is(err, ErrMalformedExtraction) {
				t.Fatalf("Extract() error = %v, want ErrMalformedExtraction", err)
			}
			if record == nil {
				t.Fatal("fallback record is nil")
			}
			if len(record.Teams) != 2 {
				t.Errorf("fallback Teams length = %d, want 2", len(record.Teams))
			}
			if len(record.Plays) != 0 || len(record.IndividualPerformance) != 0 {
				t.Error("fallback record is not empty")
			}
		})
	}
}

func TestExtractUpstreamFailure(t *testing.T) {
	stub := &stubGenerator{fn: func(GenerateRequest) (string, error) {
		return "", fmt.Errorf("dial tcp: connection refused: %w", ErrUpstreamUnavailable)
	}}
	e := NewExtractor(stub, newTestRegistry(false))

	_, err := e.Extract(context.Background(), localTestSource())
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Extract() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestExtractInvalidSourceSkipsUpstream(t *testing.T) {
	stub := &stubGenerator{fn: func(GenerateRequest) (string, error) { return validRecordJSON, nil }}
	e := NewExtractor(stub, newTestRegistry(false))

	_, err := e.Extract(context.Background(), VideoSource{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Extract() error = %v, want ErrInvalidInput", err)
	}
	if stub.callCount() != 0 {
		t.Errorf("upstream calls = %d, want 0 for invalid input", stub.callCount())
	}
}

func TestExtractMultiPassRefinement(t *testing.T) {
	t.Run("RefinementApplied", func(t *testing.T) {
		refined := `{"video_metadata": {"duration_seconds": 120}, "teams": [{"jersey_color": "white", "players": []}, {"jersey_color": "blue", "players": []}], "coaching_insights": ["refined"]}`
		stub := &stubGenerator{fn: func(req GenerateRequest) (string, error) {
			if req.Video != nil {
				return validRecordJSON, nil
			}
			return refined, nil
		}}
		e := NewExtractor(stub, newTestRegistry(true))

		record, err := e.Extract(context.Background(), localTestSource())
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if stub.callCount() != 2 {
			t.Errorf("upstream calls = %d, want 2 with multi-pass on", stub.callCount())
		}
		if len(record.CoachingInsights) != 1 || record.CoachingInsights[0] != "refined" {
			t.Errorf("refined record not used: %+v", record.CoachingInsights)
		}
	})

	t.Run("RefinementFailureKeepsFirstPass", func(t *testing.T) {
		stub := &stubGenerator{fn: func(req GenerateRequest) (string, error) {
			if req.Video != nil {
				return validRecordJSON, nil
			}
			return "", fmt.Errorf("rate limited: %w", ErrUpstreamUnavailable)
		}}
		e := NewExtractor(stub, newTestRegistry(true))

		record, err := e.Extract(context.Background(), localTestSource())
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(record.Plays) != 1 {
			t.Errorf("first-pass record lost after refinement failure: %+v", record.Plays)
		}
	})
}
