package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"film-room/internal/models"
)

func parsedTestRecord(t *testing.T) *models.ComprehensiveRecord {
	t.Helper()
	record, err := parseRecord(validRecordJSON)
	if err != nil {
		t.Fatalf("failed to parse fixture record: %v", err)
	}
	return record
}

func TestFormatProseModules(t *testing.T) {
	stub := &stubGenerator{fn: func(req GenerateRequest) (string, error) {
		if req.ForceJSON {
			t.Error("prose module forced JSON output")
		}
		return "Number 23 finished well at 13s.", nil
	}}
	f := NewFormatter(stub, newTestRegistry(false))
	record := parsedTestRecord(t)

	for _, kind := range []models.ModuleKind{models.ModulePlayerEvaluation, models.ModuleTactical, models.ModuleHighlights} {
		t.Run(string(kind), func(t *testing.T) {
			out, err := f.Format(context.Background(), record, kind)
			if err != nil {
				t.Fatalf("Format(%s) error = %v", kind, err)
			}
			if out.Text != "Number 23 finished well at 13s." {
				t.Errorf("Format(%s) text = %q, want raw response", kind, out.Text)
			}
			if out.Stats != nil {
				t.Errorf("Format(%s) returned stats payload for prose module", kind)
			}
		})
	}
}

func TestFormatEmbedsFullRecord(t *testing.T) {
	var captured string
	stub := &stubGenerator{fn: func(req GenerateRequest) (string, error) {
		captured = req.Instruction
		return "ok", nil
	}}
	f := NewFormatter(stub, newTestRegistry(false))

	if _, err := f.Format(context.Background(), parsedTestRecord(t), models.ModuleTactical); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	// The prompt carries the record verbatim, not a summary.
	for _, fragment := range []string{`"jersey_color": "white"`, `"result": "goal"`, `"duration_seconds": 120`} {
		if !strings.Contains(captured, fragment) {
			t.Errorf("prompt missing record fragment %s", fragment)
		}
	}
}

func TestFormatStatisticsContract(t *testing.T) {
	t.Run("ValidJSON", func(t *testing.T) {
		stub := &stubGenerator{fn: func(req GenerateRequest) (string, error) {
			if !req.ForceJSON {
				t.Error("statistics module did not force JSON output")
			}
			return validStatsJSON, nil
		}}
		f := NewFormatter(stub, newTestRegistry(false))

		out, err := f.Format(context.Background(), parsedTestRecord(t), models.ModuleStatistics)
		if err != nil {
			t.Fatalf("Format(statistics) error = %v", err)
		}
		if out.Stats == nil {
			t.Fatal("statistics output has no payload")
		}
		if len(out.Stats.PlayerLines) != 1 || out.Stats.PlayerLines[0].Player != "23" || out.Stats.PlayerLines[0].Goals != 1 {
			t.Errorf("player lines = %+v, want one goal attributed to 23", out.Stats.PlayerLines)
		}
		if !json.Valid(out.Stats.RawJSON) {
			t.Error("RawJSON is not valid JSON")
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		for _, response := range []string{"not json", "", `{"team_totals": [}`} {
			stub := &stubGenerator{fn: func(GenerateRequest) (string, error) { return response, nil }}
			f := NewFormatter(stub, newTestRegistry(false))

			_, err := f.Format(context.Background(), parsedTestRecord(t), models.ModuleStatistics)
			if !errors.Is(err, ErrMalformedFormatting) {
				t.Errorf("Format(statistics) with %q error = %v, want ErrMalformedFormatting", response, err)
			}
		}
	})
}

func TestFormatNeverPanics(t *testing.T) {
	// Every module kind against every degenerate record settles to an output
	// or a typed failure.
	records := map[string]*models.ComprehensiveRecord{
		"nil":   nil,
		"empty": models.EmptyRecord(),
		"full":  parsedTestRecord(t),
	}
	responses := []string{"", "not json", validStatsJSON, "prose output"}

	for name, record := range records {
		for _, response := range responses {
			stub := &stubGenerator{fn: func(GenerateRequest) (string, error) { return response, nil }}
			f := NewFormatter(stub, newTestRegistry(false))
			for _, kind := range models.AllModules() {
				out, err := f.Format(context.Background(), record, kind)
				if out == nil && err == nil {
					t.Errorf("Format(%s, %s record, %q) returned neither output nor error", kind, name, response)
				}
			}
		}
	}
}

func TestFormatUnknownModule(t *testing.T) {
	stub := &stubGenerator{fn: func(GenerateRequest) (string, error) { return "ok", nil }}
	f := NewFormatter(stub, newTestRegistry(false))

	if _, err := f.Format(context.Background(), models.EmptyRecord(), models.ModuleKind("boxScore")); err == nil {
		t.Error("Format() with unknown module kind did not fail")
	}
	if stub.callCount() != 0 {
		t.Errorf("upstream calls = %d, want 0 for unknown module", stub.callCount())
	}
}

func TestFormatIdempotent(t *testing.T) {
	// Identical record and kind against a deterministic upstream yield
	// byte-identical output: no hidden state between calls.
	stub := &stubGenerator{fn: func(req GenerateRequest) (string, error) {
		return fmt.Sprintf("analysis over %d prompt bytes", len(req.Instruction)), nil
	}}
	f := NewFormatter(stub, newTestRegistry(false))
	record := parsedTestRecord(t)

	first, err := f.Format(context.Background(), record, models.ModuleTactical)
	if err != nil {
		t.Fatalf("first Format() error = %v", err)
	}
	second, err := f.Format(context.Background(), record, models.ModuleTactical)
	if err != nil {
		t.Fatalf("second Format() error = %v", err)
	}
	if first.Text != second.Text {
		t.Errorf("outputs differ across identical calls: %q vs %q", first.Text, second.Text)
	}
}

func TestFormatCompetitionLevelCalibration(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  string
	}{
		{"KnownLevel", "varsity", "competition level: varsity"},
		{"UnknownLevel", "unknown", "cannot be determined"},
		{"MissingLevel", "", "cannot be determined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			stub := &stubGenerator{fn: func(req GenerateRequest) (string, error) {
				captured = req.Instruction
				return "ok", nil
			}}
			f := NewFormatter(stub, newTestRegistry(false))

			record := models.EmptyRecord()
			record.VideoMetadata.CompetitionLevel = tt.level
			if _, err := f.Format(context.Background(), record, models.ModulePlayerEvaluation); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if !strings.Contains(captured, tt.want) {
				t.Errorf("prompt missing calibration %q", tt.want)
			}
			if !strings.Contains(captured, "Never invent team, player, school or institution names") {
				t.Error("prompt missing anti-fabrication rules")
			}
		})
	}
}
