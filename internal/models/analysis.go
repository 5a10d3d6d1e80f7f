package models

import "encoding/json"

// ModuleKind identifies one of the fixed formatting transformations.
type ModuleKind string

const (
	ModulePlayerEvaluation ModuleKind = "playerEvaluation"
	ModuleStatistics       ModuleKind = "statistics"
	ModuleTactical         ModuleKind = "tactical"
	ModuleHighlights       ModuleKind = "highlights"
)

// AllModules lists every formatting module in priority-neutral order.
func AllModules() []ModuleKind {
	return []ModuleKind{
		ModulePlayerEvaluation,
		ModuleStatistics,
		ModuleTactical,
		ModuleHighlights,
	}
}

// IsValid reports whether k names a known formatting module.
func (k ModuleKind) IsValid() bool {
	switch k {
	case ModulePlayerEvaluation, ModuleStatistics, ModuleTactical, ModuleHighlights:
		return true
	}
	return false
}

// FormattedOutput is one module's finished analysis. Statistics is the only
// module with a structured contract; the rest are prose with timestamp
// citations.
type FormattedOutput struct {
	Kind  ModuleKind         `json:"kind"`
	Text  string             `json:"text,omitempty"`
	Stats *StatisticsPayload `json:"stats,omitempty"`
}

// StatisticsPayload is the typed output of the statistics module.
type StatisticsPayload struct {
	TeamTotals  []TeamTotals `json:"team_totals"`
	PlayerLines []StatLine   `json:"player_lines"`
	Notes       []string     `json:"notes,omitempty"`

	// RawJSON preserves the exact payload the model returned, for storage.
	RawJSON json.RawMessage `json:"-"`
}

type TeamTotals struct {
	Team        string `json:"team"`
	Goals       int    `json:"goals"`
	Shots       int    `json:"shots"`
	Turnovers   int    `json:"turnovers"`
	GroundBalls int    `json:"ground_balls"`
}

type StatLine struct {
	Player      string `json:"player"`
	Team        string `json:"team"`
	Goals       int    `json:"goals"`
	Assists     int    `json:"assists"`
	Shots       int    `json:"shots"`
	GroundBalls int    `json:"ground_balls"`
	Turnovers   int    `json:"turnovers"`
	Saves       int    `json:"saves,omitempty"`
}
