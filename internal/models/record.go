package models

import "fmt"

// Unknown is the canonical value for attributes the upstream model could not
// determine. The extraction prompt instructs the model to use it instead of
// guessing.
const Unknown = "unknown"

// ComprehensiveRecord is the structured intermediate representation produced
// by one extraction pass over a video. Every formatting module receives the
// full record as context.
type ComprehensiveRecord struct {
	VideoMetadata         VideoMetadata `json:"video_metadata"`
	Teams                 []Team        `json:"teams"`
	Plays                 []Play        `json:"plays"`
	IndividualPerformance []PlayerStats `json:"individual_performance"`
	GameFlow              GameFlow      `json:"game_flow"`
	TacticalObservations  []string      `json:"tactical_observations"`
	CoachingInsights      []string      `json:"coaching_insights"`
}

type VideoMetadata struct {
	DurationSeconds  float64 `json:"duration_seconds"`
	Quality          string  `json:"quality"`
	CameraAngle      string  `json:"camera_angle"`
	FootageType      string  `json:"footage_type"` // full_game, highlight, practice, drill, unknown
	CompetitionLevel string  `json:"competition_level"`
	Weather          string  `json:"weather,omitempty"`
	Surface          string  `json:"surface,omitempty"`
}

// Team is one of the two sides. Players are identified by what is visible on
// film, never by name.
type Team struct {
	JerseyColor string   `json:"jersey_color"`
	Players     []Player `json:"players"`
}

// Player is a jersey number or, when no number is readable, a free-text
// visual description.
type Player struct {
	Number      string `json:"number,omitempty"`
	Description string `json:"description,omitempty"`
}

// Label returns the best available identifier for display.
func (p Player) Label() string {
	if p.Number != "" {
		return "#" + p.Number
	}
	if p.Description != "" {
		return p.Description
	}
	return Unknown
}

type Play struct {
	StartTime     float64       `json:"start_time"`
	EndTime       float64       `json:"end_time"`
	Type          string        `json:"type"`
	BallMovement  []PassEvent   `json:"ball_movement"`
	PlayerActions []ActionEvent `json:"player_actions"`
	Formation     string        `json:"formation,omitempty"`
	Result        string        `json:"result"`
}

type PassEvent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Success bool   `json:"success"`
}

type ActionEvent struct {
	Timestamp float64 `json:"timestamp"`
	Player    string  `json:"player"`
	Action    string  `json:"action"`
	Outcome   string  `json:"outcome"`
}

// PlayerStats aggregates one participant's counters across the footage.
type PlayerStats struct {
	Player           string `json:"player"`
	Team             string `json:"team"`
	Goals            int    `json:"goals"`
	Assists          int    `json:"assists"`
	Shots            int    `json:"shots"`
	GroundBalls      int    `json:"ground_balls"`
	TurnoversCaused  int    `json:"turnovers_caused"`
	Turnovers        int    `json:"turnovers"`
	Saves            int    `json:"saves,omitempty"`
	FaceoffsWon      int    `json:"faceoffs_won,omitempty"`
	FaceoffsTaken    int    `json:"faceoffs_taken,omitempty"`
	SkillNotes       string `json:"skill_notes,omitempty"`
	AthleticismNotes string `json:"athleticism_notes,omitempty"`
}

type GameFlow struct {
	Momentum      []MomentumEvent `json:"momentum"`
	KeyMoments    []KeyMoment     `json:"key_moments"`
	ScoringEvents []ScoringEvent  `json:"scoring_events"`
}

type MomentumEvent struct {
	Timestamp   float64 `json:"timestamp"`
	Team        string  `json:"team"`
	Description string  `json:"description"`
}

type KeyMoment struct {
	Timestamp   float64 `json:"timestamp"`
	Description string  `json:"description"`
}

type ScoringEvent struct {
	Timestamp float64 `json:"timestamp"`
	Team      string  `json:"team"`
	Player    string  `json:"player"`
	Type      string  `json:"type"`
}

// EmptyRecord returns a well-typed record with every collection empty. Teams
// still has exactly two entries so downstream code never indexes out of range.
func EmptyRecord() *ComprehensiveRecord {
	return &ComprehensiveRecord{
		VideoMetadata: VideoMetadata{
			Quality:          Unknown,
			CameraAngle:      Unknown,
			FootageType:      Unknown,
			CompetitionLevel: Unknown,
		},
		Teams:                 []Team{{Players: []Player{}}, {Players: []Player{}}},
		Plays:                 []Play{},
		IndividualPerformance: []PlayerStats{},
		GameFlow: GameFlow{
			Momentum:      []MomentumEvent{},
			KeyMoments:    []KeyMoment{},
			ScoringEvents: []ScoringEvent{},
		},
		TacticalObservations: []string{},
		CoachingInsights:     []string{},
	}
}

// EnsureShape normalizes a record parsed from untrusted model output so the
// structural invariants hold: exactly two teams, no nil collections.
func (r *ComprehensiveRecord) EnsureShape() {
	for len(r.Teams) < 2 {
		r.Teams = append(r.Teams, Team{Players: []Player{}})
	}
	if len(r.Teams) > 2 {
		r.Teams = r.Teams[:2]
	}
	for i := range r.Teams {
		if r.Teams[i].Players == nil {
			r.Teams[i].Players = []Player{}
		}
	}
	if r.Plays == nil {
		r.Plays = []Play{}
	}
	if r.IndividualPerformance == nil {
		r.IndividualPerformance = []PlayerStats{}
	}
	if r.GameFlow.Momentum == nil {
		r.GameFlow.Momentum = []MomentumEvent{}
	}
	if r.GameFlow.KeyMoments == nil {
		r.GameFlow.KeyMoments = []KeyMoment{}
	}
	if r.GameFlow.ScoringEvents == nil {
		r.GameFlow.ScoringEvents = []ScoringEvent{}
	}
	if r.TacticalObservations == nil {
		r.TacticalObservations = []string{}
	}
	if r.CoachingInsights == nil {
		r.CoachingInsights = []string{}
	}
}

// TimestampWarnings reports timestamps that fall outside the video duration.
// The upstream model is not adversarially validated, so these are warnings
// for the caller to log, never hard failures.
func (r *ComprehensiveRecord) TimestampWarnings() []string {
	dur := r.VideoMetadata.DurationSeconds
	if dur <= 0 {
		return nil
	}
	var warnings []string
	for i, play := range r.Plays {
		if play.StartTime < 0 || play.EndTime > dur {
			warnings = append(warnings, fmt.Sprintf("play %d window [%.1f, %.1f] outside video duration %.1fs", i, play.StartTime, play.EndTime, dur))
		}
		if play.EndTime < play.StartTime {
			warnings = append(warnings, fmt.Sprintf("play %d ends (%.1f) before it starts (%.1f)", i, play.EndTime, play.StartTime))
		}
	}
	for i, ev := range r.GameFlow.ScoringEvents {
		if ev.Timestamp < 0 || ev.Timestamp > dur {
			warnings = append(warnings, fmt.Sprintf("scoring event %d at %.1fs outside video duration %.1fs", i, ev.Timestamp, dur))
		}
	}
	return warnings
}
