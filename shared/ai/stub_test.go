package ai

import (
	"context"
	"sync"

	"film-room/shared/config"
)

// stubGenerator is a deterministic upstream stand-in. The routing function
// receives each request and decides the response; call counts are tracked
// for dispatch assertions.
type stubGenerator struct {
	mu    sync.Mutex
	calls []GenerateRequest
	fn    func(req GenerateRequest) (string, error)
}

func (s *stubGenerator) Generate(_ context.Context, req GenerateRequest) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.fn(req)
}

func (s *stubGenerator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// newTestRegistry returns a registry with multi-pass sampling toggled, so
// extraction tests control whether the refinement call happens.
func newTestRegistry(multiPass bool) *config.Registry {
	r := config.NewRegistry(nil)
	aiSettings := r.Settings().AI
	aiSettings.MultiPass = multiPass
	r.Update(config.Partial{AI: &aiSettings})
	return r
}

// validRecordJSON is a minimal extraction response: one play ending in a
// goal by number 23 on the white team.
const validRecordJSON = `{
  "video_metadata": {"duration_seconds": 120, "quality": "high", "camera_angle": "sideline", "footage_type": "full_game", "competition_level": "varsity"},
  "teams": [
    {"jersey_color": "white", "players": [{"number": "23"}]},
    {"jersey_color": "blue", "players": []}
  ],
  "plays": [
    {"start_time": 10, "end_time": 14, "type": "settled_offense",
     "ball_movement": [{"from": "23", "to": "23", "success": true}],
     "player_actions": [{"timestamp": 13, "player": "23", "action": "shot", "outcome": "goal"}],
     "result": "goal"}
  ],
  "individual_performance": [
    {"player": "23", "team": "white", "goals": 1, "assists": 0, "shots": 1, "ground_balls": 0, "turnovers_caused": 0, "turnovers": 0}
  ],
  "game_flow": {
    "momentum": [], "key_moments": [],
    "scoring_events": [{"timestamp": 13, "team": "white", "player": "23", "type": "goal"}]
  },
  "tactical_observations": [],
  "coaching_insights": []
}`

const validStatsJSON = `{
  "team_totals": [{"team": "white", "goals": 1, "shots": 1, "turnovers": 0, "ground_balls": 0}],
  "player_lines": [{"player": "23", "team": "white", "goals": 1, "assists": 0, "shots": 1, "ground_balls": 0, "turnovers": 0, "saves": 0}],
  "notes": []
}`

func localTestSource() VideoSource {
	return VideoSource{Data: []byte("fake video bytes"), MIMEType: "video/mp4"}
}
