package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"film-room/internal/models"
	"film-room/shared/config"
)

// Extractor runs the single extraction pass that turns raw video into a
// Comprehensive Record. It keeps no state between calls.
type Extractor struct {
	gen      Generator
	registry *config.Registry
}

func NewExtractor(gen Generator, registry *config.Registry) *Extractor {
	return &Extractor{gen: gen, registry: registry}
}

// Extract issues one request to the upstream model and parses the response
// into a Comprehensive Record. A malformed response yields the empty-record
// fallback together with an error wrapping ErrMalformedExtraction, so the
// caller can both proceed and know the extraction degraded.
func (e *Extractor) Extract(ctx context.Context, src VideoSource) (*models.ComprehensiveRecord, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}

	settings := e.registry.Settings()

	response, err := e.gen.Generate(ctx, GenerateRequest{
		Model:       settings.AI.Model,
		Instruction: extractionInstruction,
		Video:       &src,
		Temperature: settings.AI.Temperature,
		ForceJSON:   true,
		Timeout:     settings.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	record, err := parseRecord(response)
	if err != nil {
		log.Printf("Warning: extraction response did not parse, continuing with empty record: %v", err)
		return models.EmptyRecord(), fmt.Errorf("extraction returned unusable content: %w", ErrMalformedExtraction)
	}

	for _, w := range record.TimestampWarnings() {
		log.Printf("Warning: extraction timestamp out of bounds: %s", w)
	}

	if settings.AI.MultiPass {
		record = e.refine(ctx, record, settings)
	}

	return record, nil
}

// refine runs the optional second verification pass over the first-pass
// record. Any failure falls back to the first-pass record.
func (e *Extractor) refine(ctx context.Context, record *models.ComprehensiveRecord, settings config.Settings) *models.ComprehensiveRecord {
	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return record
	}

	response, err := e.gen.Generate(ctx, GenerateRequest{
		Model:       settings.AI.Model,
		Instruction: refinementInstruction + "\n\nFIRST-PASS RECORD:\n" + string(encoded),
		Temperature: settings.AI.Temperature,
		ForceJSON:   true,
		Timeout:     settings.Timeout(),
	})
	if err != nil {
		log.Printf("Multi-pass refinement failed, keeping first-pass record: %v", err)
		return record
	}

	refined, err := parseRecord(response)
	if err != nil {
		log.Printf("Multi-pass refinement returned unparseable content, keeping first-pass record: %v", err)
		return record
	}
	return refined
}

// parseRecord pulls the JSON object out of the response text and deserializes
// it. Models occasionally wrap JSON in prose or code fences even when asked
// not to, so slice from the first { to the last }.
func parseRecord(response string) (*models.ComprehensiveRecord, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var record models.ComprehensiveRecord
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	record.EnsureShape()
	return &record, nil
}

const extractionInstruction = `You are a sports film analyst extracting a complete structured record from game footage.

CRITICAL RULES:
1. Report ONLY what you directly observe in the footage. Never infer or invent.
2. NEVER invent team names, player names, school names or institution names. If a name is not clearly visible in the footage, it does not exist for you.
3. Identify players only by jersey number (e.g. "23") or, when no number is readable, by a visual description (e.g. "tall attacker in white, left-handed").
4. Mark any attribute you cannot determine as "unknown". Never guess.
5. Record exact timestamps in seconds from the start of the video.
6. There are always exactly two teams in the record, identified by jersey color, even if one side has no identifiable players.

Respond with ONLY a JSON object in exactly this shape:
{
  "video_metadata": {
    "duration_seconds": number,
    "quality": "high" | "medium" | "low" | "unknown",
    "camera_angle": string,
    "footage_type": "full_game" | "highlight" | "practice" | "drill" | "unknown",
    "competition_level": string or "unknown",
    "weather": string (optional),
    "surface": string (optional)
  },
  "teams": [
    { "jersey_color": string, "players": [ { "number": string } or { "description": string } ] },
    { "jersey_color": string, "players": [...] }
  ],
  "plays": [
    {
      "start_time": number, "end_time": number, "type": string,
      "ball_movement": [ { "from": string, "to": string, "success": boolean } ],
      "player_actions": [ { "timestamp": number, "player": string, "action": string, "outcome": string } ],
      "formation": string (optional),
      "result": string
    }
  ],
  "individual_performance": [
    {
      "player": string, "team": string,
      "goals": number, "assists": number, "shots": number, "ground_balls": number,
      "turnovers_caused": number, "turnovers": number,
      "saves": number, "faceoffs_won": number, "faceoffs_taken": number,
      "skill_notes": string, "athleticism_notes": string
    }
  ],
  "game_flow": {
    "momentum": [ { "timestamp": number, "team": string, "description": string } ],
    "key_moments": [ { "timestamp": number, "description": string } ],
    "scoring_events": [ { "timestamp": number, "team": string, "player": string, "type": string } ]
  },
  "tactical_observations": [ string ],
  "coaching_insights": [ string ]
}`

const refinementInstruction = `You are verifying a structured record extracted from sports footage.

Review the first-pass record below against these rules and return a corrected version of the SAME JSON shape:
1. Remove any team, player or institution name that could not have been read directly off the footage. Replace with jersey number or visual description.
2. Replace guessed values with "unknown".
3. Fix any play window where end_time is before start_time.
4. Ensure every counter in individual_performance is consistent with the listed plays and scoring_events.
5. Do not add new observations. Only correct or remove.

Respond with ONLY the corrected JSON object.`
