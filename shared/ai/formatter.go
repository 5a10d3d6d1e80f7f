package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"film-room/internal/models"
	"film-room/shared/config"
)

// Formatter transforms one Comprehensive Record into one module's analysis
// document. Calls are stateless and fully independent of each other.
type Formatter struct {
	gen      Generator
	registry *config.Registry
}

func NewFormatter(gen Generator, registry *config.Registry) *Formatter {
	return &Formatter{gen: gen, registry: registry}
}

// Format runs one module over the record. The full record is serialized into
// the prompt verbatim, so the formatting model sees everything the extraction
// model reported.
func (f *Formatter) Format(ctx context.Context, record *models.ComprehensiveRecord, kind models.ModuleKind) (*models.FormattedOutput, error) {
	instruction, ok := moduleInstructions[kind]
	if !ok {
		return nil, fmt.Errorf("unknown formatting module %q", kind)
	}
	if record == nil {
		record = models.EmptyRecord()
	}

	settings := f.registry.Settings()

	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record for %s: %w", kind, err)
	}

	prompt := buildModulePrompt(instruction, record, settings.Output, string(encoded))

	response, err := f.gen.Generate(ctx, GenerateRequest{
		Model:       settings.AI.Model,
		Instruction: prompt,
		Temperature: settings.AI.Temperature,
		ForceJSON:   kind == models.ModuleStatistics,
		Timeout:     settings.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s formatting call failed: %w", kind, err)
	}

	if kind == models.ModuleStatistics {
		return parseStatistics(response)
	}

	if strings.TrimSpace(response) == "" {
		return nil, fmt.Errorf("%s module returned empty content: %w", kind, ErrMalformedFormatting)
	}
	return &models.FormattedOutput{Kind: kind, Text: response}, nil
}

func buildModulePrompt(instruction moduleInstruction, record *models.ComprehensiveRecord, output config.OutputSettings, encodedRecord string) string {
	var b strings.Builder
	b.WriteString(instruction.prompt)

	if instruction.antiFabrication {
		b.WriteString("\n\n")
		b.WriteString(antiFabricationRules)
		level := record.VideoMetadata.CompetitionLevel
		if level == "" || level == models.Unknown {
			b.WriteString("\nThe competition level of this footage is unknown. Any claim about how a player projects to a higher level must read \"cannot be determined from this footage\".")
		} else {
			b.WriteString(fmt.Sprintf("\nCalibrate every skill and recruiting claim to the stated competition level: %s.", level))
		}
	}

	switch output.Detail {
	case "brief":
		b.WriteString("\n\nKeep the output brief: the most important points only.")
	case "detailed":
		b.WriteString("\n\nBe thorough: cover every player and play the record supports.")
	}
	if output.IncludeTimestamps && instruction.prose {
		b.WriteString("\nCite the relevant video timestamp (in seconds) for every specific observation.")
	}

	b.WriteString("\n\nGAME RECORD:\n")
	b.WriteString(encodedRecord)
	return b.String()
}

// parseStatistics enforces the statistics module's JSON contract. The output
// is either parseable or an explicit malformed-formatting failure, never a
// panic or a raw unmarshal error surfacing uncaught.
func parseStatistics(response string) (*models.FormattedOutput, error) {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("statistics module returned no JSON object: %w", ErrMalformedFormatting)
	}

	raw := json.RawMessage(response[startIdx : endIdx+1])
	var payload models.StatisticsPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("statistics payload failed to parse: %v: %w", err, ErrMalformedFormatting)
	}
	payload.RawJSON = raw

	return &models.FormattedOutput{Kind: models.ModuleStatistics, Stats: &payload}, nil
}

type moduleInstruction struct {
	prompt          string
	prose           bool
	antiFabrication bool
}

var moduleInstructions = map[models.ModuleKind]moduleInstruction{
	models.ModulePlayerEvaluation: {
		prose:           true,
		antiFabrication: true,
		prompt: `You are an experienced sports scout writing player evaluations from a structured game record.

INSTRUCTIONS:
1. Write one evaluation section per player in individual_performance, using the exact player identifier from the record (jersey number or description).
2. Cover technical skill, athleticism, decision making and effort, grounded in the listed plays and actions.
3. Quote the record's counters (goals, assists, ground balls, turnovers) rather than recomputing them.
4. Close each section with strengths and one specific area to develop.
5. Where the record supports no observation, say so rather than padding.

Write plain prose with section headers. Do not use JSON.`,
	},
	models.ModuleStatistics: {
		prompt: `You are compiling a statistics sheet from a structured game record.

INSTRUCTIONS:
1. Aggregate per-team totals and per-player stat lines strictly from the record's plays, scoring_events and individual_performance.
2. Attribute every goal, assist, shot, ground ball, turnover and save to the exact player identifier in the record.
3. If a counter is absent from the record, report it as 0. Do not estimate.
4. Note in "notes" any inconsistency you found between plays and the per-player counters.

Respond with ONLY a JSON object in exactly this shape:
{
  "team_totals": [ { "team": string, "goals": number, "shots": number, "turnovers": number, "ground_balls": number } ],
  "player_lines": [ { "player": string, "team": string, "goals": number, "assists": number, "shots": number, "ground_balls": number, "turnovers": number, "saves": number } ],
  "notes": [ string ]
}`,
	},
	models.ModuleTactical: {
		prose:           true,
		antiFabrication: true,
		prompt: `You are a coach writing tactical analysis from a structured game record.

INSTRUCTIONS:
1. Describe each team's offensive and defensive patterns using the plays, formations and ball_movement sequences in the record.
2. Identify what worked, what broke down, and where possession changed hands.
3. Use the record's tactical_observations and game_flow momentum entries as primary evidence.
4. Finish with concrete, practice-ready adjustments for each side.

Write plain prose with section headers. Refer to teams by jersey color only.`,
	},
	models.ModuleHighlights: {
		prose: true,
		prompt: `You are assembling a highlight reel plan from a structured game record.

INSTRUCTIONS:
1. Select the most significant moments from plays, key_moments and scoring_events.
2. For each highlight give the start and end timestamp in seconds, the players involved (record identifiers only) and one sentence on why it matters.
3. Order the highlights chronologically.
4. If the record contains no notable moments, say exactly that.

Write plain prose as a numbered list. Do not use JSON.`,
	},
}

const antiFabricationRules = `HARD CONSTRAINTS:
- Never invent team, player, school or institution names. Use only the identifiers present in the game record.
- Every descriptor must match what the record actually contains; do not upgrade a visual description to a name or number.
- Base every claim on the record. If the record does not support a claim, write that it cannot be determined.`
