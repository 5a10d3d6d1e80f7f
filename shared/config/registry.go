package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"film-room/internal/models"
)

// Settings is the runtime-adjustable analysis policy consulted by every
// pipeline invocation. A Registry owns one Settings value; callers get
// snapshot copies, never the live struct.
type Settings struct {
	Modules               map[models.ModuleKind]ModuleSetting
	AI                    AISettings
	Output                OutputSettings
	MaxConcurrentAnalyses int
}

type ModuleSetting struct {
	Enabled  bool
	Priority int
}

type AISettings struct {
	Model          string
	MultiPass      bool
	Temperature    float64
	TimeoutSeconds int
}

// Timeout is the per-model-call deadline.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.AI.TimeoutSeconds) * time.Second
}

type OutputSettings struct {
	Detail            string // brief, standard, detailed
	IncludeTimestamps bool
}

// Partial carries a runtime settings update. Merging is shallow per top-level
// key: a non-nil AI or Output pointer replaces the entire sub-object, and a
// non-nil Modules map replaces the entire module table. Callers changing one
// nested field must pass the sibling fields they want preserved.
type Partial struct {
	Modules               map[models.ModuleKind]ModuleSetting
	AI                    *AISettings
	Output                *OutputSettings
	MaxConcurrentAnalyses *int
}

// Registry is the process-wide analysis policy store. It is constructed once
// and handed to the coordinator and job runner; administrative updates and
// concurrent pipeline reads are both safe.
type Registry struct {
	mu sync.RWMutex
	s  Settings
}

// DefaultSettings enables all four modules with pre-ranked priorities and
// multi-pass sampling on.
func DefaultSettings() Settings {
	return Settings{
		Modules: map[models.ModuleKind]ModuleSetting{
			models.ModulePlayerEvaluation: {Enabled: true, Priority: 40},
			models.ModuleStatistics:       {Enabled: true, Priority: 30},
			models.ModuleTactical:         {Enabled: true, Priority: 20},
			models.ModuleHighlights:       {Enabled: true, Priority: 10},
		},
		AI: AISettings{
			Model:          "gemini-2.5-flash",
			MultiPass:      true,
			Temperature:    0.2,
			TimeoutSeconds: 300,
		},
		Output: OutputSettings{
			Detail:            "standard",
			IncludeTimestamps: true,
		},
		MaxConcurrentAnalyses: 2,
	}
}

// NewRegistry builds a registry from defaults, overridden by the loaded file
// config where it specifies values.
func NewRegistry(cfg *Config) *Registry {
	s := DefaultSettings()
	if cfg != nil {
		if cfg.AI.Model != "" {
			s.AI.Model = cfg.AI.Model
		}
		if cfg.AI.TimeoutSeconds > 0 {
			s.AI.TimeoutSeconds = cfg.AI.TimeoutSeconds
		}
		if cfg.Analysis.MaxConcurrentAnalyses > 0 {
			s.MaxConcurrentAnalyses = cfg.Analysis.MaxConcurrentAnalyses
		}
	}
	r := &Registry{s: s}
	if cfg != nil && cfg.Analysis.Preset != "" {
		// Validated at config load time, so this cannot fail here.
		_ = r.ApplyPreset(cfg.Analysis.Preset)
	}
	return r
}

// Settings returns a snapshot copy safe to use without holding any lock.
func (r *Registry) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.copy()
}

func (s Settings) copy() Settings {
	out := s
	out.Modules = make(map[models.ModuleKind]ModuleSetting, len(s.Modules))
	for k, v := range s.Modules {
		out.Modules[k] = v
	}
	return out
}

// Update applies a shallow per-top-level-key merge.
func (r *Registry) Update(p Partial) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Modules != nil {
		modules := make(map[models.ModuleKind]ModuleSetting, len(p.Modules))
		for k, v := range p.Modules {
			modules[k] = v
		}
		r.s.Modules = modules
	}
	if p.AI != nil {
		r.s.AI = *p.AI
	}
	if p.Output != nil {
		r.s.Output = *p.Output
	}
	if p.MaxConcurrentAnalyses != nil {
		r.s.MaxConcurrentAnalyses = *p.MaxConcurrentAnalyses
	}
}

// IsModuleEnabled reports whether the given module should run.
func (r *Registry) IsModuleEnabled(kind models.ModuleKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.s.Modules[kind].Enabled
}

// EnabledModules returns the enabled modules sorted by descending priority,
// with the kind name as a stable tiebreak.
func (r *Registry) EnabledModules() []models.ModuleKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var kinds []models.ModuleKind
	for kind, setting := range r.s.Modules {
		if setting.Enabled {
			kinds = append(kinds, kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool {
		pi, pj := r.s.Modules[kinds[i]].Priority, r.s.Modules[kinds[j]].Priority
		if pi != pj {
			return pi > pj
		}
		return kinds[i] < kinds[j]
	})
	return kinds
}

// presets are the named analysis profiles. Each fully replaces the module
// table, the AI settings and the output settings, matching Update semantics.
var presets = map[string]func(Settings) Settings{
	// quick: no multi-pass, brief output, counting and clips only.
	"quick": func(s Settings) Settings {
		s.Modules = map[models.ModuleKind]ModuleSetting{
			models.ModulePlayerEvaluation: {Enabled: false, Priority: 40},
			models.ModuleStatistics:       {Enabled: true, Priority: 30},
			models.ModuleTactical:         {Enabled: false, Priority: 20},
			models.ModuleHighlights:       {Enabled: true, Priority: 10},
		}
		s.AI.MultiPass = false
		s.Output.Detail = "brief"
		return s
	},
	// comprehensive: everything on, detailed output.
	"comprehensive": func(s Settings) Settings {
		s.Modules = map[models.ModuleKind]ModuleSetting{
			models.ModulePlayerEvaluation: {Enabled: true, Priority: 40},
			models.ModuleStatistics:       {Enabled: true, Priority: 30},
			models.ModuleTactical:         {Enabled: true, Priority: 20},
			models.ModuleHighlights:       {Enabled: true, Priority: 10},
		}
		s.AI.MultiPass = true
		s.Output.Detail = "detailed"
		return s
	},
	// recruiting: individual evaluation first, highlights for the reel.
	"recruiting": func(s Settings) Settings {
		s.Modules = map[models.ModuleKind]ModuleSetting{
			models.ModulePlayerEvaluation: {Enabled: true, Priority: 50},
			models.ModuleHighlights:       {Enabled: true, Priority: 40},
			models.ModuleStatistics:       {Enabled: true, Priority: 30},
			models.ModuleTactical:         {Enabled: false, Priority: 20},
		}
		s.AI.MultiPass = true
		s.Output.Detail = "detailed"
		return s
	},
	// coaching: tactical reads first, no highlight reel.
	"coaching": func(s Settings) Settings {
		s.Modules = map[models.ModuleKind]ModuleSetting{
			models.ModuleTactical:         {Enabled: true, Priority: 50},
			models.ModulePlayerEvaluation: {Enabled: true, Priority: 40},
			models.ModuleStatistics:       {Enabled: true, Priority: 30},
			models.ModuleHighlights:       {Enabled: false, Priority: 10},
		}
		s.AI.MultiPass = true
		s.Output.Detail = "standard"
		return s
	},
}

// ApplyPreset replaces the current settings with a named profile.
func (r *Registry) ApplyPreset(name string) error {
	apply, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = apply(r.s.copy())
	return nil
}

// PresetNames lists the available presets, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
