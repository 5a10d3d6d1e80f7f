package config

import (
	"sync"
	"testing"

	"film-room/internal/models"
)

func TestDefaultSettings(t *testing.T) {
	r := NewRegistry(nil)
	s := r.Settings()

	for _, kind := range models.AllModules() {
		if !s.Modules[kind].Enabled {
			t.Errorf("module %s disabled by default", kind)
		}
	}
	if !s.AI.MultiPass {
		t.Error("multi-pass sampling disabled by default")
	}

	want := []models.ModuleKind{
		models.ModulePlayerEvaluation,
		models.ModuleStatistics,
		models.ModuleTactical,
		models.ModuleHighlights,
	}
	got := r.EnabledModules()
	if len(got) != len(want) {
		t.Fatalf("EnabledModules() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EnabledModules()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRegistryFromConfig(t *testing.T) {
	cfg := &Config{}
	cfg.AI.Model = "gemini-2.5-pro"
	cfg.AI.TimeoutSeconds = 600
	cfg.Analysis.MaxConcurrentAnalyses = 4

	s := NewRegistry(cfg).Settings()
	if s.AI.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q, want config override", s.AI.Model)
	}
	if s.AI.TimeoutSeconds != 600 {
		t.Errorf("TimeoutSeconds = %d, want 600", s.AI.TimeoutSeconds)
	}
	if s.MaxConcurrentAnalyses != 4 {
		t.Errorf("MaxConcurrentAnalyses = %d, want 4", s.MaxConcurrentAnalyses)
	}
}

func TestApplyPresetQuick(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.ApplyPreset("quick"); err != nil {
		t.Fatalf("ApplyPreset(quick) error = %v", err)
	}

	s := r.Settings()
	if s.AI.MultiPass {
		t.Error("quick preset left multi-pass enabled")
	}

	got := r.EnabledModules()
	want := []models.ModuleKind{models.ModuleStatistics, models.ModuleHighlights}
	if len(got) != len(want) {
		t.Fatalf("EnabledModules() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EnabledModules()[%d] = %s, want %s (descending priority)", i, got[i], want[i])
		}
	}
}

func TestApplyPresetProfiles(t *testing.T) {
	tests := []struct {
		preset    string
		first     models.ModuleKind
		disabled  models.ModuleKind
		multiPass bool
	}{
		{"recruiting", models.ModulePlayerEvaluation, models.ModuleTactical, true},
		{"coaching", models.ModuleTactical, models.ModuleHighlights, true},
		{"comprehensive", models.ModulePlayerEvaluation, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			r := NewRegistry(nil)
			if err := r.ApplyPreset(tt.preset); err != nil {
				t.Fatalf("ApplyPreset(%s) error = %v", tt.preset, err)
			}
			enabled := r.EnabledModules()
			if len(enabled) == 0 || enabled[0] != tt.first {
				t.Errorf("EnabledModules() = %v, want %s first", enabled, tt.first)
			}
			if tt.disabled != "" && r.IsModuleEnabled(tt.disabled) {
				t.Errorf("preset %s left %s enabled", tt.preset, tt.disabled)
			}
			if r.Settings().AI.MultiPass != tt.multiPass {
				t.Errorf("preset %s multi-pass = %v, want %v", tt.preset, r.Settings().AI.MultiPass, tt.multiPass)
			}
		})
	}
}

func TestApplyPresetUnknown(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.ApplyPreset("turbo"); err == nil {
		t.Error("ApplyPreset(turbo) did not fail")
	}
}

func TestUpdateShallowMerge(t *testing.T) {
	r := NewRegistry(nil)

	// A partial AI update replaces the entire AI sub-object: unspecified
	// sibling fields are zeroed, not preserved.
	r.Update(Partial{AI: &AISettings{Model: "gemini-2.5-pro"}})
	s := r.Settings()
	if s.AI.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q, want gemini-2.5-pro", s.AI.Model)
	}
	if s.AI.MultiPass || s.AI.TimeoutSeconds != 0 {
		t.Errorf("AI sub-object partially merged: %+v, want full replacement", s.AI)
	}
	// Untouched top-level keys survive.
	if !s.Modules[models.ModuleTactical].Enabled {
		t.Error("module table clobbered by AI-only update")
	}

	// Module table replacement follows the same rule.
	r.Update(Partial{Modules: map[models.ModuleKind]ModuleSetting{
		models.ModuleHighlights: {Enabled: true, Priority: 1},
	}})
	if r.IsModuleEnabled(models.ModuleTactical) {
		t.Error("module update merged instead of replacing the table")
	}
	if got := r.EnabledModules(); len(got) != 1 || got[0] != models.ModuleHighlights {
		t.Errorf("EnabledModules() = %v, want [highlights]", got)
	}

	n := 8
	r.Update(Partial{MaxConcurrentAnalyses: &n})
	if r.Settings().MaxConcurrentAnalyses != 8 {
		t.Errorf("MaxConcurrentAnalyses = %d, want 8", r.Settings().MaxConcurrentAnalyses)
	}
}

func TestSettingsSnapshotIsolation(t *testing.T) {
	r := NewRegistry(nil)
	snap := r.Settings()
	snap.Modules[models.ModuleTactical] = ModuleSetting{Enabled: false}

	if !r.IsModuleEnabled(models.ModuleTactical) {
		t.Error("mutating a snapshot leaked into the registry")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	// Formatting calls read the registry while administrative updates land.
	r := NewRegistry(nil)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.EnabledModules()
				_ = r.Settings()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ai := DefaultSettings().AI
				r.Update(Partial{AI: &ai})
				_ = r.ApplyPreset("quick")
			}
		}()
	}
	wg.Wait()
}
