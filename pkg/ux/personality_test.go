// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"os"
	"testing"
)

// =============================================================================
// GetPersonality / SetPersonality Tests
// =============================================================================

func TestSetPersonality_AndGet(t *testing.T) {
	// Save original personality
	orig := GetPersonality()
	defer SetPersonality(orig)

	// Set a custom personality
	custom := Personality{
		Level:    PersonalityMinimal,
		Theme:    "custom",
		ShowTips: false,
	}
	SetPersonality(custom)

	// Verify it was set
	retrieved := GetPersonality()
	if retrieved.Level != PersonalityMinimal {
		t.Errorf("expected level %v, got %v", PersonalityMinimal, retrieved.Level)
	}
	if retrieved.Theme != "custom" {
		t.Errorf("expected theme 'custom', got %q", retrieved.Theme)
	}
	if retrieved.ShowTips != false {
		t.Errorf("expected ShowTips false, got %v", retrieved.ShowTips)
	}
}

// =============================================================================
// SetPersonalityLevel Tests
// =============================================================================

func TestSetPersonalityLevel(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	for _, level := range []PersonalityLevel{
		PersonalityFull, PersonalityStandard, PersonalityMinimal, PersonalityMachine,
	} {
		SetPersonalityLevel(level)
		if got := GetPersonality().Level; got != level {
			t.Errorf("expected level %v, got %v", level, got)
		}
	}
}

func TestSetPersonalityLevel_PreservesOtherFields(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonality(Personality{Level: PersonalityFull, Theme: "deep", ShowTips: true})
	SetPersonalityLevel(PersonalityMachine)

	p := GetPersonality()
	if p.Theme != "deep" || p.ShowTips != true {
		t.Errorf("level change clobbered other fields: %+v", p)
	}
}

// =============================================================================
// ParsePersonalityLevel Tests
// =============================================================================

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		input string
		want  PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"f", PersonalityFull},
		{"FULL", PersonalityFull},
		{"standard", PersonalityStandard},
		{"std", PersonalityStandard},
		{"s", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"min", PersonalityMinimal},
		{"m", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"quiet", PersonalityMachine},
		{"q", PersonalityMachine},
		{"bogus", PersonalityStandard},
		{"", PersonalityStandard},
	}
	for _, tt := range tests {
		if got := ParsePersonalityLevel(tt.input); got != tt.want {
			t.Errorf("ParsePersonalityLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// =============================================================================
// InitPersonality Tests
// =============================================================================

func TestInitPersonality_EnvOverride(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)
	defer os.Unsetenv("RESEARCHER_PERSONALITY")

	os.Setenv("RESEARCHER_PERSONALITY", "minimal")
	InitPersonality()
	if got := GetPersonality().Level; got != PersonalityMinimal {
		t.Errorf("expected minimal from env, got %v", got)
	}

	os.Setenv("RESEARCHER_PERSONALITY", "machine")
	InitPersonality()
	if got := GetPersonality().Level; got != PersonalityMachine {
		t.Errorf("expected machine from env, got %v", got)
	}
}

func TestInitPersonality_NonTerminalDefaultsToMachine(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)
	os.Unsetenv("RESEARCHER_PERSONALITY")

	InitPersonality()
	// Under go test stdout is not a TTY.
	if isTerminal() {
		t.Skip("running on a terminal")
	}
	if got := GetPersonality().Level; got != PersonalityMachine {
		t.Errorf("expected machine in non-terminal context, got %v", got)
	}
}

// =============================================================================
// Predicate Tests
// =============================================================================

func TestShouldShowProgress(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)
	if ShouldShowProgress() {
		t.Error("machine mode should not show progress")
	}
	SetPersonalityLevel(PersonalityMinimal)
	if !ShouldShowProgress() {
		t.Error("minimal mode should show progress")
	}
}

func TestShouldShowColors(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)

	SetPersonalityLevel(PersonalityMachine)
	if ShouldShowColors() {
		t.Error("machine mode should not use colors")
	}
	SetPersonalityLevel(PersonalityFull)
	if !ShouldShowColors() {
		t.Error("full mode should use colors")
	}
}

func TestDefaultPersonality(t *testing.T) {
	def := DefaultPersonality()
	if def.Level != PersonalityFull {
		t.Errorf("expected full, got %v", def.Level)
	}
	if def.Theme != "default" {
		t.Errorf("expected theme 'default', got %q", def.Theme)
	}
	if !def.ShowTips {
		t.Error("expected ShowTips true")
	}
}
