// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderMarkdown_MachineModePassthrough(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)
	SetPersonalityLevel(PersonalityMachine)

	md := "# Title\n\nSome *emphasis* here.\n"
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, md); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != md {
		t.Errorf("machine mode must pass markdown through unchanged, got %q", buf.String())
	}
}

func TestRenderMarkdown_FullMode_ContainsText(t *testing.T) {
	orig := GetPersonality()
	defer SetPersonality(orig)
	SetPersonalityLevel(PersonalityFull)

	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, "# Deep Currents\n\nbody text\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Deep Currents") || !strings.Contains(out, "body text") {
		t.Errorf("rendered output missing content: %q", out)
	}
}
