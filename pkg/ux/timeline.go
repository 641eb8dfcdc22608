// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"strings"

	"github.com/DeepCurrentAI/DeepResearcher/pkg/research"
)

// timelineSteps are the pipeline stages shown in the step timeline, in order.
var timelineSteps = []research.Step{
	research.StepClarification,
	research.StepPlanning,
	research.StepResearch,
	research.StepReport,
	research.StepComplete,
}

var timelineLabels = map[research.Step]string{
	research.StepClarification: "Clarify",
	research.StepPlanning:      "Plan",
	research.StepResearch:      "Research",
	research.StepReport:        "Report",
	research.StepComplete:      "Done",
}

// StepTimeline renders the pipeline stages as a single line, marking
// finished, active, and pending stages relative to the view's current step.
//
// # Outputs
//
//	A styled one-line timeline, or a plain "STEP: name" line in machine mode.
func StepTimeline(view research.View) string {
	if GetPersonality().Level == PersonalityMachine {
		return fmt.Sprintf("STEP: %s", view.CurrentStep)
	}

	if view.CurrentStep == research.StepError {
		return fmt.Sprintf("%s %s", IconError.Render(), Styles.Error.Render("Failed: "+view.Err))
	}

	parts := make([]string, 0, len(timelineSteps))
	for _, step := range timelineSteps {
		label := timelineLabels[step]
		switch {
		case view.Complete && step == research.StepComplete:
			parts = append(parts, IconSuccess.Render()+" "+Styles.Success.Render(label))
		case step < view.CurrentStep:
			parts = append(parts, IconSuccess.Render()+" "+Styles.Muted.Render(label))
		case step == view.CurrentStep:
			parts = append(parts, IconActive.Render()+" "+Styles.Highlight.Render(label))
		default:
			parts = append(parts, IconPending.Render()+" "+Styles.Muted.Render(label))
		}
	}
	sep := Styles.Muted.Render(" ─ ")
	return strings.Join(parts, sep)
}

// ActivityLine formats one activity entry for the live feed. Low-confidence
// entries render muted so degraded free text is visually distinct.
func ActivityLine(entry research.ActivityEntry) string {
	if GetPersonality().Level == PersonalityMachine {
		return fmt.Sprintf("ACTIVITY: [%s] %s", entry.Step, entry.Content)
	}
	marker := Styles.Subtitle.Render(string(IconArrow))
	text := entry.Content
	if entry.Confidence == research.ConfidenceLow {
		return fmt.Sprintf("  %s %s", marker, Styles.Muted.Render(text))
	}
	return fmt.Sprintf("  %s %s", marker, text)
}
