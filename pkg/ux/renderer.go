// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides user experience components for the researcher CLI.
//
// This file contains view renderers that display successive research session
// snapshots to various outputs (terminal, buffer).
//
// Single Responsibility:
//
//	Renderers ONLY render. They do not reconcile streams, parse frames, or
//	manage HTTP. Each Apply call diffs the new snapshot against the last one
//	and emits only what changed, so callers can pass every update without
//	worrying about repaints.
//
// Renderer Types:
//
//   - TerminalViewRenderer: Interactive terminal with spinner and timeline
//   - BufferViewRenderer: In-memory event capture for testing
package ux

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/DeepCurrentAI/DeepResearcher/pkg/research"
)

// =============================================================================
// View Renderer Interface
// =============================================================================

// ViewRenderer displays a research session as it evolves.
//
// Lifecycle:
//
//  1. Create with New*ViewRenderer()
//  2. Call Apply for every session snapshot, in order
//  3. Call Warning for transport-level warnings
//  4. Call Finalize() when the session ends (always, even on error)
//
// Thread Safety:
//
//	Implementations must be safe for concurrent calls; snapshots may arrive
//	from stream goroutines.
type ViewRenderer interface {
	// Apply renders the parts of the snapshot that changed since the last
	// Apply: step transitions, new activity entries, and terminal states.
	Apply(ctx context.Context, view research.View)

	// Warning renders a recoverable transport warning.
	Warning(ctx context.Context, err error)

	// Finalize performs cleanup (stop spinner, flush output). Safe to call
	// multiple times; subsequent calls are no-ops.
	Finalize()
}

// =============================================================================
// Terminal View Renderer
// =============================================================================

// terminalViewRenderer renders session snapshots to an interactive terminal.
//
// A spinner carries the current step detail between snapshots; the step
// timeline reprints on step transitions; activity entries print as an
// indented feed. Machine personality degrades everything to KEY: value
// lines.
type terminalViewRenderer struct {
	writer      io.Writer
	personality PersonalityLevel
	spinner     *Spinner
	mu          sync.Mutex

	lastStep      research.Step
	seenStep      bool
	activityCount int
	settled       bool
	finalized     bool
}

// NewTerminalViewRenderer creates a renderer for interactive terminal output.
// A nil writer defaults to os.Stdout.
func NewTerminalViewRenderer(w io.Writer, personality PersonalityLevel) ViewRenderer {
	if w == nil {
		w = os.Stdout
	}
	return &terminalViewRenderer{
		writer:      w,
		personality: personality,
	}
}

func (r *terminalViewRenderer) Apply(ctx context.Context, view research.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized || r.settled {
		return
	}

	stepChanged := !r.seenStep || view.CurrentStep != r.lastStep
	if stepChanged {
		r.seenStep = true
		r.lastStep = view.CurrentStep
		if view.CurrentStep != research.StepError && !view.Complete {
			r.printTimelineLocked(view)
		}
	}

	for _, entry := range view.Activity[r.activityCount:] {
		r.printActivityLocked(entry)
	}
	r.activityCount = len(view.Activity)

	switch {
	case view.Err != "":
		r.settled = true
		r.stopSpinnerLocked()
		if r.personality == PersonalityMachine {
			fmt.Fprintf(r.writer, "ERROR: %s\n", view.Err)
		} else {
			fmt.Fprintf(r.writer, "%s %s\n",
				IconError.Render(),
				Styles.Error.Render("Research failed: "+view.Err))
		}
	case view.Complete:
		r.settled = true
		r.stopSpinnerLocked()
		if r.personality == PersonalityMachine {
			fmt.Fprintln(r.writer, "DONE")
		} else {
			fmt.Fprintf(r.writer, "%s %s\n",
				IconSuccess.Render(),
				Styles.Success.Render("Research complete"))
		}
	default:
		r.updateSpinnerLocked(view)
	}
}

func (r *terminalViewRenderer) Warning(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "WARN: %v\n", err)
		return
	}
	r.stopSpinnerLocked()
	fmt.Fprintf(r.writer, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(err.Error()))
}

func (r *terminalViewRenderer) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return
	}
	r.finalized = true
	r.stopSpinnerLocked()
}

// printTimelineLocked reprints the step timeline for a step transition.
func (r *terminalViewRenderer) printTimelineLocked(view research.View) {
	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "STEP: %s\n", view.CurrentStep)
		return
	}
	r.stopSpinnerLocked()
	fmt.Fprintln(r.writer, StepTimeline(view))
}

func (r *terminalViewRenderer) printActivityLocked(entry research.ActivityEntry) {
	if r.personality == PersonalityMachine {
		fmt.Fprintf(r.writer, "ACTIVITY: [%s] %s\n", entry.Step, entry.Content)
		return
	}
	r.stopSpinnerLocked()
	fmt.Fprintln(r.writer, ActivityLine(entry))
}

// updateSpinnerLocked keeps the spinner showing the latest step detail.
func (r *terminalViewRenderer) updateSpinnerLocked(view research.View) {
	if r.personality == PersonalityMachine {
		return
	}
	message := view.StepDetail
	if message == "" {
		message = view.CurrentStep.String() + "..."
	}
	if r.spinner == nil {
		r.spinner = NewSpinner(message).WithType(SpinnerSonar)
		r.spinner.Start()
	} else {
		r.spinner.UpdateMessage(message)
	}
}

func (r *terminalViewRenderer) stopSpinnerLocked() {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
}

// =============================================================================
// Buffer View Renderer (for testing)
// =============================================================================

// RenderEvent is one captured rendering event, for test inspection.
type RenderEvent struct {
	Kind    string // "step", "activity", "complete", "error", "warning"
	Content string
}

// bufferViewRenderer captures rendering events without producing output.
type bufferViewRenderer struct {
	mu     sync.Mutex
	events []RenderEvent

	lastStep      research.Step
	seenStep      bool
	activityCount int
	settled       bool
	finalized     bool
}

// NewBufferViewRenderer creates a renderer that records events in memory.
func NewBufferViewRenderer() ViewRenderer {
	return &bufferViewRenderer{}
}

func (r *bufferViewRenderer) Apply(ctx context.Context, view research.View) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized || r.settled {
		return
	}

	if !r.seenStep || view.CurrentStep != r.lastStep {
		r.seenStep = true
		r.lastStep = view.CurrentStep
		r.events = append(r.events, RenderEvent{Kind: "step", Content: view.CurrentStep.String()})
	}
	for _, entry := range view.Activity[r.activityCount:] {
		r.events = append(r.events, RenderEvent{Kind: "activity", Content: entry.Content})
	}
	r.activityCount = len(view.Activity)

	switch {
	case view.Err != "":
		r.settled = true
		r.events = append(r.events, RenderEvent{Kind: "error", Content: view.Err})
	case view.Complete:
		r.settled = true
		r.events = append(r.events, RenderEvent{Kind: "complete", Content: view.ReportText})
	}
}

func (r *bufferViewRenderer) Warning(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.events = append(r.events, RenderEvent{Kind: "warning", Content: err.Error()})
}

func (r *bufferViewRenderer) Finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalized = true
}

// Events returns a copy of the captured events in order. Not part of the
// ViewRenderer interface; cast to access it.
func (r *bufferViewRenderer) Events() []RenderEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RenderEvent, len(r.events))
	copy(out, r.events)
	return out
}

// =============================================================================
// Compile-time Interface Checks
// =============================================================================

var _ ViewRenderer = (*terminalViewRenderer)(nil)
var _ ViewRenderer = (*bufferViewRenderer)(nil)
