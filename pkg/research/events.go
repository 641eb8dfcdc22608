// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package research reconciles the two push streams emitted by the deep
// research backend (pipeline progress and report text) into a single
// renderable view of a research session.
package research

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// Step
// =============================================================================

// Step is the coarse pipeline stage surfaced to the user. Steps are ordered;
// a session only ever moves forward through them, except for the terminal
// StepError which is reachable from anywhere.
type Step int

const (
	StepClarification Step = iota
	StepPlanning
	StepResearch
	StepReport
	StepComplete

	// StepError is terminal. Once a session errors it never leaves this step.
	StepError
)

// String returns the display name for the step.
//
// # Description
//
//	Human-readable step names used by renderers and structured logs.
func (s Step) String() string {
	switch s {
	case StepClarification:
		return "clarification"
	case StepPlanning:
		return "planning"
	case StepResearch:
		return "research"
	case StepReport:
		return "report"
	case StepComplete:
		return "complete"
	case StepError:
		return "error"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// stepForStatus is the fixed, total mapping from the backend's status
// vocabulary to steps. Codes absent from this table cause no step change.
var stepForStatus = map[string]Step{
	"initiating":             StepClarification,
	"clarification":          StepClarification,
	"clarification_needed":   StepClarification,
	"awaiting_clarification": StepClarification,

	"planning":                StepPlanning,
	"generating_plan":         StepPlanning,
	"plan_generation_started": StepPlanning,

	"searching":           StepResearch,
	"searching_web":       StepResearch,
	"searching_web_again": StepResearch,
	"reading":             StepResearch,
	"curating_context":    StepResearch,
	"evaluating_context":  StepResearch,

	"generating_report": StepReport,

	"completed": StepComplete,
	"error":     StepError,
}

// StepForStatus maps a backend status code to a step. The second return is
// false for codes outside the known vocabulary.
func StepForStatus(status string) (Step, bool) {
	s, ok := stepForStatus[strings.ToLower(strings.TrimSpace(status))]
	return s, ok
}

// Free-text vocabulary for the best-effort classifier. Deliberately small:
// the classifier tags activity entries, it never drives step transitions.
var (
	researchWords = []string{"search", "source", "crawl", "read", "fetch", "scan", "curat", "evaluat"}
	reportWords   = []string{"report", "draft", "writ", "section", "conclusion"}
)

// ClassifyDetail guesses a step from free-form detail text.
//
// # Limitations
//
//	Best effort only. Callers must never use the result to move the current
//	step or to override an explicit status code.
func ClassifyDetail(text string) (Step, bool) {
	lower := strings.ToLower(text)
	for _, w := range researchWords {
		if strings.Contains(lower, w) {
			return StepResearch, true
		}
	}
	for _, w := range reportWords {
		if strings.Contains(lower, w) {
			return StepReport, true
		}
	}
	return 0, false
}

// =============================================================================
// Progress stream frames
// =============================================================================

// ProgressEvent is one decoded frame from the progress stream. All fields are
// optional; the backend composes them additively, so a single frame may carry
// a status transition, a detail line, and an error at once.
type ProgressEvent struct {
	Status  string       `json:"status,omitempty"`
	Phase   string       `json:"step,omitempty"`
	Detail  string       `json:"detail,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Report  *FinalReport `json:"report,omitempty"`
}

// DecodeProgressEvent parses a progress frame payload.
//
// # Outputs
//
//	The decoded event, or an error when the payload is not a JSON object.
//	Callers degrade decode failures to free-text activity entries rather
//	than dropping the payload.
func DecodeProgressEvent(payload []byte) (*ProgressEvent, error) {
	var ev ProgressEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode progress event: %w", err)
	}
	return &ev, nil
}

// DetailText returns the frame's human-readable detail line, preferring the
// detail field over the looser message field.
func (e *ProgressEvent) DetailText() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// =============================================================================
// Final report
// =============================================================================

// ReportSection is one section of a structured final report.
type ReportSection struct {
	Title      string           `json:"title"`
	Content    string           `json:"content"`
	References []map[string]any `json:"references,omitempty"`
}

// FinalReport is the backend's completed report payload. The backend sends
// pre-rendered markdown alongside the structured form; the markdown wins when
// present.
type FinalReport struct {
	Title        string           `json:"title"`
	Introduction string           `json:"introduction"`
	Sections     []ReportSection  `json:"sections"`
	Conclusion   string           `json:"conclusion"`
	References   []map[string]any `json:"references,omitempty"`
	Markdown     string           `json:"markdown_content,omitempty"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
}

// Text returns the report as markdown, assembling it from the structured
// fields when the backend did not send a pre-rendered document.
func (r *FinalReport) Text() string {
	if r == nil {
		return ""
	}
	if r.Markdown != "" {
		return r.Markdown
	}

	var b strings.Builder
	if r.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", r.Title)
	}
	if r.Introduction != "" {
		b.WriteString(r.Introduction)
		b.WriteString("\n\n")
	}
	for _, sec := range r.Sections {
		if sec.Title != "" {
			fmt.Fprintf(&b, "## %s\n\n", sec.Title)
		}
		if sec.Content != "" {
			b.WriteString(sec.Content)
			b.WriteString("\n\n")
		}
	}
	if r.Conclusion != "" {
		b.WriteString("## Conclusion\n\n")
		b.WriteString(r.Conclusion)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// =============================================================================
// Report stream frames
// =============================================================================

// doneSentinel is the bare data payload some streaming backends send instead
// of a JSON completion flag.
const doneSentinel = "[DONE]"

// ReportFrame is one decoded frame from the report text stream: either a text
// chunk or the completion sentinel.
type ReportFrame struct {
	Chunk string
	Done  bool
}

// reportFramePayload covers both chunk key spellings the backend has used.
type reportFramePayload struct {
	ReportChunk string `json:"report_chunk"`
	Text        string `json:"text"`
	Done        bool   `json:"done"`
}

// DecodeReportFrame parses a report stream payload. The completion sentinel
// may arrive as the bare "[DONE]" marker or as {"done":true}.
func DecodeReportFrame(payload []byte) (*ReportFrame, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == doneSentinel {
		return &ReportFrame{Done: true}, nil
	}

	var p reportFramePayload
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return nil, fmt.Errorf("decode report frame: %w", err)
	}
	if p.Done {
		return &ReportFrame{Done: true}, nil
	}
	chunk := p.ReportChunk
	if chunk == "" {
		chunk = p.Text
	}
	return &ReportFrame{Chunk: chunk}, nil
}
