// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package research

import "time"

// Confidence records how an activity entry was attributed to its step.
type Confidence string

const (
	// ConfidenceHigh means the entry came from a well-formed frame with an
	// explicit or current-step attribution.
	ConfidenceHigh Confidence = "high"

	// ConfidenceLow means the entry is degraded free text (an unparseable
	// frame) or a heuristic classification.
	ConfidenceLow Confidence = "low"
)

// ActivityEntry is one line of the session's progress narration.
type ActivityEntry struct {
	Step       Step
	Content    string
	Timestamp  time.Time
	Confidence Confidence
}

type activityKey struct {
	step    Step
	content string
}

// ActivityLog is an append-only log of activity entries, deduplicated by
// (step, content). First-seen order is preserved; identical content under
// different steps yields distinct entries.
//
// Not safe for concurrent use; the reconciler serializes access.
type ActivityLog struct {
	entries []ActivityEntry
	seen    map[activityKey]struct{}
}

// NewActivityLog returns an empty activity log.
func NewActivityLog() *ActivityLog {
	return &ActivityLog{seen: make(map[activityKey]struct{})}
}

// Add appends an entry unless the same (step, content) pair has been seen
// before. Returns true when an entry was appended.
func (l *ActivityLog) Add(step Step, content string, conf Confidence) bool {
	if content == "" {
		return false
	}
	key := activityKey{step: step, content: content}
	if _, dup := l.seen[key]; dup {
		return false
	}
	l.seen[key] = struct{}{}
	l.entries = append(l.entries, ActivityEntry{
		Step:       step,
		Content:    content,
		Timestamp:  time.Now(),
		Confidence: conf,
	})
	return true
}

// Entries returns a copy of the log in append order.
func (l *ActivityLog) Entries() []ActivityEntry {
	out := make([]ActivityEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *ActivityLog) Len() int {
	return len(l.entries)
}
