// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package research

import "strings"

// ReportAccumulator collects streamed report text. Chunks concatenate in
// arrival order with no separators; a final report payload atomically
// replaces whatever streamed before it. Once sealed the text is frozen and
// all writes become no-ops.
//
// Not safe for concurrent use; the reconciler serializes access.
type ReportAccumulator struct {
	buf    strings.Builder
	final  string
	sealed bool
	chunks int
}

// Append adds a streamed chunk. Returns false when the accumulator is sealed.
func (a *ReportAccumulator) Append(chunk string) bool {
	if a.sealed || chunk == "" {
		return false
	}
	a.buf.WriteString(chunk)
	a.chunks++
	return true
}

// ReplaceFinal swaps in the authoritative final report text and seals the
// accumulator. A no-op when already sealed.
func (a *ReportAccumulator) ReplaceFinal(text string) {
	if a.sealed {
		return
	}
	a.final = text
	a.sealed = true
}

// Seal freezes the accumulated text without replacing it.
func (a *ReportAccumulator) Seal() {
	a.sealed = true
}

// Sealed reports whether the accumulator accepts further writes.
func (a *ReportAccumulator) Sealed() bool {
	return a.sealed
}

// Text returns the current report text: the final payload when one was
// received, otherwise the chunk concatenation so far.
func (a *ReportAccumulator) Text() string {
	if a.final != "" {
		return a.final
	}
	return a.buf.String()
}

// Chunks returns how many streamed chunks have been appended.
func (a *ReportAccumulator) Chunks() int {
	return a.chunks
}
