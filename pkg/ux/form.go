// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// ClarificationQuestion is one question the backend wants answered before
// research begins.
type ClarificationQuestion struct {
	ID     string
	Prompt string
}

// ClarificationPrompter collects answers to clarification questions.
//
// # Description
//
//	Implementations map question IDs to the user's free-text answers. An
//	empty answer means "no preference" and is passed through unchanged.
type ClarificationPrompter interface {
	Ask(ctx context.Context, questions []ClarificationQuestion) (map[string]string, error)
}

// =============================================================================
// Interactive form (huh)
// =============================================================================

// formPrompter renders all questions as a single huh form.
type formPrompter struct{}

// NewFormPrompter returns the interactive clarification prompter.
func NewFormPrompter() ClarificationPrompter {
	return &formPrompter{}
}

func (p *formPrompter) Ask(ctx context.Context, questions []ClarificationQuestion) (map[string]string, error) {
	if len(questions) == 0 {
		return map[string]string{}, nil
	}

	answers := make([]string, len(questions))
	fields := make([]huh.Field, 0, len(questions))
	for i, q := range questions {
		fields = append(fields, huh.NewInput().
			Title(q.Prompt).
			Placeholder("press enter to skip").
			Value(&answers[i]))
	}

	form := huh.NewForm(huh.NewGroup(fields...))
	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("clarification form: %w", err)
	}

	out := make(map[string]string, len(questions))
	for i, q := range questions {
		out[q.ID] = strings.TrimSpace(answers[i])
	}
	return out, nil
}

// =============================================================================
// Line-based fallback (machine mode, pipes)
// =============================================================================

// linePrompter reads one answer per line from a plain reader. Used when
// stdout is not a terminal or the personality is machine.
type linePrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewLinePrompter returns a prompter that writes questions to out and reads
// answers line by line from in. Nil arguments default to stdin/stdout.
func NewLinePrompter(in io.Reader, out io.Writer) ClarificationPrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &linePrompter{in: bufio.NewScanner(in), out: out}
}

func (p *linePrompter) Ask(ctx context.Context, questions []ClarificationQuestion) (map[string]string, error) {
	out := make(map[string]string, len(questions))
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(p.out, "QUESTION: %s\n", q.Prompt)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return nil, fmt.Errorf("read answer: %w", err)
			}
			// EOF: remaining questions go unanswered.
			out[q.ID] = ""
			continue
		}
		out[q.ID] = strings.TrimSpace(p.in.Text())
	}
	return out, nil
}

// NewClarificationPrompter picks the prompter appropriate for the current
// personality and terminal.
func NewClarificationPrompter() ClarificationPrompter {
	if IsInteractive() {
		return NewFormPrompter()
	}
	return NewLinePrompter(nil, nil)
}

// Confirm asks a yes/no question. Non-interactive contexts always answer no.
func Confirm(ctx context.Context, prompt string) bool {
	if !IsInteractive() {
		return false
	}
	var yes bool
	form := huh.NewForm(huh.NewGroup(huh.NewConfirm().Title(prompt).Value(&yes)))
	if err := form.RunWithContext(ctx); err != nil {
		return false
	}
	return yes
}

var _ ClarificationPrompter = (*formPrompter)(nil)
var _ ClarificationPrompter = (*linePrompter)(nil)
