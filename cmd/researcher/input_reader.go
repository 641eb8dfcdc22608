// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// =============================================================================
// INTERFACES
// =============================================================================

// InputReader reads one line of user input. Implementations: interactive
// terminal editor, plain stdin, and a mock for tests.
type InputReader interface {
	// ReadLine blocks until a line is submitted. Returns io.EOF when the
	// user signals end of input (Ctrl+D or closed stdin).
	ReadLine() (string, error)
}

// =============================================================================
// STDIN READER
// =============================================================================

// StdinReader reads lines from a plain reader. Used for piped input and
// non-TTY environments.
type StdinReader struct {
	scanner *bufio.Scanner
}

// NewStdinReader creates a reader over os.Stdin.
func NewStdinReader() *StdinReader {
	return &StdinReader{scanner: bufio.NewScanner(os.Stdin)}
}

// NewReaderFrom creates a StdinReader over an arbitrary reader, for tests.
func NewReaderFrom(r io.Reader) *StdinReader {
	return &StdinReader{scanner: bufio.NewScanner(r)}
}

func (r *StdinReader) ReadLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(r.scanner.Text()), nil
}

// =============================================================================
// INTERACTIVE READER
// =============================================================================

// InteractiveInputReader reads a line with full line editing via a
// bubbletea textinput. Falls back to StdinReader when stdin is not a TTY.
type InteractiveInputReader struct {
	prompt      string
	placeholder string
}

// NewTopicReader creates the reader used for research topic entry. Returns
// a StdinReader for piped input and CI environments.
func NewTopicReader() InputReader {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewStdinReader()
	}
	return &InteractiveInputReader{
		prompt:      "Research topic ❯ ",
		placeholder: "what would you like to know?",
	}
}

// ReadLine runs the textinput program until Enter, Ctrl+C (empty line) or
// Ctrl+D (io.EOF).
func (r *InteractiveInputReader) ReadLine() (string, error) {
	ti := textinput.New()
	ti.Prompt = r.prompt
	ti.Placeholder = r.placeholder
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 80

	p := tea.NewProgram(topicModel{textInput: ti}, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := finalModel.(topicModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}
	if result.eof {
		return "", io.EOF
	}
	return strings.TrimSpace(result.textInput.Value()), nil
}

// topicModel is the bubbletea model behind InteractiveInputReader.
type topicModel struct {
	textInput textinput.Model
	done      bool
	eof       bool
}

func (m topicModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m topicModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC:
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			m.textInput.SetValue("")
			m.eof = true
			m.done = true
			return m, tea.Quit
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m topicModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}

// =============================================================================
// MOCK READER (for testing)
// =============================================================================

// MockInputReader returns predetermined inputs in sequence, then io.EOF.
type MockInputReader struct {
	inputs []string
	index  int
}

func NewMockInputReader(inputs []string) *MockInputReader {
	return &MockInputReader{inputs: inputs}
}

func (m *MockInputReader) ReadLine() (string, error) {
	if m.index >= len(m.inputs) {
		return "", io.EOF
	}
	line := m.inputs[m.index]
	m.index++
	return line, nil
}

// =============================================================================
// COMPILE-TIME INTERFACE CHECKS
// =============================================================================

var (
	_ InputReader = (*StdinReader)(nil)
	_ InputReader = (*InteractiveInputReader)(nil)
	_ InputReader = (*MockInputReader)(nil)
)
