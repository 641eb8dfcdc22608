// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown writes markdown to w, styled for the terminal. In machine
// personality (or when glamour cannot initialize) the raw markdown passes
// through unchanged so output stays pipeable.
func RenderMarkdown(w io.Writer, markdown string) error {
	if GetPersonality().Level == PersonalityMachine {
		_, err := io.WriteString(w, markdown)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		_, werr := io.WriteString(w, markdown)
		return werr
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		_, werr := io.WriteString(w, markdown)
		return werr
	}
	if _, err := fmt.Fprint(w, rendered); err != nil {
		return fmt.Errorf("write rendered markdown: %w", err)
	}
	return nil
}
