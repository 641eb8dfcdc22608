// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DeepCurrentAI/DeepResearcher/pkg/research"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/ux"
)

// runStatusCommand does a one-shot status fetch for a session.
func runStatusCommand(cmd *cobra.Command, args []string) {
	sessionID := args[0]

	service := NewResearchService(ResearchServiceConfig{
		BaseURL: resolveBaseURL(),
		Timeout: requestTimeout(),
	})
	defer service.Close()

	status, err := service.Status(cmd.Context(), sessionID)
	if err != nil {
		ux.Error(fmt.Sprintf("Could not fetch status: %v", err))
		os.Exit(1)
	}

	step, known := research.StepForStatus(status.Status)
	if ux.GetPersonality().Level == ux.PersonalityMachine {
		fmt.Printf("SESSION: %s\n", status.SessionID)
		fmt.Printf("STATUS: %s\n", status.Status)
		if known {
			fmt.Printf("STEP: %s\n", step)
		}
		return
	}

	ux.Title(fmt.Sprintf("Session %s", status.SessionID))
	if known {
		fmt.Println(ux.StepTimeline(research.View{
			SessionID:   status.SessionID,
			CurrentStep: step,
			StepDetail:  status.Detail,
		}))
	} else {
		ux.Muted(fmt.Sprintf("Status: %s", status.Status))
	}
	if status.Detail != "" {
		ux.Info(status.Detail)
	}
}
