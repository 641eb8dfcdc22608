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
	"golang.org/x/sync/errgroup"

	"github.com/DeepCurrentAI/DeepResearcher/pkg/research"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/ux"
)

// runReportCommand fetches and displays a completed report. Status and
// report are fetched in parallel; the status is used only to give a better
// message when the session is still in flight.
func runReportCommand(cmd *cobra.Command, args []string) {
	sessionID := args[0]

	service := NewResearchService(ResearchServiceConfig{
		BaseURL: resolveBaseURL(),
		Timeout: requestTimeout(),
	})
	defer service.Close()

	var (
		status SessionStatus
		report *research.FinalReport
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		status, err = service.Status(ctx, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		report, err = service.FinalReport(ctx, sessionID)
		return err
	})

	if err := g.Wait(); err != nil {
		step, known := research.StepForStatus(status.Status)
		if known && step != research.StepComplete {
			ux.Error(fmt.Sprintf("Session is not complete yet (status: %s)", status.Status))
		} else {
			ux.Error(fmt.Sprintf("Could not fetch report: %v", err))
		}
		os.Exit(1)
	}

	text := report.Text()
	if text == "" {
		ux.Error("The backend returned an empty report")
		os.Exit(1)
	}

	if err := ux.RenderMarkdown(os.Stdout, text); err != nil {
		ux.Error(fmt.Sprintf("Could not render report: %v", err))
		os.Exit(1)
	}

	if savePath != "" {
		if err := os.WriteFile(savePath, []byte(text), 0644); err != nil {
			ux.Error(fmt.Sprintf("Could not save report: %v", err))
			os.Exit(1)
		}
		ux.Success(fmt.Sprintf("Report saved to %s", savePath))
	}
}
