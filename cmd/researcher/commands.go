// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/DeepCurrentAI/DeepResearcher/cmd/researcher/config"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/ux"
)

// --- Global Command Variables ---
var (
	baseURLOverride  string // CLI override for backend.base_url
	depthOverride    string // CLI override for research.depth
	savePath         string // Write the final report markdown to this file
	personalityLevel string // UX personality level (full/standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "researcher",
		Short: "A cli for running deep research sessions against a DeepCurrent backend",
		Long: `Researcher drives an AI deep-research pipeline from your terminal:
				clarifying questions, a research plan, live progress, and a
				final markdown report.`,
	}

	researchCmd = &cobra.Command{
		Use:   "research [topic...]",
		Short: "Run a full research session from topic to final report",
		Run:   runResearchCommand, // Defined in cmd_research.go
	}

	statusCmd = &cobra.Command{
		Use:   "status [session_id]",
		Short: "Show the current status of a research session",
		Args:  cobra.ExactArgs(1),
		Run:   runStatusCommand, // Defined in cmd_status.go
	}

	reportCmd = &cobra.Command{
		Use:   "report [session_id]",
		Short: "Fetch and display the final report of a completed session",
		Args:  cobra.ExactArgs(1),
		Run:   runReportCommand, // Defined in cmd_report.go
	}
)

// resolveBaseURL returns the flag override or the configured base URL.
func resolveBaseURL() string {
	if baseURLOverride != "" {
		return baseURLOverride
	}
	return config.Global.Backend.BaseURL
}

// resolveDepth returns the flag override or the configured default depth.
func resolveDepth() string {
	if depthOverride != "" {
		return depthOverride
	}
	return config.Global.Research.Depth
}

// requestTimeout returns the configured non-streaming request timeout.
func requestTimeout() time.Duration {
	seconds := config.Global.Backend.RequestTimeoutSeconds
	if seconds <= 0 {
		seconds = 60
	}
	return time.Duration(seconds) * time.Second
}

// init runs when the Go program starts
func init() {
	// Global UX personality flag
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: full (default, rich), standard, minimal, or machine (scripting)")
	rootCmd.PersistentFlags().StringVar(&baseURLOverride, "base-url", "",
		"Backend base URL (overrides the config file)")

	rootCmd.AddCommand(researchCmd)
	researchCmd.Flags().StringVar(&depthOverride, "depth", "",
		"Research depth: quick, standard, or deep (default from config)")
	researchCmd.Flags().StringVar(&savePath, "save", "",
		"Write the final report markdown to this file")

	rootCmd.AddCommand(statusCmd)

	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&savePath, "save", "",
		"Write the report markdown to this file")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Initialize UX personality from flag or environment
		if personalityLevel != "" {
			ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
		} else {
			ux.InitPersonality()
		}
	}
}
