// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeepCurrentAI/DeepResearcher/pkg/ux"
)

// runResearchCommand starts the full research wizard.
func runResearchCommand(cmd *cobra.Command, args []string) {
	service := NewResearchService(ResearchServiceConfig{
		BaseURL: resolveBaseURL(),
		Timeout: requestTimeout(),
	})
	defer func() {
		if err := service.Close(); err != nil {
			slog.Error("failed to close research service", "error", err)
		}
	}()

	// Graceful shutdown: SIGINT/SIGTERM cancel the context, which detaches
	// the reconciler and closes both streams.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	topic := strings.TrimSpace(strings.Join(args, " "))
	for {
		runner := NewResearchRunner(ResearchRunnerConfig{
			Service:  service,
			Topic:    topic,
			Depth:    resolveDepth(),
			SavePath: savePath,
		})

		err := runner.Run(ctx)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) {
			ux.Warning("Research interrupted")
			return
		}
		ux.Error(err.Error())

		// A pipeline failure is not resumable; offer a fresh session instead.
		if !errors.Is(err, ErrPipelineFailed) || !ux.Confirm(ctx, "Run the research again from the start?") {
			os.Exit(1)
		}
	}
}
