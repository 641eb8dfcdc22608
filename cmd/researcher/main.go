// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/DeepCurrentAI/DeepResearcher/cmd/researcher/config"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/logging"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/telemetry"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(config.Global.Logging.Level),
		LogDir:  config.Global.Logging.Dir,
		Service: "researcher",
		Quiet:   config.Global.Logging.Dir != "", // stderr unless file logging is on
	})
	defer func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing logger: %v\n", err)
		}
	}()
	slog.SetDefault(logger.Slog())

	shutdownTracing, err := telemetry.Init(context.Background(), telemetry.DefaultConfig(version))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing tracing: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("failed to shut down tracing", "error", err)
		}
	}()

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
