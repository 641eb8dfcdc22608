// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/DeepCurrentAI/DeepResearcher/pkg/research"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/ux"
)

// =============================================================================
// RESEARCH RUNNER
// =============================================================================

// ErrPipelineFailed marks a server-side pipeline failure, as opposed to a
// local or transport error. Callers may offer a fresh run.
var ErrPipelineFailed = errors.New("research failed")

// ResearchRunner drives one research session end to end: topic entry,
// clarification Q&A, plan generation, live progress via the stream
// reconciler, and final report display.
//
// # Thread Safety
//
// Not safe for concurrent use; one runner per session.
type ResearchRunner struct {
	service  ResearchService
	renderer ux.ViewRenderer
	prompter ux.ClarificationPrompter
	input    InputReader
	out      io.Writer
	logger   *slog.Logger

	topic    string // Topic from args; empty means prompt interactively
	depth    string
	savePath string // When set, write the final report markdown here
}

// ResearchRunnerConfig configures a ResearchRunner. Service is required;
// nil collaborators get production defaults.
type ResearchRunnerConfig struct {
	Service  ResearchService
	Renderer ux.ViewRenderer
	Prompter ux.ClarificationPrompter
	Input    InputReader
	Out      io.Writer
	Logger   *slog.Logger
	Topic    string
	Depth    string
	SavePath string
}

// NewResearchRunner creates a runner with defaults filled in.
func NewResearchRunner(config ResearchRunnerConfig) *ResearchRunner {
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	renderer := config.Renderer
	if renderer == nil {
		renderer = ux.NewTerminalViewRenderer(out, ux.GetPersonality().Level)
	}
	prompter := config.Prompter
	if prompter == nil {
		prompter = ux.NewClarificationPrompter()
	}
	input := config.Input
	if input == nil {
		input = NewTopicReader()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ResearchRunner{
		service:  config.Service,
		renderer: renderer,
		prompter: prompter,
		input:    input,
		out:      out,
		logger:   logger,
		topic:    config.Topic,
		depth:    config.Depth,
		savePath: config.SavePath,
	}
}

// Run executes the full research wizard. Returns nil on a completed report,
// ctx.Err() on cancellation, and a descriptive error when the pipeline
// fails.
func (r *ResearchRunner) Run(ctx context.Context) error {
	topic, err := r.resolveTopic()
	if err != nil {
		return err
	}

	start, err := r.service.Start(ctx, topic, r.depth)
	if err != nil {
		return fmt.Errorf("start research: %w", err)
	}
	r.logger.Info("session created", "session_id", start.SessionID, "status", start.Status)

	if err := r.runClarification(ctx, start.SessionID); err != nil {
		return err
	}

	if err := r.service.StartPlanGeneration(ctx, start.SessionID); err != nil {
		return fmt.Errorf("start plan generation: %w", err)
	}

	final, err := r.followSession(ctx, start.SessionID)
	if err != nil {
		return err
	}

	return r.deliverReport(start.SessionID, final)
}

// resolveTopic returns the configured topic or prompts for one.
func (r *ResearchRunner) resolveTopic() (string, error) {
	if r.topic != "" {
		return r.topic, nil
	}
	ux.Info("What should I research? (Ctrl+D to abort)")
	line, err := r.input.ReadLine()
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("no topic provided")
	}
	if err != nil {
		return "", fmt.Errorf("read topic: %w", err)
	}
	if line == "" {
		return "", fmt.Errorf("no topic provided")
	}
	return line, nil
}

// runClarification fetches pending questions and submits the user's
// answers. No questions means the step is skipped entirely.
func (r *ResearchRunner) runClarification(ctx context.Context, sessionID string) error {
	questions, err := r.service.ClarificationQuestions(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("fetch clarification questions: %w", err)
	}
	if len(questions) == 0 {
		return nil
	}

	ux.Info(fmt.Sprintf("The pipeline has %d clarifying question(s)", len(questions)))
	answers, err := r.prompter.Ask(ctx, questions)
	if err != nil {
		return fmt.Errorf("collect clarification answers: %w", err)
	}
	if err := r.service.SubmitClarificationAnswers(ctx, sessionID, answers); err != nil {
		return fmt.Errorf("submit clarification answers: %w", err)
	}
	return nil
}

// followSession attaches the reconciler to the session's streams and blocks
// until the session settles or ctx is canceled. Returns the final view on
// success.
func (r *ResearchRunner) followSession(ctx context.Context, sessionID string) (research.View, error) {
	done := make(chan research.View, 1)

	rec := research.NewReconciler(research.Options{
		OpenProgress: r.service.OpenProgressStream,
		OpenReport:   r.service.OpenReportStream,
		OnUpdate: func(view research.View) {
			r.renderer.Apply(ctx, view)
			if view.Complete || view.Err != "" {
				select {
				case done <- view:
				default:
				}
			}
		},
		OnWarning: func(err error) {
			r.renderer.Warning(ctx, err)
		},
		Logger: r.logger,
	})

	if err := rec.Attach(ctx, sessionID); err != nil {
		return research.View{}, fmt.Errorf("attach to session: %w", err)
	}
	defer func() {
		rec.Detach()
		r.renderer.Finalize()
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("research canceled", "session_id", sessionID)
		return research.View{}, ctx.Err()
	case view := <-done:
		if view.Err != "" {
			return research.View{}, fmt.Errorf("%w: %s", ErrPipelineFailed, view.Err)
		}
		return view, nil
	}
}

// deliverReport renders the final report and optionally writes it to disk.
func (r *ResearchRunner) deliverReport(sessionID string, view research.View) error {
	report := view.ReportText
	if report == "" {
		// Stream delivered nothing usable; fall back to the artifact
		// endpoint before giving up.
		fetched, err := r.service.FinalReport(context.Background(), sessionID)
		if err != nil {
			return fmt.Errorf("session completed but no report is available: %w", err)
		}
		report = fetched.Text()
	}

	fmt.Fprintln(r.out)
	if err := ux.RenderMarkdown(r.out, report); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if r.savePath != "" {
		if err := os.WriteFile(r.savePath, []byte(report), 0644); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		ux.Success(fmt.Sprintf("Report saved to %s", r.savePath))
	}

	r.logger.Info("research completed",
		"session_id", sessionID,
		"report_bytes", len(report),
	)
	return nil
}
