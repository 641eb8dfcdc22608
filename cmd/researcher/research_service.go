// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main contains the DeepCurrent researcher CLI.
//
// This file defines the ResearchService interface and its HTTP implementation
// for communicating with the research backend. The streaming layers connect as:
//
//	HTTP Response Body → research.StreamOpener → research.Reconciler → ux.ViewRenderer
//
// # File Organization
//
//  1. Interfaces (contracts first)
//  2. Request/response types
//  3. Configuration struct
//  4. Implementation struct
//  5. Constructor functions
//  6. Methods on structs
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/DeepCurrentAI/DeepResearcher/pkg/research"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/telemetry"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/ux"
	"github.com/DeepCurrentAI/DeepResearcher/pkg/validation"
)

// =============================================================================
// INTERFACES
// =============================================================================

// ResearchService is the typed client for the research backend.
//
// # Description
//
// Covers the full session lifecycle: start, clarification Q&A, plan
// generation, live progress and report streams, and final artifact fetch.
// The two Open*Stream methods return raw SSE bodies; decoding and state
// reconciliation belong to pkg/research.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
//
// # Assumptions
//
//   - The backend speaks the /api/research surface
//   - Session ids are UUIDs
type ResearchService interface {
	// Start creates a research session for the topic and returns its id
	// plus the initial status string.
	Start(ctx context.Context, topic, depth string) (StartResult, error)

	// ClarificationQuestions fetches the pending clarification questions
	// for a session. An empty slice means the pipeline needs nothing.
	ClarificationQuestions(ctx context.Context, sessionID string) ([]ux.ClarificationQuestion, error)

	// SubmitClarificationAnswers posts the user's answers keyed by
	// question id. Blank answers are allowed (question skipped).
	SubmitClarificationAnswers(ctx context.Context, sessionID string, answers map[string]string) error

	// StartPlanGeneration kicks off plan generation after clarification.
	StartPlanGeneration(ctx context.Context, sessionID string) error

	// Status returns the session's current pipeline status.
	Status(ctx context.Context, sessionID string) (SessionStatus, error)

	// FinalReport fetches the completed report artifact.
	FinalReport(ctx context.Context, sessionID string) (*research.FinalReport, error)

	// OpenProgressStream opens the progress SSE stream. Caller closes the
	// body; closing aborts the stream.
	OpenProgressStream(ctx context.Context, sessionID string) (io.ReadCloser, error)

	// OpenReportStream opens the report-chunk SSE stream.
	OpenReportStream(ctx context.Context, sessionID string) (io.ReadCloser, error)

	// Close releases resources held by the service.
	Close() error
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// StartResult is the backend's answer to a session start.
type StartResult struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// SessionStatus is a point-in-time snapshot of a session.
type SessionStatus struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

// startRequest is the POST /api/research/start payload.
type startRequest struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"created_at"`
	Topic     string `json:"topic"`
	Depth     string `json:"depth,omitempty"`
}

// clarificationResponse is the GET .../clarification payload.
type clarificationResponse struct {
	Questions []struct {
		ID       string `json:"id"`
		Question string `json:"question"`
	} `json:"questions"`
}

// answersRequest is the POST .../clarification payload.
type answersRequest struct {
	ID      string            `json:"id"`
	Answers map[string]string `json:"answers"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ResearchServiceConfig configures the HTTP research service. Only BaseURL
// is required.
type ResearchServiceConfig struct {
	BaseURL string        // Backend URL without trailing slash (required)
	Timeout time.Duration // Timeout for non-streaming calls (default: 60s)
}

// =============================================================================
// IMPLEMENTATION
// =============================================================================

// httpResearchService implements ResearchService over the backend's REST+SSE
// surface. Non-streaming calls go through a timeouted client; stream opens
// use a second client bounded only by context.
type httpResearchService struct {
	client       HTTPClient
	streamClient HTTPClient
	baseURL      string
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewResearchService creates a production research service.
func NewResearchService(config ResearchServiceConfig) ResearchService {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &httpResearchService{
		client:       newHTTPClient(timeout),
		streamClient: newStreamHTTPClient(),
		baseURL:      config.BaseURL,
	}
}

// NewResearchServiceWithClient creates a research service with injected HTTP
// clients. Use this constructor for testing with mocks; the same client is
// used for both plain calls and stream opens.
func NewResearchServiceWithClient(client HTTPClient, config ResearchServiceConfig) ResearchService {
	return &httpResearchService{
		client:       client,
		streamClient: client,
		baseURL:      config.BaseURL,
	}
}

// =============================================================================
// SESSION LIFECYCLE METHODS
// =============================================================================

// Start validates the topic and creates a session.
func (s *httpResearchService) Start(ctx context.Context, topic, depth string) (StartResult, error) {
	var result StartResult

	cleanTopic, err := validation.SanitizeTopic(topic)
	if err != nil {
		return result, err
	}
	if depth != "" {
		if err := validation.ValidateDepth(depth); err != nil {
			return result, err
		}
	}

	requestID := uuid.New().String()
	ctx, span := telemetry.StartSpan(ctx, "ResearchService.Start",
		trace.WithAttributes(attribute.String("request_id", requestID)),
	)
	defer span.End()

	slog.Debug("starting research session",
		"request_id", requestID,
		"topic_length", len(cleanTopic),
		"depth", depth,
	)

	reqBody := startRequest{
		ID:        requestID,
		CreatedAt: time.Now().UnixMilli(),
		Topic:     cleanTopic,
		Depth:     depth,
	}
	if err := s.postJSON(ctx, requestID, s.baseURL+"/api/research/start", reqBody, &result); err != nil {
		telemetry.RecordError(span, err)
		return result, err
	}

	if err := validation.ValidateSessionID(result.SessionID); err != nil {
		err = fmt.Errorf("backend returned malformed session id: %w", err)
		telemetry.RecordError(span, err)
		return StartResult{}, err
	}

	slog.Info("research session started",
		"request_id", requestID,
		"session_id", result.SessionID,
		"status", result.Status,
	)
	telemetry.SetSpanOK(span)
	return result, nil
}

// ClarificationQuestions fetches pending questions for the session.
func (s *httpResearchService) ClarificationQuestions(ctx context.Context, sessionID string) ([]ux.ClarificationQuestion, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	var payload clarificationResponse
	if err := s.getJSON(ctx, s.sessionURL(sessionID, "clarification"), &payload); err != nil {
		return nil, err
	}

	questions := make([]ux.ClarificationQuestion, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		questions = append(questions, ux.ClarificationQuestion{
			ID:     q.ID,
			Prompt: q.Question,
		})
	}

	slog.Debug("fetched clarification questions",
		"session_id", sessionID,
		"count", len(questions),
	)
	return questions, nil
}

// SubmitClarificationAnswers posts the answers for the session.
func (s *httpResearchService) SubmitClarificationAnswers(ctx context.Context, sessionID string, answers map[string]string) error {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return err
	}

	requestID := uuid.New().String()
	reqBody := answersRequest{
		ID:      requestID,
		Answers: answers,
	}
	if err := s.postJSON(ctx, requestID, s.sessionURL(sessionID, "clarification"), reqBody, nil); err != nil {
		return err
	}

	slog.Info("clarification answers submitted",
		"request_id", requestID,
		"session_id", sessionID,
		"answer_count", len(answers),
	)
	return nil
}

// StartPlanGeneration kicks off plan generation for the session.
func (s *httpResearchService) StartPlanGeneration(ctx context.Context, sessionID string) error {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return err
	}
	if err := s.getJSON(ctx, s.sessionURL(sessionID, "plan"), nil); err != nil {
		return err
	}
	slog.Debug("plan generation requested", "session_id", sessionID)
	return nil
}

// Status fetches the session's current status.
func (s *httpResearchService) Status(ctx context.Context, sessionID string) (SessionStatus, error) {
	var status SessionStatus
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return status, err
	}
	if err := s.getJSON(ctx, s.sessionURL(sessionID, "status"), &status); err != nil {
		return status, err
	}
	return status, nil
}

// FinalReport fetches the completed report artifact.
func (s *httpResearchService) FinalReport(ctx context.Context, sessionID string) (*research.FinalReport, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	var report research.FinalReport
	if err := s.getJSON(ctx, s.sessionURL(sessionID, "report"), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// =============================================================================
// STREAM METHODS
// =============================================================================

// OpenProgressStream opens the progress SSE stream for the session.
func (s *httpResearchService) OpenProgressStream(ctx context.Context, sessionID string) (io.ReadCloser, error) {
	return s.openStream(ctx, sessionID, s.sessionURL(sessionID, "stream"))
}

// OpenReportStream opens the report-chunk SSE stream for the session.
func (s *httpResearchService) OpenReportStream(ctx context.Context, sessionID string) (io.ReadCloser, error) {
	return s.openStream(ctx, sessionID, s.sessionURL(sessionID, "report/stream"))
}

func (s *httpResearchService) openStream(ctx context.Context, sessionID, streamURL string) (io.ReadCloser, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	resp, err := s.streamClient.GetWithHeaders(ctx, streamURL, map[string]string{
		"Accept": "text/event-stream",
	})
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer func() {
			if err := resp.Body.Close(); err != nil {
				slog.Error("failed to close response body", "error", err)
			}
		}()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("stream rejected (%d): %s", resp.StatusCode, bytes.TrimSpace(bodyBytes))
	}

	slog.Debug("stream opened", "session_id", sessionID, "url", streamURL)
	return resp.Body, nil
}

// Close releases resources. The HTTP clients hold none, but the method is
// part of the contract for future transports.
func (s *httpResearchService) Close() error {
	return nil
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// sessionURL builds a session-scoped backend URL with an escaped id.
func (s *httpResearchService) sessionURL(sessionID, suffix string) string {
	return fmt.Sprintf("%s/api/research/%s/%s", s.baseURL, url.PathEscape(sessionID), suffix)
}

// postJSON marshals body, POSTs it, and decodes the response into out when
// out is non-nil.
func (s *httpResearchService) postJSON(ctx context.Context, requestID, targetURL string, body any, out any) error {
	postBody, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to marshal request",
			"request_id", requestID,
			"url", targetURL,
			"error", err,
		)
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := s.client.Post(ctx, targetURL, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		slog.Error("HTTP request failed",
			"request_id", requestID,
			"url", targetURL,
			"error", err,
		)
		return fmt.Errorf("http post: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	if err := validateResponse(requestID, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// getJSON GETs targetURL and decodes the response into out when out is
// non-nil.
func (s *httpResearchService) getJSON(ctx context.Context, targetURL string, out any) error {
	resp, err := s.client.Get(ctx, targetURL)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	if err := validateResponse("", resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// validateResponse checks for 200 OK and surfaces the error body otherwise.
func validateResponse(requestID string, resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if err != nil {
		slog.Error("backend returned error (failed to read body)",
			"request_id", requestID,
			"status_code", resp.StatusCode,
			"read_error", err,
		)
		return fmt.Errorf("server error (%d): failed to read response body", resp.StatusCode)
	}
	slog.Error("backend returned error",
		"request_id", requestID,
		"status_code", resp.StatusCode,
		"response_body", string(bodyBytes),
	)
	return fmt.Errorf("server error (%d): %s", resp.StatusCode, bytes.TrimSpace(bodyBytes))
}

// =============================================================================
// COMPILE-TIME INTERFACE CHECKS
// =============================================================================

var _ ResearchService = (*httpResearchService)(nil)
