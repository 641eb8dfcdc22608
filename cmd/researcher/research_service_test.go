// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MOCK HTTP CLIENT
// =============================================================================

// mockHTTPClient returns canned responses keyed by URL suffix, recording
// every request for assertion.
type mockHTTPClient struct {
	mu        sync.Mutex
	responses map[string]mockResponse // keyed by URL suffix
	requests  []recordedRequest
}

type mockResponse struct {
	status int
	body   string
}

type recordedRequest struct {
	method string
	url    string
	body   string
}

func newMockHTTPClient() *mockHTTPClient {
	return &mockHTTPClient{responses: make(map[string]mockResponse)}
}

func (m *mockHTTPClient) respond(suffix string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[suffix] = mockResponse{status: status, body: body}
}

func (m *mockHTTPClient) lookup(method, url, body string) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{method: method, url: url, body: body})
	for suffix, resp := range m.responses {
		if strings.HasSuffix(url, suffix) {
			return &http.Response{
				StatusCode: resp.status,
				Body:       io.NopCloser(strings.NewReader(resp.body)),
			}, nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader(`{"detail":"not found"}`)),
	}, nil
}

func (m *mockHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	return m.lookup(http.MethodGet, url, "")
}

func (m *mockHTTPClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	data, _ := io.ReadAll(body)
	return m.lookup(http.MethodPost, url, string(data))
}

func (m *mockHTTPClient) GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	return m.lookup(http.MethodGet, url, "")
}

func (m *mockHTTPClient) recorded() []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

const testSessionID = "3f1d8a2e-9b4c-4e6f-8a1d-2c3b4e5f6a7b"

func newTestService(client *mockHTTPClient) ResearchService {
	return NewResearchServiceWithClient(client, ResearchServiceConfig{
		BaseURL: "http://backend.test",
	})
}

// =============================================================================
// SESSION LIFECYCLE TESTS
// =============================================================================

func TestResearchService_Start(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/api/research/start", http.StatusOK,
		`{"session_id":"`+testSessionID+`","status":"initiating"}`)
	service := newTestService(client)

	result, err := service.Start(context.Background(), "deep sea mining impacts", "standard")
	require.NoError(t, err)
	assert.Equal(t, testSessionID, result.SessionID)
	assert.Equal(t, "initiating", result.Status)

	reqs := client.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].method)

	var sent startRequest
	require.NoError(t, json.Unmarshal([]byte(reqs[0].body), &sent))
	assert.Equal(t, "deep sea mining impacts", sent.Topic)
	assert.Equal(t, "standard", sent.Depth)
	assert.NotEmpty(t, sent.ID)
}

func TestResearchService_Start_RejectsBadInput(t *testing.T) {
	service := newTestService(newMockHTTPClient())

	_, err := service.Start(context.Background(), "", "standard")
	assert.Error(t, err, "empty topic must fail before any HTTP call")

	_, err = service.Start(context.Background(), "valid topic here", "bottomless")
	assert.Error(t, err, "unknown depth must fail")
}

func TestResearchService_Start_RejectsMalformedSessionID(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/api/research/start", http.StatusOK,
		`{"session_id":"../../evil","status":"initiating"}`)
	service := newTestService(client)

	_, err := service.Start(context.Background(), "valid topic here", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session id")
}

func TestResearchService_Start_ServerError(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/api/research/start", http.StatusInternalServerError,
		`{"detail":"pipeline unavailable"}`)
	service := newTestService(client)

	_, err := service.Start(context.Background(), "valid topic here", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "pipeline unavailable")
}

func TestResearchService_ClarificationQuestions(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/clarification", http.StatusOK,
		`{"questions":[{"id":"q1","question":"Which region?"},{"id":"q2","question":"Time frame?"}]}`)
	service := newTestService(client)

	questions, err := service.ClarificationQuestions(context.Background(), testSessionID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "q1", questions[0].ID)
	assert.Equal(t, "Which region?", questions[0].Prompt)
}

func TestResearchService_ClarificationQuestions_Empty(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/clarification", http.StatusOK, `{"questions":[]}`)
	service := newTestService(client)

	questions, err := service.ClarificationQuestions(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestResearchService_SubmitClarificationAnswers(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/clarification", http.StatusOK, `{"status":"ok"}`)
	service := newTestService(client)

	err := service.SubmitClarificationAnswers(context.Background(), testSessionID,
		map[string]string{"q1": "Europe", "q2": ""})
	require.NoError(t, err)

	reqs := client.recorded()
	require.Len(t, reqs, 1)
	var sent answersRequest
	require.NoError(t, json.Unmarshal([]byte(reqs[0].body), &sent))
	assert.Equal(t, "Europe", sent.Answers["q1"])
}

func TestResearchService_Status(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/status", http.StatusOK,
		`{"session_id":"`+testSessionID+`","status":"searching_web","detail":"Searching: kelp"}`)
	service := newTestService(client)

	status, err := service.Status(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Equal(t, "searching_web", status.Status)
	assert.Equal(t, "Searching: kelp", status.Detail)
}

func TestResearchService_FinalReport(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/report", http.StatusOK,
		`{"title":"Kelp Forests","markdown_content":"# Kelp Forests\n\nbody\n"}`)
	service := newTestService(client)

	report, err := service.FinalReport(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Equal(t, "# Kelp Forests\n\nbody\n", report.Text())
}

func TestResearchService_RejectsInvalidSessionID(t *testing.T) {
	service := newTestService(newMockHTTPClient())
	ctx := context.Background()

	_, err := service.Status(ctx, "not-a-uuid")
	assert.Error(t, err)
	_, err = service.FinalReport(ctx, "not-a-uuid")
	assert.Error(t, err)
	_, err = service.OpenProgressStream(ctx, "not-a-uuid")
	assert.Error(t, err)
	err = service.SubmitClarificationAnswers(ctx, "not-a-uuid", nil)
	assert.Error(t, err)
}

// =============================================================================
// STREAM TESTS
// =============================================================================

func TestResearchService_OpenProgressStream(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/stream", http.StatusOK,
		"data: {\"status\":\"searching_web\"}\n\n")
	service := newTestService(client)

	body, err := service.OpenProgressStream(context.Background(), testSessionID)
	require.NoError(t, err)
	defer body.Close()

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(content), "searching_web")
}

func TestResearchService_OpenStream_Rejected(t *testing.T) {
	client := newMockHTTPClient()
	client.respond("/stream", http.StatusConflict, `{"detail":"session not started"}`)
	service := newTestService(client)

	_, err := service.OpenProgressStream(context.Background(), testSessionID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}
