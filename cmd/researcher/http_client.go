// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// HTTP CLIENT INTERFACE
// =============================================================================

// HTTPClient abstracts HTTP transport so services can be tested with mock
// clients. The default implementation wraps http.Client; all methods build
// requests with the supplied context.
type HTTPClient interface {
	// Get sends a GET request. Caller closes the response body.
	Get(ctx context.Context, url string) (*http.Response, error)

	// Post sends a POST request with the given content type. Caller closes
	// the response body.
	Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error)

	// GetWithHeaders sends a GET request with additional headers. Used for
	// SSE stream opens (Accept: text/event-stream).
	GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*http.Response, error)
}

// =============================================================================
// DEFAULT IMPLEMENTATION
// =============================================================================

// defaultHTTPClient is the production HTTPClient backed by http.Client.
type defaultHTTPClient struct {
	client *http.Client
}

// newHTTPClient returns a client with an overall request timeout, for
// request/response calls.
func newHTTPClient(timeout time.Duration) HTTPClient {
	return &defaultHTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// newStreamHTTPClient returns a client without an overall timeout. SSE
// streams stay open for the lifetime of a research session, so only the
// request context bounds them.
func newStreamHTTPClient() HTTPClient {
	return &defaultHTTPClient{
		client: &http.Client{},
	}
}

func (c *defaultHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

func (c *defaultHTTPClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.client.Do(req)
}

func (c *defaultHTTPClient) GetWithHeaders(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.client.Do(req)
}

var _ HTTPClient = (*defaultHTTPClient)(nil)
