// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package research

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	ssePrefix = "data:"

	// maxLineSize bounds a single SSE data line. Report chunks are small;
	// inline final reports on the progress stream can be large.
	maxLineSize = 4 * 1024 * 1024
)

// StreamOpener opens the raw SSE body for a session. Implementations issue
// the HTTP request and hand back the response body.
type StreamOpener func(ctx context.Context, sessionID string) (io.ReadCloser, error)

// subscription pumps data payloads from one SSE stream into a handler on its
// own goroutine until the stream ends or the subscription is canceled.
type subscription struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// startSubscription opens the stream and begins pumping. Each SSE data
// payload is passed to handler; onEnd fires exactly once with nil on a clean
// end-of-stream or with the transport error. Neither fires after cancel.
func startSubscription(
	ctx context.Context,
	name string,
	sessionID string,
	open StreamOpener,
	handler func(payload string),
	onEnd func(err error),
) *subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &subscription{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.pump(ctx, sessionID, open, handler, onEnd)
	return s
}

// pump is the subscription goroutine body.
func (s *subscription) pump(
	ctx context.Context,
	sessionID string,
	open StreamOpener,
	handler func(string),
	onEnd func(error),
) {
	defer close(s.done)

	body, err := open(ctx, sessionID)
	if err != nil {
		if ctx.Err() == nil {
			onEnd(fmt.Errorf("open %s stream: %w", s.name, err))
		}
		return
	}
	defer body.Close()

	// Close the body on cancel so a blocked Scan returns.
	go func() {
		<-ctx.Done()
		body.Close()
	}()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		payload := line
		if strings.HasPrefix(line, ssePrefix) {
			payload = strings.TrimSpace(strings.TrimPrefix(line, ssePrefix))
		}
		if payload == "" {
			continue
		}
		handler(payload)
	}

	if ctx.Err() != nil {
		return
	}
	if err := scanner.Err(); err != nil {
		onEnd(fmt.Errorf("%s stream: %w", s.name, err))
		return
	}
	onEnd(nil)
}

// close cancels the subscription. It does not wait for the pump goroutine,
// so it is safe to call from inside the subscription's own handler.
func (s *subscription) close() {
	s.cancel()
}
