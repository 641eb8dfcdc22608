// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation for user-supplied values that
// travel into backend URLs and request bodies.
//
// Session ids become URL path segments and topics become request payloads;
// validating them here keeps malformed input from ever reaching the wire.
package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Research topic bounds. The backend rejects topics outside this range, but
// failing locally gives a faster and clearer error.
const (
	MinTopicLength = 3
	MaxTopicLength = 2000
)

// Depth names accepted by the research pipeline.
var validDepths = map[string]struct{}{
	"quick":    {},
	"standard": {},
	"deep":     {},
}

// ValidateTopic checks a research topic for length bounds and control
// characters. The topic is sent verbatim to the backend, so content is
// otherwise unrestricted.
func ValidateTopic(topic string) error {
	trimmed := strings.TrimSpace(topic)
	if trimmed == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if len(trimmed) < MinTopicLength {
		return fmt.Errorf("topic too short: need at least %d characters", MinTopicLength)
	}
	if len(trimmed) > MaxTopicLength {
		return fmt.Errorf("topic too long: %d characters exceeds limit of %d", len(trimmed), MaxTopicLength)
	}
	for _, r := range trimmed {
		if r < 0x20 && r != '\n' && r != '\t' {
			return fmt.Errorf("topic contains control characters")
		}
	}
	return nil
}

// SanitizeTopic trims and validates a topic, returning the cleaned form.
//
//	topic, err := validation.SanitizeTopic(userInput)
//	if err != nil {
//	    return err
//	}
func SanitizeTopic(topic string) (string, error) {
	trimmed := strings.TrimSpace(topic)
	if err := ValidateTopic(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}

// ValidateSessionID checks that a session id is a well-formed UUID. Session
// ids are interpolated into URL paths, so anything else is rejected.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid session id %q: must be a UUID", id)
	}
	return nil
}

// ValidateDepth checks a research depth name against the known set.
func ValidateDepth(depth string) error {
	if _, ok := validDepths[depth]; !ok {
		return fmt.Errorf("invalid depth %q (valid: quick, standard, deep)", depth)
	}
	return nil
}
