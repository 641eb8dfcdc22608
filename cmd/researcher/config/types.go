// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

// ResearcherConfig is the persisted CLI configuration, stored at
// ~/.researcher/researcher.yaml and created with defaults on first run.
type ResearcherConfig struct {
	// Backend: where the research orchestrator lives
	Backend BackendConfig `yaml:"backend"`

	// Research: default pipeline parameters
	Research ResearchConfig `yaml:"research"`

	// Logging: level and optional file logging
	Logging LoggingConfig `yaml:"logging"`
}

type BackendConfig struct {
	// BaseURL of the research backend, no trailing slash.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// RequestTimeoutSeconds bounds non-streaming HTTP calls. Streams are
	// never subject to this timeout.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" validate:"gte=1,lte=600"`
}

type ResearchConfig struct {
	// Depth is the default research depth: quick, standard, or deep.
	Depth string `yaml:"depth" validate:"oneof=quick standard deep"`
}

type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Dir enables JSON file logging when non-empty. Supports ~ expansion.
	Dir string `yaml:"dir"`
}

func DefaultConfig() ResearcherConfig {
	return ResearcherConfig{
		Backend: BackendConfig{
			BaseURL:               "http://localhost:8000",
			RequestTimeoutSeconds: 60,
		},
		Research: ResearchConfig{
			Depth: "standard",
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
	}
}
