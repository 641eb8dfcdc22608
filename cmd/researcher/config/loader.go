// Copyright (C) 2025 DeepCurrent AI (jmercer@deepcurrent.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the researcher CLI configuration.
//
// The config lives at ~/.researcher/researcher.yaml and is created with
// defaults on first run. Environment variables override file values:
//
//	RESEARCHER_BASE_URL   backend base URL
//	RESEARCHER_DEPTH      default research depth
//	RESEARCHER_LOG_LEVEL  minimum log level
//	RESEARCHER_LOG_DIR    log file directory
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	// Global is the singleton config instance, populated by Load.
	Global ResearcherConfig
	once   sync.Once
)

// Load reads the config into Global exactly once. Later calls return the
// first call's error.
func Load() error {
	var err error
	once.Do(func() {
		err = loadInternal()
	})
	return err
}

func loadInternal() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not find the user's home directory: %w", err)
	}
	configPath := filepath.Join(home, ".researcher", "researcher.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "First run detected, creating the config at %s\n", configPath)
		if err := createDefault(configPath); err != nil {
			return err
		}
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read the config file: %w", err)
	}
	if err = yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("failed to parse the config file: %w", err)
	}
	applyEnvOverrides(&Global)
	if err := Validate(&Global); err != nil {
		return err
	}
	return nil
}

// Validate checks a config against the struct validation tags.
func Validate(cfg *ResearcherConfig) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *ResearcherConfig) {
	if v := os.Getenv("RESEARCHER_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("RESEARCHER_DEPTH"); v != "" {
		cfg.Research.Depth = v
	}
	if v := os.Getenv("RESEARCHER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RESEARCHER_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	defaultCfg := DefaultConfig()
	data, err := yaml.Marshal(defaultCfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
