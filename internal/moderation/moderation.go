// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package moderation screens visitor comments before they go live.
// A clean comment is published immediately; a flagged one (or any
// comment submitted while no moderation backend is reachable) is held
// for manual review instead. OpenAI's free moderation endpoint is
// preferred, with Mistral's classification endpoint as fallback.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Result contains the outcome of a comment safety check.
type Result struct {
	Safe       bool     // true if the comment passes moderation
	Categories []string // list of flagged category names (empty when safe)
}

// Checker evaluates comment text for policy violations. Implementations
// must be safe for concurrent use.
type Checker interface {
	// CheckSafety evaluates a comment and returns whether it can be
	// published without review. If not safe, Categories lists the reasons.
	CheckSafety(ctx context.Context, text string) (*Result, error)
}

// Config holds the credentials for the available moderation backends.
// Empty keys disable the corresponding backend.
type Config struct {
	OpenAIKey      string
	OpenAIBaseURL  string
	MistralKey     string
	MistralBaseURL string
}

// New builds a Checker from the configured backends: OpenAI (free)
// preferred, Mistral as fallback, both combined when both keys exist.
// Returns nil when no backend is configured; callers treat a nil
// Checker as "hold everything for review".
func New(cfg Config) Checker {
	hasOpenAI := cfg.OpenAIKey != ""
	hasMistral := cfg.MistralKey != ""

	switch {
	case hasOpenAI && hasMistral:
		return newFallbackChecker(
			newOpenAIChecker(cfg.OpenAIKey, cfg.OpenAIBaseURL),
			newMistralChecker(cfg.MistralKey, cfg.MistralBaseURL),
		)
	case hasOpenAI:
		return newOpenAIChecker(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	case hasMistral:
		return newMistralChecker(cfg.MistralKey, cfg.MistralBaseURL)
	default:
		return nil
	}
}

// --- OpenAI Moderation (free endpoint) ---

// openAIChecker uses the OpenAI Moderation API (POST /v1/moderations)
// which is free for all OpenAI API key holders.
type openAIChecker struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// newOpenAIChecker creates a checker that uses OpenAI's free moderation API.
func newOpenAIChecker(apiKey, baseURL string) *openAIChecker {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &openAIChecker{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *openAIChecker) CheckSafety(ctx context.Context, text string) (*Result, error) {
	body := openAIModRequest{
		Model: "omni-moderation-latest",
		Input: text,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("moderation marshal: %w", err)
	}

	url := m.baseURL + "/moderations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("moderation request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("moderation read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moderation API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result openAIModResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("moderation unmarshal: %w", err)
	}

	if len(result.Results) == 0 {
		return &Result{Safe: true}, nil
	}

	r := result.Results[0]
	if !r.Flagged {
		return &Result{Safe: true}, nil
	}

	// Collect flagged category names in human-readable form.
	var flagged []string
	for cat, isFlagged := range r.Categories {
		if isFlagged {
			// Convert "hate/threatening" → "hate (threatening)" for readability.
			display := strings.ReplaceAll(cat, "/", " (")
			if strings.Contains(cat, "/") {
				display += ")"
			}
			display = strings.ReplaceAll(display, "_", " ")
			flagged = append(flagged, display)
		}
	}

	return &Result{
		Safe:       false,
		Categories: flagged,
	}, nil
}

// --- Mistral Moderation (paid, fallback) ---

// mistralChecker uses the Mistral Moderation API (POST /v1/moderations).
type mistralChecker struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// newMistralChecker creates a checker using Mistral's classification endpoint.
func newMistralChecker(apiKey, baseURL string) *mistralChecker {
	if baseURL == "" {
		baseURL = "https://api.mistral.ai"
	}
	return &mistralChecker{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *mistralChecker) CheckSafety(ctx context.Context, text string) (*Result, error) {
	body := mistralModRequest{
		Model: "mistral-moderation-latest",
		Input: text,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("mistral moderation marshal: %w", err)
	}

	url := m.baseURL + "/v1/moderations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("mistral moderation request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mistral moderation http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mistral moderation read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mistral moderation API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result mistralModResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("mistral moderation unmarshal: %w", err)
	}

	if len(result.Results) == 0 {
		return &Result{Safe: true}, nil
	}

	// Mistral doesn't have a top-level "flagged" — check each category.
	var flagged []string
	for cat, isFlagged := range result.Results[0].Categories {
		if isFlagged {
			display := strings.ReplaceAll(cat, "_", " ")
			flagged = append(flagged, display)
		}
	}

	return &Result{
		Safe:       len(flagged) == 0,
		Categories: flagged,
	}, nil
}

// --- Fallback checker ---

// fallbackChecker tries the primary backend first and switches to the
// secondary when the primary fails (network errors, project-scoped keys
// that lack moderation access, quota exhaustion).
type fallbackChecker struct {
	primary   Checker
	secondary Checker
}

func newFallbackChecker(primary, secondary Checker) *fallbackChecker {
	return &fallbackChecker{primary: primary, secondary: secondary}
}

func (f *fallbackChecker) CheckSafety(ctx context.Context, text string) (*Result, error) {
	result, err := f.primary.CheckSafety(ctx, text)
	if err == nil {
		return result, nil
	}
	slog.Warn("primary moderation backend failed, trying fallback", "error", err)
	return f.secondary.CheckSafety(ctx, text)
}

// --- Request/Response types ---

type openAIModRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIModResponse struct {
	Results []openAIModResult `json:"results"`
}

type openAIModResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories"`
}

type mistralModRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type mistralModResponse struct {
	Results []mistralModResult `json:"results"`
}

type mistralModResult struct {
	Categories map[string]bool `json:"categories"`
}
