//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package llm defines the language model capability agents run on.
package llm

import "context"

// Request is a single generation request.
type Request struct {
	// Model overrides the provider's default model when non-empty.
	Model string
	// System is the optional system prompt.
	System string
	// Prompt is the user prompt.
	Prompt string
	// Temperature applies when > 0.
	Temperature float64
	// MaxTokens caps the completion length when > 0.
	MaxTokens int
}

// Response is the provider's completion.
type Response struct {
	Text  string
	Model string
}

// Model generates text completions.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Static is a deterministic offline model used when no provider is
// configured and in tests.
type Static struct {
	// Reply is returned verbatim; when empty a canned summary of the
	// prompt is produced.
	Reply string
}

var _ Model = (*Static)(nil)

// Generate returns the configured static reply.
func (s *Static) Generate(ctx context.Context, req Request) (*Response, error) {
	text := s.Reply
	if text == "" {
		text = "processed: " + req.Prompt
	}
	return &Response{Text: text, Model: "static"}, nil
}
