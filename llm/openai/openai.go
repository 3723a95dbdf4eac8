//
// Copyright (C) 2025 AIFlowForge.  All rights reserved.
//
// AIFlowForge is licensed under the Apache License Version 2.0.
//
//

// Package openai provides an OpenAI-compatible llm.Model implementation.
package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"

	"github.com/chavannishanthrao/AIFlowForge/llm"
)

// defaultModel is used when a request does not name a model.
const defaultModel = "gpt-4o-mini"

// Option configures the Model.
type Option func(*options)

type options struct {
	apiKey    string
	baseURL   string
	model     string
	extraOpts []openaiopt.RequestOption
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithModel sets the default model name.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithRequestOptions appends raw client request options.
func WithRequestOptions(opts ...openaiopt.RequestOption) Option {
	return func(o *options) { o.extraOpts = append(o.extraOpts, opts...) }
}

var _ llm.Model = (*Model)(nil)

// Model is an llm.Model backed by the OpenAI chat completions API.
type Model struct {
	client openai.Client
	model  string
}

// New creates an OpenAI-backed model.
func New(opts ...Option) *Model {
	o := options{model: defaultModel}
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := make([]openaiopt.RequestOption, 0, len(o.extraOpts)+2)
	if o.apiKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.baseURL))
	}
	clientOpts = append(clientOpts, o.extraOpts...)
	return &Model{
		client: openai.NewClient(clientOpts...),
		model:  o.model,
	}
}

// Generate performs a chat completion.
func (m *Model) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = m.model
	}
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}
	return &llm.Response{
		Text:  completion.Choices[0].Message.Content,
		Model: model,
	}, nil
}
