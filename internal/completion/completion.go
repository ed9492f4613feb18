// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion wraps the OpenRouter chat API behind the small
// Completer interface the synthesizer consumes. Failures surface as
// *types.CompletionFailureError so the synthesizer's retry ladder has a
// single error shape to react to.
package completion

import (
	"context"

	"github.com/revrost/go-openrouter"

	"github.com/pdiddy/profile-engine/pkg/types"
)

const defaultModel = "google/gemini-2.5-flash"

// Completer produces one completion for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Client is the production Completer backed by OpenRouter.
type Client struct {
	or  *openrouter.Client
	cfg types.SynthesisConfig
}

// NewClient builds an OpenRouter-backed completer.
func NewClient(cfg types.SynthesisConfig) *Client {
	return &Client{
		or:  openrouter.NewClient(cfg.APIKey),
		cfg: cfg,
	}
}

// Complete sends one chat completion request. An empty choice list is a
// completion failure, not a success with empty text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	model := c.cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	request := openrouter.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []openrouter.ChatCompletionMessage{
			{
				Role:    openrouter.ChatMessageRoleSystem,
				Content: openrouter.Content{Text: systemPrompt},
			},
			{
				Role:    openrouter.ChatMessageRoleUser,
				Content: openrouter.Content{Text: userPrompt},
			},
		},
	}

	response, err := c.or.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", &types.CompletionFailureError{Reason: "completion request failed", Err: err}
	}
	if len(response.Choices) == 0 {
		return "", &types.CompletionFailureError{Reason: "no completion choices returned"}
	}
	return response.Choices[0].Message.Content.Text, nil
}
