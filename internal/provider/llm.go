package provider

import (
	"context"
	"io"
)

// LanguageModel is synchronous and streaming text generation.
type LanguageModel interface {
	Adapter

	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)

	// GenerateStream starts a streaming generation. The caller pulls chunks
	// with Recv until io.EOF and must Close the stream when done.
	GenerateStream(ctx context.Context, req GenerateRequest) (TextStream, error)
}

type GenerateRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateResult struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`

	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

// TextStream is a pull-based sequence of generated text chunks.
type TextStream interface {
	// Recv returns the next chunk, or io.EOF when the stream is exhausted.
	Recv() (string, error)
	io.Closer
}
