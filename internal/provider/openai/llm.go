package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"voicedash/internal/provider"
)

// chatRequest is the minimal request shape for the Chat Completions
// endpoint.
type chatRequest struct {
	Model       string                 `json:"model"`
	Messages    []provider.ChatMessage `json:"messages"`
	Temperature *float64               `json:"temperature,omitempty"`
	MaxTokens   int                    `json:"max_tokens,omitempty"`
	Stream      bool                   `json:"stream,omitempty"`
}

// chatResponse is the minimal response shape for a non-streaming
// completion.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message provider.ChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// chatChunk is one SSE event of a streaming completion.
type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (a *Adapter) Generate(ctx context.Context, req provider.GenerateRequest) (provider.GenerateResult, error) {
	const op = "Generate"
	model := req.Model
	if model == "" {
		model = a.model
	}
	httpReq, err := a.request(ctx, op, "/chat/completions", chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return provider.GenerateResult{}, err
	}
	resp, err := a.send(op, httpReq)
	if err != nil {
		return provider.GenerateResult{}, err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return provider.GenerateResult{}, provider.NewError(provider.KindTransient, Vendor, op, err)
	}
	if len(out.Choices) == 0 {
		return provider.GenerateResult{}, provider.NewError(provider.KindTransient, Vendor, op, fmt.Errorf("empty choices"))
	}
	return provider.GenerateResult{
		Text:             out.Choices[0].Message.Content,
		Model:            out.Model,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
	}, nil
}

// GenerateStream starts a streaming completion over SSE. The returned
// stream owns the response body; Close releases the connection.
func (a *Adapter) GenerateStream(ctx context.Context, req provider.GenerateRequest) (provider.TextStream, error) {
	const op = "GenerateStream"
	model := req.Model
	if model == "" {
		model = a.model
	}
	httpReq, err := a.request(ctx, op, "/chat/completions", chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := a.send(op, httpReq)
	if err != nil {
		return nil, err
	}
	return &sseStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

// sseStream parses "data: ..." SSE lines into text chunks.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *sseStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == "[DONE]" {
			s.done = true
			return "", io.EOF
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", provider.NewError(provider.KindTransient, Vendor, "GenerateStream", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", provider.NewError(provider.KindTransient, Vendor, "GenerateStream", err)
	}
	s.done = true
	return "", io.EOF
}

func (s *sseStream) Close() error { return s.body.Close() }
