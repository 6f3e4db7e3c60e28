// Package openai adapts the OpenAI-compatible REST surface to the
// language-model, text-to-speech and speech-to-text capabilities. Any
// vendor exposing the same wire protocol works through this adapter with a
// different base URL.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voicedash/internal/provider"
)

const Vendor = "openai"

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	defaultModel    = "gpt-4o-mini"
	defaultTTSModel = "tts-1"
	defaultSTTModel = "whisper-1"
)

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

type Config struct {
	APIKey  string
	BaseURL string
	// Model overrides the chat default.
	Model      string
	HTTPClient *http.Client
}

// Adapter implements provider.LanguageModel, provider.TextToSpeech and
// provider.SpeechToText.
type Adapter struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func New(cfg Config) *Adapter {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	hc := cfg.HTTPClient
	if hc == nil {
		// Streaming generations can stay open well past a normal request.
		hc = &http.Client{Timeout: 120 * time.Second}
	}
	return &Adapter{apiKey: cfg.APIKey, baseURL: base, model: model, http: hc}
}

func (a *Adapter) ID() string { return Vendor }

func (a *Adapter) Capabilities() []provider.Capability {
	return []provider.Capability{
		provider.CapabilityLanguageModel,
		provider.CapabilityTextToSpeech,
		provider.CapabilitySpeechToText,
	}
}

func (a *Adapter) Supports(c provider.Capability) bool {
	return provider.Supports(a.Capabilities(), c)
}

func (a *Adapter) WithCredential(apiKey, baseURL string) provider.Adapter {
	cfg := Config{APIKey: apiKey, BaseURL: a.baseURL, Model: a.model, HTTPClient: a.http}
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	return New(cfg)
}

func (a *Adapter) request(ctx context.Context, op, path string, body any) (*http.Request, error) {
	if strings.TrimSpace(a.apiKey) == "" {
		return nil, provider.NewError(provider.KindNotConfigured, Vendor, op, fmt.Errorf("missing api key"))
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, provider.NewError(provider.KindPermanent, Vendor, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, provider.NewError(provider.KindPermanent, Vendor, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (a *Adapter) send(op string, req *http.Request) (*http.Response, error) {
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, provider.NewError(provider.KindTransient, Vendor, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, provider.NewError(provider.KindFromStatus(resp.StatusCode), Vendor, op, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        req.URL.String(),
			Body:       strings.TrimSpace(string(snippet)),
		})
	}
	return resp, nil
}
