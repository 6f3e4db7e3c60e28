// Package vapi is the reference provider adapter. It implements the
// conversational-AI and telephony capabilities against the Vapi REST API.
//
// Rules:
// - All vendor wire types stay in this package; callers only see the
//   provider-agnostic types from internal/provider.
// - Every failure is normalized onto the provider error taxonomy before it
//   leaves this package.
package vapi

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

const Vendor = "vapi"

const defaultBaseURL = "https://api.vapi.ai"

// HTTPStatusError captures non-2xx upstream responses with status-aware
// context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("vapi: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

type Config struct {
	APIKey  string
	BaseURL string

	// HTTPClient is optional; a client with a conservative timeout is used
	// when nil.
	HTTPClient *http.Client
}

// Adapter implements provider.ConversationalAI and provider.Telephony.
type Adapter struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func New(cfg Config) *Adapter {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Adapter{apiKey: cfg.APIKey, baseURL: base, http: hc}
}

func (a *Adapter) ID() string { return Vendor }

func (a *Adapter) Capabilities() []provider.Capability {
	return []provider.Capability{provider.CapabilityConversationalAI, provider.CapabilityTelephony}
}

func (a *Adapter) Supports(c provider.Capability) bool {
	return provider.Supports(a.Capabilities(), c)
}

// WithCredential returns a copy bound to a tenant integration's credential.
func (a *Adapter) WithCredential(apiKey, baseURL string) provider.Adapter {
	cfg := Config{APIKey: apiKey, BaseURL: a.baseURL, HTTPClient: a.http}
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	return New(cfg)
}

// do issues a JSON request and decodes the response into out (when out is
// non-nil). All errors come back normalized.
func (a *Adapter) do(ctx context.Context, op, method, path string, body, out any) error {
	if strings.TrimSpace(a.apiKey) == "" {
		return provider.NewError(provider.KindNotConfigured, Vendor, op, fmt.Errorf("missing api key"))
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return provider.NewError(provider.KindPermanent, Vendor, op, err)
		}
		reqBody = bytes.NewReader(raw)
	}

	url := a.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return provider.NewError(provider.KindPermanent, Vendor, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return provider.NewError(provider.KindTransient, Vendor, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return provider.NewError(provider.KindFromStatus(resp.StatusCode), Vendor, op, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
			Body:       strings.TrimSpace(string(snippet)),
		})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return provider.NewError(provider.KindTransient, Vendor, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// fetchRaw downloads bytes from an absolute URL (recording downloads). The
// credential is not attached: recording URLs are pre-signed by the vendor.
func (a *Adapter) fetchRaw(ctx context.Context, op, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", provider.NewError(provider.KindPermanent, Vendor, op, err)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, "", provider.NewError(provider.KindTransient, Vendor, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", provider.NewError(provider.KindFromStatus(resp.StatusCode), Vendor, op, &HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        url,
		})
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", provider.NewError(provider.KindTransient, Vendor, op, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
