// Package gateway is a generic passthrough adapter for vendors reached
// through a meta-gateway that fronts several voice platforms behind one
// loosely-typed JSON API. Responses are decoded into maps and mapped onto
// the provider types field-by-field; there is no compile-time schema, so a
// gateway contract change shows up as zero values, not type errors.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voicedash/internal/provider"
)

type Config struct {
	// ID registers the passthrough under a specific vendor id, so a tenant
	// gateway integration can supersede a direct adapter.
	ID      string
	APIKey  string
	BaseURL string
	// Upstream names the vendor behind the gateway; it is sent as a path
	// segment, e.g. /v1/{upstream}/agents.
	Upstream   string
	HTTPClient *http.Client
}

type Adapter struct {
	id       string
	apiKey   string
	baseURL  string
	upstream string
	http     *http.Client
}

func New(cfg Config) *Adapter {
	id := strings.TrimSpace(cfg.ID)
	if id == "" {
		id = "gateway"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Adapter{
		id:       id,
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		upstream: strings.TrimSpace(cfg.Upstream),
		http:     hc,
	}
}

func (a *Adapter) ID() string { return a.id }

func (a *Adapter) Capabilities() []provider.Capability {
	return []provider.Capability{provider.CapabilityConversationalAI}
}

func (a *Adapter) Supports(c provider.Capability) bool {
	return provider.Supports(a.Capabilities(), c)
}

func (a *Adapter) WithCredential(apiKey, baseURL string) provider.Adapter {
	cfg := Config{ID: a.id, APIKey: apiKey, BaseURL: a.baseURL, Upstream: a.upstream, HTTPClient: a.http}
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = baseURL
	}
	return New(cfg)
}

func (a *Adapter) do(ctx context.Context, op, method, path string, body any) (map[string]any, error) {
	raw, err := a.doRaw(ctx, op, method, path, body)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, provider.NewError(provider.KindTransient, a.id, op, err)
		}
	}
	return out, nil
}

func (a *Adapter) doList(ctx context.Context, op, method, path string, body any) ([]map[string]any, error) {
	raw, err := a.doRaw(ctx, op, method, path, body)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, provider.NewError(provider.KindTransient, a.id, op, err)
	}
	return out, nil
}

func (a *Adapter) doRaw(ctx context.Context, op, method, path string, body any) ([]byte, error) {
	if strings.TrimSpace(a.apiKey) == "" || a.baseURL == "" || a.upstream == "" {
		return nil, provider.NewError(provider.KindNotConfigured, a.id, op, fmt.Errorf("gateway credential or upstream missing"))
	}
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, provider.NewError(provider.KindPermanent, a.id, op, err)
		}
		reqBody = bytes.NewReader(raw)
	}
	fullURL := a.baseURL + "/v1/" + url.PathEscape(a.upstream) + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, provider.NewError(provider.KindPermanent, a.id, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, provider.NewError(provider.KindTransient, a.id, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(provider.KindTransient, a.id, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, provider.NewError(provider.KindFromStatus(resp.StatusCode), a.id, op,
			fmt.Errorf("gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}
	return data, nil
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func num(m map[string]any, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func ts(m map[string]any, key string) time.Time {
	if v, ok := m[key].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func mapAgent(m map[string]any) provider.RemoteAgent {
	return provider.RemoteAgent{
		ExternalID:   str(m, "id"),
		Name:         str(m, "name"),
		VoiceID:      str(m, "voice_id"),
		SystemPrompt: str(m, "prompt"),
		FirstMessage: str(m, "first_message"),
		Language:     str(m, "language"),
		CreatedAt:    ts(m, "created_at"),
	}
}

func mapConversation(m map[string]any) provider.Conversation {
	return provider.Conversation{
		ExternalID:      str(m, "id"),
		AgentExternalID: str(m, "agent_id"),
		PhoneNumber:     str(m, "phone_number"),
		Status:          str(m, "status"),
		DurationSeconds: int(num(m, "duration_seconds")),
		CostMinor:       int64(num(m, "cost_minor")),
		RecordingURL:    str(m, "recording_url"),
		HasRecording:    str(m, "recording_url") != "",
		StartedAt:       ts(m, "started_at"),
		EndedAt:         ts(m, "ended_at"),
	}
}

func specBody(spec provider.AgentSpec) map[string]any {
	return map[string]any{
		"name":          spec.Name,
		"voice_id":      spec.VoiceID,
		"prompt":        spec.SystemPrompt,
		"first_message": spec.FirstMessage,
		"language":      spec.Language,
	}
}

func (a *Adapter) CreateAgent(ctx context.Context, spec provider.AgentSpec) (provider.RemoteAgent, error) {
	m, err := a.do(ctx, "CreateAgent", http.MethodPost, "/agents", specBody(spec))
	if err != nil {
		return provider.RemoteAgent{}, err
	}
	return mapAgent(m), nil
}

func (a *Adapter) UpdateAgent(ctx context.Context, externalID string, spec provider.AgentSpec) (provider.RemoteAgent, error) {
	m, err := a.do(ctx, "UpdateAgent", http.MethodPatch, "/agents/"+url.PathEscape(externalID), specBody(spec))
	if err != nil {
		return provider.RemoteAgent{}, err
	}
	return mapAgent(m), nil
}

func (a *Adapter) DeleteAgent(ctx context.Context, externalID string) error {
	_, err := a.do(ctx, "DeleteAgent", http.MethodDelete, "/agents/"+url.PathEscape(externalID), nil)
	return err
}

func (a *Adapter) GetAgent(ctx context.Context, externalID string) (provider.RemoteAgent, error) {
	m, err := a.do(ctx, "GetAgent", http.MethodGet, "/agents/"+url.PathEscape(externalID), nil)
	if err != nil {
		return provider.RemoteAgent{}, err
	}
	return mapAgent(m), nil
}

func (a *Adapter) ListAgents(ctx context.Context) ([]provider.RemoteAgent, error) {
	ms, err := a.doList(ctx, "ListAgents", http.MethodGet, "/agents", nil)
	if err != nil {
		return nil, err
	}
	out := make([]provider.RemoteAgent, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapAgent(m))
	}
	return out, nil
}

func (a *Adapter) ListConversations(ctx context.Context, req provider.ListConversationsRequest) ([]provider.Conversation, error) {
	path := "/conversations"
	q := url.Values{}
	if req.AgentExternalID != "" {
		q.Set("agent_id", req.AgentExternalID)
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprint(req.Limit))
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	ms, err := a.doList(ctx, "ListConversations", http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	out := make([]provider.Conversation, 0, len(ms))
	for _, m := range ms {
		out = append(out, mapConversation(m))
	}
	return out, nil
}

func (a *Adapter) GetConversation(ctx context.Context, conversationID string) (provider.Conversation, error) {
	m, err := a.do(ctx, "GetConversation", http.MethodGet, "/conversations/"+url.PathEscape(conversationID), nil)
	if err != nil {
		return provider.Conversation{}, err
	}
	return mapConversation(m), nil
}

func (a *Adapter) GetTranscript(ctx context.Context, conversationID string) (provider.Transcript, error) {
	m, err := a.do(ctx, "GetTranscript", http.MethodGet, "/conversations/"+url.PathEscape(conversationID)+"/transcript", nil)
	if err != nil {
		return provider.Transcript{}, err
	}
	out := provider.Transcript{ConversationID: conversationID}
	if turns, ok := m["turns"].([]any); ok {
		for _, raw := range turns {
			tm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			out.Turns = append(out.Turns, provider.TranscriptTurn{
				Role:    str(tm, "role"),
				Text:    str(tm, "text"),
				Seconds: num(tm, "seconds"),
			})
		}
	}
	return out, nil
}

func (a *Adapter) GetRecording(ctx context.Context, conversationID string) (provider.Recording, error) {
	raw, err := a.doRaw(ctx, "GetRecording", http.MethodGet, "/conversations/"+url.PathEscape(conversationID)+"/recording", nil)
	if err != nil {
		return provider.Recording{}, err
	}
	return provider.Recording{ConversationID: conversationID, ContentType: "audio/mpeg", Bytes: raw}, nil
}

func (a *Adapter) OpenRealtimeSession(ctx context.Context, req provider.RealtimeSessionRequest) (provider.RealtimeSession, error) {
	m, err := a.do(ctx, "OpenRealtimeSession", http.MethodPost, "/sessions", map[string]any{"agent_id": req.AgentExternalID})
	if err != nil {
		return provider.RealtimeSession{}, err
	}
	return provider.RealtimeSession{
		SessionID: str(m, "id"),
		JoinURL:   str(m, "join_url"),
		ExpiresAt: ts(m, "expires_at"),
	}, nil
}
