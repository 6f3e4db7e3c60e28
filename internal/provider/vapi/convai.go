package vapi

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"voicedash/internal/provider"
)

// assistant is the vendor wire shape for an agent.
type assistant struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	FirstMessage string `json:"firstMessage,omitempty"`
	Voice        *struct {
		VoiceID string `json:"voiceId"`
	} `json:"voice,omitempty"`
	Model *struct {
		SystemPrompt string `json:"systemPrompt,omitempty"`
	} `json:"model,omitempty"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (w assistant) toRemoteAgent() provider.RemoteAgent {
	out := provider.RemoteAgent{
		ExternalID:   w.ID,
		Name:         w.Name,
		FirstMessage: w.FirstMessage,
		Language:     w.Language,
		CreatedAt:    w.CreatedAt,
	}
	if w.Voice != nil {
		out.VoiceID = w.Voice.VoiceID
	}
	if w.Model != nil {
		out.SystemPrompt = w.Model.SystemPrompt
	}
	return out
}

func assistantFromSpec(spec provider.AgentSpec) assistant {
	w := assistant{
		Name:         spec.Name,
		FirstMessage: spec.FirstMessage,
		Language:     spec.Language,
	}
	if spec.VoiceID != "" {
		w.Voice = &struct {
			VoiceID string `json:"voiceId"`
		}{VoiceID: spec.VoiceID}
	}
	if spec.SystemPrompt != "" {
		w.Model = &struct {
			SystemPrompt string `json:"systemPrompt,omitempty"`
		}{SystemPrompt: spec.SystemPrompt}
	}
	return w
}

// call is the vendor wire shape for a conversation. List responses omit
// detail fields (cost, recordingUrl); GetConversation returns them.
type call struct {
	ID          string `json:"id"`
	AssistantID string `json:"assistantId,omitempty"`
	Customer    *struct {
		Number string `json:"number"`
	} `json:"customer,omitempty"`
	Status       string     `json:"status,omitempty"`
	StartedAt    time.Time  `json:"startedAt,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	Cost         float64    `json:"cost,omitempty"`
	RecordingURL string     `json:"recordingUrl,omitempty"`
	Messages     []struct {
		Role             string  `json:"role"`
		Message          string  `json:"message"`
		SecondsFromStart float64 `json:"secondsFromStart,omitempty"`
	} `json:"messages,omitempty"`
}

func (w call) toConversation() provider.Conversation {
	out := provider.Conversation{
		ExternalID:      w.ID,
		AgentExternalID: w.AssistantID,
		Status:          w.Status,
		StartedAt:       w.StartedAt,
		CostMinor:       int64(math.Round(w.Cost * 100)),
		RecordingURL:    w.RecordingURL,
		HasRecording:    w.RecordingURL != "",
	}
	if w.Customer != nil {
		out.PhoneNumber = w.Customer.Number
	}
	if w.EndedAt != nil {
		out.EndedAt = *w.EndedAt
		if !w.StartedAt.IsZero() && w.EndedAt.After(w.StartedAt) {
			out.DurationSeconds = int(w.EndedAt.Sub(w.StartedAt) / time.Second)
		}
	}
	return out
}

func (a *Adapter) CreateAgent(ctx context.Context, spec provider.AgentSpec) (provider.RemoteAgent, error) {
	var w assistant
	if err := a.do(ctx, "CreateAgent", http.MethodPost, "/assistant", assistantFromSpec(spec), &w); err != nil {
		return provider.RemoteAgent{}, err
	}
	return w.toRemoteAgent(), nil
}

func (a *Adapter) UpdateAgent(ctx context.Context, externalID string, spec provider.AgentSpec) (provider.RemoteAgent, error) {
	var w assistant
	path := "/assistant/" + url.PathEscape(externalID)
	if err := a.do(ctx, "UpdateAgent", http.MethodPatch, path, assistantFromSpec(spec), &w); err != nil {
		return provider.RemoteAgent{}, err
	}
	return w.toRemoteAgent(), nil
}

func (a *Adapter) DeleteAgent(ctx context.Context, externalID string) error {
	return a.do(ctx, "DeleteAgent", http.MethodDelete, "/assistant/"+url.PathEscape(externalID), nil, nil)
}

func (a *Adapter) GetAgent(ctx context.Context, externalID string) (provider.RemoteAgent, error) {
	var w assistant
	if err := a.do(ctx, "GetAgent", http.MethodGet, "/assistant/"+url.PathEscape(externalID), nil, &w); err != nil {
		return provider.RemoteAgent{}, err
	}
	return w.toRemoteAgent(), nil
}

func (a *Adapter) ListAgents(ctx context.Context) ([]provider.RemoteAgent, error) {
	var ws []assistant
	if err := a.do(ctx, "ListAgents", http.MethodGet, "/assistant", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]provider.RemoteAgent, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toRemoteAgent())
	}
	return out, nil
}

func (a *Adapter) ListConversations(ctx context.Context, req provider.ListConversationsRequest) ([]provider.Conversation, error) {
	q := url.Values{}
	if req.AgentExternalID != "" {
		q.Set("assistantId", req.AgentExternalID)
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	path := "/call"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var ws []call
	if err := a.do(ctx, "ListConversations", http.MethodGet, path, nil, &ws); err != nil {
		return nil, err
	}
	out := make([]provider.Conversation, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toConversation())
	}
	return out, nil
}

func (a *Adapter) GetConversation(ctx context.Context, conversationID string) (provider.Conversation, error) {
	var w call
	if err := a.do(ctx, "GetConversation", http.MethodGet, "/call/"+url.PathEscape(conversationID), nil, &w); err != nil {
		return provider.Conversation{}, err
	}
	return w.toConversation(), nil
}

func (a *Adapter) GetTranscript(ctx context.Context, conversationID string) (provider.Transcript, error) {
	var w call
	if err := a.do(ctx, "GetTranscript", http.MethodGet, "/call/"+url.PathEscape(conversationID), nil, &w); err != nil {
		return provider.Transcript{}, err
	}
	out := provider.Transcript{ConversationID: conversationID}
	for _, m := range w.Messages {
		out.Turns = append(out.Turns, provider.TranscriptTurn{
			Role:    m.Role,
			Text:    m.Message,
			Seconds: m.SecondsFromStart,
		})
	}
	return out, nil
}

// GetRecording resolves the recording URL from the call detail and then
// downloads it. Both a missing recordingUrl and a 404 on the download are
// reported as KindNotFound: the vendor has confirmed there is nothing to
// fetch.
func (a *Adapter) GetRecording(ctx context.Context, conversationID string) (provider.Recording, error) {
	var w call
	if err := a.do(ctx, "GetRecording", http.MethodGet, "/call/"+url.PathEscape(conversationID), nil, &w); err != nil {
		return provider.Recording{}, err
	}
	if w.RecordingURL == "" {
		return provider.Recording{}, provider.NewError(provider.KindNotFound, Vendor, "GetRecording",
			fmt.Errorf("conversation %s has no recording", conversationID))
	}

	data, contentType, err := a.fetchRaw(ctx, "GetRecording", w.RecordingURL)
	if err != nil {
		return provider.Recording{}, err
	}
	return provider.Recording{
		ConversationID: conversationID,
		ContentType:    contentType,
		Bytes:          data,
	}, nil
}

func (a *Adapter) OpenRealtimeSession(ctx context.Context, req provider.RealtimeSessionRequest) (provider.RealtimeSession, error) {
	body := map[string]any{"assistantId": req.AgentExternalID}
	var w struct {
		ID        string    `json:"id"`
		WebURL    string    `json:"webCallUrl"`
		ExpiresAt time.Time `json:"expiresAt,omitempty"`
	}
	if err := a.do(ctx, "OpenRealtimeSession", http.MethodPost, "/call/web", body, &w); err != nil {
		return provider.RealtimeSession{}, err
	}
	return provider.RealtimeSession{SessionID: w.ID, JoinURL: w.WebURL, ExpiresAt: w.ExpiresAt}, nil
}
