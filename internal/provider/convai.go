package provider

import (
	"context"
	"time"
)

// ConversationalAI manages hosted voice agents and their conversations.
//
// Keep request/response types provider-agnostic; adapters may stash vendor
// raw payloads in Raw fields when callers need them for debugging.
type ConversationalAI interface {
	Adapter

	CreateAgent(ctx context.Context, spec AgentSpec) (RemoteAgent, error)
	UpdateAgent(ctx context.Context, externalID string, spec AgentSpec) (RemoteAgent, error)
	DeleteAgent(ctx context.Context, externalID string) error
	GetAgent(ctx context.Context, externalID string) (RemoteAgent, error)
	ListAgents(ctx context.Context) ([]RemoteAgent, error)

	ListConversations(ctx context.Context, req ListConversationsRequest) ([]Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (Conversation, error)

	GetTranscript(ctx context.Context, conversationID string) (Transcript, error)

	// GetRecording returns the raw recording bytes. Outcomes are three-way:
	// bytes on success, an Error with KindNotFound when the vendor confirms
	// no recording exists, any other Error kind for failures.
	GetRecording(ctx context.Context, conversationID string) (Recording, error)

	// OpenRealtimeSession returns a handle for a live voice session. The
	// sync engine never calls this; it exists for the call-placement path.
	OpenRealtimeSession(ctx context.Context, req RealtimeSessionRequest) (RealtimeSession, error)
}

// AgentSpec is the writable portion of a remote agent definition.
type AgentSpec struct {
	Name         string `json:"name"`
	VoiceID      string `json:"voice_id,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	FirstMessage string `json:"first_message,omitempty"`
	Language     string `json:"language,omitempty"`
}

// RemoteAgent is a vendor-hosted agent as the vendor reports it.
type RemoteAgent struct {
	// ExternalID is the vendor-assigned identifier. Records without it
	// cannot be deduplicated locally and are skipped by the sync engine.
	ExternalID string `json:"external_id"`

	Name         string `json:"name"`
	VoiceID      string `json:"voice_id,omitempty"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	FirstMessage string `json:"first_message,omitempty"`
	Language     string `json:"language,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

type ListConversationsRequest struct {
	// AgentExternalID filters to one agent when set.
	AgentExternalID string `json:"agent_external_id,omitempty"`
	// Limit caps the page size; adapters apply a vendor default when zero.
	Limit int `json:"limit,omitempty"`
}

// Conversation is one vendor call/conversation summary. Detail fields
// (duration, cost, recording flag) may be zero in list responses; the sync
// engine fetches the full record best-effort via GetConversation.
type Conversation struct {
	// ExternalID is the vendor conversation id, the dedup key for CallLogs.
	ExternalID string `json:"external_id"`

	AgentExternalID string `json:"agent_external_id,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	Status          string `json:"status,omitempty"`

	DurationSeconds int   `json:"duration_seconds,omitempty"`
	CostMinor       int64 `json:"cost_minor,omitempty"`

	HasRecording bool   `json:"has_recording,omitempty"`
	RecordingURL string `json:"recording_url,omitempty"`

	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Transcript carries the conversation turns as the vendor exposes them.
type Transcript struct {
	ConversationID string           `json:"conversation_id"`
	Turns          []TranscriptTurn `json:"turns"`
}

type TranscriptTurn struct {
	Role    string  `json:"role"`
	Text    string  `json:"text"`
	Seconds float64 `json:"seconds,omitempty"`
}

// Recording holds fetched recording bytes.
type Recording struct {
	ConversationID string `json:"conversation_id"`
	ContentType    string `json:"content_type,omitempty"`
	Bytes          []byte `json:"-"`
}

type RealtimeSessionRequest struct {
	AgentExternalID string `json:"agent_external_id"`
	// Metadata is optional vendor-specific JSON.
	Metadata string `json:"metadata,omitempty"`
}

// RealtimeSession is an opaque handle to a live session at the vendor.
type RealtimeSession struct {
	SessionID string `json:"session_id"`
	// JoinURL is what a client connects to (websocket or SIP URI).
	JoinURL   string    `json:"join_url,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}
