package store

import "time"

// Multi-tenant invariant: OrgID is required on every row.
//
// External keys (vendor-assigned ids) are the dedup anchors for the sync
// engine; uniqueness constraints live on (org_id, external key) pairs, not
// on local ids.

// Integration is a tenant's stored credential for one vendor.
//
// Lifecycle: created on configuration, deactivated on revocation or failed
// validation. Never hard-deleted while call logs reference its vendor.
type Integration struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	// Vendor matches a provider adapter id, e.g. "vapi".
	Vendor string `json:"vendor" db:"vendor"`

	// APIKey is the credential material. Never log it.
	APIKey  string `json:"-" db:"api_key"`
	BaseURL string `json:"base_url,omitempty" db:"base_url"`

	Active       bool       `json:"active" db:"active"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty" db:"last_synced_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Agent is a locally mirrored conversational-agent definition.
// Unique per (org_id, external_id).
type Agent struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	ExternalID string `json:"external_id" db:"external_id"`
	Vendor     string `json:"vendor" db:"vendor"`

	Name         string `json:"name" db:"name"`
	VoiceID      string `json:"voice_id,omitempty" db:"voice_id"`
	SystemPrompt string `json:"system_prompt,omitempty" db:"system_prompt"`
	FirstMessage string `json:"first_message,omitempty" db:"first_message"`
	Language     string `json:"language,omitempty" db:"language"`
	Active       bool   `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CallLog is one vendor conversation.
// Unique per (org_id, conversation_id) — the sync engine's dedup key.
type CallLog struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	// ConversationID is the vendor conversation id. Required.
	ConversationID string `json:"conversation_id" db:"conversation_id"`
	Vendor         string `json:"vendor" db:"vendor"`

	// AgentID references a local Agent. Empty when the conversation points
	// at an agent not yet known locally.
	AgentID         string `json:"agent_id,omitempty" db:"agent_id"`
	ExternalAgentID string `json:"external_agent_id,omitempty" db:"external_agent_id"`

	PhoneNumber     string `json:"phone_number,omitempty" db:"phone_number"`
	Status          string `json:"status,omitempty" db:"status"`
	DurationSeconds int    `json:"duration_seconds" db:"duration_seconds"`
	CostMinor       int64  `json:"cost_minor" db:"cost_minor"`

	// Transcript is an opaque serialized blob (JSON).
	Transcript string `json:"transcript,omitempty" db:"transcript"`

	RecordingURL   string      `json:"recording_url,omitempty" db:"recording_url"`
	AudioStatus    AudioStatus `json:"audio_status,omitempty" db:"audio_status"`
	AudioKey       string      `json:"audio_key,omitempty" db:"audio_key"`
	PlaybackPath   string      `json:"playback_path,omitempty" db:"playback_path"`
	AudioFetchedAt *time.Time  `json:"audio_fetched_at,omitempty" db:"audio_fetched_at"`

	StartedAt time.Time `json:"started_at,omitempty" db:"started_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AudioStatus is the per-CallLog audio fetch state machine:
//
//	"" -> pending -> {available | failed | unavailable}
//
// unavailable is terminal (vendor confirmed no recording); failed is
// retryable on the next sync pass; available is terminal-success.
type AudioStatus string

const (
	AudioStatusPending     AudioStatus = "pending"
	AudioStatusAvailable   AudioStatus = "available"
	AudioStatusFailed      AudioStatus = "failed"
	AudioStatusUnavailable AudioStatus = "unavailable"
)

// AudioPatch is the partial update applied by the audio fetch pipeline.
// Nil fields are left untouched.
type AudioPatch struct {
	Status       AudioStatus
	AudioKey     *string
	PlaybackPath *string
	FetchedAt    *time.Time
}

// AudioAsset records a downloaded recording; the binary lives in the audio
// artifact store under Key, with a JSON sidecar carrying the same fields.
type AudioAsset struct {
	Key            string `json:"key" db:"key"`
	OrgID          string `json:"org_id" db:"org_id"`
	CallID         string `json:"call_id" db:"call_id"`
	ConversationID string `json:"conversation_id" db:"conversation_id"`
	SizeBytes      int64  `json:"size_bytes" db:"size_bytes"`

	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// PhoneNumber mirrors a vendor-provisioned number.
// Unique per (org_id, external_id).
type PhoneNumber struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	ExternalID string `json:"external_id" db:"external_id"`
	Vendor     string `json:"vendor" db:"vendor"`

	Number string `json:"number" db:"number"`
	Label  string `json:"label,omitempty" db:"label"`
	Active bool   `json:"active" db:"active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Voice mirrors a vendor voice available to a tenant.
// Unique per (org_id, vendor, external_id).
type Voice struct {
	ID    string `json:"id" db:"id"`
	OrgID string `json:"org_id" db:"org_id"`

	ExternalID string `json:"external_id" db:"external_id"`
	Vendor     string `json:"vendor" db:"vendor"`

	Name       string `json:"name" db:"name"`
	Language   string `json:"language,omitempty" db:"language"`
	PreviewURL string `json:"preview_url,omitempty" db:"preview_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
