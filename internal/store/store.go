package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("store: not found")

// Store is the persistence collaborator consumed by the sync engine and
// HTTP layer. Implementations must enforce org filtering on every read and
// write; no method may return another tenant's rows.
type Store interface {
	// Integrations.
	ListIntegrations(ctx context.Context, orgID string) ([]Integration, error)
	CreateIntegration(ctx context.Context, in Integration) (Integration, error)
	SetIntegrationSyncedAt(ctx context.Context, orgID, id string, at time.Time) error

	// Agents.
	GetAgentByExternalID(ctx context.Context, orgID, externalID string) (Agent, error)
	CreateAgent(ctx context.Context, a Agent) (Agent, error)
	UpdateAgent(ctx context.Context, a Agent) (Agent, error)
	ListAgents(ctx context.Context, orgID string) ([]Agent, error)

	// Call logs.
	GetCallLogByConversationID(ctx context.Context, orgID, conversationID string) (CallLog, error)
	CreateCallLog(ctx context.Context, cl CallLog) (CallLog, error)
	UpdateCallLog(ctx context.Context, cl CallLog) (CallLog, error)
	ListCallLogs(ctx context.Context, orgID string, f CallLogFilter) ([]CallLog, error)
	UpdateCallAudioStatus(ctx context.Context, orgID, callID string, patch AudioPatch) error

	// Audio assets. AttachAudio records the asset row and applies the
	// call's audio patch as one unit; transactional backends make the
	// pair atomic so no call reads as available without its provenance
	// row.
	AttachAudio(ctx context.Context, a AudioAsset, patch AudioPatch) error

	// Phone numbers.
	GetPhoneNumberByExternalID(ctx context.Context, orgID, externalID string) (PhoneNumber, error)
	CreatePhoneNumber(ctx context.Context, n PhoneNumber) (PhoneNumber, error)
	UpdatePhoneNumber(ctx context.Context, n PhoneNumber) (PhoneNumber, error)

	// Voices.
	GetVoiceByExternalID(ctx context.Context, orgID, vendor, externalID string) (Voice, error)
	CreateVoice(ctx context.Context, v Voice) (Voice, error)
	UpdateVoice(ctx context.Context, v Voice) (Voice, error)
}

// CallLogFilter narrows ListCallLogs.
type CallLogFilter struct {
	AgentID string
	Status  string
	From    time.Time
	To      time.Time
	Limit   int
}
