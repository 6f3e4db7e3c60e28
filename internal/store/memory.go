package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Store for tests and early development.
// It enforces org isolation on reads and the same unique constraints the
// Postgres implementation relies on.
type Memory struct {
	mu sync.Mutex

	Integrations []Integration
	Agents       []Agent
	CallLogs     []CallLog
	AudioAssets  []AudioAsset
	PhoneNumbers []PhoneNumber
	Voices       []Voice

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: func() time.Time { return time.Now().UTC() }}
}

func (m *Memory) ListIntegrations(ctx context.Context, orgID string) ([]Integration, error) {
	if orgID == "" {
		return nil, errors.New("org_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Integration, 0)
	for _, in := range m.Integrations {
		if in.OrgID == orgID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *Memory) CreateIntegration(ctx context.Context, in Integration) (Integration, error) {
	if in.OrgID == "" || in.Vendor == "" {
		return Integration{}, errors.New("org_id and vendor required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	now := m.now()
	in.CreatedAt, in.UpdatedAt = now, now
	m.Integrations = append(m.Integrations, in)
	return in, nil
}

func (m *Memory) SetIntegrationSyncedAt(ctx context.Context, orgID, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Integrations {
		if m.Integrations[i].OrgID == orgID && m.Integrations[i].ID == id {
			t := at
			m.Integrations[i].LastSyncedAt = &t
			m.Integrations[i].UpdatedAt = m.now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) GetAgentByExternalID(ctx context.Context, orgID, externalID string) (Agent, error) {
	if orgID == "" || externalID == "" {
		return Agent{}, errors.New("org_id and external_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.Agents {
		if a.OrgID == orgID && a.ExternalID == externalID {
			return a, nil
		}
	}
	return Agent{}, ErrNotFound
}

func (m *Memory) CreateAgent(ctx context.Context, a Agent) (Agent, error) {
	if a.OrgID == "" || a.ExternalID == "" {
		return Agent{}, errors.New("org_id and external_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, have := range m.Agents {
		if have.OrgID == a.OrgID && have.ExternalID == a.ExternalID {
			return Agent{}, errors.New("store: agent exists for (org, external_id)")
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := m.now()
	a.CreatedAt, a.UpdatedAt = now, now
	m.Agents = append(m.Agents, a)
	return a, nil
}

func (m *Memory) UpdateAgent(ctx context.Context, a Agent) (Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Agents {
		if m.Agents[i].OrgID == a.OrgID && m.Agents[i].ID == a.ID {
			a.CreatedAt = m.Agents[i].CreatedAt
			a.UpdatedAt = m.now()
			m.Agents[i] = a
			return a, nil
		}
	}
	return Agent{}, ErrNotFound
}

func (m *Memory) ListAgents(ctx context.Context, orgID string) ([]Agent, error) {
	if orgID == "" {
		return nil, errors.New("org_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Agent, 0)
	for _, a := range m.Agents {
		if a.OrgID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) GetCallLogByConversationID(ctx context.Context, orgID, conversationID string) (CallLog, error) {
	if orgID == "" || conversationID == "" {
		return CallLog{}, errors.New("org_id and conversation_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cl := range m.CallLogs {
		if cl.OrgID == orgID && cl.ConversationID == conversationID {
			return cl, nil
		}
	}
	return CallLog{}, ErrNotFound
}

func (m *Memory) CreateCallLog(ctx context.Context, cl CallLog) (CallLog, error) {
	if cl.OrgID == "" || cl.ConversationID == "" {
		return CallLog{}, errors.New("org_id and conversation_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, have := range m.CallLogs {
		if have.OrgID == cl.OrgID && have.ConversationID == cl.ConversationID {
			return CallLog{}, errors.New("store: call log exists for (org, conversation_id)")
		}
	}
	if cl.ID == "" {
		cl.ID = uuid.NewString()
	}
	now := m.now()
	cl.CreatedAt, cl.UpdatedAt = now, now
	m.CallLogs = append(m.CallLogs, cl)
	return cl, nil
}

func (m *Memory) UpdateCallLog(ctx context.Context, cl CallLog) (CallLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.CallLogs {
		if m.CallLogs[i].OrgID == cl.OrgID && m.CallLogs[i].ID == cl.ID {
			cl.CreatedAt = m.CallLogs[i].CreatedAt
			cl.UpdatedAt = m.now()
			m.CallLogs[i] = cl
			return cl, nil
		}
	}
	return CallLog{}, ErrNotFound
}

func (m *Memory) ListCallLogs(ctx context.Context, orgID string, f CallLogFilter) ([]CallLog, error) {
	if orgID == "" {
		return nil, errors.New("org_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallLog, 0)
	for _, cl := range m.CallLogs {
		if cl.OrgID != orgID {
			continue
		}
		if f.AgentID != "" && cl.AgentID != f.AgentID {
			continue
		}
		if f.Status != "" && cl.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && cl.StartedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !cl.StartedAt.Before(f.To) {
			continue
		}
		out = append(out, cl)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) UpdateCallAudioStatus(ctx context.Context, orgID, callID string, patch AudioPatch) error {
	if orgID == "" || callID == "" {
		return errors.New("org_id and call_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyAudioPatch(orgID, callID, patch)
}

// applyAudioPatch requires m.mu held.
func (m *Memory) applyAudioPatch(orgID, callID string, patch AudioPatch) error {
	for i := range m.CallLogs {
		if m.CallLogs[i].OrgID != orgID || m.CallLogs[i].ID != callID {
			continue
		}
		if patch.Status != "" {
			m.CallLogs[i].AudioStatus = patch.Status
		}
		if patch.AudioKey != nil {
			m.CallLogs[i].AudioKey = *patch.AudioKey
		}
		if patch.PlaybackPath != nil {
			m.CallLogs[i].PlaybackPath = *patch.PlaybackPath
		}
		if patch.FetchedAt != nil {
			t := *patch.FetchedAt
			m.CallLogs[i].AudioFetchedAt = &t
		}
		m.CallLogs[i].UpdatedAt = m.now()
		return nil
	}
	return ErrNotFound
}

func (m *Memory) AttachAudio(ctx context.Context, a AudioAsset, patch AudioPatch) error {
	if a.OrgID == "" || a.Key == "" {
		return errors.New("org_id and key required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Patch first: an unknown call must not leave an orphan asset row.
	if err := m.applyAudioPatch(a.OrgID, a.CallID, patch); err != nil {
		return err
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = m.now()
	}
	m.AudioAssets = append(m.AudioAssets, a)
	return nil
}

func (m *Memory) GetPhoneNumberByExternalID(ctx context.Context, orgID, externalID string) (PhoneNumber, error) {
	if orgID == "" || externalID == "" {
		return PhoneNumber{}, errors.New("org_id and external_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.PhoneNumbers {
		if n.OrgID == orgID && n.ExternalID == externalID {
			return n, nil
		}
	}
	return PhoneNumber{}, ErrNotFound
}

func (m *Memory) CreatePhoneNumber(ctx context.Context, n PhoneNumber) (PhoneNumber, error) {
	if n.OrgID == "" || n.ExternalID == "" {
		return PhoneNumber{}, errors.New("org_id and external_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := m.now()
	n.CreatedAt, n.UpdatedAt = now, now
	m.PhoneNumbers = append(m.PhoneNumbers, n)
	return n, nil
}

func (m *Memory) UpdatePhoneNumber(ctx context.Context, n PhoneNumber) (PhoneNumber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.PhoneNumbers {
		if m.PhoneNumbers[i].OrgID == n.OrgID && m.PhoneNumbers[i].ID == n.ID {
			n.CreatedAt = m.PhoneNumbers[i].CreatedAt
			n.UpdatedAt = m.now()
			m.PhoneNumbers[i] = n
			return n, nil
		}
	}
	return PhoneNumber{}, ErrNotFound
}

func (m *Memory) GetVoiceByExternalID(ctx context.Context, orgID, vendor, externalID string) (Voice, error) {
	if orgID == "" || externalID == "" {
		return Voice{}, errors.New("org_id and external_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.Voices {
		if v.OrgID == orgID && v.Vendor == vendor && v.ExternalID == externalID {
			return v, nil
		}
	}
	return Voice{}, ErrNotFound
}

func (m *Memory) CreateVoice(ctx context.Context, v Voice) (Voice, error) {
	if v.OrgID == "" || v.ExternalID == "" {
		return Voice{}, errors.New("org_id and external_id required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.CreatedAt = m.now()
	m.Voices = append(m.Voices, v)
	return v, nil
}

func (m *Memory) UpdateVoice(ctx context.Context, v Voice) (Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Voices {
		if m.Voices[i].OrgID == v.OrgID && m.Voices[i].ID == v.ID {
			v.CreatedAt = m.Voices[i].CreatedAt
			m.Voices[i] = v
			return v, nil
		}
	}
	return Voice{}, ErrNotFound
}
