package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"voicedash/pkg/utils"

	"github.com/google/uuid"
)

// Postgres implements Store on database/sql (pgx stdlib driver).
//
// Assumed tables: integrations, agents, call_logs, audio_assets,
// phone_numbers, voices, with unique constraints:
//   agents        UNIQUE (org_id, external_id)
//   call_logs     UNIQUE (org_id, conversation_id)
//   phone_numbers UNIQUE (org_id, external_id)
//   voices        UNIQUE (org_id, vendor, external_id)
//
// Concurrent syncs for one org interleave safely: every write is an upsert
// keyed by a natural unique constraint and the remote vendor stays the
// source of truth, so last-writer-wins is acceptable.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) ListIntegrations(ctx context.Context, orgID string) ([]Integration, error) {
	const q = `
SELECT id, org_id, vendor, api_key, base_url, active, last_synced_at, created_at, updated_at
FROM integrations
WHERE org_id = $1
ORDER BY created_at
`
	rows, err := p.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Integration
	for rows.Next() {
		var in Integration
		var lastSynced sql.NullTime
		if err := rows.Scan(&in.ID, &in.OrgID, &in.Vendor, &in.APIKey, &in.BaseURL, &in.Active, &lastSynced, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, err
		}
		if lastSynced.Valid {
			t := lastSynced.Time
			in.LastSyncedAt = &t
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (p *Postgres) CreateIntegration(ctx context.Context, in Integration) (Integration, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	const q = `
INSERT INTO integrations (id, org_id, vendor, api_key, base_url, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())
RETURNING created_at, updated_at
`
	err := p.db.QueryRowContext(ctx, q, in.ID, in.OrgID, in.Vendor, in.APIKey, in.BaseURL, in.Active).
		Scan(&in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return Integration{}, err
	}
	return in, nil
}

func (p *Postgres) SetIntegrationSyncedAt(ctx context.Context, orgID, id string, at time.Time) error {
	const q = `
UPDATE integrations SET last_synced_at = $3, updated_at = now()
WHERE org_id = $1 AND id = $2
`
	res, err := p.db.ExecContext(ctx, q, orgID, id, at)
	if err != nil {
		return err
	}
	return noRowsAsNotFound(res)
}

func (p *Postgres) GetAgentByExternalID(ctx context.Context, orgID, externalID string) (Agent, error) {
	const q = `
SELECT id, org_id, external_id, vendor, name, voice_id, system_prompt, first_message, language, active, created_at, updated_at
FROM agents
WHERE org_id = $1 AND external_id = $2
`
	var a Agent
	err := p.db.QueryRowContext(ctx, q, orgID, externalID).Scan(
		&a.ID, &a.OrgID, &a.ExternalID, &a.Vendor, &a.Name, &a.VoiceID,
		&a.SystemPrompt, &a.FirstMessage, &a.Language, &a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	return a, err
}

func (p *Postgres) CreateAgent(ctx context.Context, a Agent) (Agent, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const q = `
INSERT INTO agents (id, org_id, external_id, vendor, name, voice_id, system_prompt, first_message, language, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
RETURNING created_at, updated_at
`
	err := p.db.QueryRowContext(ctx, q, a.ID, a.OrgID, a.ExternalID, a.Vendor, a.Name, a.VoiceID,
		a.SystemPrompt, a.FirstMessage, a.Language, a.Active).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (p *Postgres) UpdateAgent(ctx context.Context, a Agent) (Agent, error) {
	const q = `
UPDATE agents
SET name = $3, voice_id = $4, system_prompt = $5, first_message = $6, language = $7, active = $8, updated_at = now()
WHERE org_id = $1 AND id = $2
RETURNING updated_at
`
	err := p.db.QueryRowContext(ctx, q, a.OrgID, a.ID, a.Name, a.VoiceID, a.SystemPrompt,
		a.FirstMessage, a.Language, a.Active).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, ErrNotFound
	}
	if err != nil {
		return Agent{}, err
	}
	return a, nil
}

func (p *Postgres) ListAgents(ctx context.Context, orgID string) ([]Agent, error) {
	const q = `
SELECT id, org_id, external_id, vendor, name, voice_id, system_prompt, first_message, language, active, created_at, updated_at
FROM agents
WHERE org_id = $1
ORDER BY created_at
`
	rows, err := p.db.QueryContext(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.OrgID, &a.ExternalID, &a.Vendor, &a.Name, &a.VoiceID,
			&a.SystemPrompt, &a.FirstMessage, &a.Language, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

const callLogColumns = `
id, org_id, conversation_id, vendor, agent_id, external_agent_id, phone_number, status,
duration_seconds, cost_minor, transcript, recording_url, audio_status, audio_key,
playback_path, audio_fetched_at, started_at, created_at, updated_at`

func scanCallLog(row interface{ Scan(...any) error }) (CallLog, error) {
	var cl CallLog
	var agentID, status sql.NullString
	var fetchedAt, startedAt sql.NullTime
	err := row.Scan(
		&cl.ID, &cl.OrgID, &cl.ConversationID, &cl.Vendor, &agentID, &cl.ExternalAgentID,
		&cl.PhoneNumber, &cl.Status, &cl.DurationSeconds, &cl.CostMinor, &cl.Transcript,
		&cl.RecordingURL, &status, &cl.AudioKey, &cl.PlaybackPath, &fetchedAt,
		&startedAt, &cl.CreatedAt, &cl.UpdatedAt,
	)
	if err != nil {
		return CallLog{}, err
	}
	if agentID.Valid {
		cl.AgentID = agentID.String
	}
	if status.Valid {
		cl.AudioStatus = AudioStatus(status.String)
	}
	if fetchedAt.Valid {
		t := fetchedAt.Time
		cl.AudioFetchedAt = &t
	}
	if startedAt.Valid {
		cl.StartedAt = startedAt.Time
	}
	return cl, nil
}

func (p *Postgres) GetCallLogByConversationID(ctx context.Context, orgID, conversationID string) (CallLog, error) {
	const q = `SELECT ` + callLogColumns + `
FROM call_logs
WHERE org_id = $1 AND conversation_id = $2
`
	cl, err := scanCallLog(p.db.QueryRowContext(ctx, q, orgID, conversationID))
	if errors.Is(err, sql.ErrNoRows) {
		return CallLog{}, ErrNotFound
	}
	return cl, err
}

func (p *Postgres) CreateCallLog(ctx context.Context, cl CallLog) (CallLog, error) {
	if cl.ID == "" {
		cl.ID = uuid.NewString()
	}
	const q = `
INSERT INTO call_logs (id, org_id, conversation_id, vendor, agent_id, external_agent_id, phone_number, status,
 duration_seconds, cost_minor, transcript, recording_url, audio_status, audio_key, playback_path, started_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14, $15, $16, now(), now())
RETURNING created_at, updated_at
`
	started := sql.NullTime{Time: cl.StartedAt, Valid: !cl.StartedAt.IsZero()}
	err := p.db.QueryRowContext(ctx, q, cl.ID, cl.OrgID, cl.ConversationID, cl.Vendor, cl.AgentID,
		cl.ExternalAgentID, cl.PhoneNumber, cl.Status, cl.DurationSeconds, cl.CostMinor,
		cl.Transcript, cl.RecordingURL, string(cl.AudioStatus), cl.AudioKey, cl.PlaybackPath, started).
		Scan(&cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		return CallLog{}, err
	}
	return cl, nil
}

func (p *Postgres) UpdateCallLog(ctx context.Context, cl CallLog) (CallLog, error) {
	const q = `
UPDATE call_logs
SET agent_id = NULLIF($3, ''), external_agent_id = $4, phone_number = $5, status = $6,
    duration_seconds = $7, cost_minor = $8, transcript = $9, recording_url = $10, updated_at = now()
WHERE org_id = $1 AND id = $2
RETURNING updated_at
`
	err := p.db.QueryRowContext(ctx, q, cl.OrgID, cl.ID, cl.AgentID, cl.ExternalAgentID,
		cl.PhoneNumber, cl.Status, cl.DurationSeconds, cl.CostMinor, cl.Transcript, cl.RecordingURL).
		Scan(&cl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CallLog{}, ErrNotFound
	}
	if err != nil {
		return CallLog{}, err
	}
	return cl, nil
}

func (p *Postgres) ListCallLogs(ctx context.Context, orgID string, f CallLogFilter) ([]CallLog, error) {
	q := `SELECT ` + callLogColumns + `
FROM call_logs
WHERE org_id = $1`
	args := []any{orgID}
	if f.AgentID != "" {
		args = append(args, f.AgentID)
		q += ` AND agent_id = $2`
	}
	q += ` ORDER BY started_at DESC NULLS LAST`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		if f.AgentID != "" {
			q += ` LIMIT $3`
		} else {
			q += ` LIMIT $2`
		}
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallLog
	for rows.Next() {
		cl, err := scanCallLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateCallAudioStatus(ctx context.Context, orgID, callID string, patch AudioPatch) error {
	const q = `
UPDATE call_logs
SET audio_status = COALESCE(NULLIF($3, ''), audio_status),
    audio_key = COALESCE($4, audio_key),
    playback_path = COALESCE($5, playback_path),
    audio_fetched_at = COALESCE($6, audio_fetched_at),
    updated_at = now()
WHERE org_id = $1 AND id = $2
`
	res, err := p.db.ExecContext(ctx, q, orgID, callID, string(patch.Status), patch.AudioKey, patch.PlaybackPath, patch.FetchedAt)
	if err != nil {
		return err
	}
	return noRowsAsNotFound(res)
}

// AttachAudio inserts the asset row and patches the call's audio fields
// in one transaction. Rolling back on either failure keeps the audio
// state retryable: the call never reads as available without an asset.
func (p *Postgres) AttachAudio(ctx context.Context, a AudioAsset, patch AudioPatch) error {
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now().UTC()
	}
	const insertAsset = `
INSERT INTO audio_assets (key, org_id, call_id, conversation_id, size_bytes, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	const patchCall = `
UPDATE call_logs
SET audio_status = COALESCE(NULLIF($3, ''), audio_status),
    audio_key = COALESCE($4, audio_key),
    playback_path = COALESCE($5, playback_path),
    audio_fetched_at = COALESCE($6, audio_fetched_at),
    updated_at = now()
WHERE org_id = $1 AND id = $2
`
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertAsset, a.Key, a.OrgID, a.CallID, a.ConversationID, a.SizeBytes, a.UploadedAt); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, patchCall, a.OrgID, a.CallID, string(patch.Status), patch.AudioKey, patch.PlaybackPath, patch.FetchedAt)
		if err != nil {
			return err
		}
		return noRowsAsNotFound(res)
	})
}

func (p *Postgres) GetPhoneNumberByExternalID(ctx context.Context, orgID, externalID string) (PhoneNumber, error) {
	const q = `
SELECT id, org_id, external_id, vendor, number, label, active, created_at, updated_at
FROM phone_numbers
WHERE org_id = $1 AND external_id = $2
`
	var n PhoneNumber
	err := p.db.QueryRowContext(ctx, q, orgID, externalID).Scan(
		&n.ID, &n.OrgID, &n.ExternalID, &n.Vendor, &n.Number, &n.Label, &n.Active, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return PhoneNumber{}, ErrNotFound
	}
	return n, err
}

func (p *Postgres) CreatePhoneNumber(ctx context.Context, n PhoneNumber) (PhoneNumber, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	const q = `
INSERT INTO phone_numbers (id, org_id, external_id, vendor, number, label, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
RETURNING created_at, updated_at
`
	err := p.db.QueryRowContext(ctx, q, n.ID, n.OrgID, n.ExternalID, n.Vendor, n.Number, n.Label, n.Active).
		Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return PhoneNumber{}, err
	}
	return n, nil
}

func (p *Postgres) UpdatePhoneNumber(ctx context.Context, n PhoneNumber) (PhoneNumber, error) {
	const q = `
UPDATE phone_numbers
SET number = $3, label = $4, active = $5, updated_at = now()
WHERE org_id = $1 AND id = $2
RETURNING updated_at
`
	err := p.db.QueryRowContext(ctx, q, n.OrgID, n.ID, n.Number, n.Label, n.Active).Scan(&n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PhoneNumber{}, ErrNotFound
	}
	if err != nil {
		return PhoneNumber{}, err
	}
	return n, nil
}

func (p *Postgres) GetVoiceByExternalID(ctx context.Context, orgID, vendor, externalID string) (Voice, error) {
	const q = `
SELECT id, org_id, external_id, vendor, name, language, preview_url, created_at
FROM voices
WHERE org_id = $1 AND vendor = $2 AND external_id = $3
`
	var v Voice
	err := p.db.QueryRowContext(ctx, q, orgID, vendor, externalID).Scan(
		&v.ID, &v.OrgID, &v.ExternalID, &v.Vendor, &v.Name, &v.Language, &v.PreviewURL, &v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Voice{}, ErrNotFound
	}
	return v, err
}

func (p *Postgres) CreateVoice(ctx context.Context, v Voice) (Voice, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	const q = `
INSERT INTO voices (id, org_id, external_id, vendor, name, language, preview_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
RETURNING created_at
`
	err := p.db.QueryRowContext(ctx, q, v.ID, v.OrgID, v.ExternalID, v.Vendor, v.Name, v.Language, v.PreviewURL).
		Scan(&v.CreatedAt)
	if err != nil {
		return Voice{}, err
	}
	return v, nil
}

func (p *Postgres) UpdateVoice(ctx context.Context, v Voice) (Voice, error) {
	const q = `
UPDATE voices
SET name = $3, language = $4, preview_url = $5
WHERE org_id = $1 AND id = $2
`
	res, err := p.db.ExecContext(ctx, q, v.OrgID, v.ID, v.Name, v.Language, v.PreviewURL)
	if err != nil {
		return Voice{}, err
	}
	if err := noRowsAsNotFound(res); err != nil {
		return Voice{}, err
	}
	return v, nil
}

func noRowsAsNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
