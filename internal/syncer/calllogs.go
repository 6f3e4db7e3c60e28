package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"voicedash/internal/provider"
	"voicedash/internal/store"
)

// CallLogOptions narrows a SyncCallLogs run.
type CallLogOptions struct {
	// AgentID filters to conversations of one local agent.
	AgentID string
	// Limit caps the page size requested from each vendor.
	Limit int
	// IncludeTranscripts fetches and serializes transcripts per
	// conversation. It is the most expensive fetch; dashboard refreshes
	// leave it off.
	IncludeTranscripts bool
}

// SyncCallLogs mirrors vendor conversations into CallLog rows, deduplicated
// by (org, conversation id).
//
// Ordering: integrations are processed sequentially, and conversations
// within an integration are processed sequentially including their nested
// audio fetch, so each conversation's log output and partial-failure
// accounting stays strictly attributable.
func (s *Service) SyncCallLogs(ctx context.Context, orgID string, opts CallLogOptions) Result {
	start := s.now()
	res := Result{Success: true}

	bound, err := s.activeIntegrations(ctx, orgID, provider.CapabilityConversationalAI, &res)
	if err != nil {
		return s.finish(failed("list integrations: "+err.Error()), start)
	}

	agentExternalID := ""
	if opts.AgentID != "" {
		agentExternalID, err = s.resolveAgentExternalID(ctx, orgID, opts.AgentID)
		if err != nil {
			// An unresolvable filter must not widen into an unfiltered run.
			res.addError("agent filter %s: %v", opts.AgentID, err)
			return s.finish(res, start)
		}
	}

	for _, b := range bound {
		convai, ok := b.adapter.(provider.ConversationalAI)
		if !ok {
			continue
		}

		conversations, err := convai.ListConversations(ctx, provider.ListConversationsRequest{
			AgentExternalID: agentExternalID,
			Limit:           opts.Limit,
		})
		if err != nil {
			if provider.IsNotConfigured(err) {
				s.log.Debug("skipping unconfigured integration", "integration", b.integration.ID)
				continue
			}
			res.addError("integration %s (%s): list conversations: %v", b.integration.ID, b.integration.Vendor, err)
			continue
		}

		for _, conv := range conversations {
			s.syncConversation(ctx, orgID, b, convai, conv, opts, &res)
		}
		s.markSynced(ctx, b.integration)
	}

	return s.finish(res, start)
}

// syncConversation processes one remote conversation end to end, audio
// fetch included. Every failure path is accounted on res; none of them
// propagates.
func (s *Service) syncConversation(ctx context.Context, orgID string, b boundIntegration, convai provider.ConversationalAI, conv provider.Conversation, opts CallLogOptions, res *Result) {
	// The conversation id is the mandatory dedup key.
	if conv.ExternalID == "" {
		res.addError("integration %s (%s): conversation missing id, skipped", b.integration.ID, b.integration.Vendor)
		return
	}

	log := s.log.With("org", orgID, "vendor", b.integration.Vendor, "conversation", conv.ExternalID)

	// Best-effort detail fetch; the summary row already carries enough to
	// upsert, so a failed detail fetch degrades rather than aborts.
	if detail, err := convai.GetConversation(ctx, conv.ExternalID); err == nil {
		conv = detail
	} else {
		log.Warn("conversation detail fetch failed, using summary data", "err", err)
	}

	existing, err := s.store.GetCallLogByConversationID(ctx, orgID, conv.ExternalID)
	isNew := errors.Is(err, store.ErrNotFound)
	if err != nil && !isNew {
		res.addError("conversation %s: lookup failed: %v", conv.ExternalID, err)
		return
	}

	cl := existing
	if isNew {
		cl = store.CallLog{OrgID: orgID, ConversationID: conv.ExternalID}
	}
	cl.Vendor = b.integration.Vendor
	cl.ExternalAgentID = conv.AgentExternalID
	cl.PhoneNumber = conv.PhoneNumber
	cl.Status = conv.Status
	cl.DurationSeconds = conv.DurationSeconds
	cl.CostMinor = conv.CostMinor
	cl.RecordingURL = conv.RecordingURL
	if !conv.StartedAt.IsZero() {
		cl.StartedAt = conv.StartedAt
	}

	// Resolve the local agent reference. A conversation may point at an
	// agent not yet known locally; the reference stays empty, not an error.
	if conv.AgentExternalID != "" {
		if agent, err := s.store.GetAgentByExternalID(ctx, orgID, conv.AgentExternalID); err == nil {
			cl.AgentID = agent.ID
		}
	}

	if opts.IncludeTranscripts {
		if transcript, err := convai.GetTranscript(ctx, conv.ExternalID); err == nil {
			if raw, err := json.Marshal(transcript); err == nil {
				cl.Transcript = string(raw)
			}
		} else {
			log.Warn("transcript fetch failed", "err", err)
		}
	}

	if isNew {
		created, err := s.store.CreateCallLog(ctx, cl)
		if err != nil {
			res.addError("conversation %s: create failed: %v", conv.ExternalID, err)
			return
		}
		cl = created
		res.SyncedCount++
	} else {
		updated, err := s.store.UpdateCallLog(ctx, cl)
		if err != nil {
			res.addError("conversation %s: update failed: %v", conv.ExternalID, err)
			return
		}
		cl = updated
		res.UpdatedCount++
	}

	// Audio runs after a successful upsert and only affects the audio
	// status fields. available and unavailable are terminal; failed is
	// retried on the next pass.
	if cl.AudioKey == "" && cl.AudioStatus != store.AudioStatusAvailable && cl.AudioStatus != store.AudioStatusUnavailable {
		if err := s.fetchAudio(ctx, convai, cl); err != nil {
			res.addError("conversation %s: audio fetch: %v", conv.ExternalID, err)
		}
	}
}

func (s *Service) resolveAgentExternalID(ctx context.Context, orgID, agentID string) (string, error) {
	agents, err := s.store.ListAgents(ctx, orgID)
	if err != nil {
		return "", fmt.Errorf("resolution failed: %w", err)
	}
	for _, a := range agents {
		if a.ID == agentID {
			return a.ExternalID, nil
		}
	}
	return "", errors.New("unknown agent")
}
