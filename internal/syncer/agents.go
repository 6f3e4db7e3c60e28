package syncer

import (
	"context"
	"errors"

	"voicedash/internal/provider"
	"voicedash/internal/store"
)

// SyncAgents mirrors remote agent definitions into local storage for every
// active conversational-AI integration of the org.
//
// Failure isolation: an integration that fails to list (expired
// credential, vendor outage) is recorded and skipped; the org's other
// integrations still run. A remote agent without an external id is counted
// as an error and skipped, never fatal to the batch.
func (s *Service) SyncAgents(ctx context.Context, orgID string) Result {
	start := s.now()
	res := Result{Success: true}

	bound, err := s.activeIntegrations(ctx, orgID, provider.CapabilityConversationalAI, &res)
	if err != nil {
		return s.finish(failed("list integrations: "+err.Error()), start)
	}

	for _, b := range bound {
		convai, ok := b.adapter.(provider.ConversationalAI)
		if !ok {
			continue
		}

		remote, err := convai.ListAgents(ctx)
		if err != nil {
			if provider.IsNotConfigured(err) {
				s.log.Debug("skipping unconfigured integration", "integration", b.integration.ID)
				continue
			}
			res.addError("integration %s (%s): list agents: %v", b.integration.ID, b.integration.Vendor, err)
			continue
		}

		for _, ra := range remote {
			if ra.ExternalID == "" {
				res.addError("integration %s (%s): agent %q missing external id", b.integration.ID, b.integration.Vendor, ra.Name)
				continue
			}
			if err := s.upsertAgent(ctx, orgID, b.integration.Vendor, ra, &res); err != nil {
				res.addError("agent %s: %v", ra.ExternalID, err)
			}
		}
		s.markSynced(ctx, b.integration)
	}

	return s.finish(res, start)
}

func (s *Service) upsertAgent(ctx context.Context, orgID, vendor string, ra provider.RemoteAgent, res *Result) error {
	existing, err := s.store.GetAgentByExternalID(ctx, orgID, ra.ExternalID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		_, err := s.store.CreateAgent(ctx, store.Agent{
			OrgID:        orgID,
			ExternalID:   ra.ExternalID,
			Vendor:       vendor,
			Name:         ra.Name,
			VoiceID:      ra.VoiceID,
			SystemPrompt: ra.SystemPrompt,
			FirstMessage: ra.FirstMessage,
			Language:     ra.Language,
			Active:       true,
		})
		if err != nil {
			return err
		}
		res.SyncedCount++
		return nil
	case err != nil:
		return err
	}

	// Mutable fields follow the vendor; the remote is the source of truth.
	existing.Name = ra.Name
	existing.VoiceID = ra.VoiceID
	existing.SystemPrompt = ra.SystemPrompt
	existing.FirstMessage = ra.FirstMessage
	existing.Language = ra.Language
	if _, err := s.store.UpdateAgent(ctx, existing); err != nil {
		return err
	}
	res.UpdatedCount++
	return nil
}
