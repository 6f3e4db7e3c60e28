package syncer

import (
	"context"
	"errors"

	"voicedash/internal/provider"
	"voicedash/internal/store"
)

// SyncPhoneNumbers mirrors vendor-provisioned numbers for every active
// telephony integration, upserting by (org, external id).
func (s *Service) SyncPhoneNumbers(ctx context.Context, orgID string) Result {
	start := s.now()
	res := Result{Success: true}

	bound, err := s.activeIntegrations(ctx, orgID, provider.CapabilityTelephony, &res)
	if err != nil {
		return s.finish(failed("list integrations: "+err.Error()), start)
	}

	for _, b := range bound {
		tel, ok := b.adapter.(provider.Telephony)
		if !ok {
			continue
		}
		numbers, err := tel.ListPhoneNumbers(ctx)
		if err != nil {
			if provider.IsNotConfigured(err) {
				continue
			}
			res.addError("integration %s (%s): list phone numbers: %v", b.integration.ID, b.integration.Vendor, err)
			continue
		}

		for _, pn := range numbers {
			if pn.ExternalID == "" {
				res.addError("integration %s (%s): phone number %q missing external id", b.integration.ID, b.integration.Vendor, pn.Number)
				continue
			}
			existing, err := s.store.GetPhoneNumberByExternalID(ctx, orgID, pn.ExternalID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				_, err := s.store.CreatePhoneNumber(ctx, store.PhoneNumber{
					OrgID:      orgID,
					ExternalID: pn.ExternalID,
					Vendor:     b.integration.Vendor,
					Number:     pn.Number,
					Label:      pn.Label,
					Active:     pn.Active,
				})
				if err != nil {
					res.addError("phone number %s: create failed: %v", pn.ExternalID, err)
					continue
				}
				res.SyncedCount++
			case err != nil:
				res.addError("phone number %s: lookup failed: %v", pn.ExternalID, err)
			default:
				existing.Number = pn.Number
				existing.Label = pn.Label
				existing.Active = pn.Active
				if _, err := s.store.UpdatePhoneNumber(ctx, existing); err != nil {
					res.addError("phone number %s: update failed: %v", pn.ExternalID, err)
					continue
				}
				res.UpdatedCount++
			}
		}
		s.markSynced(ctx, b.integration)
	}

	return s.finish(res, start)
}

// SyncVoices mirrors the voice catalog of every active text-to-speech
// integration, upserting by (org, vendor, external id).
func (s *Service) SyncVoices(ctx context.Context, orgID string) Result {
	start := s.now()
	res := Result{Success: true}

	bound, err := s.activeIntegrations(ctx, orgID, provider.CapabilityTextToSpeech, &res)
	if err != nil {
		return s.finish(failed("list integrations: "+err.Error()), start)
	}

	for _, b := range bound {
		tts, ok := b.adapter.(provider.TextToSpeech)
		if !ok {
			continue
		}
		voices, err := tts.ListVoices(ctx)
		if err != nil {
			if provider.IsNotConfigured(err) {
				continue
			}
			res.addError("integration %s (%s): list voices: %v", b.integration.ID, b.integration.Vendor, err)
			continue
		}

		for _, v := range voices {
			if v.ExternalID == "" {
				res.addError("integration %s (%s): voice %q missing external id", b.integration.ID, b.integration.Vendor, v.Name)
				continue
			}
			existing, err := s.store.GetVoiceByExternalID(ctx, orgID, b.integration.Vendor, v.ExternalID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				_, err := s.store.CreateVoice(ctx, store.Voice{
					OrgID:      orgID,
					ExternalID: v.ExternalID,
					Vendor:     b.integration.Vendor,
					Name:       v.Name,
					Language:   v.Language,
					PreviewURL: v.PreviewURL,
				})
				if err != nil {
					res.addError("voice %s: create failed: %v", v.ExternalID, err)
					continue
				}
				res.SyncedCount++
			case err != nil:
				res.addError("voice %s: lookup failed: %v", v.ExternalID, err)
			default:
				existing.Name = v.Name
				existing.Language = v.Language
				existing.PreviewURL = v.PreviewURL
				if _, err := s.store.UpdateVoice(ctx, existing); err != nil {
					res.addError("voice %s: update failed: %v", v.ExternalID, err)
					continue
				}
				res.UpdatedCount++
			}
		}
		s.markSynced(ctx, b.integration)
	}

	return s.finish(res, start)
}
