package syncer

import (
	"context"

	"voicedash/internal/audiostore"
	"voicedash/internal/provider"
	"voicedash/internal/store"
)

// fetchAudio runs the four-step audio artifact pipeline for one call log:
// request the recording, persist bytes plus sidecar, derive the playback
// reference, patch the CallLog. Each step is separately observable in the
// logs for diagnostics.
//
// Outcomes:
//   - vendor returns bytes   -> status available, key + playback path set
//   - vendor confirms absence -> status unavailable (terminal, not an error)
//   - anything else           -> status failed (retried next pass), error returned
func (s *Service) fetchAudio(ctx context.Context, convai provider.ConversationalAI, cl store.CallLog) error {
	log := s.log.With("org", cl.OrgID, "call", cl.ID, "conversation", cl.ConversationID)

	s.patchAudio(ctx, cl, store.AudioPatch{Status: store.AudioStatusPending})

	rec, err := convai.GetRecording(ctx, cl.ConversationID)
	if err != nil {
		if provider.IsNotFound(err) {
			log.Info("vendor reports no recording")
			s.patchAudio(ctx, cl, store.AudioPatch{Status: store.AudioStatusUnavailable})
			return nil
		}
		log.Warn("recording fetch failed", "err", err)
		s.patchAudio(ctx, cl, store.AudioPatch{Status: store.AudioStatusFailed})
		return err
	}

	fetchedAt := s.now()
	key := audiostore.BuildKey(cl.ConversationID, fetchedAt)
	meta := audiostore.Metadata{
		ConversationID: cl.ConversationID,
		CallID:         cl.ID,
		OrgID:          cl.OrgID,
		ContentType:    rec.ContentType,
		UploadedAt:     fetchedAt,
	}
	if err := s.audio.Save(key, rec.Bytes, meta); err != nil {
		log.Error("recording persist failed", "key", key, "err", err)
		s.patchAudio(ctx, cl, store.AudioPatch{Status: store.AudioStatusFailed})
		return err
	}
	log.Info("recording stored", "key", key, "size_bytes", len(rec.Bytes))

	// Asset row and status flip are one write. On failure the call stays
	// pending and the next pass refetches under a fresh key.
	playback := audiostore.PlaybackPath(key)
	asset := store.AudioAsset{
		Key:            key,
		OrgID:          cl.OrgID,
		CallID:         cl.ID,
		ConversationID: cl.ConversationID,
		SizeBytes:      int64(len(rec.Bytes)),
		UploadedAt:     fetchedAt,
	}
	patch := store.AudioPatch{
		Status:       store.AudioStatusAvailable,
		AudioKey:     &key,
		PlaybackPath: &playback,
		FetchedAt:    &fetchedAt,
	}
	if err := s.store.AttachAudio(ctx, asset, patch); err != nil {
		log.Error("audio attach failed", "key", key, "err", err)
		return err
	}
	return nil
}

// patchAudio applies a status transition, logging rather than failing when
// the write is refused; audio status is advisory metadata on the CallLog.
func (s *Service) patchAudio(ctx context.Context, cl store.CallLog, patch store.AudioPatch) {
	if err := s.store.UpdateCallAudioStatus(ctx, cl.OrgID, cl.ID, patch); err != nil {
		s.log.Warn("audio status patch failed", "call", cl.ID, "status", patch.Status, "err", err)
	}
}
