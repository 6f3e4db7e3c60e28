package syncer

import (
	"context"
	"testing"

	"voicedash/internal/provider"
)

// fakeSpeechTel serves the telephony and text-to-speech capabilities.
type fakeSpeechTel struct {
	id      string
	numbers []provider.PhoneNumber
	voices  []provider.Voice
}

func (f *fakeSpeechTel) ID() string { return f.id }

func (f *fakeSpeechTel) Capabilities() []provider.Capability {
	return []provider.Capability{provider.CapabilityTelephony, provider.CapabilityTextToSpeech}
}

func (f *fakeSpeechTel) Supports(c provider.Capability) bool {
	return provider.Supports(f.Capabilities(), c)
}

func (f *fakeSpeechTel) ListPhoneNumbers(ctx context.Context) ([]provider.PhoneNumber, error) {
	return f.numbers, nil
}

func (f *fakeSpeechTel) CreatePhoneNumber(ctx context.Context, req provider.CreatePhoneNumberRequest) (provider.PhoneNumber, error) {
	return provider.PhoneNumber{}, nil
}

func (f *fakeSpeechTel) DeletePhoneNumber(ctx context.Context, externalID string) error { return nil }

func (f *fakeSpeechTel) PlaceCall(ctx context.Context, req provider.PlaceCallRequest) (provider.CallRef, error) {
	return provider.CallRef{}, nil
}

func (f *fakeSpeechTel) ListVoices(ctx context.Context) ([]provider.Voice, error) {
	return f.voices, nil
}

func (f *fakeSpeechTel) Synthesize(ctx context.Context, req provider.SynthesizeRequest) (provider.Audio, error) {
	return provider.Audio{}, nil
}

func TestSyncPhoneNumbers_Upsert(t *testing.T) {
	fake := &fakeSpeechTel{id: "vapi", numbers: []provider.PhoneNumber{
		{ExternalID: "p1", Number: "+15550100", Active: true},
		{ExternalID: "", Number: "+15550199"},
	}}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncPhoneNumbers(context.Background(), "org1")
	if !res.Success || res.SyncedCount != 1 || res.ErrorCount != 1 {
		t.Fatalf("unexpected first result: %+v", res)
	}

	fake.numbers[0].Label = "support line"
	res = svc.SyncPhoneNumbers(context.Background(), "org1")
	if res.UpdatedCount != 1 || res.SyncedCount != 0 {
		t.Fatalf("unexpected second result: %+v", res)
	}
	pn, err := mem.GetPhoneNumberByExternalID(context.Background(), "org1", "p1")
	if err != nil || pn.Label != "support line" {
		t.Fatalf("update not applied: %+v %v", pn, err)
	}
}

func TestSyncVoices_ScopedByVendor(t *testing.T) {
	a := &fakeSpeechTel{id: "vendor-a", voices: []provider.Voice{{ExternalID: "v1", Name: "Ada"}}}
	b := &fakeSpeechTel{id: "vendor-b", voices: []provider.Voice{{ExternalID: "v1", Name: "Bo"}}}
	svc, mem := newTestService(t, a, b)
	addIntegration(t, mem, "org1", "vendor-a")
	addIntegration(t, mem, "org1", "vendor-b")

	res := svc.SyncVoices(context.Background(), "org1")
	if !res.Success || res.SyncedCount != 2 || res.ErrorCount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	// The same external id from two vendors stays two distinct rows.
	if len(mem.Voices) != 2 {
		t.Fatalf("expected two voices, got %d", len(mem.Voices))
	}
	va, err := mem.GetVoiceByExternalID(context.Background(), "org1", "vendor-a", "v1")
	if err != nil || va.Name != "Ada" {
		t.Fatalf("vendor-a voice wrong: %+v %v", va, err)
	}
}

func TestSyncVoices_Idempotent(t *testing.T) {
	a := &fakeSpeechTel{id: "vendor-a", voices: []provider.Voice{{ExternalID: "v1", Name: "Ada", Language: "en"}}}
	svc, mem := newTestService(t, a)
	addIntegration(t, mem, "org1", "vendor-a")

	_ = svc.SyncVoices(context.Background(), "org1")
	a.voices[0].Language = "en-GB"
	res := svc.SyncVoices(context.Background(), "org1")
	if res.UpdatedCount != 1 {
		t.Fatalf("expected update on resync: %+v", res)
	}
	v, _ := mem.GetVoiceByExternalID(context.Background(), "org1", "vendor-a", "v1")
	if v.Language != "en-GB" {
		t.Fatalf("language not updated: %+v", v)
	}
}
