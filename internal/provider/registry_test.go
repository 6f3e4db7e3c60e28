package provider

import (
	"log/slog"
	"testing"
)

type stubAdapter struct {
	id   string
	caps []Capability
}

func (s stubAdapter) ID() string                 { return s.id }
func (s stubAdapter) Capabilities() []Capability { return s.caps }
func (s stubAdapter) Supports(c Capability) bool { return Supports(s.caps, c) }

func TestRegistry_ByIDExact(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.Register(stubAdapter{id: "vapi", caps: []Capability{CapabilityConversationalAI}})

	a, err := r.ByID("vapi")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.ID() != "vapi" {
		t.Fatalf("expected vapi, got %s", a.ID())
	}
}

func TestRegistry_ByIDCapabilityFallback(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.Register(stubAdapter{id: "vapi", caps: []Capability{CapabilityConversationalAI}})
	r.Register(stubAdapter{id: "openai", caps: []Capability{CapabilityLanguageModel}})

	a, err := r.ByID(string(CapabilityLanguageModel))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.ID() != "openai" {
		t.Fatalf("expected openai, got %s", a.ID())
	}

	if _, err := r.ByID("nope"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestRegistry_OverwriteKeepsOrder(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.Register(stubAdapter{id: "a", caps: []Capability{CapabilityConversationalAI}})
	r.Register(stubAdapter{id: "b", caps: []Capability{CapabilityConversationalAI}})

	// Re-register "a" with a different capability set; last wins.
	r.Register(stubAdapter{id: "a", caps: []Capability{CapabilityTelephony}})

	all := r.AllByCapability(CapabilityConversationalAI)
	if len(all) != 1 || all[0].ID() != "b" {
		t.Fatalf("expected only b after overwrite, got %d", len(all))
	}

	tel, err := r.DefaultByCapability(CapabilityTelephony)
	if err != nil || tel.ID() != "a" {
		t.Fatalf("expected a for telephony, got %v %v", tel, err)
	}
}

func TestRegistry_AllByCapabilityOrder(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.Register(stubAdapter{id: "first", caps: []Capability{CapabilityConversationalAI}})
	r.Register(stubAdapter{id: "second", caps: []Capability{CapabilityConversationalAI}})
	r.Register(stubAdapter{id: "other", caps: []Capability{CapabilitySpeechToText}})

	all := r.AllByCapability(CapabilityConversationalAI)
	if len(all) != 2 || all[0].ID() != "first" || all[1].ID() != "second" {
		t.Fatalf("unexpected order: %+v", all)
	}

	d, err := r.DefaultByCapability(CapabilityConversationalAI)
	if err != nil || d.ID() != "first" {
		t.Fatalf("expected first as default, got %v %v", d, err)
	}

	if _, err := r.DefaultByCapability(CapabilityTextToSpeech); err == nil {
		t.Fatalf("expected no-adapter error")
	}
}

func TestKindFromStatus(t *testing.T) {
	cases := map[int]Kind{
		404: KindNotFound,
		401: KindPermanent,
		403: KindPermanent,
		429: KindTransient,
		500: KindTransient,
		503: KindTransient,
		400: KindPermanent,
	}
	for status, want := range cases {
		if got := KindFromStatus(status); got != want {
			t.Fatalf("status %d: expected %s, got %s", status, want, got)
		}
	}
}

func TestKindOf_UnclassifiedIsTransient(t *testing.T) {
	if got := KindOf(errTest); got != KindTransient {
		t.Fatalf("expected transient, got %s", got)
	}
	wrapped := NewError(KindNotFound, "vapi", "GetRecording", errTest)
	if !IsNotFound(wrapped) {
		t.Fatalf("expected not found")
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "boom" }
