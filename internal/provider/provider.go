package provider

// Capability tags the behavior sets a vendor adapter can implement.
// An adapter may implement any subset; the sync engine selects adapters
// by capability, never by concrete type.
type Capability string

const (
	CapabilityConversationalAI Capability = "conversational_ai"
	CapabilityTelephony        Capability = "telephony"
	CapabilityLanguageModel    Capability = "language_model"
	CapabilityTextToSpeech     Capability = "text_to_speech"
	CapabilitySpeechToText     Capability = "speech_to_text"
)

// Adapter is the base contract every vendor adapter satisfies.
//
// Rules:
// - No vendor SDK or wire-protocol calls outside adapter packages.
// - Every method that can touch the network takes a context.Context.
// - Vendor errors must be normalized through the Error taxonomy in this
//   package; the sync engine keys retry/skip decisions off Kind.
type Adapter interface {
	// ID is the stable vendor identifier, e.g. "vapi". It is the registry
	// key and is stored on Integration rows.
	ID() string

	Capabilities() []Capability

	// Supports reports whether the adapter implements a capability.
	// Callers must check this instead of attempting a call and catching a
	// not-implemented error.
	Supports(Capability) bool
}

// CredentialScoper is implemented by adapters that can derive a copy bound
// to a tenant integration's credential. The registry holds process-default
// instances; the sync engine derives a scoped copy per integration so that
// one tenant's key never leaks into another's requests.
type CredentialScoper interface {
	WithCredential(apiKey, baseURL string) Adapter
}

// Supports is a helper for adapters that store their capability list.
func Supports(caps []Capability, c Capability) bool {
	for _, have := range caps {
		if have == c {
			return true
		}
	}
	return false
}
