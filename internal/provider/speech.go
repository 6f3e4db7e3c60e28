package provider

import "context"

// TextToSpeech lists voices and synthesizes audio.
type TextToSpeech interface {
	Adapter

	ListVoices(ctx context.Context) ([]Voice, error)
	Synthesize(ctx context.Context, req SynthesizeRequest) (Audio, error)
}

type Voice struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Language   string `json:"language,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
}

type SynthesizeRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
	// Format is a vendor format hint, e.g. "mp3".
	Format string `json:"format,omitempty"`
}

type Audio struct {
	ContentType string `json:"content_type,omitempty"`
	Bytes       []byte `json:"-"`
}

// SpeechToText transcribes a recorded byte buffer.
type SpeechToText interface {
	Adapter

	Transcribe(ctx context.Context, req TranscribeRequest) (Transcription, error)
}

type TranscribeRequest struct {
	// Filename hints the container format to the vendor, e.g. "call.mp3".
	Filename string `json:"filename,omitempty"`
	Language string `json:"language,omitempty"`
	Bytes    []byte `json:"-"`
}

type Transcription struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}
