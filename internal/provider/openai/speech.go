package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"voicedash/internal/provider"
)

// builtinVoices is the fixed voice set of the speech endpoint; there is no
// list API to query.
var builtinVoices = []provider.Voice{
	{ExternalID: "alloy", Name: "Alloy"},
	{ExternalID: "echo", Name: "Echo"},
	{ExternalID: "fable", Name: "Fable"},
	{ExternalID: "onyx", Name: "Onyx"},
	{ExternalID: "nova", Name: "Nova"},
	{ExternalID: "shimmer", Name: "Shimmer"},
}

func (a *Adapter) ListVoices(ctx context.Context) ([]provider.Voice, error) {
	if strings.TrimSpace(a.apiKey) == "" {
		return nil, provider.NewError(provider.KindNotConfigured, Vendor, "ListVoices", fmt.Errorf("missing api key"))
	}
	out := make([]provider.Voice, len(builtinVoices))
	copy(out, builtinVoices)
	return out, nil
}

func (a *Adapter) Synthesize(ctx context.Context, req provider.SynthesizeRequest) (provider.Audio, error) {
	const op = "Synthesize"
	format := req.Format
	if format == "" {
		format = "mp3"
	}
	httpReq, err := a.request(ctx, op, "/audio/speech", map[string]any{
		"model":           defaultTTSModel,
		"input":           req.Text,
		"voice":           req.VoiceID,
		"response_format": format,
	})
	if err != nil {
		return provider.Audio{}, err
	}
	resp, err := a.send(op, httpReq)
	if err != nil {
		return provider.Audio{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Audio{}, provider.NewError(provider.KindTransient, Vendor, op, err)
	}
	return provider.Audio{ContentType: resp.Header.Get("Content-Type"), Bytes: data}, nil
}

func (a *Adapter) Transcribe(ctx context.Context, req provider.TranscribeRequest) (provider.Transcription, error) {
	const op = "Transcribe"
	if strings.TrimSpace(a.apiKey) == "" {
		return provider.Transcription{}, provider.NewError(provider.KindNotConfigured, Vendor, op, fmt.Errorf("missing api key"))
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	filename := req.Filename
	if filename == "" {
		filename = "audio.mp3"
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return provider.Transcription{}, provider.NewError(provider.KindPermanent, Vendor, op, err)
	}
	if _, err := part.Write(req.Bytes); err != nil {
		return provider.Transcription{}, provider.NewError(provider.KindPermanent, Vendor, op, err)
	}
	_ = mw.WriteField("model", defaultSTTModel)
	if req.Language != "" {
		_ = mw.WriteField("language", req.Language)
	}
	if err := mw.Close(); err != nil {
		return provider.Transcription{}, provider.NewError(provider.KindPermanent, Vendor, op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return provider.Transcription{}, provider.NewError(provider.KindPermanent, Vendor, op, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.send(op, httpReq)
	if err != nil {
		return provider.Transcription{}, err
	}
	defer resp.Body.Close()

	var out struct {
		Text     string `json:"text"`
		Language string `json:"language,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return provider.Transcription{}, provider.NewError(provider.KindTransient, Vendor, op, err)
	}
	return provider.Transcription{Text: out.Text, Language: out.Language}, nil
}
