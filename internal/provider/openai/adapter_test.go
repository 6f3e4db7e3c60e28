package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voicedash/internal/provider"
)

func newTestAdapter(t *testing.T, handler http.Handler) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestGenerate(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" {
			t.Errorf("expected default model, got %s", req.Model)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": req.Model,
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "hello"}},
			},
			"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 2},
		})
	}))

	res, err := a.Generate(context.Background(), provider.GenerateRequest{
		Messages: []provider.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Text != "hello" || res.PromptTokens != 3 || res.CompletionTokens != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGenerateStream(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{"Hel", "lo", " world"}
		for _, c := range chunks {
			payload, _ := json.Marshal(map[string]any{
				"choices": []map[string]any{{"delta": map[string]string{"content": c}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))

	stream, err := a.GenerateStream(context.Background(), provider.GenerateRequest{
		Messages: []provider.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	defer stream.Close()

	var got string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("recv failed: %v", err)
		}
		got += chunk
	}
	if got != "Hello world" {
		t.Fatalf("unexpected streamed text: %q", got)
	}

	// Recv after exhaustion stays EOF.
	if _, err := stream.Recv(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("bytes"))
	}))

	audio, err := a.Synthesize(context.Background(), provider.SynthesizeRequest{Text: "hi", VoiceID: "nova"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if string(audio.Bytes) != "bytes" || audio.ContentType != "audio/mpeg" {
		t.Fatalf("unexpected audio: %+v", audio)
	}
}

func TestTranscribe(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not multipart: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("unexpected model %s", r.FormValue("model"))
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "hello there"})
	}))

	tr, err := a.Transcribe(context.Background(), provider.TranscribeRequest{Bytes: []byte("fake-audio")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if tr.Text != "hello there" {
		t.Fatalf("unexpected transcription: %+v", tr)
	}
}

func TestMissingKey(t *testing.T) {
	a := New(Config{})
	if _, err := a.Generate(context.Background(), provider.GenerateRequest{}); !provider.IsNotConfigured(err) {
		t.Fatalf("expected not_configured, got %v", err)
	}
	if _, err := a.ListVoices(context.Background()); !provider.IsNotConfigured(err) {
		t.Fatalf("expected not_configured, got %v", err)
	}
}

func TestRateLimitIsTransient(t *testing.T) {
	a := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	_, err := a.Generate(context.Background(), provider.GenerateRequest{})
	if !provider.IsTransient(err) {
		t.Fatalf("expected transient, got %v", err)
	}
}
