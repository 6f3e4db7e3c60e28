package syncer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"voicedash/internal/audiostore"
	"voicedash/internal/provider"
	"voicedash/internal/store"
)

// fakeConvAI is a scriptable conversational-AI adapter.
type fakeConvAI struct {
	id string

	agents        []provider.RemoteAgent
	listAgentsErr error

	conversations []provider.Conversation
	listConvErr   error
	details       map[string]provider.Conversation

	transcripts map[string]provider.Transcript

	recordings   map[string][]byte
	recordingErr map[string]error
}

func (f *fakeConvAI) ID() string { return f.id }

func (f *fakeConvAI) Capabilities() []provider.Capability {
	return []provider.Capability{provider.CapabilityConversationalAI}
}

func (f *fakeConvAI) Supports(c provider.Capability) bool {
	return provider.Supports(f.Capabilities(), c)
}

func (f *fakeConvAI) CreateAgent(ctx context.Context, spec provider.AgentSpec) (provider.RemoteAgent, error) {
	return provider.RemoteAgent{}, errors.New("not scripted")
}

func (f *fakeConvAI) UpdateAgent(ctx context.Context, id string, spec provider.AgentSpec) (provider.RemoteAgent, error) {
	return provider.RemoteAgent{}, errors.New("not scripted")
}

func (f *fakeConvAI) DeleteAgent(ctx context.Context, id string) error { return nil }

func (f *fakeConvAI) GetAgent(ctx context.Context, id string) (provider.RemoteAgent, error) {
	return provider.RemoteAgent{}, provider.NewError(provider.KindNotFound, f.id, "GetAgent", nil)
}

func (f *fakeConvAI) ListAgents(ctx context.Context) ([]provider.RemoteAgent, error) {
	if f.listAgentsErr != nil {
		return nil, f.listAgentsErr
	}
	return f.agents, nil
}

func (f *fakeConvAI) ListConversations(ctx context.Context, req provider.ListConversationsRequest) ([]provider.Conversation, error) {
	if f.listConvErr != nil {
		return nil, f.listConvErr
	}
	out := f.conversations
	if req.Limit > 0 && len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func (f *fakeConvAI) GetConversation(ctx context.Context, id string) (provider.Conversation, error) {
	if f.details != nil {
		if d, ok := f.details[id]; ok {
			return d, nil
		}
	}
	return provider.Conversation{}, provider.NewError(provider.KindTransient, f.id, "GetConversation", errors.New("detail unavailable"))
}

func (f *fakeConvAI) GetTranscript(ctx context.Context, id string) (provider.Transcript, error) {
	if t, ok := f.transcripts[id]; ok {
		return t, nil
	}
	return provider.Transcript{}, provider.NewError(provider.KindNotFound, f.id, "GetTranscript", nil)
}

func (f *fakeConvAI) GetRecording(ctx context.Context, id string) (provider.Recording, error) {
	if err, ok := f.recordingErr[id]; ok {
		return provider.Recording{}, err
	}
	if data, ok := f.recordings[id]; ok {
		return provider.Recording{ConversationID: id, ContentType: "audio/mpeg", Bytes: data}, nil
	}
	return provider.Recording{}, provider.NewError(provider.KindNotFound, f.id, "GetRecording", nil)
}

func (f *fakeConvAI) OpenRealtimeSession(ctx context.Context, req provider.RealtimeSessionRequest) (provider.RealtimeSession, error) {
	return provider.RealtimeSession{}, errors.New("not scripted")
}

// slowConvAI stalls listing to exercise the dashboard deadline.
type slowConvAI struct {
	fakeConvAI
	delay time.Duration
}

func (s *slowConvAI) ListAgents(ctx context.Context) ([]provider.RemoteAgent, error) {
	time.Sleep(s.delay)
	return s.fakeConvAI.ListAgents(ctx)
}

func newTestService(t *testing.T, adapters ...provider.Adapter) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	reg := provider.NewRegistry(slog.Default())
	for _, a := range adapters {
		reg.Register(a)
	}
	audio, err := audiostore.New(t.TempDir())
	if err != nil {
		t.Fatalf("audio store init: %v", err)
	}
	return New(mem, reg, audio, slog.Default()), mem
}

func addIntegration(t *testing.T, mem *store.Memory, orgID, vendor string) store.Integration {
	t.Helper()
	in, err := mem.CreateIntegration(context.Background(), store.Integration{
		OrgID:  orgID,
		Vendor: vendor,
		APIKey: "key-" + vendor,
		Active: true,
	})
	if err != nil {
		t.Fatalf("create integration: %v", err)
	}
	return in
}

func TestSyncAgents_CreateThenUpdate(t *testing.T) {
	fake := &fakeConvAI{id: "vapi", agents: []provider.RemoteAgent{
		{ExternalID: "a1", Name: "Support", VoiceID: "v1", Language: "en"},
	}}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncAgents(context.Background(), "org1")
	if !res.Success || res.SyncedCount != 1 || res.UpdatedCount != 0 || res.ErrorCount != 0 {
		t.Fatalf("unexpected first result: %+v", res)
	}

	fake.agents[0].Name = "Support v2"
	res = svc.SyncAgents(context.Background(), "org1")
	if !res.Success || res.SyncedCount != 0 || res.UpdatedCount != 1 {
		t.Fatalf("unexpected second result: %+v", res)
	}

	agents, _ := mem.ListAgents(context.Background(), "org1")
	if len(agents) != 1 {
		t.Fatalf("expected exactly one agent, got %d", len(agents))
	}
	if agents[0].Name != "Support v2" {
		t.Fatalf("expected updated name, got %q", agents[0].Name)
	}
}

func TestSyncAgents_MissingExternalIDSkipped(t *testing.T) {
	fake := &fakeConvAI{id: "vapi", agents: []provider.RemoteAgent{
		{ExternalID: "", Name: "ghost"},
		{ExternalID: "a2", Name: "real"},
	}}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncAgents(context.Background(), "org1")
	if !res.Success {
		t.Fatalf("partial failures must not fail the run: %+v", res)
	}
	if res.SyncedCount != 1 || res.ErrorCount != 1 {
		t.Fatalf("expected 1 synced, 1 error, got %+v", res)
	}
}

func TestSyncCallLogs_Idempotence(t *testing.T) {
	fake := &fakeConvAI{
		id:            "vapi",
		conversations: []provider.Conversation{{ExternalID: "c1", DurationSeconds: 30}},
		details: map[string]provider.Conversation{
			"c1": {ExternalID: "c1", DurationSeconds: 30, Status: "completed"},
		},
	}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	first := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !first.Success || first.SyncedCount != 1 || first.UpdatedCount != 0 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !second.Success || second.SyncedCount != 0 || second.UpdatedCount != 1 {
		t.Fatalf("unexpected second result: %+v", second)
	}

	logs, _ := mem.ListCallLogs(context.Background(), "org1", store.CallLogFilter{})
	if len(logs) != 1 {
		t.Fatalf("dedup violated: %d call logs for one conversation", len(logs))
	}
	if logs[0].Status != "completed" {
		t.Fatalf("detail fetch not applied: %+v", logs[0])
	}
}

func TestSyncCallLogs_MissingKeySkipped(t *testing.T) {
	fake := &fakeConvAI{id: "vapi", conversations: []provider.Conversation{
		{ExternalID: "", DurationSeconds: 10},
	}}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !res.Success || res.ErrorCount != 1 || res.SyncedCount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	logs, _ := mem.ListCallLogs(context.Background(), "org1", store.CallLogFilter{})
	if len(logs) != 0 {
		t.Fatalf("no call log may be created without a conversation id")
	}
}

func TestSyncCallLogs_PartialFailureIsolation(t *testing.T) {
	broken := &fakeConvAI{
		id:          "broken",
		listConvErr: provider.NewError(provider.KindPermanent, "broken", "ListConversations", errors.New("expired credential")),
	}
	healthy := &fakeConvAI{id: "vapi", conversations: []provider.Conversation{
		{ExternalID: "c9", DurationSeconds: 12},
	}}
	svc, mem := newTestService(t, broken, healthy)
	addIntegration(t, mem, "org1", "broken")
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !res.Success {
		t.Fatalf("integration failure must not fail the run: %+v", res)
	}
	if res.ErrorCount != 1 || res.SyncedCount != 1 {
		t.Fatalf("expected broken counted and healthy synced, got %+v", res)
	}
}

func TestSyncCallLogs_TwoIntegrationsScenario(t *testing.T) {
	x := &fakeConvAI{id: "vendor-x", conversations: []provider.Conversation{
		{ExternalID: "c1", DurationSeconds: 30},
	}}
	y := &fakeConvAI{id: "vendor-y", conversations: []provider.Conversation{
		{ExternalID: "c2", DurationSeconds: 0},
	}}
	svc, mem := newTestService(t, x, y)
	addIntegration(t, mem, "org1", "vendor-x")
	addIntegration(t, mem, "org1", "vendor-y")

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !res.Success || res.SyncedCount != 2 || res.ErrorCount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	logs, _ := mem.ListCallLogs(context.Background(), "org1", store.CallLogFilter{})
	if len(logs) != 2 {
		t.Fatalf("expected exactly two call logs, got %d", len(logs))
	}
}

func TestSyncCallLogs_AgentReferenceResolution(t *testing.T) {
	fake := &fakeConvAI{id: "vapi", conversations: []provider.Conversation{
		{ExternalID: "c1", AgentExternalID: "known"},
		{ExternalID: "c2", AgentExternalID: "unknown"},
	}}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")
	agent, _ := mem.CreateAgent(context.Background(), store.Agent{OrgID: "org1", ExternalID: "known", Vendor: "vapi", Name: "A"})

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !res.Success || res.ErrorCount != 0 {
		t.Fatalf("unknown agent reference must not error: %+v", res)
	}

	c1, _ := mem.GetCallLogByConversationID(context.Background(), "org1", "c1")
	if c1.AgentID != agent.ID {
		t.Fatalf("expected resolved agent ref, got %q", c1.AgentID)
	}
	c2, _ := mem.GetCallLogByConversationID(context.Background(), "org1", "c2")
	if c2.AgentID != "" {
		t.Fatalf("expected empty agent ref for unknown agent, got %q", c2.AgentID)
	}
}

func TestSyncCallLogs_TranscriptSerialized(t *testing.T) {
	fake := &fakeConvAI{
		id:            "vapi",
		conversations: []provider.Conversation{{ExternalID: "c1"}},
		transcripts: map[string]provider.Transcript{
			"c1": {ConversationID: "c1", Turns: []provider.TranscriptTurn{{Role: "user", Text: "hi"}}},
		},
	}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{IncludeTranscripts: true})
	if !res.Success {
		t.Fatalf("unexpected result: %+v", res)
	}
	cl, _ := mem.GetCallLogByConversationID(context.Background(), "org1", "c1")
	if cl.Transcript == "" {
		t.Fatalf("expected serialized transcript")
	}

	// Without the flag the transcript is never fetched.
	fake.conversations = []provider.Conversation{{ExternalID: "c3"}}
	fake.transcripts["c3"] = provider.Transcript{ConversationID: "c3"}
	_ = svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	cl3, _ := mem.GetCallLogByConversationID(context.Background(), "org1", "c3")
	if cl3.Transcript != "" {
		t.Fatalf("transcript fetched without IncludeTranscripts")
	}
}

func TestAudio_RecordingStored(t *testing.T) {
	fake := &fakeConvAI{
		id:            "vapi",
		conversations: []provider.Conversation{{ExternalID: "c1"}},
		recordings:    map[string][]byte{"c1": []byte("mp3-data")},
	}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !res.Success || res.ErrorCount != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	cl, _ := mem.GetCallLogByConversationID(context.Background(), "org1", "c1")
	if cl.AudioStatus != store.AudioStatusAvailable {
		t.Fatalf("expected available, got %q", cl.AudioStatus)
	}
	if cl.AudioKey == "" || cl.PlaybackPath != "/audio/"+cl.AudioKey {
		t.Fatalf("unexpected audio key/playback: %q %q", cl.AudioKey, cl.PlaybackPath)
	}
	if cl.AudioFetchedAt == nil {
		t.Fatalf("expected fetch timestamp")
	}
	if len(mem.AudioAssets) != 1 || mem.AudioAssets[0].SizeBytes != int64(len("mp3-data")) {
		t.Fatalf("expected one audio asset: %+v", mem.AudioAssets)
	}

	f, err := svc.audio.Open(cl.AudioKey)
	if err != nil {
		t.Fatalf("stored recording not readable: %v", err)
	}
	f.Close()
}

func TestAudio_NotFoundIsTerminalUnavailable(t *testing.T) {
	fake := &fakeConvAI{
		id:            "vapi",
		conversations: []provider.Conversation{{ExternalID: "c1"}},
		// no recordings scripted: GetRecording reports not found
	}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !res.Success || res.ErrorCount != 0 {
		t.Fatalf("vendor-confirmed absence is not an error: %+v", res)
	}
	cl, _ := mem.GetCallLogByConversationID(context.Background(), "org1", "c1")
	if cl.AudioStatus != store.AudioStatusUnavailable {
		t.Fatalf("expected unavailable, got %q", cl.AudioStatus)
	}
	if len(mem.AudioAssets) != 0 {
		t.Fatalf("no audio asset may be created on 404")
	}

	// unavailable is never retried: make a recording appear and resync.
	fake.recordings = map[string][]byte{"c1": []byte("late")}
	_ = svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	cl, _ = mem.GetCallLogByConversationID(context.Background(), "org1", "c1")
	if cl.AudioStatus != store.AudioStatusUnavailable {
		t.Fatalf("unavailable must be terminal, got %q", cl.AudioStatus)
	}
}

func TestAudio_TransientFailureRetriedNextPass(t *testing.T) {
	fake := &fakeConvAI{
		id:            "vapi",
		conversations: []provider.Conversation{{ExternalID: "c1"}},
		recordingErr: map[string]error{
			"c1": provider.NewError(provider.KindTransient, "vapi", "GetRecording", errors.New("503")),
		},
	}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !res.Success {
		t.Fatalf("audio failure must not fail the upsert: %+v", res)
	}
	if res.ErrorCount != 1 {
		t.Fatalf("transient audio failure counts as error: %+v", res)
	}
	cl, _ := mem.GetCallLogByConversationID(context.Background(), "org1", "c1")
	if cl.AudioStatus != store.AudioStatusFailed {
		t.Fatalf("expected failed, got %q", cl.AudioStatus)
	}

	// Vendor recovers; the next pass succeeds.
	delete(fake.recordingErr, "c1")
	fake.recordings = map[string][]byte{"c1": []byte("ok now")}
	res = svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{})
	if !res.Success || res.ErrorCount != 0 {
		t.Fatalf("unexpected retry result: %+v", res)
	}
	cl, _ = mem.GetCallLogByConversationID(context.Background(), "org1", "c1")
	if cl.AudioStatus != store.AudioStatusAvailable {
		t.Fatalf("expected available after retry, got %q", cl.AudioStatus)
	}
}

func TestSyncDashboard_Timeout(t *testing.T) {
	slow := &slowConvAI{
		fakeConvAI: fakeConvAI{id: "vapi"},
		delay:      200 * time.Millisecond,
	}
	mem := store.NewMemory()
	reg := provider.NewRegistry(slog.Default())
	reg.Register(slow)
	audio, _ := audiostore.New(t.TempDir())
	svc := New(mem, reg, audio, slog.Default(), WithDashboardTimeout(30*time.Millisecond))
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncDashboard(context.Background(), "org1", "")
	if res.Success {
		t.Fatalf("expected timeout failure: %+v", res)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "timed out") {
		t.Fatalf("expected timeout message, got %+v", res.Errors)
	}
}

func TestSyncDashboard_RunsBothPhases(t *testing.T) {
	fake := &fakeConvAI{
		id:            "vapi",
		agents:        []provider.RemoteAgent{{ExternalID: "a1", Name: "A"}},
		conversations: []provider.Conversation{{ExternalID: "c1"}},
	}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncDashboard(context.Background(), "org1", "")
	if !res.Success || res.SyncedCount != 2 {
		t.Fatalf("expected agent+call synced, got %+v", res)
	}
	agents, _ := mem.ListAgents(context.Background(), "org1")
	logs, _ := mem.ListCallLogs(context.Background(), "org1", store.CallLogFilter{})
	if len(agents) != 1 || len(logs) != 1 {
		t.Fatalf("expected 1 agent and 1 call log, got %d/%d", len(agents), len(logs))
	}
}

func TestSyncAll_FailureTolerantJoin(t *testing.T) {
	fake := &fakeConvAI{
		id:            "vapi",
		agents:        []provider.RemoteAgent{{ExternalID: "a1", Name: "A"}},
		conversations: []provider.Conversation{{ExternalID: "c1"}},
	}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")
	// A second integration whose vendor has no adapter: its category runs
	// record errors but the others complete.
	addIntegration(t, mem, "org1", "missing-vendor")

	res := svc.SyncAll(context.Background(), "org1")
	if !res.Success {
		t.Fatalf("category-level record errors must not fail the join: %+v", res)
	}
	if res.SyncedCount != 2 {
		t.Fatalf("expected agent and call synced, got %+v", res)
	}
	if res.ErrorCount == 0 {
		t.Fatalf("expected missing-vendor errors to be recorded")
	}
}

func TestSyncCallLogs_UnknownOrgFails(t *testing.T) {
	svc, _ := newTestService(t)
	res := svc.SyncCallLogs(context.Background(), "", CallLogOptions{})
	if res.Success {
		t.Fatalf("engine-level failure must report success=false: %+v", res)
	}
}

func TestSyncCallLogs_UnknownAgentFilterDoesNotWiden(t *testing.T) {
	fake := &fakeConvAI{id: "vapi", conversations: []provider.Conversation{
		{ExternalID: "c1", DurationSeconds: 30},
		{ExternalID: "c2", DurationSeconds: 45},
	}}
	svc, mem := newTestService(t, fake)
	addIntegration(t, mem, "org1", "vapi")

	res := svc.SyncCallLogs(context.Background(), "org1", CallLogOptions{AgentID: "no-such-agent"})
	if res.ErrorCount != 1 || res.SyncedCount != 0 {
		t.Fatalf("unresolvable filter must stop the run, got %+v", res)
	}
	logs, _ := mem.ListCallLogs(context.Background(), "org1", store.CallLogFilter{})
	if len(logs) != 0 {
		t.Fatalf("filter fell back to an unfiltered sync: %d call logs", len(logs))
	}
}

func TestResultDurationUsesInjectedClock(t *testing.T) {
	mem := store.NewMemory()
	reg := provider.NewRegistry(slog.Default())
	audio, err := audiostore.New(t.TempDir())
	if err != nil {
		t.Fatalf("audio store init: %v", err)
	}
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := New(mem, reg, audio, slog.Default(), WithClock(func() time.Time { return fixed }))

	res := svc.SyncAgents(context.Background(), "org1")
	if res.DurationMillis != 0 {
		t.Fatalf("frozen clock must yield zero duration, got %d", res.DurationMillis)
	}
}
