package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/config"
	"github.com/faitholopade/codegate/internal/gate"
)

func limiterArtifact() *codegen.Artifact {
	return &codegen.Artifact{
		Source:   "export const limit = async (req) => { try { await next() } catch (e) {} }\n",
		Language: "typescript",
		Segments: []codegen.Segment{
			{ID: "block_1", Code: "export const limit", Explanation: "Exports the middleware.", Question: "What is exported?"},
			{ID: "block_2", Code: "await next()", Explanation: "Passes control on.", Question: "When does next run?"},
			{ID: "block_3", Code: "catch (e) {}", Explanation: "Swallows errors.", Question: "What happens on error?"},
		},
	}
}

type harness struct {
	mgr      *Manager
	gate     *gate.Machine
	hs       *fakeHandshaker
	dialer   *fakeDialer
	rec      *memRecorder
	outcomes []Outcome
	micErr   error
	mic      int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		gate:   gate.NewMachine(),
		hs:     &fakeHandshaker{url: "wss://example.test/convai"},
		dialer: &fakeDialer{},
		rec:    &memRecorder{},
	}
	h.mgr = NewManager(Options{
		AgentID: "agent-1",
		Microphone: MicrophoneFunc(func(context.Context) error {
			h.mic++
			return h.micErr
		}),
		Handshaker: h.hs,
		Dialer:     h.dialer,
		Gate:       h.gate,
		Recorder:   h.rec,
		OnOutcome:  func(o Outcome) { h.outcomes = append(h.outcomes, o) },
		Log:        zaptest.NewLogger(t),
	})
	return h
}

func (h *harness) ready(t *testing.T) *codegen.Artifact {
	t.Helper()
	a := limiterArtifact()
	require.NoError(t, h.gate.BeginGeneration("rate limiter middleware"))
	require.NoError(t, h.gate.Complete(a))
	return a
}

func agentSays(text string) []byte {
	return []byte(fmt.Sprintf(`{"type":"agent_response","agent_response_event":{"agent_response":%q}}`, text))
}

func texts(s Snapshot) []string {
	out := make([]string, len(s.Transcript))
	for i, e := range s.Transcript {
		out[i] = e.Text
	}
	return out
}

func TestQuizSessionFlow(t *testing.T) {
	h := newHarness(t)
	a := h.ready(t)

	require.NoError(t, h.mgr.Start(context.Background(), a, ModeQuiz, ""))
	assert.Equal(t, 1, h.mic)
	assert.Equal(t, "wss://example.test/convai?agent=agent-1", h.dialer.url)
	assert.Equal(t, QuizPrompt(a), h.dialer.init.Prompt)
	assert.Equal(t, QuizFirstMessage, h.dialer.init.FirstMessage)

	snap := h.mgr.Snapshot()
	assert.Equal(t, PhaseConnecting, snap.Phase)
	assert.Equal(t, SeedScore, snap.Score)
	assert.True(t, snap.Scored)
	assert.Equal(t, gate.StatusReady, h.gate.Status(), "gate waits for the remote to connect")

	h.dialer.handler.OnConnected()
	assert.Equal(t, gate.StatusActive, h.gate.Status())
	snap = h.mgr.Snapshot()
	assert.Equal(t, PhaseConnected, snap.Phase)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, ConnectedNote, snap.Transcript[0].Text)
	assert.True(t, snap.Transcript[0].Synthetic)

	h.dialer.handler.OnMessage(agentSays("Good job, that is right."))
	h.dialer.handler.OnMessage([]byte(`{"type":"user_transcript","user_transcription_event":{"user_transcript":"it refills the bucket"}}`))
	assert.Equal(t, 65, h.mgr.Snapshot().Score)

	h.dialer.handler.OnDisconnected()
	assert.Equal(t, gate.StatusFailed, h.gate.Status())
	require.Len(t, h.outcomes, 1)
	assert.Equal(t, Outcome{SessionID: snap.SessionID, Score: 65, Passed: false}, h.outcomes[0])
	assert.False(t, h.mgr.Active())

	assert.Equal(t, []string{"start", "connected", "end"}, h.rec.actions())
	assert.Len(t, h.rec.entries, 3)
	assert.Equal(t, 65, h.rec.entries[1].Score)
}

func TestQuizPassesAtThreshold(t *testing.T) {
	tests := []struct {
		name   string
		says   []string
		score  int
		status gate.Status
	}{
		{"75 passes", []string{"Correct!", "Exactly right", "not quite", "Good job", "Incorrect, sorry"}, 75, gate.StatusPassed},
		{"65 fails", []string{"Correct!"}, 65, gate.StatusFailed},
		{"80 passes", []string{"Correct!", "Correct!"}, 80, gate.StatusPassed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.mgr.Start(context.Background(), h.ready(t), ModeQuiz, ""))
			h.dialer.handler.OnConnected()
			for _, s := range tt.says {
				h.dialer.handler.OnMessage(agentSays(s))
			}
			require.Equal(t, tt.score, h.mgr.Snapshot().Score)
			h.dialer.handler.OnDisconnected()
			assert.Equal(t, tt.status, h.gate.Status())
		})
	}
}

func TestMissingConfigurationMakesNoCalls(t *testing.T) {
	h := newHarness(t)
	a := h.ready(t)
	cfg := &config.Config{}
	h.mgr.opts.Check = cfg.CheckVoice

	err := h.mgr.Start(context.Background(), a, ModeQuiz, "")
	var cerr *config.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"ELEVENLABS_API_KEY", "ELEVENLABS_AGENT_ID"}, cerr.Missing)

	assert.Zero(t, h.mic)
	assert.Zero(t, h.hs.calls)
	assert.Zero(t, h.dialer.calls)
	assert.Equal(t, gate.StatusReady, h.gate.Status())
	assert.Empty(t, h.mgr.Snapshot().SessionID)
}

func TestStartGuards(t *testing.T) {
	h := newHarness(t)

	err := h.mgr.Start(context.Background(), nil, ModeQuiz, "")
	assert.ErrorIs(t, err, ErrNoArtifact)

	var terr *gate.TransitionError
	err = h.mgr.Start(context.Background(), limiterArtifact(), ModeQuiz, "")
	require.ErrorAs(t, err, &terr, "quiz needs a ready gate")
	assert.Equal(t, gate.StatusIdle, terr.From)

	a := h.ready(t)
	require.NoError(t, h.mgr.Start(context.Background(), a, ModeQuiz, ""))
	assert.ErrorIs(t, h.mgr.Start(context.Background(), a, ModeQuiz, ""), ErrSessionActive)
	assert.ErrorIs(t, h.mgr.Start(context.Background(), a, ModeTutor, "Arrow Functions"), ErrSessionActive)
	assert.Equal(t, 1, h.dialer.calls)

	assert.Error(t, h.mgr.Start(context.Background(), a, Mode("lecture"), ""))
}

func TestSetupFailures(t *testing.T) {
	tests := []struct {
		name    string
		micErr  error
		hsErr   error
		dialErr error
		check   func(t *testing.T, err error)
		text    string
	}{
		{
			name:   "microphone denied",
			micErr: errors.New("no capture device"),
			check: func(t *testing.T, err error) {
				var perr *PermissionError
				assert.ErrorAs(t, err, &perr)
			},
			text: "Failed to start: microphone permission denied: no capture device",
		},
		{
			name:  "invalid agent",
			hsErr: notFoundErr{},
			check: func(t *testing.T, err error) {
				var ierr *InvalidAgentError
				require.ErrorAs(t, err, &ierr)
				assert.Equal(t, "agent-1", ierr.AgentID)
			},
			text: "Failed to start: Invalid Agent ID. Create an agent at elevenlabs.io/app/conversational-ai and update ELEVENLABS_AGENT_ID",
		},
		{
			name:  "handshake",
			hsErr: errors.New("status 500"),
			check: func(t *testing.T, err error) {
				var herr *HandshakeError
				assert.ErrorAs(t, err, &herr)
				var ierr *InvalidAgentError
				assert.False(t, errors.As(err, &ierr))
			},
			text: "Failed to start: Failed to connect to ElevenLabs: status 500",
		},
		{
			name:    "dial",
			dialErr: errors.New("bad handshake"),
			check: func(t *testing.T, err error) {
				var herr *HandshakeError
				assert.ErrorAs(t, err, &herr)
			},
			text: "Failed to start: Failed to connect to ElevenLabs: bad handshake",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.micErr = tt.micErr
			h.hs.err = tt.hsErr
			h.dialer.err = tt.dialErr
			a := h.ready(t)

			err := h.mgr.Start(context.Background(), a, ModeQuiz, "")
			tt.check(t, err)

			snap := h.mgr.Snapshot()
			assert.Equal(t, []string{tt.text}, texts(snap))
			assert.Equal(t, PhaseDisconnected, snap.Phase)
			assert.Equal(t, gate.StatusReady, h.gate.Status())
			assert.False(t, h.mgr.Active())
			assert.Contains(t, h.rec.actions(), "start-failed")

			// A failed setup does not block the next attempt.
			h.micErr, h.hs.err, h.dialer.err = nil, nil, nil
			assert.NoError(t, h.mgr.Start(context.Background(), a, ModeQuiz, ""))
		})
	}
}

func TestTutorSession(t *testing.T) {
	h := newHarness(t)
	a := h.ready(t)

	var serr *SelectionError
	require.ErrorAs(t, h.mgr.Start(context.Background(), a, ModeTutor, ""), &serr)
	assert.Contains(t, serr.Available, "Error Handling")
	require.ErrorAs(t, h.mgr.Start(context.Background(), a, ModeTutor, "Quantum Computing"), &serr)
	assert.Zero(t, h.dialer.calls)

	require.NoError(t, h.mgr.Start(context.Background(), a, ModeTutor, "Error Handling"))
	assert.Contains(t, h.dialer.init.Prompt, `short lecture about "Error Handling"`)
	assert.Equal(t, "Let me teach you about Error Handling. Looking at this code...", h.dialer.init.FirstMessage)

	h.dialer.handler.OnConnected()
	h.dialer.handler.OnMessage(agentSays("Correct use of try and catch"))
	snap := h.mgr.Snapshot()
	assert.False(t, snap.Scored)
	assert.Zero(t, snap.Score)
	assert.Equal(t, gate.StatusReady, h.gate.Status(), "tutor sessions never drive the gate")

	require.NoError(t, h.mgr.End(context.Background()))
	assert.Equal(t, 1, h.dialer.conn.closed)
	snap = h.mgr.Snapshot()
	assert.Equal(t, TutorFarewell, snap.Transcript[len(snap.Transcript)-1].Text)
	assert.Empty(t, h.outcomes)
}

func TestTutorWithoutCode(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Start(context.Background(), nil, ModeTutor, ""))
	assert.Equal(t, tutorPreamble, h.dialer.init.Prompt)
	assert.Empty(t, h.dialer.init.FirstMessage)
	assert.NotContains(t, h.dialer.init.Prompt, "Code Gatekeeper")

	h.dialer.handler.OnConnected()
	assert.Equal(t, []string{TutorGreeting}, texts(h.mgr.Snapshot()))
}

func TestTutorWithoutCodeOnTopic(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Start(context.Background(), nil, ModeTutor, "Closures"))
	assert.Contains(t, h.dialer.init.Prompt, "The user wants to learn about: Closures.")
	assert.Empty(t, h.dialer.init.FirstMessage)
	assert.Equal(t, gate.StatusIdle, h.gate.Status())
}

func TestTransportErrorKeepsStatus(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Start(context.Background(), h.ready(t), ModeQuiz, ""))
	h.dialer.handler.OnConnected()

	h.dialer.handler.OnError(errors.New("socket reset"))
	snap := h.mgr.Snapshot()
	last := snap.Transcript[len(snap.Transcript)-1]
	assert.Equal(t, SpeakerAgent, last.Speaker)
	assert.Equal(t, `Error: socket reset. Make sure your ElevenLabs agent has "Override" enabled in the agent settings.`, last.Text)
	var terr *TransportError
	assert.ErrorAs(t, snap.LastError, &terr)
	assert.Equal(t, gate.StatusActive, h.gate.Status())
	assert.True(t, h.mgr.Active())
}

func TestTranscriptLengthMatchesTextEvents(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Start(context.Background(), nil, ModeTutor, ""))

	events := []string{
		`{"type":"agent_response","agent_response_event":{"agent_response":"one"}}`,
		`{"type":"agent_response","agent_response_event":{"agent_response":""}}`,
		`{"type":"ping","ping_event":{"event_id":1}}`,
		`{"source":"user","message":"two"}`,
		`{"source":"ai","message":"   "}`,
		`not json`,
		`{"type":"transcript","text":"three"}`,
		`{"type":"audio","audio_event":{"audio_base_64":"AAAA"}}`,
		`{"source":"ai","message":"four"}`,
	}
	for _, ev := range events {
		h.mgr.HandleMessage([]byte(ev))
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, texts(h.mgr.Snapshot()))
}

func TestScoreClampedThroughManager(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Start(context.Background(), h.ready(t), ModeQuiz, ""))
	for range 10 {
		h.mgr.HandleMessage(agentSays("That is incorrect."))
	}
	assert.Equal(t, 0, h.mgr.Snapshot().Score)
	for range 10 {
		h.mgr.HandleMessage(agentSays("Exactly."))
	}
	assert.Equal(t, 100, h.mgr.Snapshot().Score)

	// User text never moves the score.
	h.mgr.HandleMessage([]byte(`{"source":"user","message":"I fail to see why"}`))
	assert.Equal(t, 100, h.mgr.Snapshot().Score)
}

func TestEndIsIdempotentAndDropsLateCallbacks(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.mgr.End(context.Background()), "End without a session")

	require.NoError(t, h.mgr.Start(context.Background(), h.ready(t), ModeQuiz, ""))
	h.dialer.handler.OnConnected()
	stale := h.dialer.handler

	require.NoError(t, h.mgr.End(context.Background()))
	require.NoError(t, h.mgr.End(context.Background()))
	assert.Equal(t, 1, h.dialer.conn.closed)
	assert.Equal(t, gate.StatusFailed, h.gate.Status())
	require.Len(t, h.outcomes, 1)

	before := len(h.mgr.Snapshot().Transcript)
	stale.OnMessage(agentSays("Correct!"))
	stale.OnDisconnected()
	stale.OnError(errors.New("late"))
	assert.Len(t, h.mgr.Snapshot().Transcript, before)
	assert.Len(t, h.outcomes, 1)
}

func TestEndBeforeConnectLeavesGateReady(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Start(context.Background(), h.ready(t), ModeQuiz, ""))
	require.NoError(t, h.mgr.End(context.Background()))
	assert.Equal(t, gate.StatusReady, h.gate.Status())
	assert.Empty(t, h.outcomes)
}

func TestSend(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.mgr.Send(context.Background(), "hi"), ErrNotConnected)

	h.dialer.connect = true
	require.NoError(t, h.mgr.Start(context.Background(), h.ready(t), ModeQuiz, ""))
	require.NoError(t, h.mgr.Send(context.Background(), "  it limits requests  "))
	require.NoError(t, h.mgr.Send(context.Background(), "   "))
	assert.Equal(t, []string{"it limits requests"}, h.dialer.conn.sent)

	snap := h.mgr.Snapshot()
	last := snap.Transcript[len(snap.Transcript)-1]
	assert.Equal(t, SpeakerUser, last.Speaker)
	assert.False(t, last.Synthetic)

	h.dialer.conn.err = errors.New("closed pipe")
	var terr *TransportError
	assert.ErrorAs(t, h.mgr.Send(context.Background(), "again"), &terr)
}

func TestRecorderFailureIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.rec.fail = true
	require.NoError(t, h.mgr.Start(context.Background(), h.ready(t), ModeQuiz, ""))
	h.dialer.handler.OnConnected()
	h.mgr.HandleMessage(agentSays("correct"))
	assert.Equal(t, 65, h.mgr.Snapshot().Score)
}

func TestChangesSignal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Start(context.Background(), nil, ModeTutor, ""))
	select {
	case <-h.mgr.Changes():
	default:
		t.Fatal("expected a change signal after Start")
	}
}

func TestTranscriptEntryIDs(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mgr.Start(context.Background(), nil, ModeTutor, ""))
	h.mgr.HandleMessage([]byte(`{"source":"ai","message":"a"}`))
	h.mgr.HandleMessage([]byte(`{"source":"ai","message":"b"}`))
	snap := h.mgr.Snapshot()
	require.Len(t, snap.Transcript, 2)
	assert.NotEqual(t, snap.Transcript[0].ID, snap.Transcript[1].ID)
	assert.True(t, strings.Contains(snap.Transcript[0].ID, "-"))
}
