package voice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/faitholopade/codegate/internal/codegen"
	"github.com/faitholopade/codegate/internal/gate"
	"github.com/faitholopade/codegate/internal/logx"
	"github.com/faitholopade/codegate/internal/store"
	"github.com/faitholopade/codegate/internal/topics"
)

// Recorder receives the session audit trail. store.EventRepo satisfies it.
type Recorder interface {
	AppendSessionEvent(ctx context.Context, data store.SessionEventData) error
	AppendTranscript(ctx context.Context, data store.TranscriptEventData) error
}

// Options wires a Manager to its collaborators.
type Options struct {
	AgentID string

	// Check is the credential preflight. A non-nil error aborts Start
	// before any network activity.
	Check func() error

	Microphone Microphone
	Handshaker Handshaker
	Dialer     Dialer

	// Gate receives quiz status transitions. Defaults to a fresh machine.
	Gate *gate.Machine

	// Scorer defaults to DefaultScorer.
	Scorer Scorer

	// Recorder is optional.
	Recorder Recorder

	// OnOutcome is called, outside any lock, when an active quiz ends.
	OnOutcome func(Outcome)

	Log *zap.Logger
	Now func() time.Time
}

type session struct {
	id         string
	mode       Mode
	topic      string
	phase      Phase
	score      int
	transcript []TranscriptEntry
	conn       Conn
	cancel     context.CancelFunc
	// open is true from Start until the session disconnects or fails.
	open    bool
	lastErr error
}

// Manager owns at most one open session. All methods are safe for
// concurrent use; transport callbacks for a session that has since closed
// are dropped.
type Manager struct {
	opts    Options
	log     *zap.Logger
	changes chan struct{}

	mu  sync.Mutex
	cur *session
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	if opts.Gate == nil {
		opts.Gate = gate.NewMachine()
	}
	if len(opts.Scorer.Positive) == 0 && len(opts.Scorer.Negative) == 0 {
		opts.Scorer = DefaultScorer()
	}
	if opts.Microphone == nil {
		opts.Microphone = MicrophoneFunc(func(context.Context) error { return nil })
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Log
	if log == nil {
		log = logx.Named("voice")
	}
	return &Manager{opts: opts, log: log, changes: make(chan struct{}, 1)}
}

// Gate returns the machine the manager drives.
func (m *Manager) Gate() *gate.Machine { return m.opts.Gate }

// Changes delivers a coalesced signal after every state change.
func (m *Manager) Changes() <-chan struct{} { return m.changes }

// Start opens a session. Quiz mode needs an artifact and a ready gate.
// Tutor mode needs one of the artifact's topics when code exists.
//
// Setup failures are returned and also written to the transcript as a
// synthetic agent entry.
func (m *Manager) Start(ctx context.Context, a *codegen.Artifact, mode Mode, topic string) error {
	if m.opts.Check != nil {
		if err := m.opts.Check(); err != nil {
			return err
		}
	}
	if err := validateStart(a, mode, topic); err != nil {
		return err
	}

	m.mu.Lock()
	if m.cur != nil && m.cur.open {
		m.mu.Unlock()
		return ErrSessionActive
	}
	if mode == ModeQuiz {
		if st := m.opts.Gate.Status(); st != gate.StatusReady {
			m.mu.Unlock()
			return &gate.TransitionError{From: st, Event: "start quiz"}
		}
	}
	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		id:     uuid.NewString(),
		mode:   mode,
		topic:  topic,
		phase:  PhaseConnecting,
		open:   true,
		cancel: cancel,
	}
	if mode == ModeQuiz {
		s.score = SeedScore
	}
	m.cur = s
	ev := m.eventLocked(s, "start", "")
	m.mu.Unlock()

	m.log.Info("starting session", zap.String("session", s.id), zap.String("mode", string(mode)), zap.String("topic", topic))
	m.persist(ctx, &ev)
	m.notify()

	if err := m.opts.Microphone.Request(sctx); err != nil {
		return m.abort(ctx, s, &PermissionError{Err: err})
	}

	url, err := m.opts.Handshaker.SignedURL(sctx, m.opts.AgentID)
	if err != nil {
		return m.abort(ctx, s, classifyHandshake(m.opts.AgentID, err))
	}

	var init Init
	switch mode {
	case ModeQuiz:
		init = Init{Prompt: QuizPrompt(a), FirstMessage: QuizFirstMessage}
	case ModeTutor:
		init = Init{Prompt: TutorPrompt(a, topic)}
		if a != nil {
			init.FirstMessage = TutorFirstMessage(topic)
		}
	}

	conn, err := m.opts.Dialer.Dial(sctx, url, init, &sessionHandler{m: m, id: s.id})
	if err != nil {
		return m.abort(ctx, s, &HandshakeError{Err: err})
	}

	m.mu.Lock()
	if !s.open {
		// Ended while dialing.
		m.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	m.mu.Unlock()
	return nil
}

func validateStart(a *codegen.Artifact, mode Mode, topic string) error {
	switch mode {
	case ModeQuiz:
		if a == nil || len(a.Segments) == 0 {
			return ErrNoArtifact
		}
	case ModeTutor:
		if a == nil || strings.TrimSpace(a.Source) == "" {
			return nil
		}
		available := topics.Extract(a.Source)
		if !slices.Contains(available, topic) {
			return &SelectionError{Topic: topic, Available: available}
		}
	default:
		return fmt.Errorf("unknown session mode %q", mode)
	}
	return nil
}

// abort closes a session that failed during setup.
func (m *Manager) abort(ctx context.Context, s *session, cause error) error {
	m.mu.Lock()
	if !s.open {
		m.mu.Unlock()
		return cause
	}
	s.open = false
	s.phase = PhaseDisconnected
	s.lastErr = cause
	s.cancel()
	entry := m.appendLocked(s, SpeakerAgent, startFailedPrefix+cause.Error(), true)
	ev := m.eventLocked(s, "start-failed", cause.Error())
	m.mu.Unlock()

	m.log.Warn("session setup failed", zap.String("session", s.id), zap.Error(cause))
	m.persist(ctx, &ev, entry)
	m.notify()
	return cause
}

// End closes the open session. It is a no-op without one.
func (m *Manager) End(ctx context.Context) error {
	m.mu.Lock()
	s := m.cur
	if s == nil || !s.open {
		m.mu.Unlock()
		return nil
	}
	conn, id := s.conn, s.id
	m.mu.Unlock()

	var err error
	if conn != nil {
		if cerr := conn.Close(); cerr != nil {
			err = &TransportError{Err: cerr}
		}
	}
	m.disconnected(ctx, id)
	return err
}

// Send delivers a typed user message and appends it to the transcript.
func (m *Manager) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	m.mu.Lock()
	s := m.cur
	if s == nil || !s.open || s.phase != PhaseConnected || s.conn == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	conn, id := s.conn, s.id
	m.mu.Unlock()

	if err := conn.SendText(ctx, text); err != nil {
		return &TransportError{Err: err}
	}

	m.mu.Lock()
	s = m.liveLocked(id)
	if s == nil {
		m.mu.Unlock()
		return nil
	}
	entry := m.appendLocked(s, SpeakerUser, text, false)
	m.mu.Unlock()

	m.persist(ctx, nil, entry)
	m.notify()
	return nil
}

// HandleMessage feeds one raw inbound event to the open session.
func (m *Manager) HandleMessage(raw []byte) {
	m.mu.Lock()
	var id string
	if m.cur != nil && m.cur.open {
		id = m.cur.id
	}
	m.mu.Unlock()
	if id != "" {
		m.message(id, raw)
	}
}

// Snapshot returns a copy of the current or most recent session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.cur
	if s == nil {
		return Snapshot{}
	}
	return Snapshot{
		SessionID:  s.id,
		Mode:       s.mode,
		Topic:      s.topic,
		Phase:      s.phase,
		Score:      s.score,
		Scored:     s.mode == ModeQuiz,
		Transcript: slices.Clone(s.transcript),
		LastError:  s.lastErr,
	}
}

// Active reports whether a session is open.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur != nil && m.cur.open
}

func (m *Manager) connected(id string) {
	m.mu.Lock()
	s := m.liveLocked(id)
	if s == nil || s.phase == PhaseConnected {
		m.mu.Unlock()
		return
	}
	s.phase = PhaseConnected
	note := ConnectedNote
	if s.mode == ModeTutor && s.topic == "" {
		note = TutorGreeting
	}
	entry := m.appendLocked(s, SpeakerAgent, note, true)
	if s.mode == ModeQuiz {
		if err := m.opts.Gate.Activate(); err != nil {
			m.log.Warn("gate refused activation", zap.Error(err))
		}
	}
	ev := m.eventLocked(s, "connected", "")
	m.mu.Unlock()

	m.persist(context.Background(), &ev, entry)
	m.notify()
}

func (m *Manager) disconnected(ctx context.Context, id string) {
	m.mu.Lock()
	s := m.liveLocked(id)
	if s == nil {
		m.mu.Unlock()
		return
	}
	s.open = false
	s.phase = PhaseDisconnected
	s.conn = nil
	s.cancel()

	var entries []store.TranscriptEventData
	var outcome *Outcome
	switch s.mode {
	case ModeQuiz:
		if st, ok := m.opts.Gate.Conclude(s.score); ok {
			outcome = &Outcome{SessionID: s.id, Score: s.score, Passed: st == gate.StatusPassed}
		}
	case ModeTutor:
		entries = append(entries, m.appendLocked(s, SpeakerAgent, TutorFarewell, true))
	}
	ev := m.eventLocked(s, "end", "")
	m.mu.Unlock()

	m.log.Info("session ended", zap.String("session", id), zap.Int("score", ev.Score), zap.String("status", ev.Status))
	m.persist(ctx, &ev, entries...)
	if outcome != nil && m.opts.OnOutcome != nil {
		m.opts.OnOutcome(*outcome)
	}
	m.notify()
}

func (m *Manager) message(id string, raw []byte) {
	speaker, text, ok := Normalize(raw)
	if !ok {
		return
	}

	m.mu.Lock()
	s := m.liveLocked(id)
	if s == nil {
		m.mu.Unlock()
		return
	}
	if s.mode == ModeQuiz && speaker == SpeakerAgent {
		s.score = m.opts.Scorer.Apply(s.score, text)
	}
	entry := m.appendLocked(s, speaker, text, false)
	m.mu.Unlock()

	m.persist(context.Background(), nil, entry)
	m.notify()
}

func (m *Manager) transportError(id string, err error) {
	if err == nil {
		err = errors.New("connection failed")
	}
	m.mu.Lock()
	s := m.liveLocked(id)
	if s == nil {
		m.mu.Unlock()
		return
	}
	terr := &TransportError{Err: err}
	s.lastErr = terr
	entry := m.appendLocked(s, SpeakerAgent, terr.Error(), true)
	ev := m.eventLocked(s, "error", err.Error())
	m.mu.Unlock()

	m.log.Warn("transport error", zap.String("session", id), zap.Error(err))
	m.persist(context.Background(), &ev, entry)
	m.notify()
}

func (m *Manager) liveLocked(id string) *session {
	if m.cur == nil || m.cur.id != id || !m.cur.open {
		return nil
	}
	return m.cur
}

// appendLocked adds an entry and returns its audit record.
func (m *Manager) appendLocked(s *session, speaker Speaker, text string, synthetic bool) store.TranscriptEventData {
	now := m.opts.Now()
	e := TranscriptEntry{
		ID:        fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8]),
		Speaker:   speaker,
		Text:      text,
		CreatedAt: now,
		Synthetic: synthetic,
	}
	s.transcript = append(s.transcript, e)
	return store.TranscriptEventData{
		SessionID: s.id,
		EntryID:   e.ID,
		Speaker:   string(speaker),
		Text:      text,
		Synthetic: synthetic,
		Score:     s.score,
	}
}

func (m *Manager) eventLocked(s *session, action, detail string) store.SessionEventData {
	ev := store.SessionEventData{
		SessionID: s.id,
		Mode:      string(s.mode),
		Action:    action,
		Topic:     s.topic,
		Score:     s.score,
		Detail:    detail,
	}
	if s.mode == ModeQuiz {
		ev.Status = string(m.opts.Gate.Status())
	}
	return ev
}

// persist writes audit rows. Failures are logged and never surface.
func (m *Manager) persist(ctx context.Context, ev *store.SessionEventData, entries ...store.TranscriptEventData) {
	if m.opts.Recorder == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if ev != nil {
		if err := m.opts.Recorder.AppendSessionEvent(ctx, *ev); err != nil {
			m.log.Warn("failed to record session event", zap.Error(err))
		}
	}
	for _, e := range entries {
		if err := m.opts.Recorder.AppendTranscript(ctx, e); err != nil {
			m.log.Warn("failed to record transcript entry", zap.Error(err))
		}
	}
}

func (m *Manager) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// sessionHandler binds transport callbacks to one session id.
type sessionHandler struct {
	m  *Manager
	id string
}

func (h *sessionHandler) OnConnected()         { h.m.connected(h.id) }
func (h *sessionHandler) OnDisconnected()      { h.m.disconnected(context.Background(), h.id) }
func (h *sessionHandler) OnMessage(raw []byte) { h.m.message(h.id, raw) }
func (h *sessionHandler) OnError(err error)    { h.m.transportError(h.id, err) }
