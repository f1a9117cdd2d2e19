package capture

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxnote/backend/pkg/gen"
	"github.com/voxnote/backend/services/notes/entity"
)

// ErrNoActiveSession is returned when a recognition event arrives while no
// capture session is running.
var ErrNoActiveSession = errors.New("no active capture session")

type State int

const (
	Idle State = iota
	Capturing
	Finalized
)

func (s State) String() string {
	switch s {
	case Capturing:
		return "capturing"
	case Finalized:
		return "finalized"
	default:
		return "idle"
	}
}

// session accumulates recognition events for one live capture. Interim
// results overwrite the running partial; finalized chunks are appended and
// only become a transcript when the session is explicitly stopped.
type session struct {
	id        string
	partial   string
	finals    []string
	startedAt time.Time
}

func (s *session) text() string {
	parts := make([]string, 0, len(s.finals)+1)
	for _, f := range s.finals {
		if strings.TrimSpace(f) != "" {
			parts = append(parts, strings.TrimSpace(f))
		}
	}
	if strings.TrimSpace(s.partial) != "" {
		parts = append(parts, strings.TrimSpace(s.partial))
	}
	return strings.Join(parts, " ")
}

// Manager owns at most one live capture session. Starting a new session
// implicitly cancels the previous one; cancellation discards un-finalized
// state and performs no network compensation.
type Manager struct {
	mu      sync.Mutex
	current *session
	ids     gen.IDGenerator
	log     *slog.Logger
}

func NewManager(ids gen.IDGenerator, log *slog.Logger) *Manager {
	return &Manager{
		ids: ids,
		log: log,
	}
}

// Start begins a new capture session and returns its id.
func (m *Manager) Start() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.log.Warn("discarding unfinished capture session",
			slog.String("session_id", m.current.id))
	}

	m.current = &session{
		id:        m.ids.Next(),
		startedAt: time.Now(),
	}
	m.log.Info("capture session started", slog.String("session_id", m.current.id))

	return m.current.id
}

// Partial records an interim recognition result. It replaces any previous
// partial and is never treated as final.
func (m *Manager) Partial(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoActiveSession
	}

	m.current.partial = text
	return nil
}

// Final appends a finalized recognition chunk and clears the partial it
// supersedes.
func (m *Manager) Final(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoActiveSession
	}

	m.current.finals = append(m.current.finals, text)
	m.current.partial = ""
	return nil
}

// Stop finalizes the active session and returns the accumulated transcript.
// A session whose text is empty or whitespace-only fails with
// entity.ErrEmptyTranscript; either way the manager returns to idle.
func (m *Manager) Stop() (entity.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return entity.Transcript{}, ErrNoActiveSession
	}

	sess := m.current
	m.current = nil

	text := sess.text()
	if strings.TrimSpace(text) == "" {
		m.log.Warn("capture session stopped without speech",
			slog.String("session_id", sess.id))
		return entity.Transcript{}, entity.ErrEmptyTranscript
	}

	m.log.Info("capture session finalized",
		slog.String("session_id", sess.id),
		slog.Int("text_length", len(text)))

	return entity.Transcript{
		Text:       text,
		Source:     entity.SourceLiveSpeech,
		CapturedAt: time.Now(),
	}, nil
}

// Cancel discards the active session, if any.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.log.Info("capture session cancelled", slog.String("session_id", m.current.id))
		m.current = nil
	}
}

// State reports the manager's current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return Idle
	}
	return Capturing
}
