package conversation

import (
	"context"
	"errors"
	log "log/slog"

	"voxchat/internal/failure"
)

var errEmptyReply = errors.New("empty reply from model")

// Manager owns the per-session conversations and talks to the model.
type Manager struct {
	store    *Store
	gen      Generator
	preamble string
	logger   *log.Logger
}

type Option func(*Manager)

// WithPreamble replaces DefaultPreamble. An empty string keeps the default.
func WithPreamble(p string) Option {
	return func(m *Manager) {
		if p != "" {
			m.preamble = p
		}
	}
}

// WithStore shares an existing store.
func WithStore(s *Store) Option {
	return func(m *Manager) { m.store = s }
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(gen Generator, opts ...Option) *Manager {
	m := &Manager{
		gen:      gen,
		preamble: DefaultPreamble,
		logger:   log.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.store == nil {
		m.store = NewStore()
	}
	return m
}

func (m *Manager) Preamble() string { return m.preamble }

func (m *Manager) Store() *Store { return m.store }

// Submit sends userText to the model within sessionID's conversation and
// returns the reply verbatim. On success the user and assistant turns are
// appended; on failure the conversation is left exactly as it was and the
// error is a failure.Generation.
func (m *Manager) Submit(ctx context.Context, sessionID, userText string) (string, error) {
	if sessionID == "" {
		sessionID = DefaultSession
	}

	sess := m.store.acquire(sessionID, true)
	defer sess.mu.Unlock()

	prompt := BuildPrompt(m.preamble, userText)
	history := sess.conv.Turns()

	m.logger.Debug("Submitting", "session", sessionID, "turns", len(history))

	reply, err := m.gen.Generate(ctx, history, prompt)
	if err != nil {
		m.logger.Warn("Generation failed", "session", sessionID, "err", err)
		return "", failure.New(failure.Generation, "generate", err)
	}
	if reply == "" {
		return "", failure.New(failure.Generation, "generate", errEmptyReply)
	}

	sess.conv.appendExchange(userText, reply)
	return reply, nil
}

// Reset replaces sessionID's conversation with an empty one. Resetting an
// unknown session is a no-op and does not create it.
func (m *Manager) Reset(sessionID string) {
	if sessionID == "" {
		sessionID = DefaultSession
	}

	sess := m.store.acquire(sessionID, false)
	if sess == nil {
		return
	}
	defer sess.mu.Unlock()

	sess.conv = &Conversation{}
	m.logger.Debug("Conversation reset", "session", sessionID)
}

// ActiveSessions is the number of sessions that have been queried.
func (m *Manager) ActiveSessions() int {
	return m.store.Len()
}

// History returns a copy of the turns recorded for sessionID.
func (m *Manager) History(sessionID string) []Turn {
	return m.store.History(sessionID)
}
