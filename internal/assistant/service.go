// Package assistant proxies study-help conversations about a single
// assignment to a hosted language model.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	appLog "glassplanner/internal/log"
	"glassplanner/internal/model"
)

var (
	// ErrSessionNotFound is returned for unknown or expired chat sessions.
	ErrSessionNotFound = errors.New("assistant: chat session not found")
	// ErrEmptyMessage is returned when a chat message is blank.
	ErrEmptyMessage = errors.New("assistant: message is empty")
)

const (
	defaultSessionTTL = 2 * time.Hour
	maxMessageLen     = 8000
)

// Session is one conversation about an assignment.
type Session struct {
	ID         string
	Assignment model.Assignment

	mu      sync.Mutex
	system  string
	history []Message
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

// Service owns the chat sessions and the generator behind them.
type Service struct {
	gen      Generator
	sessions *gocache.Cache
}

// NewService creates a Service. Sessions idle for longer than ttl are
// evicted; zero uses two hours.
func NewService(gen Generator, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Service{
		gen:      gen,
		sessions: gocache.New(ttl, ttl/2),
	}
}

// Enabled reports whether a generator is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.gen != nil
}

// Summarize returns a short task list for a. Generator failures are
// returned wrapped; an empty reply becomes a fixed fallback text.
func (s *Service) Summarize(ctx context.Context, a model.Assignment) (string, error) {
	if !s.Enabled() {
		return "", errors.New("assistant: no generator configured")
	}
	text, err := s.gen.Generate(ctx, "", []Message{{Role: RoleUser, Text: SummaryPrompt(a)}})
	if err != nil {
		appLog.Error("assistant summarize failed", err, "assignment_id", a.ID)
		return "", fmt.Errorf("summarize %q: %w", a.Summary, err)
	}
	if strings.TrimSpace(text) == "" {
		return fallbackSummary, nil
	}
	return text, nil
}

// StartChat opens a session about a, seeded with a local greeting.
func (s *Service) StartChat(a model.Assignment) *Session {
	sess := &Session{
		ID:         uuid.NewString(),
		Assignment: a,
		system:     SystemInstruction(a),
		history:    []Message{{Role: RoleModel, Text: Greeting(a)}},
	}
	s.sessions.SetDefault(sess.ID, sess)
	appLog.Info("assistant chat started", "session_id", sess.ID, "assignment_id", a.ID, "course", a.Course)
	return sess
}

// Session looks up a live session and refreshes its expiry.
func (s *Service) Session(id string) (*Session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess := v.(*Session)
	s.sessions.SetDefault(id, sess)
	return sess, nil
}

// EndChat drops a session.
func (s *Service) EndChat(id string) {
	s.sessions.Delete(id)
}

// Send appends msg to the session and returns the model reply. On failure
// the user turn is rolled back so the caller can retry.
func (s *Service) Send(ctx context.Context, sessionID, msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", ErrEmptyMessage
	}
	msg = truncateRunes(msg, maxMessageLen)
	if !s.Enabled() {
		return "", errors.New("assistant: no generator configured")
	}

	sess, err := s.Session(sessionID)
	if err != nil {
		return "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.history = append(sess.history, Message{Role: RoleUser, Text: msg})
	reply, err := s.gen.Generate(ctx, sess.system, append([]Message(nil), sess.history...))
	if err != nil {
		sess.history = sess.history[:len(sess.history)-1]
		appLog.Error("assistant chat turn failed", err, "session_id", sessionID)
		return "", fmt.Errorf("chat turn: %w", err)
	}

	sess.history = append(sess.history, Message{Role: RoleModel, Text: reply})
	return reply, nil
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
