// Package session holds per-browser conversation state in memory.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/llmdesk/internal/apiclient"
)

// InputMethod picks the question widget.
type InputMethod string

const (
	InputLine InputMethod = "text_input"
	InputArea InputMethod = "text_area"
)

// Conversation is the context of one browser session: the last answer and
// the choices that produced it.
type Conversation struct {
	mu sync.Mutex

	id          string
	question    string
	response    string
	model       string
	mode        apiclient.Mode
	inputMethod InputMethod

	// Model and mode that produced response; selector changes leave them alone.
	answerModel string
	answerMode  apiclient.Mode

	errMessage string
	errHint    string

	updatedAt time.Time
}

// View is a read-only copy of a Conversation.
type View struct {
	ID          string
	Question    string
	Response    string // Raw answer, including reasoning blocks.
	Model       string // Selected model.
	Mode        apiclient.Mode
	InputMethod InputMethod
	AnswerModel string
	AnswerMode  apiclient.Mode
	ErrMessage  string
	ErrHint     string
	UpdatedAt   time.Time
}

// HasResponse reports whether there is an answer to show or export.
func (v View) HasResponse() bool { return v.Response != "" }

func newConversation(id string, now time.Time) *Conversation {
	return &Conversation{id: id, mode: apiclient.Cloud, inputMethod: InputLine, updatedAt: now}
}

// SetPreferences records the selector state without touching the answer.
func (c *Conversation) SetPreferences(mode apiclient.Mode, model string, method InputMethod) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode, c.model, c.inputMethod = mode, model, method
	c.updatedAt = time.Now()
}

// SetAnswer stores a successful answer and clears any previous error.
func (c *Conversation) SetAnswer(question, model string, mode apiclient.Mode, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.question, c.model, c.mode, c.response = question, model, mode, response
	c.answerModel, c.answerMode = model, mode
	c.errMessage, c.errHint = "", ""
	c.updatedAt = time.Now()
}

// SetError records a failed ask. The previous answer is dropped.
func (c *Conversation) SetError(question, model string, mode apiclient.Mode, message, hint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.question, c.model, c.mode, c.response = question, model, mode, ""
	c.answerModel, c.answerMode = "", ""
	c.errMessage, c.errHint = message, hint
	c.updatedAt = time.Now()
}

// Clear drops the answer, question and error; preferences survive.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.question, c.response = "", ""
	c.answerModel, c.answerMode = "", ""
	c.errMessage, c.errHint = "", ""
	c.updatedAt = time.Now()
}

func (c *Conversation) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		ID:          c.id,
		Question:    c.question,
		Response:    c.response,
		Model:       c.model,
		Mode:        c.mode,
		InputMethod: c.inputMethod,
		AnswerModel: c.answerModel,
		AnswerMode:  c.answerMode,
		ErrMessage:  c.errMessage,
		ErrHint:     c.errHint,
		UpdatedAt:   c.updatedAt,
	}
}

func (c *Conversation) lastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

// Store is a thread-safe in-memory conversation registry with TTL eviction.
type Store struct {
	mu    sync.Mutex
	convs map[string]*Conversation
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		convs: make(map[string]*Conversation),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the live conversation for id, or nil.
func (s *Store) Get(id string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.convs[id]
	if c == nil || s.expired(c) {
		return nil
	}
	return c
}

// Acquire returns the conversation for id, starting a new one under a
// fresh id when id is unknown or expired.
func (s *Store) Acquire(id string) (conv *Conversation, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.convs[id]; c != nil && !s.expired(c) {
		return c, false
	}
	c := newConversation(uuid.NewString(), s.now())
	s.convs[c.id] = c
	return c, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// Cleanup removes expired conversations.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, c := range s.convs {
		if s.expired(c) {
			delete(s.convs, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Cleanup()
		}
	}
}

func (s *Store) expired(c *Conversation) bool {
	return s.now().Sub(c.lastUpdate()) > s.ttl
}

// ContentHash is the hex SHA-256 of data.
func ContentHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
