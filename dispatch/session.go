package dispatch

import "sync"

// BasicSession is an in-memory PromptSession.
type BasicSession struct {
	id string

	mu     sync.RWMutex
	prompt string
}

// NewSession creates a session with an initial prompt.
func NewSession(id, prompt string) *BasicSession {
	return &BasicSession{id: id, prompt: prompt}
}

// ID returns the session identifier.
func (s *BasicSession) ID() string { return s.id }

// Prompt returns the current prompt.
func (s *BasicSession) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompt
}

// SetPrompt replaces the prompt.
func (s *BasicSession) SetPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
}

var _ PromptSession = (*BasicSession)(nil)
