package server

import (
	"testing"
	"time"
)

func TestSessions(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	s := NewSessions("hello", time.Minute)
	s.now = func() time.Time { return now }

	a := s.Get("a")
	a.SetPrompt("changed")
	if s.Get("a").Prompt() != "changed" {
		t.Error("session state not kept")
	}
	s.Get("b")

	now = now.Add(45 * time.Second)
	s.Get("a")
	now = now.Add(30 * time.Second)
	if n := s.Sweep(); n != 1 {
		t.Errorf("swept %d, want 1", n)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d", s.Len())
	}

	now = now.Add(time.Minute)
	if s.Get("a").Prompt() != "hello" {
		t.Error("expired session should restart from the base prompt")
	}

	s.Delete("a")
	if s.Len() != 0 {
		t.Errorf("len after delete = %d", s.Len())
	}
}
