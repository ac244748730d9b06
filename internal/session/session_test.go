package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/llmdesk/internal/apiclient"
)

func TestContentHash_Consistency(t *testing.T) {
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h := ContentHash([]byte("hello world")); h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
	if ContentHash([]byte("aaa")) == ContentHash([]byte("bbb")) {
		t.Error("expected different hashes for different inputs")
	}
}

func TestStore_AcquireCreatesAndReuses(t *testing.T) {
	s := NewStore(time.Hour)

	c, created := s.Acquire("")
	if !created {
		t.Fatal("expected a new conversation for an empty id")
	}
	id := c.View().ID
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("expected uuid session id, got %q", id)
	}

	again, created := s.Acquire(id)
	if created || again != c {
		t.Error("expected the same conversation for a known id")
	}
	if _, created := s.Acquire("forged-id"); !created {
		t.Error("expected unknown ids to start a new conversation")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 conversations, got %d", s.Len())
	}
}

func TestStore_Expiry(t *testing.T) {
	s := NewStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	c, _ := s.Acquire("")
	id := c.View().ID
	if s.Get(id) == nil {
		t.Fatal("expected live conversation")
	}

	now = now.Add(2 * time.Minute)
	if s.Get(id) != nil {
		t.Error("expected expired conversation to be hidden")
	}
	if _, created := s.Acquire(id); !created {
		t.Error("expected expired id to be replaced")
	}
	if removed := s.Cleanup(); removed != 1 {
		t.Errorf("expected 1 removal, got %d", removed)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 conversation left, got %d", s.Len())
	}
}

func TestConversation_Lifecycle(t *testing.T) {
	c := newConversation("id-1", time.Now())

	v := c.View()
	if v.Mode != apiclient.Cloud || v.InputMethod != InputLine || v.HasResponse() {
		t.Fatalf("unexpected defaults: %+v", v)
	}

	c.SetPreferences(apiclient.Local, "qwen3:0.6b", InputArea)
	c.SetAnswer("Why?", "qwen3:0.6b", apiclient.Local, "<think>x</think>Because.")
	v = c.View()
	if !v.HasResponse() || v.Question != "Why?" || v.Model != "qwen3:0.6b" {
		t.Fatalf("unexpected view after answer: %+v", v)
	}

	c.SetPreferences(apiclient.Cloud, "llama3-70b-8192", InputArea)
	v = c.View()
	if v.AnswerModel != "qwen3:0.6b" || v.AnswerMode != apiclient.Local {
		t.Fatalf("selector change rewrote the answer's model: %+v", v)
	}
	if v.Model != "llama3-70b-8192" || v.Mode != apiclient.Cloud {
		t.Fatalf("expected new selection, got %+v", v)
	}

	c.SetError("Again?", "qwen3:0.6b", apiclient.Local, "Model error: missing", "pull it")
	v = c.View()
	if v.HasResponse() || v.AnswerModel != "" || v.ErrMessage != "Model error: missing" || v.ErrHint != "pull it" {
		t.Fatalf("unexpected view after error: %+v", v)
	}

	c.Clear()
	v = c.View()
	if v.Question != "" || v.ErrMessage != "" || v.HasResponse() {
		t.Errorf("expected cleared conversation, got %+v", v)
	}
	if v.Mode != apiclient.Local || v.InputMethod != InputArea {
		t.Errorf("expected preferences to survive Clear, got %+v", v)
	}
}

func TestConversation_ConcurrentAccess(t *testing.T) {
	c := newConversation("id", time.Now())
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				c.SetAnswer("q", "m", apiclient.Cloud, "a")
			} else {
				_ = c.View()
			}
		}()
	}
	wg.Wait()
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	s := NewStore(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Millisecond) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
