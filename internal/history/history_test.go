package history

import (
	"context"
	"path/filepath"
	"testing"

	"jobagent/internal/agent"
	"jobagent/internal/db"
	"jobagent/internal/llm/llmtest"
)

func newStore(t *testing.T) *Store {
	s, _ := newStoreWithDB(t)
	return s
}

func newStoreWithDB(t *testing.T) (*Store, *db.DB) {
	t.Helper()
	ctx := context.Background()
	d, err := db.Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewStore(d, "cli"), d
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	if err := s.SaveTurn(ctx, "s1", "find go jobs", llmtest.Response(llmtest.Text("m1", "Here are three."))); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}
	if err := s.SaveTurn(ctx, "s1", "and in berlin?", llmtest.Response(llmtest.Text("m2", "Two in Berlin."))); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}

	items, err := s.LoadInputHistory(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadInputHistory: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	if items[0].OfMessage == nil || items[0].OfMessage.Content.OfString.Value != "find go jobs" {
		t.Errorf("first item is not the first user message: %+v", items[0])
	}
	if items[1].OfOutputMessage == nil {
		t.Errorf("second item is not the assistant output: %+v", items[1])
	}

	other, err := s.LoadInputHistory(ctx, "s2")
	if err != nil {
		t.Fatalf("LoadInputHistory: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("unrelated session has %d items", len(other))
	}

	ids, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(ids) != 1 || ids[0] != "s1" {
		t.Errorf("sessions = %v, want [s1]", ids)
	}
}

func TestSaveTurnTagsChannel(t *testing.T) {
	ctx := context.Background()
	s, d := newStoreWithDB(t)

	resp := llmtest.Response(llmtest.Text("m1", "hi"))
	if err := s.SaveTurn(agent.ContextWithChannel(ctx, "telegram"), "telegram-42", "hello", resp); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}
	if err := s.SaveTurn(ctx, "s1", "hello", resp); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}

	sessions, err := db.New(d.Conn()).ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	got := map[string]string{}
	for _, sess := range sessions {
		got[sess.ID] = sess.Channel
	}
	if got["telegram-42"] != "telegram" || got["s1"] != "cli" {
		t.Errorf("channels = %v, want telegram-42=telegram s1=cli", got)
	}
}
