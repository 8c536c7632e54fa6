package channels

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"jobagent/internal/agent"
)

type fakeRunner struct {
	mu       sync.Mutex
	sessions []string
	channels []string
	reply    string
}

func (f *fakeRunner) Run(ctx context.Context, sessionID, message string, emit func(agent.Event)) error {
	f.mu.Lock()
	f.sessions = append(f.sessions, sessionID)
	f.channels = append(f.channels, agent.ChannelFromContext(ctx))
	f.mu.Unlock()
	emit(agent.Event{Type: agent.EventDone, Data: f.reply})
	return nil
}

func fakeBotAPI(t *testing.T) (*httptest.Server, chan telegramSendRequest) {
	t.Helper()
	sent := make(chan telegramSendRequest, 8)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/botTOKEN/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if strings.HasSuffix(r.URL.Path, telegramSendMsg) {
			var req telegramSendRequest
			json.NewDecoder(r.Body).Decode(&req)
			sent <- req
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	return ts, sent
}

func TestTelegramAnswersWebhook(t *testing.T) {
	api, sent := fakeBotAPI(t)
	runner := &fakeRunner{reply: "Three Go roles found"}
	tg := NewTelegram("TOKEN", runner, WithTelegramAPI(api.URL), WithSecret("s3cret"), WithAllowedChats([]int64{42}))

	mux := http.NewServeMux()
	tg.RegisterRoutes(mux)
	gw := httptest.NewServer(mux)
	defer gw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tg.Start(ctx)

	post := func(secret, body string) int {
		req, _ := http.NewRequest(http.MethodPost, gw.URL+"/webhook/telegram", strings.NewReader(body))
		req.Header.Set(telegramSecretHeader, secret)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post("wrong", `{"message":{"chat":{"id":42},"text":"hi"}}`); code != http.StatusForbidden {
		t.Errorf("bad secret: status %d, want 403", code)
	}
	if code := post("s3cret", `{"message":{"chat":{"id":7},"text":"hi"}}`); code != http.StatusOK {
		t.Errorf("other chat: status %d, want 200", code)
	}
	if code := post("s3cret", `{"message":{"chat":{"id":42},"text":"find go jobs"}}`); code != http.StatusOK {
		t.Errorf("allowed chat: status %d, want 200", code)
	}

	select {
	case got := <-sent:
		if got.ChatID != 42 || got.Text != "Three Go roles found" {
			t.Errorf("sent %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.sessions) != 1 || runner.sessions[0] != "telegram-42" {
		t.Errorf("sessions = %v, want only telegram-42", runner.sessions)
	}
	if len(runner.channels) != 1 || runner.channels[0] != "telegram" {
		t.Errorf("channels = %v, want the run tagged telegram", runner.channels)
	}
}

func TestSplit(t *testing.T) {
	long := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	parts := split(long, 8)
	if len(parts) != 2 || parts[0] != "aaaaaa" || parts[1] != "bbbbbb" {
		t.Errorf("split on newline = %q", parts)
	}

	parts = split(strings.Repeat("é", 5), 3)
	for _, p := range parts {
		if len(p) > 3 || !strings.HasPrefix(p, "é") {
			t.Errorf("split broke a rune: %q", parts)
		}
	}
	if strings.Join(parts, "") != strings.Repeat("é", 5) {
		t.Errorf("split lost data: %q", parts)
	}
}
