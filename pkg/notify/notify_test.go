package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeNotifier struct {
	ch   Channel
	err  error
	sent []Message
}

func (f *fakeNotifier) Channel() Channel { return f.ch }

func (f *fakeNotifier) Send(_ context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func TestDispatcher_SendAll(t *testing.T) {
	d := NewDispatcher()
	email := &fakeNotifier{ch: ChannelEmail}
	hook := &fakeNotifier{ch: ChannelWebhook}
	d.Register(email)
	d.Register(hook)

	if err := d.SendAll(context.Background(), Message{Title: "t"}); err != nil {
		t.Fatal(err)
	}
	if len(email.sent) != 1 || len(hook.sent) != 1 {
		t.Fatalf("expected one message per channel, got email=%d webhook=%d", len(email.sent), len(hook.sent))
	}
	chs := d.Channels()
	if len(chs) != 2 || chs[0] != ChannelEmail || chs[1] != ChannelWebhook {
		t.Fatalf("unexpected channels: %v", chs)
	}
}

func TestDispatcher_NoChannels(t *testing.T) {
	d := NewDispatcher()
	if err := d.SendAll(context.Background(), Message{}); !errors.Is(err, ErrNoChannels) {
		t.Fatalf("expected ErrNoChannels, got %v", err)
	}
}

func TestDispatcher_PartialFailure(t *testing.T) {
	boom := errors.New("smtp down")
	d := NewDispatcher()
	ok := &fakeNotifier{ch: ChannelWebhook}
	d.Register(&fakeNotifier{ch: ChannelEmail, err: boom})
	d.Register(ok)

	err := d.SendAll(context.Background(), Message{Title: "t"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "email") {
		t.Fatalf("expected channel name in error: %v", err)
	}
	if len(ok.sent) != 1 {
		t.Fatal("healthy channel should still receive the message")
	}
}

func TestBuildEmailBody(t *testing.T) {
	msg := Message{Title: "Daily Click Summary - 2026-10-19", HTMLBody: "<p>Total Clicks: 3</p>"}
	body := buildEmailBody("Quick News", "bot@example.com", []string{"a@example.com", "b@example.com"}, msg)

	head, payload, found := strings.Cut(body, "\r\n\r\n")
	if !found {
		t.Fatal("missing header separator")
	}
	for _, want := range []string{
		"From: " + encodeRFC2047("Quick News") + " <bot@example.com>",
		"To: a@example.com, b@example.com",
		"Subject: " + encodeRFC2047(msg.Title),
		"Content-Type: text/html; charset=UTF-8",
	} {
		if !strings.Contains(head, want) {
			t.Errorf("header missing %q", want)
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload, "\r\n", ""))
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != msg.HTMLBody {
		t.Fatalf("unexpected body: %s", decoded)
	}
}

func TestSplitRecipients(t *testing.T) {
	got := splitRecipients(" a@x.com, ,b@x.com ")
	if len(got) != 2 || got[0] != "a@x.com" || got[1] != "b@x.com" {
		t.Fatalf("unexpected recipients: %v", got)
	}
}

func TestWebhookNotifier(t *testing.T) {
	var got Message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(WebhookConfig{URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer x"}})
	if err := n.Send(context.Background(), Message{Title: "hello", Body: "world"}); err != nil {
		t.Fatal(err)
	}
	if got.Title != "hello" || got.Body != "world" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if auth != "Bearer x" {
		t.Fatalf("custom header not sent: %q", auth)
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(WebhookConfig{URL: srv.URL}).Send(context.Background(), Message{})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTelegramNotifier(t *testing.T) {
	var path string
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &payload)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "tok", ChannelID: "@chan"})
	n.baseURL = srv.URL
	if err := n.Send(context.Background(), Message{Title: "Summary - 2026", Body: "Total Clicks: 3."}); err != nil {
		t.Fatal(err)
	}
	if path != "/bottok/sendMessage" {
		t.Fatalf("unexpected path: %s", path)
	}
	if payload["chat_id"] != "@chan" || payload["parse_mode"] != "MarkdownV2" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	want := `*Summary \- 2026*` + "\n\n" + `Total Clicks: 3\.`
	if payload["text"] != want {
		t.Fatalf("text = %q, want %q", payload["text"], want)
	}
}

func TestClickEmailFormatter(t *testing.T) {
	msg := NewClickEmailFormatter("").Format(ClickSummaryData{
		Date:     "2026-10-19",
		Total:    7,
		Unique:   2,
		TopLinks: []LinkCount{{ID: "a1b2c3d4", Clicks: 5}, {ID: "<script>", Clicks: 2}},
	})
	if msg.Title != "Daily Click Summary - 2026-10-19" {
		t.Fatalf("unexpected title: %s", msg.Title)
	}
	for _, want := range []string{"Quick NewsGPT Daily Summary", "Date: <strong>2026-10-19</strong>", "Total Clicks: <strong>7</strong>", "Unique Links: <strong>2</strong>", "a1b2c3d4", "&lt;script&gt;"} {
		if !strings.Contains(msg.HTMLBody, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(msg.HTMLBody, "<script>") {
		t.Error("link ids must be escaped")
	}
	if !strings.HasPrefix(msg.Body, "Quick NewsGPT Daily Summary\nDate: 2026-10-19\nTotal Clicks: 7\nUnique Links: 2") {
		t.Fatalf("unexpected plain body: %q", msg.Body)
	}
}
