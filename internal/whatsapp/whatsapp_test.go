package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	applog "duitbot/internal/log"
)

func TestEnsureWhatsAppPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+628123456789", "whatsapp:+628123456789"},
		{"whatsapp:+628123456789", "whatsapp:+628123456789"},
		{"  +628123456789  ", "whatsapp:+628123456789"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ensureWhatsAppPrefix(tt.in); got != tt.want {
			t.Errorf("ensureWhatsAppPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeFrom(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"whatsapp:+628123456789", "+628123456789"},
		{"+628123456789", "+628123456789"},
		{" whatsapp:+628123456789 ", "+628123456789"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeFrom(tt.in); got != tt.want {
			t.Errorf("normalizeFrom(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSender_SendText(t *testing.T) {
	var gotForm url.Values
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotForm = r.PostForm
		gotPath = r.URL.Path
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "secret" {
			t.Errorf("basic auth = %q/%q, want AC123/secret", user, pass)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	s := NewSender("AC123", "secret", "+14155238886")
	s.baseURL = srv.URL

	err := s.SendText(context.Background(), "+628123456789", "✅ Tercatat!")
	if err != nil {
		t.Fatalf("SendText() error: %v", err)
	}

	if gotPath != "/Accounts/AC123/Messages.json" {
		t.Errorf("path = %q", gotPath)
	}
	if got := gotForm.Get("From"); got != "whatsapp:+14155238886" {
		t.Errorf("From = %q", got)
	}
	if got := gotForm.Get("To"); got != "whatsapp:+628123456789" {
		t.Errorf("To = %q", got)
	}
	if got := gotForm.Get("Body"); got != "✅ Tercatat!" {
		t.Errorf("Body = %q", got)
	}
}

func TestSender_SendTextFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":20003}`))
	}))
	defer srv.Close()

	s := NewSender("AC123", "wrong", "+14155238886")
	s.baseURL = srv.URL

	err := s.SendText(context.Background(), "+628123456789", "hi")
	if err == nil {
		t.Fatal("SendText() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("error = %v, want twilio status in message", err)
	}
}

type capturingHandler struct {
	sender string
	text   string
	calls  int
}

func (h *capturingHandler) HandleMessage(_ context.Context, sender, text string) {
	h.sender = sender
	h.text = text
	h.calls++
}

func TestWebhook_Inbound(t *testing.T) {
	handler := &capturingHandler{}
	w := NewWebhook(handler, applog.New(applog.DefaultConfig()))

	form := url.Values{}
	form.Set("From", "whatsapp:+628123456789")
	form.Set("Body", "+makan 15000 nasi goreng")

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := w.app.Test(req)
	if err != nil {
		t.Fatalf("webhook test: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type = %q, want application/xml", ct)
	}

	if handler.calls != 1 {
		t.Fatalf("handler calls = %d, want 1", handler.calls)
	}
	if handler.sender != "+628123456789" {
		t.Errorf("sender = %q, want normalized number", handler.sender)
	}
	if handler.text != "+makan 15000 nasi goreng" {
		t.Errorf("text = %q", handler.text)
	}
}

func TestWebhook_InboundEmptyBodyIsAcked(t *testing.T) {
	handler := &capturingHandler{}
	w := NewWebhook(handler, applog.New(applog.DefaultConfig()))

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := w.app.Test(req)
	if err != nil {
		t.Fatalf("webhook test: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
	if handler.calls != 0 {
		t.Errorf("handler calls = %d, want 0", handler.calls)
	}
}
