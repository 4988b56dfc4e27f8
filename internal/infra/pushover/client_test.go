package pushover_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"devotional-voice/internal/infra/pushover"
)

func TestClient_Notify(t *testing.T) {
	var form map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		form = map[string]string{
			"token":   r.PostForm.Get("token"),
			"user":    r.PostForm.Get("user"),
			"title":   r.PostForm.Get("title"),
			"message": r.PostForm.Get("message"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("app-token", "user-key", server.URL)

	if err := client.Notify(context.Background(), "묵상글 생성 완료"); err != nil {
		t.Fatalf("Notify error: %v", err)
	}

	want := map[string]string{
		"token":   "app-token",
		"user":    "user-key",
		"title":   "Devotional Voice",
		"message": "묵상글 생성 완료",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("%s: got %q, want %q", k, form[k], v)
		}
	}
}

func TestClient_NotifyWithoutCredentials(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("", "user-key", server.URL)

	if err := client.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if called {
		t.Error("no request expected without a token")
	}
}

func TestClient_NotifyError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":0,"errors":["user identifier is invalid"]}`))
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("token", "user", server.URL)

	err := client.Notify(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "user identifier is invalid") {
		t.Errorf("expected pushover error message, got %v", err)
	}
	if calls != 1 {
		t.Errorf("client errors should not be retried: %d calls", calls)
	}
}

func TestClient_NotifyTruncatesLongMessages(t *testing.T) {
	var message string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		message = r.PostForm.Get("message")
	}))
	defer server.Close()

	client := pushover.NewClientWithURL("token", "user", server.URL)
	if err := client.Notify(context.Background(), strings.Repeat("묵", 2000)); err != nil {
		t.Fatalf("Notify error: %v", err)
	}

	if n := utf8.RuneCountInString(message); n != 1024 {
		t.Errorf("message length: got %d runes, want 1024", n)
	}
	if !strings.HasSuffix(message, "...") {
		t.Errorf("truncated message should end with an ellipsis")
	}
}
