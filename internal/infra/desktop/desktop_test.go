package desktop

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNotifier_Notify(t *testing.T) {
	orig := sendNotification
	t.Cleanup(func() { sendNotification = orig })

	var gotTitle, gotMessage string
	sendNotification = func(title, message, _ string) error {
		gotTitle, gotMessage = title, message
		return nil
	}

	n := NewNotifier()

	if err := n.Notify(context.Background(), "묵상글이 저장되었습니다"); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if gotTitle != "Devotional Voice" || gotMessage != "묵상글이 저장되었습니다" {
		t.Errorf("got %q / %q", gotTitle, gotMessage)
	}

	long := strings.Repeat("가", 150)
	if err := n.Notify(context.Background(), long); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if want := strings.Repeat("가", 100) + "..."; gotMessage != want {
		t.Errorf("long message not shortened: %d runes", len([]rune(gotMessage)))
	}
}

func TestClipboard_Copy(t *testing.T) {
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })

	var copied string
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}

	if err := NewClipboard().Copy(context.Background(), "## 📖 묵상"); err != nil {
		t.Fatalf("Copy error: %v", err)
	}
	if copied != "## 📖 묵상" {
		t.Errorf("copied: got %q", copied)
	}

	writeClipboard = func(string) error { return errors.New("no clipboard utility") }
	if err := NewClipboard().Copy(context.Background(), "x"); err == nil {
		t.Error("expected clipboard error")
	}
}
