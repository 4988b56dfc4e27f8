// Package desktop talks to the local desktop session: system notifications
// and the clipboard.
package desktop

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/gen2brain/beeep"
)

const (
	appName        = "Devotional Voice"
	maxNoticeRunes = 100
)

var (
	sendNotification = beeep.Notify
	writeClipboard   = clipboard.WriteAll
)

type Notifier struct{}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Notify shows a system notification. Long messages are shortened.
func (n *Notifier) Notify(_ context.Context, message string) error {
	if r := []rune(message); len(r) > maxNoticeRunes {
		message = string(r[:maxNoticeRunes]) + "..."
	}
	if err := sendNotification(appName, message, ""); err != nil {
		return fmt.Errorf("showing notification: %w", err)
	}
	return nil
}

type Clipboard struct{}

func NewClipboard() *Clipboard {
	return &Clipboard{}
}

func (c *Clipboard) Copy(_ context.Context, text string) error {
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("copying to clipboard: %w", err)
	}
	return nil
}
