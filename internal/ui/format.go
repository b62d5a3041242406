package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"chatterm/internal/app/chat"
	"chatterm/internal/pkg/errs"
)

// truncate shortens s to width cells, ending with an ellipsis when cut.
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// clockTime formats a message time: the time of day for today, the date otherwise.
func clockTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Local().Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return t.Format("15:04")
	}
	return t.Format("Jan 2")
}

// preview is the sidebar line under a conversation name.
func preview(c chat.Conversation, me int64) string {
	if c.LastMessage == nil {
		return "No messages yet"
	}
	if c.LastMessage.SenderID == me {
		return "You: " + c.LastMessage.Body
	}
	return c.LastMessage.Body
}

// userMessage returns the text shown to the user for err.
func userMessage(err error) string {
	if ce := errs.As(err); ce != nil {
		return ce.Message
	}
	return ""
}

// clamp keeps i inside [0, n).
func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
