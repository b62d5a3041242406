package ui

import "fmt"

// alertView renders the first pending alert. Later alerts wait their turn.
func (m Model) alertView() string {
	s := m.styles
	a := m.alerts[0]

	body := s.Title.Render(a.Title) + "\n\n" + a.Text + "\n\n"
	if n := len(m.alerts) - 1; n > 0 {
		body += s.Muted.Render(fmt.Sprintf("%d more", n)) + "\n"
	}
	body += s.Muted.Render("enter/esc: dismiss")

	return s.Alert.Render(body)
}
