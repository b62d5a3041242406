package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// authForm is the login and the registration form: a column of inputs, an error line,
// and a submit action that is disabled while a request is outstanding.
type authForm struct {
	title   string
	submit  string
	busy    string
	labels  []string
	inputs  []textinput.Model
	focus   int
	err     string
	loading bool
}

func newLoginForm() authForm {
	return newAuthForm("Sign in", "Sign in", "Signing in...", "Email", "Password")
}

func newRegisterForm() authForm {
	return newAuthForm("Create account", "Register", "Creating account...", "Username", "Email", "Password")
}

func newAuthForm(title, submit, busy string, labels ...string) authForm {
	f := authForm{title: title, submit: submit, busy: busy, labels: labels}

	for _, label := range labels {
		in := textinput.New()
		in.Placeholder = strings.ToLower(label)
		in.CharLimit = 128
		in.Width = 32
		in.Prompt = ""
		if label == "Password" {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.inputs = append(f.inputs, in)
	}
	f.inputs[0].Focus()

	return f
}

// values returns the trimmed input values in label order. Passwords are not trimmed.
func (f authForm) values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		if f.labels[i] == "Password" {
			out[i] = in.Value()
			continue
		}
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

func (f *authForm) setFocus(i int) {
	f.focus = (i + len(f.inputs)) % len(f.inputs)
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// update handles a key. submitted is true when enter was pressed on the last field and the
// form is not already waiting for a response.
func (f *authForm) update(msg tea.KeyMsg) (submitted bool, cmd tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return false, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return false, nil
	case "enter":
		if f.focus < len(f.inputs)-1 {
			f.setFocus(f.focus + 1)
			return false, nil
		}
		if f.loading {
			return false, nil
		}
		f.err = ""
		f.loading = true
		return true, nil
	}

	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return false, cmd
}

// reset clears every field and the error.
func (f *authForm) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	f.err = ""
	f.loading = false
	f.setFocus(0)
}

func (f authForm) view(s Styles, hint string) string {
	var b strings.Builder

	b.WriteString(s.Title.Render(f.title))
	b.WriteString("\n\n")

	for i, in := range f.inputs {
		label := s.Muted.Render(f.labels[i])
		if i == f.focus {
			label = lipgloss.NewStyle().Foreground(s.Focused).Bold(true).Render(f.labels[i])
		}
		b.WriteString(label + "\n" + in.View() + "\n\n")
	}

	if f.loading {
		b.WriteString(s.Muted.Render("[ " + f.busy + " ]"))
	} else {
		b.WriteString(s.TabActive.Render(f.submit))
	}
	b.WriteString("\n")

	if f.err != "" {
		b.WriteString("\n" + s.Error.Render(f.err) + "\n")
	}

	b.WriteString("\n" + s.Muted.Render(hint))
	return s.Box.Render(b.String())
}
