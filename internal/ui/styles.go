// Package ui is the terminal front end: login and registration forms, the conversation
// sidebar and window, the friends panel, and blocking alerts, built on bubbletea.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor   = lipgloss.Color("#7C3AED")
	ownColor       = lipgloss.Color("#10B981")
	mutedColor     = lipgloss.Color("#9CA3AF")
	errorColor     = lipgloss.Color("#EF4444")
	warningColor   = lipgloss.Color("#F59E0B")
	onlineColor    = lipgloss.Color("#22C55E")
	highlightColor = lipgloss.Color("#F59E0B")
)

// Styles groups every style the views use.
type Styles struct {
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Notice    lipgloss.Style
	Banner    lipgloss.Style
	Box       lipgloss.Style
	Sidebar   lipgloss.Style
	Window    lipgloss.Style
	Header    lipgloss.Style
	Selected  lipgloss.Style
	Item      lipgloss.Style
	Own       lipgloss.Style
	Other     lipgloss.Style
	Pending   lipgloss.Style
	Online    lipgloss.Style
	Offline   lipgloss.Style
	Typing    lipgloss.Style
	TabActive lipgloss.Style
	Tab       lipgloss.Style
	Alert     lipgloss.Style
	Focused   lipgloss.Color
	Blurred   lipgloss.Color
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(mutedColor),
		Error: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),
		Notice: lipgloss.NewStyle().
			Foreground(ownColor),
		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(errorColor).
			Padding(0, 1),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(1, 2),
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1),
		Window: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor),
		Header: lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(mutedColor).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Foreground(ownColor).
			Bold(true).
			PaddingLeft(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ownColor),
		Item: lipgloss.NewStyle().
			PaddingLeft(2),
		Own: lipgloss.NewStyle().
			Foreground(ownColor),
		Other: lipgloss.NewStyle().
			Foreground(primaryColor),
		Pending: lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true),
		Online: lipgloss.NewStyle().
			Foreground(onlineColor),
		Offline: lipgloss.NewStyle().
			Foreground(mutedColor),
		Typing: lipgloss.NewStyle().
			Foreground(warningColor).
			Italic(true),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1),
		Alert: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(highlightColor).
			Padding(1, 3),
		Focused: primaryColor,
		Blurred: mutedColor,
	}
}
