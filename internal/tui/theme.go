package tui

import "github.com/charmbracelet/lipgloss"

type uiTheme struct {
	root         lipgloss.Style
	header       lipgloss.Style
	tabActive    lipgloss.Style
	tabInactive  lipgloss.Style
	panel        lipgloss.Style
	panelTitle   lipgloss.Style
	footer       lipgloss.Style
	status       lipgloss.Style
	errorStatus  lipgloss.Style
	warnStatus   lipgloss.Style
	label        lipgloss.Style
	labelFocus   lipgloss.Style
	button       lipgloss.Style
	buttonFocus  lipgloss.Style
	helpText     lipgloss.Style
	settingKey   lipgloss.Style
	settingValue lipgloss.Style
	settingPick  lipgloss.Style
	modalFrame   lipgloss.Style
	accent       lipgloss.Style
	speakerBase  lipgloss.Style
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	gold := lipgloss.Color("#ffd166")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		tabActive: lipgloss.NewStyle().
			Background(pink).
			Foreground(lipgloss.Color("#22062f")).
			Bold(true).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		warnStatus:  lipgloss.NewStyle().Foreground(gold).Bold(true),
		label:       lipgloss.NewStyle().Foreground(blue),
		labelFocus:  lipgloss.NewStyle().Foreground(pink).Bold(true),
		button: lipgloss.NewStyle().
			Foreground(text).
			Background(lipgloss.Color("#2a184a")).
			Padding(0, 2),
		buttonFocus: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22062f")).
			Background(mint).
			Bold(true).
			Padding(0, 2),
		helpText:     lipgloss.NewStyle().Foreground(muted),
		settingKey:   lipgloss.NewStyle().Foreground(blue),
		settingValue: lipgloss.NewStyle().Foreground(text),
		settingPick:  lipgloss.NewStyle().Foreground(pink).Bold(true),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		accent:      lipgloss.NewStyle().Foreground(mint).Bold(true),
		speakerBase: lipgloss.NewStyle().Bold(true),
	}
}

// speaker styles a transcript header with the color picked by the style table.
func (t uiTheme) speaker(color string) lipgloss.Style {
	if color == "" {
		return t.speakerBase.Foreground(lipgloss.Color("#9ca3d8"))
	}
	return t.speakerBase.Foreground(lipgloss.Color(color))
}
