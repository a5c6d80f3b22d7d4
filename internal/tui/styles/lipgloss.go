package styles

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles derived from theme tokens.
type Styles struct {
	Theme         Theme
	Title         lipgloss.Style
	Text          lipgloss.Style
	Muted         lipgloss.Style
	Accent        lipgloss.Style
	Panel         lipgloss.Style
	Border        lipgloss.Style
	Focus         lipgloss.Style
	Success       lipgloss.Style
	Warning       lipgloss.Style
	Alert         lipgloss.Style
	Info          lipgloss.Style
	Glitch        lipgloss.Style
	Banner        lipgloss.Style
	Button        lipgloss.Style
	Tag           lipgloss.Style
	BootLine      lipgloss.Style
	ProgressFill  lipgloss.Style
	ProgressEmpty lipgloss.Style
	UserBubble    lipgloss.Style
	SystemBubble  lipgloss.Style
	Quote         lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() Styles {
	return BuildStyles(DefaultTheme)
}

// BuildStyles converts theme tokens into lipgloss styles.
func BuildStyles(theme Theme) Styles {
	tokens := theme.Tokens
	color := func(c string) lipgloss.Color { return lipgloss.Color(c) }

	return Styles{
		Theme:         theme,
		Title:         lipgloss.NewStyle().Foreground(color(tokens.Text)).Bold(true),
		Text:          lipgloss.NewStyle().Foreground(color(tokens.Text)),
		Muted:         lipgloss.NewStyle().Foreground(color(tokens.TextMuted)),
		Accent:        lipgloss.NewStyle().Foreground(color(tokens.Accent)).Bold(true),
		Panel:         lipgloss.NewStyle().Foreground(color(tokens.Text)).Background(color(tokens.Panel)).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(color(tokens.Accent)).Padding(1, 2),
		Border:        lipgloss.NewStyle().Foreground(color(tokens.Border)),
		Focus:         lipgloss.NewStyle().Foreground(color(tokens.Focus)).Bold(true),
		Success:       lipgloss.NewStyle().Foreground(color(tokens.Success)).Bold(true),
		Warning:       lipgloss.NewStyle().Foreground(color(tokens.Warning)),
		Alert:         lipgloss.NewStyle().Foreground(color(tokens.Alert)).Bold(true),
		Info:          lipgloss.NewStyle().Foreground(color(tokens.Info)),
		Glitch:        lipgloss.NewStyle().Foreground(color(tokens.Alert)).Background(color(tokens.Background)).Bold(true).Reverse(true),
		Banner:        lipgloss.NewStyle().Foreground(color(tokens.Alert)).Bold(true).BorderStyle(lipgloss.DoubleBorder()).BorderTop(true).BorderBottom(true).BorderForeground(color(tokens.Alert)).Padding(0, 2),
		Button:        lipgloss.NewStyle().Foreground(color(tokens.Accent)).Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(color(tokens.Accent)).Padding(0, 4),
		Tag:           lipgloss.NewStyle().Foreground(color(tokens.Background)).Background(color(tokens.Accent)).Bold(true).Padding(0, 1),
		BootLine:      lipgloss.NewStyle().Foreground(color(tokens.TextMuted)).BorderStyle(lipgloss.ThickBorder()).BorderLeft(true).BorderForeground(color(tokens.Accent)).PaddingLeft(1),
		ProgressFill:  lipgloss.NewStyle().Foreground(color(tokens.Accent)),
		ProgressEmpty: lipgloss.NewStyle().Foreground(color(tokens.Border)),
		UserBubble:    lipgloss.NewStyle().Foreground(color(tokens.Text)).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(color(tokens.Border)).Padding(0, 1),
		SystemBubble:  lipgloss.NewStyle().Foreground(color(tokens.Text)).BorderStyle(lipgloss.RoundedBorder()).BorderForeground(color(tokens.Accent)).Padding(0, 1),
		Quote:         lipgloss.NewStyle().Foreground(color(tokens.TextMuted)).Italic(true).BorderStyle(lipgloss.ThickBorder()).BorderLeft(true).BorderForeground(color(tokens.Accent)).PaddingLeft(1),
	}
}
