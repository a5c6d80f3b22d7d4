package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/sound"
)

const progressWidth = 32

func (m model) place(content string) string {
	body := lipgloss.JoinVertical(lipgloss.Center, content, "", m.footer(m.hints()...))
	if m.width == 0 || m.height == 0 {
		return body + "\n"
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m model) hints() []string {
	switch {
	case m.screen == screenPrompt:
		return []string{"enter start"}
	case m.screen == screenIntro && m.introState.FinalReached && !m.introState.Completed:
		return []string{"enter confirm"}
	}
	return nil
}

func (m model) promptView() string {
	title := m.opts.IntroPrompt.Title
	if title == "" {
		title = strings.ToUpper(m.opts.Intro.Name())
	}
	ring := m.styles.Accent.Render("( ◉ )")
	if m.blink {
		ring = m.styles.Accent.Render("(( ◉ ))")
	}

	lines := []string{ring, "", m.styles.Accent.Render(spaced(title))}
	if m.opts.IntroPrompt.Subtitle != "" {
		lines = append(lines, m.styles.Muted.Render(strings.ToUpper(m.opts.IntroPrompt.Subtitle)))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

// introView renders the current intro step by kind.
func (m model) introView() string {
	step, state := m.introStep, m.introState
	if state.Idle() {
		return m.styles.Muted.Render("...")
	}

	switch step.Kind {
	case sequence.KindLoading:
		return m.loadingView(step, state)
	case sequence.KindAlert:
		if step.Cue == sound.CueGlitch {
			title := step.Title
			if m.blink {
				title = glitch(title)
			}
			return m.styles.Glitch.Render(" " + title + " ")
		}
		return lipgloss.JoinVertical(lipgloss.Center,
			m.styles.Alert.Render("/!\\"),
			"",
			m.styles.Banner.Render(step.Title),
		)
	case sequence.KindTypedText:
		return lipgloss.NewStyle().Width(48).Render(m.styles.Accent.Render(state.Typed) + m.cursor("_"))
	case sequence.KindTerminal:
		return m.finalView(step)
	default:
		if step.Cue == sound.CueSuccess {
			return m.styles.Title.Render(spaced(step.Title))
		}
		return m.styles.Accent.Render(step.Title)
	}
}

func (m model) loadingView(step sequence.Step, state sequence.State) string {
	lines := make([]string, 0, step.MaxLines+3)
	for range step.MaxLines - len(state.Lines) {
		lines = append(lines, "")
	}
	for _, line := range state.Lines {
		lines = append(lines, m.styles.BootLine.Render(line))
	}

	label := step.Title
	pct := fmt.Sprintf("%d%%", state.Progress)
	gap := max(1, progressWidth-lipgloss.Width(label)-lipgloss.Width(pct))
	lines = append(lines, "", m.styles.Accent.Render(label+strings.Repeat(" ", gap)+pct))
	lines = append(lines, m.progressBar(state.Progress, progressWidth))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m model) progressBar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	return m.styles.ProgressFill.Render(strings.Repeat("█", filled)) +
		m.styles.ProgressEmpty.Render(strings.Repeat("░", width-filled))
}

func (m model) finalView(step sequence.Step) string {
	body := []string{m.styles.Tag.Render(step.Title), ""}
	for _, line := range step.Data {
		body = append(body, m.styles.Text.Render(line))
	}
	if step.Action != "" {
		button := m.styles.Button
		if m.blink {
			button = button.BorderForeground(lipgloss.Color(m.styles.Theme.Tokens.Glow))
		}
		body = append(body, "", button.Render(spaced(step.Action)))
	}
	return m.styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Center, body...))
}

func (m model) cursor(c string) string {
	if m.blink {
		return " "
	}
	return m.styles.Accent.Render(c)
}

// spaced widens a heading by putting a space between letters.
func spaced(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && r != '\n' && runes[i-1] != '\n' {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var glitchRunes = map[rune]rune{'A': '4', 'E': '3', 'I': '1', 'O': '0', 'S': '5', 'T': '7'}

func glitch(s string) string {
	return strings.Map(func(r rune) rune {
		if g, ok := glitchRunes[r]; ok {
			return g
		}
		return r
	}, s)
}
