package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/tui/components"
)

const (
	demoPanelHeight = 20
	maxPanelWidth   = 76
	chromeHeight    = 3
)

var (
	heroTitle    = "O DESPERTAR"
	heroTagline  = "Transforme sua rotina em uma jornada de evolução."
	heroBody     = "Defina seus objetivos. O Arquiteto transforma cada meta em missões, acompanha seus atributos e ajusta o caminho quando você tropeça."
	scrollHint   = "role para baixo"
	landingOutro = "Sua evolução começa agora."
)

var heroAttrs = []components.AttributeCard{
	{Label: "Força", Gain: "+3"},
	{Label: "Vitalidade", Gain: "+1"},
	{Label: "Ordem", Gain: "+2"},
	{Label: "Foco", Gain: "+1"},
}

// layout sizes the landing viewport and re-measures the demo panel.
func (m *model) layout() {
	if m.screen != screenLanding || m.width == 0 || m.height == 0 {
		return
	}
	height := max(1, m.height-chromeHeight)
	if !m.ready {
		m.viewport = viewport.New(m.width, height)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = height
	}
	m.refreshLanding()
}

// refreshLanding re-renders the scrolling content and tells the panel
// source where the demo sits.
func (m *model) refreshLanding() {
	if !m.ready {
		return
	}
	content, start, end := m.landingContent()
	m.viewport.SetContent(content)
	if m.panel != nil {
		m.panel.SetTarget(start, end)
	}
	m.observe()
}

func (m *model) observe() {
	if m.panel != nil && m.ready {
		m.panel.Observe(m.viewport)
	}
}

func (m model) contentWidth() int {
	return max(20, min(m.width-4, maxPanelWidth))
}

// landingContent returns the scrolling page and the line range of the
// demo panel within it.
func (m model) landingContent() (string, int, int) {
	width := m.contentWidth()
	center := lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center)
	wrap := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	hero := []string{
		"",
		center.Render(m.styles.Accent.Render(spaced(heroTitle))),
		"",
		center.Render(wrap.Render(m.styles.Title.Render(heroTagline))),
		center.Render(wrap.Render(m.styles.Muted.Render(heroBody))),
		"",
		center.Render(components.RenderAttributeRow(m.styles, heroAttrs)),
		"",
		center.Render(m.styles.Muted.Render(scrollHint + " v")),
	}
	top := joinLines(hero)

	// Push the demo below the fold so it has to be scrolled into view.
	spacer := max(2, m.viewport.Height-lipgloss.Height(top)+2)
	top += strings.Repeat("\n", spacer)

	start := lipgloss.Height(top)
	var panel string
	if m.opts.Demo.Len() == 0 {
		panel = center.Render(components.EmptyDemo().Render(m.styles))
	} else {
		panel = center.Render(m.demoPanel(width))
	}
	end := start + lipgloss.Height(panel)

	outro := joinLines([]string{"", "", center.Render(m.styles.Accent.Render(landingOutro)), ""})
	return top + "\n" + panel + "\n" + outro, start, end
}

// demoPanel renders the chat demo for the current demo state.
func (m model) demoPanel(width int) string {
	inner := width - 4
	state, step := m.demoState, m.demoStep
	title := m.opts.Demo.Name()
	if m.opts.DemoPrompt.Subtitle != "" {
		title = m.opts.DemoPrompt.Subtitle
	}

	header := m.styles.Alert.Render("●") + " " + m.styles.Warning.Render("●") + " " + m.styles.Success.Render("●") +
		"  " + components.RenderStepBadge(m.styles, state)
	headerGap := max(1, inner-lipgloss.Width(header)-lipgloss.Width(title))
	lines := []string{
		header + strings.Repeat(" ", headerGap) + m.styles.Muted.Render(title),
		m.styles.Border.Render(strings.Repeat("─", inner)),
	}

	if state.Typed != "" {
		text := state.Typed
		if step.Kind == sequence.KindTypedText && !state.FinalReached {
			text += m.cursor("|")
		}
		bubble := m.styles.UserBubble.Width(inner * 4 / 5).Render(text)
		lines = append(lines, lipgloss.NewStyle().Width(inner).Align(lipgloss.Right).Render(bubble))
	}

	switch {
	case state.FinalReached:
		lines = append(lines, m.responseBubble(step, inner))
	case step.Kind == sequence.KindStatic && step.Title != "":
		bars := "▮▮▮"
		if m.blink {
			bars = "▮▯▮"
		}
		lines = append(lines, m.styles.Accent.Render(bars+" "+step.Title))
	}

	placeholder := ""
	if state.Idle() {
		placeholder = m.opts.DemoPrompt.Title
	}
	send := m.styles.Muted.Render("[>]")
	if state.Index >= 1 || state.FinalReached {
		send = m.styles.Accent.Render("[>]")
	}
	inputGap := max(1, inner-lipgloss.Width(placeholder)-lipgloss.Width(send))

	body := lipgloss.NewStyle().Height(demoPanelHeight - 4).Render(joinLines(lines))
	footer := []string{
		m.styles.Border.Render(strings.Repeat("─", inner)),
		m.styles.Muted.Render(placeholder) + strings.Repeat(" ", inputGap) + send,
	}
	return m.styles.Panel.Padding(0, 1).Width(width).Render(body + "\n" + joinLines(footer))
}

// responseBubble renders the terminal step. Data lines of the form
// "label | reward" become aligned rows; quoted lines become a note.
func (m model) responseBubble(step sequence.Step, inner int) string {
	width := inner - 4
	rows := []string{m.styles.Accent.Render("⚡ " + step.Title), ""}
	for _, line := range step.Data {
		switch {
		case strings.Contains(line, " | "):
			label, reward, _ := strings.Cut(line, " | ")
			gap := max(1, width-lipgloss.Width(label)-lipgloss.Width(reward))
			rows = append(rows, m.styles.Text.Render(label)+strings.Repeat(" ", gap)+m.styles.Accent.Render(reward))
		case strings.HasPrefix(line, `"`):
			rows = append(rows, "", m.styles.Quote.Width(width).Render(line))
		default:
			rows = append(rows, lipgloss.NewStyle().Width(width).Render(m.styles.Text.Render(line)), "")
		}
	}
	return m.styles.SystemBubble.Width(inner - 2).Render(joinLines(rows))
}

func (m model) landingView() string {
	header := m.styles.Accent.Render("AWAKEN")
	if !m.ready {
		return header + "\n"
	}
	return joinLines([]string{
		header,
		m.viewport.View(),
		m.footer("up/down scroll"),
	})
}
