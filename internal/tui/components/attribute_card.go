package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/awaken/internal/tui/styles"
)

// AttributeCard is one of the player attributes shown on the landing page.
type AttributeCard struct {
	Label string
	// Gain is shown above the label, e.g. "+1"; empty hides it.
	Gain string
}

// RenderAttributeCard renders a compact bordered attribute card.
func RenderAttributeCard(styleSet styles.Styles, card AttributeCard) string {
	label := strings.ToUpper(strings.TrimSpace(card.Label))
	if label == "" {
		label = "?"
	}
	gain := " "
	if card.Gain != "" {
		gain = styleSet.Accent.Render(card.Gain)
	}
	content := lipgloss.JoinVertical(lipgloss.Center, gain, styleSet.Title.Render(label))
	return styleSet.SystemBubble.Padding(0, 2).Render(content)
}

// RenderAttributeRow lays cards out side by side.
func RenderAttributeRow(styleSet styles.Styles, cards []AttributeCard) string {
	rendered := make([]string, 0, len(cards))
	for _, card := range cards {
		rendered = append(rendered, RenderAttributeCard(styleSet, card))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
