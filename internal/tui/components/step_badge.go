package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/tui/styles"
)

// RenderStepBadge renders a sequencer's progress with icon and color.
func RenderStepBadge(styleSet styles.Styles, state sequence.State) string {
	icon, label, style := stepDescriptor(styleSet, state)
	return style.Render(fmt.Sprintf("%s %s", icon, label))
}

func stepDescriptor(styleSet styles.Styles, state sequence.State) (string, string, lipgloss.Style) {
	switch {
	case state.TornDown && !state.Completed:
		return "-", "Stopped", styleSet.Muted
	case state.Completed:
		return "OK", "Done", styleSet.Success
	case state.FinalReached:
		return "!", "Waiting", styleSet.Focus
	case !state.Started || state.Idle():
		return "~", "Idle", styleSet.Muted
	default:
		return ">", normalizeStepLabel(state.Step), styleSet.Accent
	}
}

func normalizeStepLabel(step string) string {
	value := strings.TrimSpace(strings.ReplaceAll(step, "_", " "))
	if value == "" {
		return "Running"
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
