// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/awaken/internal/tui/styles"
)

// EmptyState represents an empty state message with optional suggestions.
type EmptyState struct {
	Icon        string
	Title       string
	Subtitle    string
	Suggestions []Suggestion
}

// Suggestion is a command the user can run, with a description.
type Suggestion struct {
	Command     string
	Description string
}

// Render renders the empty state with the given styles.
func (e EmptyState) Render(styleSet styles.Styles) string {
	var lines []string

	titleLine := e.Title
	if e.Icon != "" {
		titleLine = e.Icon + "  " + titleLine
	}
	lines = append(lines, styleSet.Muted.Render(titleLine))

	if e.Subtitle != "" {
		lines = append(lines, styleSet.Muted.Render(e.Subtitle))
	}

	if len(e.Suggestions) > 0 {
		lines = append(lines, "")
		lines = append(lines, styleSet.Text.Render("Try:"))
		for _, s := range e.Suggestions {
			cmdLine := fmt.Sprintf("  %s", styleSet.Accent.Render(s.Command))
			if s.Description != "" {
				cmdLine += styleSet.Muted.Render(fmt.Sprintf("  # %s", s.Description))
			}
			lines = append(lines, cmdLine)
		}
	}

	return strings.Join(lines, "\n")
}

// EmptyDemo is shown on the landing page when no demo script is configured.
func EmptyDemo() EmptyState {
	return EmptyState{
		Icon:     "[ ]",
		Title:    "No demo script configured",
		Subtitle: "Set scripts.demo in config.yaml or add one to .awaken/scripts.",
		Suggestions: []Suggestion{
			{Command: "awaken scripts list", Description: "show available scripts"},
		},
	}
}
