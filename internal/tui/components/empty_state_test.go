package components

import (
	"strings"
	"testing"

	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/tui/styles"
)

func TestEmptyStateRender(t *testing.T) {
	styleSet := styles.DefaultStyles()

	t.Run("basic empty state", func(t *testing.T) {
		es := EmptyState{
			Title: "No items found",
		}
		result := es.Render(styleSet)
		if !strings.Contains(result, "No items found") {
			t.Errorf("Expected title in output, got: %s", result)
		}
	})

	t.Run("empty state with subtitle", func(t *testing.T) {
		es := EmptyState{
			Title:    "No data",
			Subtitle: "Check back later",
		}
		result := es.Render(styleSet)
		if !strings.Contains(result, "Check back later") {
			t.Errorf("Expected subtitle in output, got: %s", result)
		}
	})

	t.Run("demo empty state", func(t *testing.T) {
		result := EmptyDemo().Render(styleSet)
		for _, exp := range []string{"No demo script", "Try:", "awaken scripts list"} {
			if !strings.Contains(result, exp) {
				t.Errorf("Expected %q in output, got: %s", exp, result)
			}
		}
	})
}

func TestRenderAttributeRow(t *testing.T) {
	styleSet := styles.DefaultStyles()
	row := RenderAttributeRow(styleSet, []AttributeCard{{Label: "força", Gain: "+2"}, {Label: "foco"}})

	for _, exp := range []string{"FORÇA", "+2", "FOCO"} {
		if !strings.Contains(row, exp) {
			t.Errorf("Expected %q in row, got: %s", exp, row)
		}
	}
}

func TestRenderStepBadge(t *testing.T) {
	styleSet := styles.DefaultStyles()

	tests := []struct {
		name  string
		state sequence.State
		want  string
	}{
		{"idle", sequence.State{Index: -1}, "Idle"},
		{"running", sequence.State{Started: true, Index: 1, Step: "analyzing"}, "Analyzing"},
		{"snake case", sequence.State{Started: true, Index: 0, Step: "typed_text"}, "Typed text"},
		{"waiting", sequence.State{Started: true, Index: 3, FinalReached: true}, "Waiting"},
		{"done", sequence.State{Started: true, Index: 3, FinalReached: true, Completed: true}, "Done"},
		{"stopped", sequence.State{Started: true, Index: 1, TornDown: true}, "Stopped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderStepBadge(styleSet, tt.state); !strings.Contains(got, tt.want) {
				t.Errorf("RenderStepBadge() = %q, want %q", got, tt.want)
			}
		})
	}
}
