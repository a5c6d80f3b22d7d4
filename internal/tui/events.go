package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/opencode-ai/awaken/internal/sequence"
)

// SequenceMsg carries one sequencer event into the program.
type SequenceMsg struct {
	Event sequence.Event
}

// GateFiredMsg reports that the demo panel became visible enough.
type GateFiredMsg struct {
	RunID string
}

// AmbientMsg reports the ambient drone turning on or off.
type AmbientMsg struct {
	Playing bool
}

// bridge carries messages from background goroutines into the program.
// Sends give up once the program's context is done.
type bridge struct {
	ctx context.Context
	ch  chan tea.Msg
}

func newBridge(ctx context.Context) *bridge {
	return &bridge{ctx: ctx, ch: make(chan tea.Msg, 64)}
}

// sink returns a sequence sink that forwards events as SequenceMsg. It
// blocks while the program is busy, and returns as soon as either the
// sequencer's or the program's context ends.
func (b *bridge) sink() sequence.Sink {
	return func(ctx context.Context, ev sequence.Event) {
		select {
		case b.ch <- SequenceMsg{Event: ev}:
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
	}
}

// post delivers msg without blocking the caller.
func (b *bridge) post(msg tea.Msg) {
	select {
	case b.ch <- msg:
		return
	default:
	}
	go func() {
		select {
		case b.ch <- msg:
		case <-b.ctx.Done():
		}
	}()
}

// listen returns a command that waits for the next bridged message.
func (b *bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.ch:
			return msg
		case <-b.ctx.Done():
			return nil
		}
	}
}

type tickMsg time.Time

const blinkInterval = 500 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(blinkInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
