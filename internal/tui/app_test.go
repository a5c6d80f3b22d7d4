package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/awaken/internal/events"
	"github.com/opencode-ai/awaken/internal/models"
	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/sound"
)

func testIntro() sequence.Script {
	return sequence.MustScript("intro",
		sequence.Step{
			ID:       "loading",
			Kind:     sequence.KindLoading,
			Title:    "CARREGANDO SISTEMA",
			Progress: sequence.Progress{Increment: 50, Interval: time.Millisecond},
		},
		sequence.Step{ID: "alert", Kind: sequence.KindAlert, Title: "ALERTA", Cue: sound.CueAlert},
		sequence.Step{
			ID:           "final",
			Kind:         sequence.KindTerminal,
			Title:        "SYSTEM_MSG_001",
			Data:         []string{"O sistema aguarda seu comando."},
			Action:       "ACESSAR O SISTEMA",
			AwaitConfirm: true,
			ConfirmCue:   sound.CueClick,
		},
	)
}

func testDemo() sequence.Script {
	return sequence.MustScript("demo",
		sequence.Step{ID: "typing", Kind: sequence.KindTypedText, Text: "quero treinar", TypeInterval: time.Millisecond},
		sequence.Step{ID: "analyzing", Kind: sequence.KindStatic, Title: "ANALISANDO", Hold: time.Millisecond},
		sequence.Step{
			ID:    "responded",
			Kind:  sequence.KindTerminal,
			Title: "SISTEMA ATUALIZADO:",
			Data:  []string{"Missão: Treino | +150 XP"},
		},
	)
}

func newTestModel(t *testing.T, opts Options) model {
	t.Helper()
	if opts.Intro.Len() == 0 {
		opts.Intro = testIntro()
	}
	if opts.Demo.Len() == 0 {
		opts.Demo = testDemo()
	}
	opts.IntroPrompt = Prompt{Title: "INICIAR SISTEMA", Subtitle: "Pressione Enter"}
	opts.DemoPrompt = Prompt{Title: "Digite seu objetivo...", Subtitle: "Evolução IA"}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m := newModel(ctx, opts)
	t.Cleanup(func() { m.shutdown() })
	return m
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// pump feeds bridged messages into the model until cond holds.
func pump(t *testing.T, m model, cond func(model) bool) model {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond(m) {
		select {
		case msg := <-m.bridge.ch:
			m, _ = update(t, m, msg)
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
	return m
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPromptView(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	require.Equal(t, screenPrompt, m.screen)
	require.Contains(t, m.View(), spaced("INICIAR SISTEMA"))
	require.Contains(t, m.View(), "enter start")
}

func TestSmallTerminal(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 30, Height: 10})
	require.Contains(t, m.View(), "Terminal too small")
}

func TestIntroFlowOpensLanding(t *testing.T) {
	journal := events.NewMemoryRepository(0)
	m := newTestModel(t, Options{Journal: journal})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})

	m, _ = update(t, m, key("enter"))
	require.Equal(t, screenIntro, m.screen)
	require.NotNil(t, m.intro)
	introRun := m.intro.RunID()

	m = pump(t, m, func(m model) bool { return m.introState.FinalReached })
	require.Contains(t, m.View(), spaced("ACESSAR O SISTEMA"))
	require.Contains(t, m.View(), "enter confirm")

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	require.Nil(t, cmd())

	m = pump(t, m, func(m model) bool { return m.screen == screenLanding })
	require.Nil(t, m.intro)
	require.NotNil(t, m.demo)
	require.NotNil(t, m.gate)

	var types []models.EventType
	for _, event := range journal.ListByRun(introRun) {
		types = append(types, event.Type)
	}
	require.Equal(t, models.EventTypeSequenceStarted, types[0])
	require.Contains(t, types, models.EventTypeFinalReached)
	require.Equal(t, models.EventTypeSequenceTornDown, types[len(types)-1])
}

func TestExitAfterIntro(t *testing.T) {
	m := newTestModel(t, Options{ExitAfterIntro: true})
	m, _ = update(t, m, key("enter"))
	m = pump(t, m, func(m model) bool { return m.introState.FinalReached })
	_, cmd := update(t, m, key("enter"))
	cmd()

	msg := <-m.bridge.ch
	for {
		sm, ok := msg.(SequenceMsg)
		require.True(t, ok)
		if sm.Event.Type == sequence.EventComplete {
			break
		}
		m, _ = update(t, m, msg)
		msg = <-m.bridge.ch
	}
	_, cmd = update(t, m, msg)
	require.True(t, isQuit(cmd))
}

func TestStaleRunEventsAreDropped(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = update(t, m, key("enter"))
	before := m.introState

	m, _ = update(t, m, SequenceMsg{Event: sequence.Event{
		Type:  sequence.EventStep,
		RunID: "some-old-run",
		Step:  sequence.Step{ID: "ghost", Kind: sequence.KindStatic},
		State: sequence.State{Step: "ghost", Index: 9},
	}})
	require.Equal(t, before, m.introState)
	require.NotEqual(t, "ghost", m.introStep.ID)
}

func TestDemoStartsWhenScrolledIntoView(t *testing.T) {
	journal := events.NewMemoryRepository(0)
	m := newTestModel(t, Options{SkipIntro: true, Journal: journal})
	require.Equal(t, screenLanding, m.screen)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 24})
	require.False(t, m.gate.Fired())
	require.False(t, m.demo.State().Started)
	require.Contains(t, m.View(), spaced("O DESPERTAR"))

	for i := 0; i < 10 && !m.gate.Fired(); i++ {
		m, _ = update(t, m, key("pgdown"))
	}
	require.True(t, m.gate.Fired())

	m = pump(t, m, func(m model) bool { return m.demoState.Completed })
	require.True(t, m.demoState.Visible)
	require.Contains(t, m.View(), "SISTEMA ATUALIZADO:")
	require.Contains(t, m.View(), "+150 XP")

	var gateEvents int
	for _, event := range journal.List() {
		if event.Type == models.EventTypeGateTriggered {
			gateEvents++
		}
	}
	require.Equal(t, 1, gateEvents)

	// Scrolling away and back never restarts the demo.
	runID := m.demo.RunID()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	m, _ = update(t, m, key("pgdown"))
	m, _ = update(t, m, key("pgdown"))
	require.Equal(t, runID, m.demo.RunID())
	require.Len(t, m.bridge.ch, 0)
}

func TestGateTimeoutStartsDemo(t *testing.T) {
	m := newTestModel(t, Options{SkipIntro: true, VisibilityTimeout: 10 * time.Millisecond})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 24})
	m = pump(t, m, func(m model) bool { return m.demoState.Completed })
	_, timedOut := m.gate.Outcome()
	require.True(t, timedOut)
}

func TestQuitTearsEverythingDown(t *testing.T) {
	m := newTestModel(t, Options{SkipIntro: true})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 24})
	demo := m.demo
	gate := m.gate

	m, cmd := update(t, m, key("q"))
	require.True(t, isQuit(cmd))
	require.Nil(t, m.demo)
	require.True(t, demo.State().TornDown)

	// The gate no longer observes the panel.
	for i := 0; i < 10; i++ {
		m, _ = update(t, m, key("pgdown"))
	}
	require.False(t, gate.Fired())
}

type fakeAmbient struct {
	playing bool
	starts  int
	stops   int
	closed  bool
}

func (f *fakeAmbient) Start() bool {
	if f.playing {
		return false
	}
	f.playing = true
	f.starts++
	return true
}

func (f *fakeAmbient) Stop() bool {
	if !f.playing {
		return false
	}
	f.playing = false
	f.stops++
	return true
}

func (f *fakeAmbient) Playing() bool { return f.playing }
func (f *fakeAmbient) Close()        { f.closed = true }

func TestAmbientToggle(t *testing.T) {
	journal := events.NewMemoryRepository(0)
	m := newTestModel(t, Options{SkipIntro: true, Journal: journal})
	amb := &fakeAmbient{}
	m.ambient = amb
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 24})
	require.Contains(t, m.View(), "m ambient off")

	m, _ = update(t, m, key("m"))
	require.Equal(t, 1, amb.starts)
	m, _ = update(t, m, AmbientMsg{Playing: true})
	require.Contains(t, m.View(), "m ambient on")

	m, _ = update(t, m, key("m"))
	require.Equal(t, 1, amb.stops)
	m, _ = update(t, m, AmbientMsg{Playing: false})

	m, _ = update(t, m, key("q"))
	require.True(t, amb.closed)

	var types []models.EventType
	for _, event := range journal.List() {
		types = append(types, event.Type)
	}
	require.Equal(t, []models.EventType{models.EventTypeAmbientStarted, models.EventTypeAmbientStopped}, types[:2])
}

func TestProgressBar(t *testing.T) {
	m := newTestModel(t, Options{})
	bar := m.progressBar(50, 10)
	require.Equal(t, 5, strings.Count(bar, "█"))
	require.Equal(t, 5, strings.Count(bar, "░"))
	require.Equal(t, 10, strings.Count(m.progressBar(140, 10), "█"))
}

func TestSpacedAndGlitch(t *testing.T) {
	require.Equal(t, "O K", spaced("OK"))
	require.Equal(t, "A B\nC", spaced("AB\nC"))
	require.Equal(t, "C0ND1Ç40", glitch("CONDIÇAO"))
}
