// Package tui implements the Awaken terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/opencode-ai/awaken/internal/events"
	"github.com/opencode-ai/awaken/internal/logging"
	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/sound"
	"github.com/opencode-ai/awaken/internal/tui/styles"
	"github.com/opencode-ai/awaken/internal/visibility"
)

// Prompt is the call to action shown before a script starts.
type Prompt struct {
	Title    string
	Subtitle string
}

// Options configures the TUI program.
type Options struct {
	Intro       sequence.Script
	IntroPrompt Prompt
	Demo        sequence.Script
	DemoPrompt  Prompt

	// SkipIntro opens the landing view directly.
	SkipIntro bool
	// ExitAfterIntro quits once the intro completes.
	ExitAfterIntro bool

	// Output plays cues and the ambient drone. Nil runs silently.
	Output         *sound.Output
	AmbientFadeOut time.Duration

	Journal events.Repository
	Theme   string

	VisibilityThreshold float64
	VisibilityTimeout   time.Duration

	Clock sequence.Clock
}

// Run launches the Awaken TUI program and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := program.Run()
	if fm, ok := final.(model); ok {
		fm.shutdown()
	} else {
		m.shutdown()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type screen int

const (
	screenPrompt screen = iota
	screenIntro
	screenLanding
)

const (
	minWidth  = 50
	minHeight = 16
)

type ambientPlayer interface {
	Start() bool
	Stop() bool
	Playing() bool
	Close()
}

type model struct {
	opts     Options
	ctx      context.Context
	bridge   *bridge
	styles   styles.Styles
	logger   zerolog.Logger
	recorder *events.Recorder
	cues     sound.Player

	width  int
	height int
	screen screen
	blink  bool

	intro      *sequence.Sequencer
	introState sequence.State
	introStep  sequence.Step

	demo      *sequence.Sequencer
	demoState sequence.State
	demoStep  sequence.Step
	gate      *visibility.Gate
	panel     *visibility.Viewport
	viewport  viewport.Model
	ready     bool

	ambient   ambientPlayer
	ambientOn bool
}

func newModel(ctx context.Context, opts Options) model {
	b := newBridge(ctx)
	m := model{
		opts:     opts,
		ctx:      ctx,
		bridge:   b,
		styles:   styles.BuildStyles(styles.Lookup(opts.Theme)),
		logger:   logging.Component("tui"),
		recorder: events.NewRecorder(opts.Journal),
		cues:     sound.NoopPlayer{},
		screen:   screenPrompt,
	}
	if opts.Output != nil {
		m.cues = opts.Output
		m.ambient = sound.NewAmbient(opts.Output, sound.AmbientOptions{
			FadeOut: opts.AmbientFadeOut,
			OnStateChange: func(playing bool) {
				b.post(AmbientMsg{Playing: playing})
			},
		})
	}
	if opts.SkipIntro || opts.Intro.Len() == 0 {
		m.enterLanding()
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.bridge.listen(), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.shutdown()
			return m, tea.Quit
		case "m":
			m.toggleAmbient()
			return m, nil
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.screen == screenLanding && m.ready {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			m.observe()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case SequenceMsg:
		m = m.applyEvent(msg.Event)
		if m.screen == screenIntro && m.intro == nil {
			return m.finishIntro()
		}
		return m, m.bridge.listen()

	case GateFiredMsg:
		m.startDemo(msg.RunID)
		return m, m.bridge.listen()

	case AmbientMsg:
		m.ambientOn = msg.Playing
		if m.opts.Journal != nil {
			if err := events.LogAmbient(m.ctx, m.opts.Journal, msg.Playing); err != nil {
				m.logger.Debug().Err(err).Msg("failed to journal ambient change")
			}
		}
		return m, m.bridge.listen()

	case tickMsg:
		m.blink = !m.blink
		return m, tickCmd()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenPrompt:
		if msg.String() == "enter" || msg.String() == " " {
			m.startIntro()
		}
	case screenIntro:
		if (msg.String() == "enter" || msg.String() == " ") && m.intro != nil &&
			m.introState.FinalReached && !m.introState.Completed {
			// Confirm emits through the bridge, which this goroutine drains.
			intro := m.intro
			return m, func() tea.Msg {
				intro.Confirm()
				return nil
			}
		}
	case screenLanding:
		if m.ready {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			m.observe()
			return m, cmd
		}
	}
	return m, nil
}

func (m *model) newSequencer(script sequence.Script) *sequence.Sequencer {
	seq, err := sequence.New(script, sequence.Options{
		Clock: m.opts.Clock,
		Cues:  m.cues,
		Sink:  m.recorder.Sink(m.bridge.sink()),
	})
	if err != nil {
		m.logger.Debug().Err(err).Str("script", script.Name()).Msg("cannot build sequencer")
		return nil
	}
	return seq
}

func (m *model) acquireAudio() {
	if m.opts.Output != nil {
		m.opts.Output.Acquire()
	}
}

func (m *model) startIntro() {
	m.acquireAudio()
	m.intro = m.newSequencer(m.opts.Intro)
	if m.intro == nil {
		m.enterLanding()
		return
	}
	m.screen = screenIntro
	m.introState = m.intro.State()
	m.intro.MarkVisible()
	m.intro.Start(m.ctx)
}

// finishIntro leaves the intro once it has completed.
func (m model) finishIntro() (tea.Model, tea.Cmd) {
	if m.opts.ExitAfterIntro {
		m.shutdown()
		return m, tea.Quit
	}
	m.enterLanding()
	return m, m.bridge.listen()
}

func (m *model) enterLanding() {
	m.screen = screenLanding
	if m.opts.Demo.Len() == 0 {
		m.layout()
		return
	}

	m.demo = m.newSequencer(m.opts.Demo)
	if m.demo != nil {
		m.demoState = m.demo.State()
		m.panel = visibility.NewViewport(0, 0)
		m.gate = visibility.NewGate(m.opts.VisibilityThreshold, m.opts.VisibilityTimeout)
		runID, b := m.demo.RunID(), m.bridge
		if err := m.gate.Attach(m.panel, func() { b.post(GateFiredMsg{RunID: runID}) }); err != nil {
			m.logger.Debug().Err(err).Msg("cannot attach demo gate")
		}
	}
	m.layout()
}

func (m *model) startDemo(runID string) {
	if m.demo == nil || m.demo.RunID() != runID {
		return
	}
	m.acquireAudio()
	m.demo.MarkVisible()
	if !m.demo.Start(m.ctx) {
		return
	}
	if m.opts.Journal != nil && m.gate != nil {
		entry, timedOut := m.gate.Outcome()
		if err := events.LogGateTriggered(m.ctx, m.opts.Journal, m.demo.Script().Name(), runID, entry.Ratio, timedOut); err != nil {
			m.logger.Debug().Err(err).Msg("failed to journal gate")
		}
	}
}

// applyEvent folds a sequencer event into the view state. Events from runs
// that are no longer mounted are dropped.
func (m model) applyEvent(ev sequence.Event) model {
	switch {
	case m.intro != nil && ev.RunID == m.intro.RunID():
		m.introState = ev.State
		if ev.Step.ID != "" {
			m.introStep = ev.Step
		}
		if ev.Type == sequence.EventComplete {
			m.teardownIntro()
		}
	case m.demo != nil && ev.RunID == m.demo.RunID():
		m.demoState = ev.State
		if ev.Step.ID != "" {
			m.demoStep = ev.Step
		}
		m.refreshLanding()
	default:
		m.logger.Debug().Str("run_id", ev.RunID).Str("event", string(ev.Type)).Msg("dropping event from stale run")
	}
	return m
}

func (m *model) teardownIntro() {
	if m.intro == nil {
		return
	}
	m.intro.Teardown()
	m.recorder.RecordTeardown(context.Background(), m.intro)
	m.intro = nil
}

func (m *model) toggleAmbient() {
	if m.ambient == nil {
		return
	}
	if m.ambient.Playing() {
		m.ambient.Stop()
		return
	}
	m.acquireAudio()
	m.ambient.Start()
}

// shutdown tears down everything the model started. After it returns no
// sequencer callback or cue fires.
func (m *model) shutdown() {
	if m.gate != nil {
		m.gate.Close()
		m.gate = nil
	}
	m.teardownIntro()
	if m.demo != nil {
		m.demo.Teardown()
		m.recorder.RecordTeardown(context.Background(), m.demo)
		m.demo = nil
	}
	if m.ambient != nil {
		m.ambient.Close()
	}
	if m.opts.Output != nil {
		m.opts.Output.Release()
	}
}

func (m model) View() string {
	if m.width > 0 && m.height > 0 {
		if m.width < minWidth || m.height < minHeight {
			return fmt.Sprintf("%s\n", joinLines(m.smallViewLines()))
		}
	}

	switch m.screen {
	case screenIntro:
		return m.place(m.introView())
	case screenLanding:
		return m.landingView()
	default:
		return m.place(m.promptView())
	}
}

func (m model) smallViewLines() []string {
	message := fmt.Sprintf("Terminal too small (%dx%d).", m.width, m.height)
	hint := fmt.Sprintf("Resize to at least %dx%d.", minWidth, minHeight)

	return []string{
		m.styles.Warning.Render(message),
		m.styles.Muted.Render(hint),
		m.styles.Muted.Render("Press q to quit."),
	}
}

func (m model) footer(hints ...string) string {
	parts := append([]string{}, hints...)
	if m.ambient != nil {
		state := "off"
		if m.ambientOn {
			state = "on"
		}
		parts = append(parts, "m ambient "+state)
	}
	parts = append(parts, "q quit")
	return m.styles.Muted.Render(strings.Join(parts, " | "))
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
