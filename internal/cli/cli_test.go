package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/awaken/internal/config"
	"github.com/opencode-ai/awaken/internal/events"
	"github.com/opencode-ai/awaken/internal/models"
	"github.com/opencode-ai/awaken/internal/scripts"
	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/sound"
	"github.com/opencode-ai/awaken/internal/tui"
)

// instantClock advances by exactly the requested duration on every wait.
type instantClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *instantClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

func transcriptScript(t *testing.T) sequence.Script {
	t.Helper()
	script, err := sequence.NewScript("boot",
		sequence.Step{
			ID:           "loading",
			Kind:         sequence.KindLoading,
			Title:        "BOOT",
			Progress:     sequence.Progress{Increment: 25, Interval: 10 * time.Millisecond},
			Lines:        []string{"kernel ok"},
			LineInterval: 10 * time.Millisecond,
		},
		sequence.Step{
			ID:           "greet",
			Kind:         sequence.KindTypedText,
			Title:        "GREETING",
			Text:         "oi",
			TypeInterval: 5 * time.Millisecond,
			Hold:         time.Millisecond,
		},
		sequence.Step{
			ID:           "final",
			Kind:         sequence.KindTerminal,
			Title:        "DONE",
			Data:         []string{"level 1"},
			AwaitConfirm: true,
			ConfirmCue:   sound.CueClick,
			Action:       "GO",
		},
	)
	require.NoError(t, err)
	return script
}

func requireInOrder(t *testing.T, out string, parts ...string) {
	t.Helper()
	pos := 0
	for _, part := range parts {
		idx := strings.Index(out[pos:], part)
		require.GreaterOrEqual(t, idx, 0, "missing %q after offset %d in:\n%s", part, pos, out)
		pos += idx + len(part)
	}
}

func TestTranscriptConfirmsIntro(t *testing.T) {
	var out bytes.Buffer
	journal := events.NewMemoryRepository(events.DefaultJournalSize)

	var mu sync.Mutex
	var cues []sound.Cue
	player := sound.PlayerFunc(func(cue sound.Cue) {
		mu.Lock()
		cues = append(cues, cue)
		mu.Unlock()
	})

	err := runTranscript(context.Background(), &out, scriptSet{
		Intro:       transcriptScript(t),
		IntroPrompt: tui.Prompt{Title: "START", Subtitle: "press enter"},
	}, transcriptOptions{Clock: &instantClock{}, Cues: player, Journal: journal, History: journal})
	require.NoError(t, err)

	requireInOrder(t, out.String(),
		"START\n",
		"press enter\n",
		"== boot ==\n",
		"BOOT\n",
		"[#####...............] 25%\n",
		"> kernel ok\n",
		"[####################] 100%\n",
		"GREETING\noi\n",
		"DONE\n  level 1\n[ GO ]\n",
		"== boot complete ==\n",
		"7 journal events, last sequence.torn_down\n",
	)
	require.NotContains(t, out.String(), " 0%")

	mu.Lock()
	require.Contains(t, cues, sound.CueClick)
	mu.Unlock()

	var types []models.EventType
	for _, ev := range journal.List() {
		types = append(types, ev.Type)
	}
	require.Equal(t, []models.EventType{
		models.EventTypeSequenceStarted,
		models.EventTypeStepEntered,
		models.EventTypeStepEntered,
		models.EventTypeStepEntered,
		models.EventTypeFinalReached,
		models.EventTypeSequenceComplete,
		models.EventTypeSequenceTornDown,
	}, types)
}

func TestTranscriptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := runTranscript(ctx, &out, scriptSet{Intro: transcriptScript(t), Demo: transcriptScript(t)}, transcriptOptions{Clock: &instantClock{}})
	require.NoError(t, err)
	require.NotContains(t, out.String(), "complete")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestTranscriptWriteError(t *testing.T) {
	err := runTranscript(context.Background(), failingWriter{}, scriptSet{Intro: transcriptScript(t)}, transcriptOptions{Clock: &instantClock{}})
	require.ErrorContains(t, err, "closed pipe")
}

func TestLoadScriptSetBuiltins(t *testing.T) {
	cfg := config.DefaultConfig()
	paths := []string{t.TempDir()}

	set, err := loadScriptSet(cfg, paths, map[string]string{"player": "Ana"}, modeFull)
	require.NoError(t, err)
	require.Equal(t, "intro", set.Intro.Name())
	require.Equal(t, "demo", set.Demo.Name())
	require.Equal(t, "INICIAR SISTEMA", set.IntroPrompt.Title)
	require.Equal(t, "Digite seu objetivo...", set.DemoPrompt.Title)
	require.Equal(t, "Evolução IA - Como Funciona", set.DemoPrompt.Subtitle)

	set, err = loadScriptSet(cfg, paths, nil, modeIntro)
	require.NoError(t, err)
	require.Equal(t, 0, set.Demo.Len())

	set, err = loadScriptSet(cfg, paths, nil, modeDemo)
	require.NoError(t, err)
	require.Equal(t, 0, set.Intro.Len())
	require.Equal(t, 4, set.Demo.Len())
}

func TestLoadScriptSetUnknownScript(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scripts.Intro = "missing"

	_, err := loadScriptSet(cfg, []string{t.TempDir()}, nil, modeFull)
	var pre *PreflightError
	require.ErrorAs(t, err, &pre)
	require.Contains(t, pre.Message, "missing")
	require.Equal(t, "awaken scripts list", pre.NextStep)
}

func TestScriptPathsPutsConfigDirFirst(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scripts.Dir = "/opt/awaken"

	paths := scriptPaths(cfg)
	require.Equal(t, "/opt/awaken", paths[0])
	require.Greater(t, len(paths), 1)
}

func TestWriteScriptTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tour.yaml"), []byte(`name: tour
description: Product tour
steps:
  - id: end
    kind: terminal
`), 0o644))

	items, err := scripts.LoadFromSearchPaths([]string{dir})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, writeScriptTable(&out, config.DefaultConfig(), items))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[0], "NAME"))
	require.Contains(t, lines[1], "tour")
	require.Contains(t, lines[1], "Product tour")
	require.Contains(t, out.String(), "builtin")
	require.Regexp(t, `intro\s+8\s+intro\s+builtin`, out.String())
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"player=Ana", "level = Mestre", "empty="})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"player": "Ana", "level": " Mestre", "empty": ""}, vars)

	_, err = parseVars([]string{"novalue"})
	require.Error(t, err)
	_, err = parseVars([]string{"=x"})
	require.Error(t, err)
}

func TestParseCueArg(t *testing.T) {
	cue, err := parseCueArg(" Click ")
	require.NoError(t, err)
	require.Equal(t, sound.CueClick, cue)

	_, err = parseCueArg("")
	require.Error(t, err)
	_, err = parseCueArg("boom")
	require.ErrorContains(t, err, "glitch")
}

func TestWriteCueList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeCueList(&out))
	require.Contains(t, out.String(), "click    1 tone(s), 100ms")
	require.Contains(t, out.String(), "success  3 tone(s), 600ms")
	require.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), len(sound.Cues))
}

func TestIsNonInteractive(t *testing.T) {
	original := nonInteractive
	t.Cleanup(func() { nonInteractive = original })

	nonInteractive = true
	require.True(t, IsNonInteractive())

	nonInteractive = false
	t.Setenv("AWAKEN_NON_INTERACTIVE", "1")
	require.True(t, IsNonInteractive())
	require.False(t, IsInteractive())
}

func TestPrintError(t *testing.T) {
	var out bytes.Buffer
	printError(&out, &PreflightError{Message: "no audio player found", Hint: "install aplay", NextStep: "awaken sound list"})
	require.Equal(t, "Error: no audio player found\nHint: install aplay\nNext: awaken sound list\n", out.String())

	out.Reset()
	printError(&out, errors.New("boom"))
	require.Equal(t, "Error: boom\n", out.String())
}

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{{"intro"}, {"demo"}, {"scripts", "list"}, {"sound", "play"}, {"sound", "list"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		require.Equal(t, path[len(path)-1], cmd.Name())
	}
	for _, name := range []string{"config", "log-level", "log-file", "no-sound", "non-interactive", "var"} {
		require.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}
