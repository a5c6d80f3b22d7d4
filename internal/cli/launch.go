package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/awaken/internal/config"
	"github.com/opencode-ai/awaken/internal/events"
	"github.com/opencode-ai/awaken/internal/logging"
	"github.com/opencode-ai/awaken/internal/scripts"
	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/sound"
	"github.com/opencode-ai/awaken/internal/tui"
)

type mode int

const (
	modeFull mode = iota
	modeIntro
	modeDemo
)

func (m mode) wantsIntro() bool { return m != modeDemo }
func (m mode) wantsDemo() bool  { return m != modeIntro }

// scriptSet holds the compiled scripts for one run. An empty Script means
// that part of the experience is skipped.
type scriptSet struct {
	Intro       sequence.Script
	IntroPrompt tui.Prompt
	Demo        sequence.Script
	DemoPrompt  tui.Prompt
}

func init() {
	rootCmd.AddCommand(introCmd)
	rootCmd.AddCommand(demoCmd)
}

var introCmd = &cobra.Command{
	Use:   "intro",
	Short: "Play only the boot intro",
	Long:  "Play the boot intro and exit once it is confirmed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperience(cmd, modeIntro)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Open the landing view with the chat demo",
	Long:  "Skip the intro and open the landing view. The chat demo starts once its panel is visible.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExperience(cmd, modeDemo)
	},
}

func runExperience(cmd *cobra.Command, m mode) error {
	cfg := GetConfig()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	vars, err := parseVars(scriptVars)
	if err != nil {
		return err
	}

	set, err := loadScriptSet(cfg, scriptPaths(cfg), vars, m)
	if err != nil {
		return err
	}

	var output *sound.Output
	if cfg.Sound.Enabled {
		output = sound.NewOutput(sound.OptionsFromConfig(cfg.Sound))
	}
	logJournal := events.NewLogRepository(logging.Component("journal"))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if IsInteractive() {
		return tui.Run(ctx, tui.Options{
			Intro:               set.Intro,
			IntroPrompt:         set.IntroPrompt,
			Demo:                set.Demo,
			DemoPrompt:          set.DemoPrompt,
			SkipIntro:           !m.wantsIntro(),
			ExitAfterIntro:      m == modeIntro,
			Output:              output,
			AmbientFadeOut:      cfg.Sound.AmbientFadeOut,
			Journal:             logJournal,
			Theme:               cfg.TUI.Theme,
			VisibilityThreshold: cfg.Demo.VisibilityThreshold,
			VisibilityTimeout:   cfg.Demo.VisibilityTimeout,
		})
	}

	var cues sound.Player = sound.NoopPlayer{}
	if output != nil {
		cues = output
		defer output.Release()
	}
	history := events.NewMemoryRepository(events.DefaultJournalSize)
	return runTranscript(ctx, cmd.OutOrStdout(), set, transcriptOptions{
		Cues:    cues,
		Journal: events.Tee(history, logJournal),
		History: history,
	})
}

// scriptPaths returns the script search paths, with the configured
// directory first.
func scriptPaths(cfg *config.Config) []string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	paths := scripts.SearchPaths(cwd)
	if dir := strings.TrimSpace(cfg.Scripts.Dir); dir != "" {
		paths = append([]string{dir}, paths...)
	}
	return paths
}

func loadScriptSet(cfg *config.Config, paths []string, vars map[string]string, m mode) (scriptSet, error) {
	var set scriptSet

	if m.wantsIntro() {
		compiled, raw, err := compileScript(paths, cfg.Scripts.Intro, vars)
		if err != nil {
			return set, err
		}
		set.Intro = compiled
		set.IntroPrompt = tui.Prompt{Title: raw.Prompt.Title, Subtitle: raw.Prompt.Subtitle}
	}

	if m.wantsDemo() {
		compiled, raw, err := compileScript(paths, cfg.Scripts.Demo, vars)
		if err != nil {
			return set, err
		}
		set.Demo = compiled
		subtitle := raw.Prompt.Subtitle
		if subtitle == "" {
			subtitle = raw.Description
		}
		set.DemoPrompt = tui.Prompt{Title: raw.Prompt.Title, Subtitle: subtitle}
	}

	return set, nil
}

func compileScript(paths []string, name string, vars map[string]string) (sequence.Script, *scripts.Script, error) {
	raw, err := scripts.Find(paths, name)
	if err != nil {
		return sequence.Script{}, nil, &PreflightError{
			Message:  err.Error(),
			Hint:     "Check scripts.intro and scripts.demo in your config",
			NextStep: "awaken scripts list",
		}
	}
	compiled, err := scripts.Compile(raw, vars)
	if err != nil {
		return sequence.Script{}, nil, fmt.Errorf("compile script %q (%s): %w", raw.Name, raw.Source, err)
	}
	return compiled, raw, nil
}
