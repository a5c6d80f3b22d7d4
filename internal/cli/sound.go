package cli

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/awaken/internal/config"
	"github.com/opencode-ai/awaken/internal/sound"
)

func init() {
	rootCmd.AddCommand(soundCmd)
	soundCmd.AddCommand(soundPlayCmd)
	soundCmd.AddCommand(soundListCmd)
}

var soundCmd = &cobra.Command{
	Use:   "sound",
	Short: "Preview sound cues",
}

var soundPlayCmd = &cobra.Command{
	Use:       "play <cue>",
	Short:     "Synthesize and play one cue",
	Args:      cobra.ExactArgs(1),
	ValidArgs: cueNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			cfg = config.DefaultConfig()
		}

		cue, err := parseCueArg(args[0])
		if err != nil {
			return err
		}
		if !cfg.Sound.Enabled {
			return &PreflightError{
				Message:  "sound is disabled",
				Hint:     "Drop --no-sound or set sound.enabled: true",
				NextStep: "awaken sound play " + string(cue),
			}
		}

		out := sound.NewOutput(sound.OptionsFromConfig(cfg.Sound))
		if !out.Acquire() {
			return &PreflightError{
				Message:  "no audio player found",
				Hint:     "Install paplay or aplay (Linux), afplay ships with macOS",
				NextStep: "awaken sound play " + string(cue),
			}
		}
		defer out.Release()

		samples := sound.Render(sound.Recipe(cue, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))), cfg.Sound.Volume)
		progress := startProgress("Playing " + string(cue))
		if err := out.PlaySamples(cmd.Context(), samples); err != nil {
			progress.Fail(err)
			return fmt.Errorf("play %s: %w", cue, err)
		}
		progress.Done()
		return nil
	},
}

var soundListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sound cues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeCueList(cmd.OutOrStdout())
	},
}

func parseCueArg(name string) (sound.Cue, error) {
	cue, ok := sound.ParseCue(strings.ToLower(strings.TrimSpace(name)))
	if !ok || cue == sound.CueNone {
		return sound.CueNone, fmt.Errorf("unknown cue %q (known: %s)", name, strings.Join(cueNames(), ", "))
	}
	return cue, nil
}

func cueNames() []string {
	names := make([]string, 0, len(sound.Cues))
	for _, cue := range sound.Cues {
		names = append(names, string(cue))
	}
	return names
}

func writeCueList(out io.Writer) error {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, cue := range sound.Cues {
		tones := sound.Recipe(cue, rng)
		samples := sound.Render(tones, 1)
		length := time.Duration(len(samples)) * time.Second / sound.SampleRate
		if _, err := fmt.Fprintf(out, "%-8s %d tone(s), %s\n", cue, len(tones), length.Round(time.Millisecond)); err != nil {
			return err
		}
	}
	return nil
}
