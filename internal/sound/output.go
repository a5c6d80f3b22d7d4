package sound

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/awaken/internal/config"
	"github.com/opencode-ai/awaken/internal/logging"
)

const defaultMaxConcurrent = 4

// Options configures an Output.
type Options struct {
	// Enabled turns all playback on or off.
	Enabled bool

	// Volume is the master gain applied to rendered cues.
	Volume float64

	// MaxConcurrent caps simultaneous playback.
	MaxConcurrent int

	// Events maps cue names to per-cue configuration (nil enables everything).
	Events map[string]config.SoundEventConfig
}

// OptionsFromConfig builds Options from the sound section of the config.
func OptionsFromConfig(cfg config.SoundConfig) Options {
	return Options{
		Enabled:       cfg.Enabled,
		Volume:        cfg.Volume,
		MaxConcurrent: cfg.MaxConcurrent,
		Events:        cfg.Events,
	}
}

// Output is the process-wide audio output service. It is acquired lazily on
// first use and released explicitly; cues are rendered to temporary WAV files
// and handed to the platform audio player.
type Output struct {
	opts   Options
	logger zerolog.Logger

	mu        sync.Mutex
	acquired  bool
	available bool
	command   string
	args      []string

	concurrent atomic.Int32
	inflight   sync.WaitGroup

	rngMu sync.Mutex
	rng   *rand.Rand

	// detect and run are swapped in tests.
	detect func() (string, []string)
	run    func(ctx context.Context, command string, args []string) error
}

// NewOutput creates an output service. Nothing touches the audio system
// until the first Acquire or Play.
func NewOutput(opts Options) *Output {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.Volume < 0 || opts.Volume > 1 {
		opts.Volume = config.DefaultConfig().Sound.Volume
	}
	return &Output{
		opts:   opts,
		logger: logging.Component("sound"),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		detect: detectAudioCommand,
		run:    runCommand,
	}
}

// Acquire detects the audio player once. Later calls return the cached
// result until Release. It reports whether playback is possible.
func (o *Output) Acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.acquired {
		return o.available
	}
	o.command, o.args = o.detect()
	o.available = o.command != ""
	o.acquired = true

	o.logger.Debug().
		Bool("audio_available", o.available).
		Str("audio_command", o.command).
		Str("platform", runtime.GOOS).
		Msg("audio output acquired")
	return o.available
}

// Release waits for in-flight cues and drops the detected player. The next
// Play acquires again. Callers stop issuing cues before releasing.
func (o *Output) Release() {
	o.inflight.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.acquired {
		return
	}
	o.acquired = false
	o.available = false
	o.command = ""
	o.args = nil
	o.logger.Debug().Msg("audio output released")
}

// Available reports whether the last Acquire found a player.
func (o *Output) Available() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.acquired && o.available
}

// Play renders and plays cue asynchronously. It does nothing if:
//   - sound is disabled globally or for this cue
//   - no audio player is available on this platform
//   - the cue is unknown
//   - the concurrent playback limit is reached
func (o *Output) Play(cue Cue) {
	if !o.opts.Enabled || cue == CueNone {
		return
	}

	if eventConfig, exists := o.opts.Events[string(cue)]; exists {
		if !eventConfig.Enabled {
			o.logger.Debug().Str("cue", string(cue)).Msg("cue disabled by config")
			return
		}
		if len(eventConfig.OverrideSounds) > 0 {
			o.rngMu.Lock()
			idx := o.rng.IntN(len(eventConfig.OverrideSounds))
			o.rngMu.Unlock()
			o.playFile(cue, eventConfig.OverrideSounds[idx])
			return
		}
	}

	if !o.Acquire() {
		o.logger.Debug().Str("cue", string(cue)).Msg("no audio player available")
		return
	}

	o.rngMu.Lock()
	tones := Recipe(cue, o.rng)
	o.rngMu.Unlock()
	if len(tones) == 0 {
		o.logger.Debug().Str("cue", string(cue)).Msg("unknown cue")
		return
	}

	if !o.reserve() {
		o.logger.Debug().Str("cue", string(cue)).Msg("concurrent cue limit reached")
		return
	}

	samples := Render(tones, o.opts.Volume)
	go func() {
		defer o.done()
		if err := o.PlaySamples(context.Background(), samples); err != nil {
			o.logger.Debug().Err(err).Str("cue", string(cue)).Msg("cue playback failed")
		}
	}()
}

// playFile plays an override file from disk, falling back to the synthesized cue.
func (o *Output) playFile(cue Cue, path string) {
	if !o.Acquire() {
		o.logger.Debug().Str("path", path).Msg("no audio player available for override file")
		return
	}
	if !o.reserve() {
		o.logger.Debug().Str("path", path).Msg("concurrent cue limit reached")
		return
	}

	go func() {
		defer o.done()
		if _, err := os.Stat(path); err != nil {
			o.logger.Debug().Err(err).Str("path", path).Str("cue", string(cue)).
				Msg("override sound not found, falling back to synthesized cue")
			o.rngMu.Lock()
			tones := Recipe(cue, o.rng)
			o.rngMu.Unlock()
			if err := o.PlaySamples(context.Background(), Render(tones, o.opts.Volume)); err != nil {
				o.logger.Debug().Err(err).Str("cue", string(cue)).Msg("fallback playback failed")
			}
			return
		}
		if err := o.playPath(context.Background(), path); err != nil {
			o.logger.Debug().Err(err).Str("path", path).Msg("override playback failed")
		}
	}()
}

// PlaySamples writes samples to a temporary WAV file and plays it, blocking
// until the player exits or ctx is canceled.
func (o *Output) PlaySamples(ctx context.Context, samples []int) error {
	if len(samples) == 0 {
		return nil
	}

	tmpFile, err := os.CreateTemp("", "awaken-sound-*.wav")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			o.logger.Debug().Err(err).Str("path", tmpPath).Msg("failed to remove temp file")
		}
	}()

	if err := WriteWAV(tmpFile, samples); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return o.playPath(ctx, tmpPath)
}

func (o *Output) playPath(ctx context.Context, path string) error {
	o.mu.Lock()
	command := o.command
	args := buildArgs(o.args, path)
	o.mu.Unlock()

	if command == "" {
		return fmt.Errorf("no audio player available")
	}
	return o.run(ctx, command, args)
}

func (o *Output) reserve() bool {
	if o.concurrent.Add(1) > int32(o.opts.MaxConcurrent) {
		o.concurrent.Add(-1)
		return false
	}
	o.inflight.Add(1)
	return true
}

func (o *Output) done() {
	o.concurrent.Add(-1)
	o.inflight.Done()
}

func runCommand(ctx context.Context, command string, args []string) error {
	cmd := exec.CommandContext(ctx, command, args...) //nolint:gosec // command comes from detectAudioCommand
	return cmd.Run()
}

// buildArgs returns a fresh argument slice so concurrent cues never share a
// backing array.
func buildArgs(base []string, path string) []string {
	if runtime.GOOS == "windows" {
		return []string{"-c", fmt.Sprintf("(New-Object System.Media.SoundPlayer '%s').PlaySync()", path)}
	}
	args := make([]string, len(base)+1)
	copy(args, base)
	args[len(args)-1] = path
	return args
}

// detectAudioCommand returns the audio command and base arguments for the
// current platform, or an empty command when none is installed.
func detectAudioCommand() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		if path, err := exec.LookPath("afplay"); err == nil {
			return path, nil
		}
	case "linux":
		if path, err := exec.LookPath("paplay"); err == nil {
			return path, nil
		}
		if path, err := exec.LookPath("aplay"); err == nil {
			return path, []string{"-q"}
		}
	case "windows":
		if path, err := exec.LookPath("powershell.exe"); err == nil {
			return path, nil
		}
	}
	return "", nil
}
