package sound

import (
	"bytes"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/awaken/internal/config"
)

// fakeRunner records played files instead of invoking an audio player.
type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	headers [][]byte
	block   chan struct{}
}

func (f *fakeRunner) run(ctx context.Context, command string, args []string) error {
	path := args[len(args)-1]
	data, err := os.ReadFile(path)
	f.mu.Lock()
	f.calls++
	if err == nil && len(data) >= 12 {
		f.headers = append(f.headers, data[:12])
	}
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
		}
	}
	return err
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestOutput(opts Options, runner *fakeRunner) (*Output, *atomic.Int32) {
	o := NewOutput(opts)
	var detects atomic.Int32
	o.detect = func() (string, []string) {
		detects.Add(1)
		return "fake-player", []string{"-q"}
	}
	o.run = runner.run
	return o, &detects
}

func TestNoopPlayerImplementsPlayer(t *testing.T) {
	var _ Player = NoopPlayer{}
	var _ Player = &Output{}
	var _ Player = PlayerFunc(func(Cue) {})

	require.NotPanics(t, func() {
		NoopPlayer{}.Play(CueAlert)
		NoopPlayer{}.Play("unknown")
	})
}

func TestParseCue(t *testing.T) {
	cue, ok := ParseCue("glitch")
	require.True(t, ok)
	require.Equal(t, CueGlitch, cue)

	_, ok = ParseCue("boom")
	require.False(t, ok)
}

func TestRecipes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, cue := range Cues {
		require.NotEmpty(t, Recipe(cue, rng), "cue %s", cue)
	}
	require.Len(t, Recipe(CueSuccess, rng), 3)
	require.Len(t, Recipe(CueGlitch, rng), 5)
	require.Empty(t, Recipe("unknown", rng))

	typing := Recipe(CueType, rng)[0]
	require.GreaterOrEqual(t, typing.Freq, 800.0)
	require.LessOrEqual(t, typing.Freq, 1000.0)
	require.Equal(t, WaveSquare, typing.Wave)
}

func TestRenderLengthAndRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	samples := Render(Recipe(CueSuccess, rng), 0.3)

	// Last triad note starts at 200ms and lasts 400ms.
	require.Len(t, samples, samplesFor(600*time.Millisecond))
	for _, s := range samples {
		require.LessOrEqual(t, s, maxSample)
		require.GreaterOrEqual(t, s, -maxSample)
	}
	require.Nil(t, Render(nil, 0.3))
}

func TestOscillateShapes(t *testing.T) {
	require.Equal(t, 1.0, oscillate(WaveSquare, 0.25))
	require.Equal(t, -1.0, oscillate(WaveSquare, 0.75))
	require.InDelta(t, -1.0, oscillate(WaveSawtooth, 0), 1e-9)
	require.InDelta(t, 1.0, oscillate(WaveTriangle, 0.5), 1e-9)
	require.InDelta(t, 1.0, oscillate(WaveSine, 0.25), 1e-9)
}

func TestWriteWAV(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "cue.wav"))
	require.NoError(t, err)

	require.NoError(t, WriteWAV(f, Render(Recipe(CueClick, rand.New(rand.NewPCG(5, 6))), 0.3)))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("RIFF")))
	require.Equal(t, []byte("WAVE"), data[8:12])
}

func TestOutputPlaysSynthesizedCue(t *testing.T) {
	runner := &fakeRunner{}
	o, _ := newTestOutput(Options{Enabled: true, Volume: 0.3}, runner)

	o.Play(CueAlert)
	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)
	o.Release()

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.Len(t, runner.headers, 1)
	require.Equal(t, []byte("RIFF"), runner.headers[0][:4])
}

func TestOutputDisabledDoesNothing(t *testing.T) {
	runner := &fakeRunner{}
	o, detects := newTestOutput(Options{Enabled: false}, runner)

	o.Play(CueAlert)
	o.Release()
	require.Zero(t, runner.count())
	require.Zero(t, detects.Load())
}

func TestOutputCueDisabledByConfig(t *testing.T) {
	runner := &fakeRunner{}
	o, _ := newTestOutput(Options{
		Enabled: true,
		Events: map[string]config.SoundEventConfig{
			"type":  {Enabled: false},
			"alert": {Enabled: true},
		},
	}, runner)

	o.Play(CueType)
	o.Play(CueAlert)
	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)
	o.Release()
	require.Equal(t, 1, runner.count())
}

func TestOutputOverrideFallsBackWhenMissing(t *testing.T) {
	runner := &fakeRunner{}
	o, _ := newTestOutput(Options{
		Enabled: true,
		Events: map[string]config.SoundEventConfig{
			"click": {Enabled: true, OverrideSounds: []string{filepath.Join(t.TempDir(), "missing.wav")}},
		},
	}, runner)

	o.Play(CueClick)
	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)
	o.Release()
}

func TestOutputAcquireIsIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	o, detects := newTestOutput(Options{Enabled: true}, runner)

	require.True(t, o.Acquire())
	require.True(t, o.Acquire())
	require.True(t, o.Available())
	require.Equal(t, int32(1), detects.Load())

	o.Release()
	require.False(t, o.Available())
	require.True(t, o.Acquire())
	require.Equal(t, int32(2), detects.Load())
}

func TestOutputWithoutPlayerDropsCues(t *testing.T) {
	runner := &fakeRunner{}
	o, _ := newTestOutput(Options{Enabled: true}, runner)
	o.detect = func() (string, []string) { return "", nil }

	require.NotPanics(t, func() {
		for _, cue := range Cues {
			o.Play(cue)
		}
	})
	o.Release()
	require.Zero(t, runner.count())
}

func TestOutputConcurrencyLimit(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	o, _ := newTestOutput(Options{Enabled: true, MaxConcurrent: 1}, runner)

	o.Play(CueHover)
	require.Eventually(t, func() bool { return runner.count() == 1 }, time.Second, 5*time.Millisecond)

	o.Play(CueHover)
	require.Equal(t, int32(1), o.concurrent.Load())

	close(runner.block)
	o.Release()
	require.Equal(t, 1, runner.count())
	require.Zero(t, o.concurrent.Load())
}

func TestAmbientStartIsIdempotent(t *testing.T) {
	runner := &fakeRunner{}
	o, _ := newTestOutput(Options{Enabled: true}, runner)
	a := NewAmbient(o, AmbientOptions{Segment: 5 * time.Millisecond, FadeOut: 20 * time.Millisecond})
	t.Cleanup(a.Close)

	var started atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a.Start() {
				started.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), started.Load())
	require.True(t, a.Playing())
}

func TestAmbientStopFadesThenReleases(t *testing.T) {
	runner := &fakeRunner{}
	o, _ := newTestOutput(Options{Enabled: true}, runner)

	var mu sync.Mutex
	var transitions []bool
	a := NewAmbient(o, AmbientOptions{
		Segment: 5 * time.Millisecond,
		FadeOut: 20 * time.Millisecond,
		OnStateChange: func(playing bool) {
			mu.Lock()
			transitions = append(transitions, playing)
			mu.Unlock()
		},
	})

	require.True(t, a.Start())
	require.Eventually(t, func() bool { return runner.count() > 0 }, time.Second, time.Millisecond)

	require.True(t, a.Stop())
	require.False(t, a.Stop(), "second stop is a no-op")
	require.False(t, a.Start(), "start while fading is a no-op")
	require.True(t, a.Playing())

	a.Wait()
	require.False(t, a.Playing())

	mu.Lock()
	require.Equal(t, []bool{true, false}, transitions)
	mu.Unlock()

	require.True(t, a.Start(), "released drone can start again")
	a.Close()
}

func TestAmbientEnvelope(t *testing.T) {
	a := NewAmbient(NewOutput(Options{}), AmbientOptions{
		FadeIn:  time.Second,
		FadeOut: time.Second,
		Segment: 500 * time.Millisecond,
	})

	from, to := a.envelope(0, 0, false)
	require.InDelta(t, 0.0, from, 1e-9)
	require.InDelta(t, 0.5, to, 1e-9)

	from, to = a.envelope(2*time.Second, 0, false)
	require.InDelta(t, 1.0, from, 1e-9)
	require.InDelta(t, 1.0, to, 1e-9)

	from, to = a.envelope(2*time.Second, 500*time.Millisecond, true)
	require.InDelta(t, 0.5, from, 1e-9)
	require.InDelta(t, 0.0, to, 1e-9)
}
