package sound

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/opencode-ai/awaken/internal/logging"
)

const (
	defaultAmbientFadeIn  = 5 * time.Second
	defaultAmbientFadeOut = 2 * time.Second
	defaultAmbientSegment = 500 * time.Millisecond

	// ambientLevel is the drone's steady-state gain before the master volume.
	ambientLevel = 0.03
	droneRoot    = 55.0
)

type ambientState int

const (
	ambientIdle ambientState = iota
	ambientPlaying
	ambientFading
)

// AmbientOptions configures an Ambient drone.
type AmbientOptions struct {
	FadeIn  time.Duration
	FadeOut time.Duration
	// Segment is the length of each rendered chunk; stop latency is bounded by it.
	Segment time.Duration
	// OnStateChange is called with true when the drone starts and false once
	// it has fully faded out.
	OnStateChange func(playing bool)
}

// Ambient is the persistent background drone. It is a shared resource:
// starting while playing or fading is a no-op, and stopping fades the drone
// out over a fixed interval before its resources are released.
type Ambient struct {
	out    *Output
	opts   AmbientOptions
	logger zerolog.Logger

	mu     sync.Mutex
	state  ambientState
	stopCh chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAmbient creates a drone that plays through out.
func NewAmbient(out *Output, opts AmbientOptions) *Ambient {
	if opts.FadeIn <= 0 {
		opts.FadeIn = defaultAmbientFadeIn
	}
	if opts.FadeOut <= 0 {
		opts.FadeOut = defaultAmbientFadeOut
	}
	if opts.Segment <= 0 {
		opts.Segment = defaultAmbientSegment
	}
	return &Ambient{
		out:    out,
		opts:   opts,
		logger: logging.Component("ambient"),
	}
}

// Start begins the drone. It reports whether this call started it.
func (a *Ambient) Start() bool {
	a.mu.Lock()
	if a.state != ambientIdle {
		a.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.state = ambientPlaying
	a.stopCh = make(chan struct{})
	a.cancel = cancel
	a.done = make(chan struct{})
	stopCh, done := a.stopCh, a.done
	a.mu.Unlock()

	a.logger.Debug().Msg("ambient starting")
	a.notify(true)
	go a.loop(ctx, stopCh, done)
	return true
}

// Stop begins the fade-out. It reports whether the drone was playing.
func (a *Ambient) Stop() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != ambientPlaying {
		return false
	}
	a.state = ambientFading
	close(a.stopCh)
	a.logger.Debug().Dur("fade_out", a.opts.FadeOut).Msg("ambient fading out")
	return true
}

// Playing reports whether the drone is playing or fading.
func (a *Ambient) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state != ambientIdle
}

// Close cuts the drone immediately and waits for it to release.
func (a *Ambient) Close() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the current drone, if any, has released.
func (a *Ambient) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (a *Ambient) loop(ctx context.Context, stopCh <-chan struct{}, done chan struct{}) {
	defer func() {
		a.mu.Lock()
		a.state = ambientIdle
		a.cancel = nil
		a.mu.Unlock()
		a.logger.Debug().Msg("ambient released")
		a.notify(false)
		close(done)
	}()

	a.out.rngMu.Lock()
	d := newDrone(a.out.rng)
	a.out.rngMu.Unlock()

	var elapsed, fading time.Duration
	stopping := false
	for {
		if !stopping {
			select {
			case <-stopCh:
				stopping = true
			default:
			}
		}
		if stopping && fading >= a.opts.FadeOut {
			return
		}

		from, to := a.envelope(elapsed, fading, stopping)
		samples := d.render(samplesFor(a.opts.Segment), from, to, a.out.opts.Volume)

		started := time.Now()
		if a.out.opts.Enabled && a.out.Acquire() {
			if err := a.out.PlaySamples(ctx, samples); err != nil && ctx.Err() == nil {
				a.logger.Debug().Err(err).Msg("ambient segment failed")
			}
		}
		// Keep real-time pacing when playback returns early or is unavailable.
		if remaining := a.opts.Segment - time.Since(started); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return
		}

		elapsed += a.opts.Segment
		if stopping {
			fading += a.opts.Segment
		}
	}
}

// envelope returns the gain at the start and end of the next segment.
func (a *Ambient) envelope(elapsed, fading time.Duration, stopping bool) (float64, float64) {
	level := func(at time.Duration) float64 {
		if at >= a.opts.FadeIn {
			return 1
		}
		return float64(at) / float64(a.opts.FadeIn)
	}
	from, to := level(elapsed), level(elapsed+a.opts.Segment)
	if stopping {
		remain := func(at time.Duration) float64 {
			return math.Max(0, 1-float64(at)/float64(a.opts.FadeOut))
		}
		from *= remain(fading)
		to *= remain(fading + a.opts.Segment)
	}
	return from, to
}

func (a *Ambient) notify(playing bool) {
	if a.opts.OnStateChange != nil {
		a.opts.OnStateChange(playing)
	}
}

// drone is a three-voice pad (root, fifth, octave) through a low-pass filter
// whose cutoff breathes with a slow LFO. State carries across segments.
type drone struct {
	voices []droneVoice
	lp     float64
}

type droneVoice struct {
	freq     float64
	wave     Waveform
	phase    float64
	lfoRate  float64
	lfoPhase float64
}

func newDrone(rng *rand.Rand) *drone {
	freqs := []float64{droneRoot, droneRoot * 1.5, droneRoot * 2}
	d := &drone{}
	for i, freq := range freqs {
		wave := WaveTriangle
		if i == 0 {
			wave = WaveSawtooth
		}
		detune := math.Pow(2, (rng.Float64()*10-5)/1200)
		d.voices = append(d.voices, droneVoice{
			freq:    freq * detune,
			wave:    wave,
			lfoRate: 0.1 + rng.Float64()*0.1,
		})
	}
	return d
}

func (d *drone) render(n int, gainFrom, gainTo, master float64) []int {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n)
		gain := (gainFrom + (gainTo-gainFrom)*progress) * ambientLevel

		var sum, cutoff float64
		for v := range d.voices {
			voice := &d.voices[v]
			sum += oscillate(voice.wave, voice.phase)
			cutoff += 200 + 100*math.Sin(2*math.Pi*voice.lfoPhase)
			voice.phase += voice.freq / SampleRate
			voice.phase -= math.Floor(voice.phase)
			voice.lfoPhase += voice.lfoRate / SampleRate
			voice.lfoPhase -= math.Floor(voice.lfoPhase)
		}
		cutoff /= float64(len(d.voices))

		alpha := 1 - math.Exp(-2*math.Pi*cutoff/SampleRate)
		d.lp += alpha * (sum/float64(len(d.voices)) - d.lp)
		out[i] = toPCM(d.lp * gain * master)
	}
	return out
}
