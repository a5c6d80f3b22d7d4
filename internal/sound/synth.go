package sound

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleRate is the rate of every rendered buffer.
const SampleRate = 22050

const (
	bitDepth  = 16
	maxSample = 32767
	// decayFloor is the gain every tone decays to by its end.
	decayFloor = 0.01
)

// Waveform is an oscillator shape.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSquare   Waveform = "square"
	WaveSawtooth Waveform = "sawtooth"
	WaveTriangle Waveform = "triangle"
)

// Tone is one oscillator burst inside a cue. Offset delays the tone from
// the start of the cue; a non-zero SlideTo ramps the frequency exponentially
// to that value over the tone's duration.
type Tone struct {
	Offset   time.Duration
	Freq     float64
	SlideTo  float64
	Wave     Waveform
	Duration time.Duration
	Volume   float64
}

// Recipe returns the tones that make up cue.
func Recipe(cue Cue, rng *rand.Rand) []Tone {
	switch cue {
	case CueType:
		// Slight pitch jitter keeps typing from sounding mechanical.
		return []Tone{{Freq: 800 + rng.Float64()*200, Wave: WaveSquare, Duration: 50 * time.Millisecond, Volume: 0.1}}
	case CueHover:
		return []Tone{{Freq: 200, Wave: WaveTriangle, Duration: 50 * time.Millisecond, Volume: 0.2}}
	case CueClick:
		return []Tone{{Freq: 600, SlideTo: 1200, Wave: WaveSine, Duration: 100 * time.Millisecond, Volume: 0.3}}
	case CueAlert:
		return []Tone{{Freq: 150, SlideTo: 100, Wave: WaveSawtooth, Duration: 300 * time.Millisecond, Volume: 0.3}}
	case CueSuccess:
		return []Tone{
			{Offset: 0, Freq: 440, Wave: WaveSine, Duration: 200 * time.Millisecond, Volume: 0.2},
			{Offset: 100 * time.Millisecond, Freq: 554, Wave: WaveSine, Duration: 200 * time.Millisecond, Volume: 0.2},
			{Offset: 200 * time.Millisecond, Freq: 659, Wave: WaveSine, Duration: 400 * time.Millisecond, Volume: 0.2},
		}
	case CueGlitch:
		tones := make([]Tone, 0, 5)
		for i := 0; i < 5; i++ {
			wave := WaveSquare
			if rng.Float64() > 0.5 {
				wave = WaveSawtooth
			}
			tones = append(tones, Tone{
				Offset:   time.Duration(i) * 30 * time.Millisecond,
				Freq:     rng.Float64()*1000 + 100,
				Wave:     wave,
				Duration: 50 * time.Millisecond,
				Volume:   0.2,
			})
		}
		return tones
	default:
		return nil
	}
}

// Render mixes tones into mono samples scaled by master gain.
func Render(tones []Tone, master float64) []int {
	var total int
	for _, tone := range tones {
		if end := samplesFor(tone.Offset) + samplesFor(tone.Duration); end > total {
			total = end
		}
	}
	if total == 0 {
		return nil
	}

	mix := make([]float64, total)
	for _, tone := range tones {
		renderTone(mix[samplesFor(tone.Offset):], tone)
	}

	out := make([]int, total)
	for i, v := range mix {
		out[i] = toPCM(v * master)
	}
	return out
}

func renderTone(dst []float64, tone Tone) {
	n := samplesFor(tone.Duration)
	if n > len(dst) {
		n = len(dst)
	}
	if n == 0 || tone.Freq <= 0 {
		return
	}

	phase := 0.0
	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n)
		freq := tone.Freq
		if tone.SlideTo > 0 {
			freq = tone.Freq * math.Pow(tone.SlideTo/tone.Freq, progress)
		}
		gain := tone.Volume
		if tone.Volume > decayFloor {
			gain = tone.Volume * math.Pow(decayFloor/tone.Volume, progress)
		}
		dst[i] += oscillate(tone.Wave, phase) * gain
		phase += freq / SampleRate
		phase -= math.Floor(phase)
	}
}

// oscillate evaluates a waveform at phase in [0, 1).
func oscillate(wave Waveform, phase float64) float64 {
	switch wave {
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveSawtooth:
		return 2*phase - 1
	case WaveTriangle:
		return 1 - 4*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func samplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Seconds() * SampleRate)
}

func toPCM(v float64) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(v * maxSample))
}

// WriteWAV encodes mono 16-bit samples as a WAV stream.
func WriteWAV(w io.WriteSeeker, samples []int) error {
	enc := wav.NewEncoder(w, SampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}
