// Package sound synthesizes short audio cues and plays them through the
// platform's audio player. Playback is fire-and-forget: failures are logged
// and dropped, never returned to callers.
package sound

// Cue names a short sound effect.
type Cue string

const (
	CueNone    Cue = ""
	CueType    Cue = "type"
	CueHover   Cue = "hover"
	CueClick   Cue = "click"
	CueAlert   Cue = "alert"
	CueSuccess Cue = "success"
	CueGlitch  Cue = "glitch"
)

// Cues lists every known cue.
var Cues = []Cue{CueType, CueHover, CueClick, CueAlert, CueSuccess, CueGlitch}

// ParseCue converts a name to a Cue, reporting whether it is known.
func ParseCue(name string) (Cue, bool) {
	for _, cue := range Cues {
		if string(cue) == name {
			return cue, true
		}
	}
	return CueNone, name == ""
}

// Player plays cues. Implementations must not block and must absorb errors.
type Player interface {
	Play(cue Cue)
}

// NoopPlayer is a Player that does nothing.
// Use this as a safe default when sound is disabled or unavailable.
type NoopPlayer struct{}

// Play does nothing.
func (NoopPlayer) Play(Cue) {}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(Cue)

// Play calls f.
func (f PlayerFunc) Play(cue Cue) { f(cue) }
