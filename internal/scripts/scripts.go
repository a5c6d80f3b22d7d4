// Package scripts loads presentation scripts from YAML and compiles them
// into sequences.
package scripts

// Script is a presentation script as written on disk.
type Script struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Prompt      Prompt       `yaml:"prompt,omitempty"`
	Steps       []ScriptStep `yaml:"steps"`
	Variables   []ScriptVar  `yaml:"variables,omitempty"`
	Source      string       `yaml:"-"` // file path or "builtin"
}

// Prompt is shown before the script starts.
type Prompt struct {
	Title    string `yaml:"title,omitempty"`
	Subtitle string `yaml:"subtitle,omitempty"`
}

// ScriptStep is one step. Durations use time.ParseDuration syntax.
type ScriptStep struct {
	ID    string `yaml:"id"`
	Kind  string `yaml:"kind"`
	Title string `yaml:"title,omitempty"`
	Cue   string `yaml:"cue,omitempty"`
	Hold  string `yaml:"hold,omitempty"`

	Text         string `yaml:"text,omitempty"`
	TypeInterval string `yaml:"type_interval,omitempty"`
	TypeCue      string `yaml:"type_cue,omitempty"`

	Progress     *ScriptProgress `yaml:"progress,omitempty"`
	Lines        []string        `yaml:"lines,omitempty"`
	LineInterval string          `yaml:"line_interval,omitempty"`
	MaxLines     int             `yaml:"max_lines,omitempty"`

	Data []string `yaml:"data,omitempty"`

	AwaitConfirm bool   `yaml:"await_confirm,omitempty"`
	ConfirmCue   string `yaml:"confirm_cue,omitempty"`
	Action       string `yaml:"action,omitempty"`
}

// ScriptProgress configures a loading bar.
type ScriptProgress struct {
	Increment int    `yaml:"increment"`
	Interval  string `yaml:"interval"`
	TickEvery int    `yaml:"tick_every,omitempty"`
	TickCue   string `yaml:"tick_cue,omitempty"`
}

// ScriptVar describes a template variable used in step text.
type ScriptVar struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Default     string `yaml:"default,omitempty"`
	Required    bool   `yaml:"required"`
}
