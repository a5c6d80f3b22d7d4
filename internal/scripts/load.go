package scripts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/sound"
)

// LoadScript reads a single script from disk.
func LoadScript(path string) (*Script, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("script path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}

	script, err := parseScript(data)
	if err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	script.Source = path
	return script, nil
}

// LoadScriptsFromDir loads all scripts from a directory. A missing
// directory yields no scripts.
func LoadScriptsFromDir(dir string) ([]*Script, error) {
	if strings.TrimSpace(dir) == "" {
		return []*Script{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Script{}, nil
		}
		return nil, fmt.Errorf("read scripts dir %s: %w", dir, err)
	}

	scripts := make([]*Script, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		script, err := LoadScript(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].Name < scripts[j].Name
	})

	return scripts, nil
}

func parseScript(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}

	script.Name = strings.TrimSpace(script.Name)
	if script.Name == "" {
		return nil, fmt.Errorf("script name is required")
	}
	script.Description = strings.TrimSpace(script.Description)
	script.Prompt.Title = strings.TrimSpace(script.Prompt.Title)
	script.Prompt.Subtitle = strings.TrimSpace(script.Prompt.Subtitle)

	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("script steps are required")
	}

	seen := make(map[string]struct{})
	for i := range script.Variables {
		name := strings.TrimSpace(script.Variables[i].Name)
		if name == "" {
			return nil, fmt.Errorf("script variable name is required")
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("duplicate script variable %q", name)
		}
		seen[name] = struct{}{}
		script.Variables[i].Name = name
	}

	for i := range script.Steps {
		if err := normalizeStep(&script.Steps[i]); err != nil {
			return nil, fmt.Errorf("script step %d: %w", i+1, err)
		}
	}

	return &script, nil
}

func normalizeStep(step *ScriptStep) error {
	step.ID = strings.TrimSpace(step.ID)
	step.Kind = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(step.Kind)), "-", "_")
	step.Cue = strings.ToLower(strings.TrimSpace(step.Cue))
	step.TypeCue = strings.ToLower(strings.TrimSpace(step.TypeCue))
	step.ConfirmCue = strings.ToLower(strings.TrimSpace(step.ConfirmCue))
	step.Hold = strings.TrimSpace(step.Hold)
	step.TypeInterval = strings.TrimSpace(step.TypeInterval)
	step.LineInterval = strings.TrimSpace(step.LineInterval)
	step.Action = strings.TrimSpace(step.Action)

	if step.ID == "" {
		return fmt.Errorf("step id is required")
	}
	if !sequence.Kind(step.Kind).Valid() {
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}

	for _, cue := range []string{step.Cue, step.TypeCue, step.ConfirmCue} {
		if _, ok := sound.ParseCue(cue); !ok {
			return fmt.Errorf("unknown cue %q", cue)
		}
	}
	for _, d := range []string{step.Hold, step.TypeInterval, step.LineInterval} {
		if _, err := parseDuration(d); err != nil {
			return err
		}
	}

	switch sequence.Kind(step.Kind) {
	case sequence.KindTypedText:
		if step.Text == "" {
			return fmt.Errorf("typed text is required")
		}
		if step.TypeInterval == "" {
			return fmt.Errorf("type interval is required")
		}
	case sequence.KindLoading:
		if step.Progress != nil {
			step.Progress.Interval = strings.TrimSpace(step.Progress.Interval)
			step.Progress.TickCue = strings.ToLower(strings.TrimSpace(step.Progress.TickCue))
			if step.Progress.Increment <= 0 {
				return fmt.Errorf("progress increment must be greater than 0")
			}
			interval, err := parseDuration(step.Progress.Interval)
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("progress interval must be greater than 0")
			}
			if _, ok := sound.ParseCue(step.Progress.TickCue); !ok {
				return fmt.Errorf("unknown cue %q", step.Progress.TickCue)
			}
		}
	case sequence.KindTerminal:
		if step.ConfirmCue != "" && !step.AwaitConfirm {
			return fmt.Errorf("confirm cue requires await_confirm")
		}
	default:
		if step.Progress != nil {
			return fmt.Errorf("progress is only valid on loading steps")
		}
	}

	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", raw)
	}
	return d, nil
}
