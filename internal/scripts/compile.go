package scripts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/opencode-ai/awaken/internal/sequence"
	"github.com/opencode-ai/awaken/internal/sound"
)

// Compile renders a script's templates with vars and builds the sequence.
func Compile(script *Script, vars map[string]string) (sequence.Script, error) {
	if script == nil {
		return sequence.Script{}, fmt.Errorf("script is required")
	}

	data := make(map[string]string, len(vars))
	for key, value := range vars {
		data[key] = value
	}

	for _, variable := range script.Variables {
		value := strings.TrimSpace(data[variable.Name])
		if value == "" {
			if variable.Default != "" {
				data[variable.Name] = variable.Default
				continue
			}
			if variable.Required {
				return sequence.Script{}, fmt.Errorf("missing required variable %q", variable.Name)
			}
		}
	}

	steps := make([]sequence.Step, 0, len(script.Steps))
	for i, raw := range script.Steps {
		step, err := compileStep(script.Name, raw, data)
		if err != nil {
			return sequence.Script{}, fmt.Errorf("compile script %q step %d: %w", script.Name, i+1, err)
		}
		steps = append(steps, step)
	}

	return sequence.NewScript(script.Name, steps...)
}

func compileStep(name string, raw ScriptStep, data map[string]string) (sequence.Step, error) {
	render := func(text string) (string, error) {
		return renderText(name+"/"+raw.ID, text, data)
	}
	renderAll := func(lines []string) ([]string, error) {
		out := make([]string, 0, len(lines))
		for _, line := range lines {
			rendered, err := render(line)
			if err != nil {
				return nil, err
			}
			out = append(out, rendered)
		}
		return out, nil
	}

	step := sequence.Step{
		ID:           raw.ID,
		Kind:         sequence.Kind(raw.Kind),
		Cue:          cue(raw.Cue),
		TypeCue:      cue(raw.TypeCue),
		MaxLines:     raw.MaxLines,
		AwaitConfirm: raw.AwaitConfirm,
		ConfirmCue:   cue(raw.ConfirmCue),
	}

	var err error
	if step.Title, err = render(raw.Title); err != nil {
		return step, err
	}
	if step.Text, err = render(raw.Text); err != nil {
		return step, err
	}
	if step.Action, err = render(raw.Action); err != nil {
		return step, err
	}
	if step.Lines, err = renderAll(raw.Lines); err != nil {
		return step, err
	}
	if step.Data, err = renderAll(raw.Data); err != nil {
		return step, err
	}

	if step.Hold, err = parseDuration(raw.Hold); err != nil {
		return step, err
	}
	if step.TypeInterval, err = parseDuration(raw.TypeInterval); err != nil {
		return step, err
	}
	if step.LineInterval, err = parseDuration(raw.LineInterval); err != nil {
		return step, err
	}

	if raw.Progress != nil {
		interval, err := parseDuration(raw.Progress.Interval)
		if err != nil {
			return step, err
		}
		step.Progress = sequence.Progress{
			Increment: raw.Progress.Increment,
			Interval:  interval,
			TickEvery: raw.Progress.TickEvery,
			TickCue:   cue(raw.Progress.TickCue),
		}
	}

	return step, nil
}

func cue(name string) sound.Cue {
	c, _ := sound.ParseCue(name)
	return c
}

func renderText(name, content string, data map[string]string) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}
	parsed, err := template.New(name).
		Funcs(template.FuncMap{"default": defaultValue}).
		Option("missingkey=zero").
		Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", name, err)
	}

	var out strings.Builder
	if err := parsed.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}

	return out.String(), nil
}

func defaultValue(def string, value any) string {
	if value == nil {
		return def
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	default:
		text := strings.TrimSpace(fmt.Sprint(v))
		if text == "" {
			return def
		}
		return text
	}
}
