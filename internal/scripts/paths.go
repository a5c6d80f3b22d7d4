package scripts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no script has the requested name.
var ErrNotFound = errors.New("script not found")

// SearchPaths returns script directories in precedence order.
func SearchPaths(projectDir string) []string {
	paths := make([]string, 0, 3)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".awaken", "scripts"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "awaken", "scripts"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "awaken", "scripts"))
	return paths
}

// LoadFromSearchPaths loads scripts from the given directories, then the
// builtins, with first-hit precedence by name.
func LoadFromSearchPaths(paths []string) ([]*Script, error) {
	seen := make(map[string]*Script)
	order := make([]string, 0)

	for _, path := range paths {
		scripts, err := LoadScriptsFromDir(path)
		if err != nil {
			return nil, err
		}
		for _, script := range scripts {
			if _, exists := seen[script.Name]; exists {
				continue
			}
			seen[script.Name] = script
			order = append(order, script.Name)
		}
	}

	builtins, err := LoadBuiltinScripts()
	if err != nil {
		return nil, err
	}
	for _, script := range builtins {
		if _, exists := seen[script.Name]; exists {
			continue
		}
		seen[script.Name] = script
		order = append(order, script.Name)
	}

	resolved := make([]*Script, 0, len(order))
	for _, name := range order {
		resolved = append(resolved, seen[name])
	}

	return resolved, nil
}

// Find returns the highest-precedence script called name.
func Find(paths []string, name string) (*Script, error) {
	scripts, err := LoadFromSearchPaths(paths)
	if err != nil {
		return nil, err
	}
	for _, script := range scripts {
		if script.Name == name {
			return script, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}
