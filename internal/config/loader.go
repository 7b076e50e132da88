package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a leash manifest from the provided path.
func Load(path string) (*File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var doc File
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}

	configDir := filepath.Dir(absPath)
	for _, task := range doc.Tasks {
		if task == nil {
			continue
		}
		task.Workdir = os.ExpandEnv(task.Workdir)
		if task.Workdir != "" && !filepath.IsAbs(task.Workdir) {
			task.Workdir = filepath.Clean(filepath.Join(configDir, task.Workdir))
		}
		if len(task.Env) > 0 {
			expanded := make(map[string]string, len(task.Env))
			for k, v := range task.Env {
				expanded[k] = os.ExpandEnv(v)
			}
			task.Env = expanded
		}
	}

	if err := Validate(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return &doc, nil
}
