package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadPath reads Rego policies from path, per spec.md §6: path may be a
// single ".rego" file or a directory of them (walked recursively).
func LoadPath(path string) ([]Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat policy path: %w", err)
	}
	if !info.IsDir() {
		return loadFile(path)
	}

	var out []Policy
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() || !strings.HasSuffix(p, ".rego") {
			return nil
		}
		policies, err := loadFile(p)
		if err != nil {
			return err
		}
		out = append(out, policies...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking policy directory %s: %w", path, err)
	}
	return out, nil
}

func loadFile(path string) ([]Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file %s: %w", path, err)
	}
	return []Policy{{Path: path, Source: string(data)}}, nil
}
