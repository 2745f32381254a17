// Package catalog loads the activity seed data the registry starts with.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"example.com/signup/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type file struct {
	Activities []entry `yaml:"activities"`
}

type entry struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Schedule        string   `yaml:"schedule"`
	MaxParticipants int      `yaml:"max_participants"`
	Participants    []string `yaml:"participants"`
}

// Default returns the built-in school catalog.
func Default() ([]domain.Activity, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, falling back to the built-in catalog when path is empty.
func Load(path string) ([]domain.Activity, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	activities, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return activities, nil
}

// Parse decodes a YAML catalog document.
func Parse(raw []byte) ([]domain.Activity, error) {
	var doc file
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Activities) == 0 {
		return nil, errors.New("catalog has no activities")
	}

	seen := make(map[string]struct{}, len(doc.Activities))
	out := make([]domain.Activity, 0, len(doc.Activities))
	for i, e := range doc.Activities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("activity %d: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("activity %q: duplicate name", name)
		}
		if e.MaxParticipants < 0 {
			return nil, fmt.Errorf("activity %q: max_participants must be >= 0", name)
		}
		seen[name] = struct{}{}

		participants := e.Participants
		if participants == nil {
			participants = []string{}
		}
		out = append(out, domain.Activity{
			Name:            name,
			Description:     e.Description,
			Schedule:        e.Schedule,
			MaxParticipants: e.MaxParticipants,
			Participants:    participants,
		})
	}
	return out, nil
}
