package mod3

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadModel reads a model record from a YAML document.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	m.Skeleton.Reindex()
	return &m, nil
}

// Save writes the model record as a YAML document.
func (m *Model) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
