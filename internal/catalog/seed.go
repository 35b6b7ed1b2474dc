package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed desired catalog contents
type Seed struct {
	Buildings []BuildingSeed `yaml:"buildings"`
}

type BuildingSeed struct {
	Name     string     `yaml:"name"`
	Location string     `yaml:"location"`
	Areas    []AreaSeed `yaml:"areas"`
}

type AreaSeed struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Sensors     []SensorSeed `yaml:"sensors"`
}

type SensorSeed struct {
	Tag      string `yaml:"tag"`
	Type     string `yaml:"type"`
	Location string `yaml:"location"`
}

// DefaultSeed returns the embedded catalog
func DefaultSeed() (*Seed, error) {
	return ParseSeed(defaultSeed)
}

// LoadSeed reads a seed file; an empty path yields the embedded default
func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a YAML seed
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks names are present and sensor tags are globally unique
func (s *Seed) Validate() error {
	buildings := map[string]bool{}
	tags := map[string]bool{}
	for _, b := range s.Buildings {
		if b.Name == "" {
			return errors.New("catalog seed: building without name")
		}
		if buildings[b.Name] {
			return fmt.Errorf("catalog seed: duplicate building %q", b.Name)
		}
		buildings[b.Name] = true

		areas := map[string]bool{}
		for _, a := range b.Areas {
			if a.Name == "" {
				return fmt.Errorf("catalog seed: area without name in building %q", b.Name)
			}
			if areas[a.Name] {
				return fmt.Errorf("catalog seed: duplicate area %q in building %q", a.Name, b.Name)
			}
			areas[a.Name] = true

			for _, sn := range a.Sensors {
				if sn.Tag == "" {
					return fmt.Errorf("catalog seed: sensor without tag in area %q", a.Name)
				}
				if tags[sn.Tag] {
					return fmt.Errorf("catalog seed: duplicate sensor tag %q", sn.Tag)
				}
				tags[sn.Tag] = true
			}
		}
	}
	return nil
}
