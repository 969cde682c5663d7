package config

import (
	"fmt"
	"os"

	"github.com/pevans/mediascan/scraper"
	"gopkg.in/yaml.v3"
)

// RosterFile is the YAML layout of a roster file.
type RosterFile struct {
	Sources []scraper.SourceConfig `yaml:"sources"`
}

// LoadRoster returns the built-in roster when path is empty, otherwise the
// sources listed in the YAML file at path. Every entry is normalized and
// validated; one invalid entry rejects the whole roster.
func LoadRoster(path string) (scraper.Roster, error) {
	if path == "" {
		roster := scraper.DefaultRoster().Normalize()
		return roster, roster.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes and validates a YAML roster.
func ParseRoster(data []byte) (scraper.Roster, error) {
	var file RosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("%w: roster file lists no sources", scraper.ErrInvalidConfig)
	}

	roster := scraper.Roster(file.Sources).Normalize()
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	return roster, nil
}
