package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fortuna/clubsync/internal/registry"
)

type seedFile struct {
	Registrations []registry.Registration `yaml:"registrations"`
}

// LoadSeed reads registrations to apply at startup from a YAML file:
//
//	registrations:
//	  - club_id: 7
//	    external_url: https://regiowyniki.pl/malopolska/klub/hutnik-krakow/
//	    sync_enabled: true
func LoadSeed(path string) ([]registry.Registration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	for i, reg := range seed.Registrations {
		if reg.ClubID <= 0 || reg.ExternalURL == "" {
			return nil, fmt.Errorf("seed entry %d: club_id and external_url are required", i)
		}
	}

	return seed.Registrations, nil
}
