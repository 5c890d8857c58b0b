package catalog

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadSeedFile reads a pinned provider catalog from a YAML file. Useful for
// offline runs and for tests that need a fixed catalog.
func LoadSeedFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read seed file %s", path)
	}

	var wrapper struct {
		Providers []Provider `yaml:"providers"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "catalog: parse seed file")
	}
	if len(wrapper.Providers) == 0 {
		return nil, eris.Errorf("catalog: seed file %s has no providers", path)
	}

	snap, err := NewSnapshot(wrapper.Providers)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: compile seed providers")
	}
	return snap, nil
}
