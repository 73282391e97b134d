package mapping

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// validTargets is the set of fields an override may map onto.
var validTargets = func() map[string]bool {
	set := make(map[string]bool)
	for _, t := range synonyms {
		set[t] = true
	}
	set[Ignored] = true
	return set
}()

// LoadOverrides reads a YAML file of source-column→target-field entries and
// applies them on top of the session mapping. Targets must be known field
// identifiers or "ignored".
func LoadOverrides(s *Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "mapping: read overrides %s", path)
	}

	var wrapper struct {
		Columns map[string]string `yaml:"columns"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return eris.Wrap(err, "mapping: parse overrides")
	}

	for source, target := range wrapper.Columns {
		if !validTargets[target] {
			return eris.Errorf("mapping: unknown target field %q for column %q", target, source)
		}
		s.Set(source, target)
	}
	return nil
}
