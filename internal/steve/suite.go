package steve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// A Suite is a YAML file with extra checks to run after the built-in
// table, for cluster-specific resources the built-ins cannot know
// about.
type Suite struct {
	Checks []Check `yaml:"checks"`
}

// LoadSuite reads and validates a suite file.
func LoadSuite(path string) ([]Check, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read suite %q: %w", path, err)
	}
	var suite Suite
	if err := yaml.Unmarshal(content, &suite); err != nil {
		return nil, fmt.Errorf("unable to parse suite %q: %w", path, err)
	}
	if len(suite.Checks) == 0 {
		return nil, fmt.Errorf("suite %q contains no checks", path)
	}
	for _, check := range suite.Checks {
		if err := check.Validate(); err != nil {
			return nil, fmt.Errorf("suite %q: %w", path, err)
		}
	}
	return suite.Checks, nil
}
