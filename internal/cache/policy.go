package cache

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadPolicy reads tier overrides from a YAML file on top of DefaultPolicy.
// Tiers missing from the file keep their default duration.
//
// Example:
//
//	latest: 90s
//	detail: 1h
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read cache policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse cache policy yaml: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, fmt.Errorf("invalid cache policy %s: %w", path, err)
	}

	return policy, nil
}
