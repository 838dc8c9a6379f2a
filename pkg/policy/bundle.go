package policy

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// BundlePolicy is one named rule in a bundle. The name is local to the
// bundle; the server assigns the stored policy its own ID.
type BundlePolicy struct {
	Name      string   `yaml:"name"`
	Effect    string   `yaml:"effect"`
	Actions   []string `yaml:"actions"`
	Resources []string `yaml:"resources"`
}

// ToRule converts a bundle entry into an evaluatable rule.
func (p BundlePolicy) ToRule() (*Policy, error) {
	effect, err := EffectString(p.Effect)
	if err != nil {
		return nil, fmt.Errorf("policy %q: unknown effect %q", p.Name, p.Effect)
	}
	actions := make([]Action, 0, len(p.Actions))
	for _, raw := range p.Actions {
		action, err := ActionString(raw)
		if err != nil {
			return nil, fmt.Errorf("policy %q: unknown action %q", p.Name, raw)
		}
		actions = append(actions, action)
	}
	return &Policy{Effect: effect, Actions: actions, Resources: p.Resources}, nil
}

// BundlePrincipal declares a principal and the bundle policies it holds.
type BundlePrincipal struct {
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	Description string   `yaml:"description"`
	Policies    []string `yaml:"policies"`
}

// Bundle is a declarative set of policies and principals, loaded from
// YAML and applied in one operation.
type Bundle struct {
	Policies   []BundlePolicy    `yaml:"policies"`
	Principals []BundlePrincipal `yaml:"principals"`
}

// ParseBundle parses and validates a YAML bundle. Every policy must name
// a known effect and actions, carry compilable resource patterns, and
// every principal may only reference policies declared in the bundle.
func ParseBundle(source []byte) (*Bundle, error) {
	var bundle Bundle
	if err := yaml.Unmarshal(source, &bundle); err != nil {
		return nil, fmt.Errorf("malformed bundle: %w", err)
	}

	names := make(map[string]bool, len(bundle.Policies))
	for _, p := range bundle.Policies {
		if p.Name == "" {
			return nil, fmt.Errorf("every bundle policy needs a name")
		}
		if names[p.Name] {
			return nil, fmt.Errorf("duplicate policy name %q", p.Name)
		}
		names[p.Name] = true

		if _, err := p.ToRule(); err != nil {
			return nil, err
		}
		if len(p.Resources) == 0 {
			return nil, fmt.Errorf("policy %q: at least one resource is required", p.Name)
		}
		for _, resource := range p.Resources {
			if _, err := Compile(resource); err != nil {
				return nil, fmt.Errorf("policy %q: invalid resource pattern %q", p.Name, resource)
			}
		}
	}

	for _, principal := range bundle.Principals {
		if principal.Username == "" {
			return nil, fmt.Errorf("every bundle principal needs a username")
		}
		for _, ref := range principal.Policies {
			if !names[ref] {
				return nil, fmt.Errorf("principal %q references unknown policy %q", principal.Username, ref)
			}
		}
	}

	return &bundle, nil
}
