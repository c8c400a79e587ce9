// Package workload describes the process-supervisor configuration of the
// managed application and talks to the supervisor running in its container.
package workload

import (
	"maps"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Override modes understood by the supervisor when layers are combined.
const (
	OverrideReplace = "replace"
	OverrideMerge   = "merge"
)

// Service is the supervisor definition of a single managed process.
type Service struct {
	Override    string            `yaml:"override,omitempty"`
	Summary     string            `yaml:"summary,omitempty"`
	Command     string            `yaml:"command,omitempty"`
	Environment map[string]string `yaml:"environment,omitempty"`
}

// Equal reports whether two service definitions are identical. A nil and an
// empty environment are considered equal.
func (s Service) Equal(other Service) bool {
	return s.Override == other.Override &&
		s.Summary == other.Summary &&
		s.Command == other.Command &&
		maps.Equal(s.Environment, other.Environment)
}

// Layer is a named, mergeable configuration document for the supervisor.
type Layer struct {
	Summary     string             `yaml:"summary,omitempty"`
	Description string             `yaml:"description,omitempty"`
	Services    map[string]Service `yaml:"services,omitempty"`
}

// Marshal renders the layer as the YAML document the supervisor accepts.
func (l *Layer) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(l)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal layer")
	}

	return data, nil
}

// Plan is the supervisor's combined view of every layer added so far.
type Plan struct {
	Services map[string]Service `yaml:"services,omitempty"`
}

// ParsePlan decodes the YAML plan returned by the supervisor. Fields the
// charm does not manage are ignored.
func ParsePlan(data []byte) (*Plan, error) {
	plan := &Plan{}

	if err := yaml.Unmarshal(data, plan); err != nil {
		return nil, errors.Wrap(err, "failed to parse plan")
	}

	return plan, nil
}

// Satisfies reports whether every service declared by layer is already
// present in the plan with an identical definition.
func (p *Plan) Satisfies(layer *Layer) bool {
	if p == nil {
		return len(layer.Services) == 0
	}

	for name, desired := range layer.Services {
		current, ok := p.Services[name]
		if !ok || !current.Equal(desired) {
			return false
		}
	}

	return true
}
