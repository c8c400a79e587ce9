package testutil

import (
	"context"
	"maps"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/spring-music-operator/internal/workload"
)

// FakeSupervisor is an in-memory workload.Supervisor. Layers are merged the
// way Pebble combines layers whose services use override: replace.
type FakeSupervisor struct {
	Connected bool
	Services  map[string]workload.Service
	Running   map[string]bool

	// Calls records mutating operations in order, e.g. "add-layer:spring-music".
	Calls []string

	PlanErr  error
	StartErr error
}

// NewFakeSupervisor returns a connected supervisor with an empty plan.
func NewFakeSupervisor() *FakeSupervisor {
	return &FakeSupervisor{
		Connected: true,
		Services:  map[string]workload.Service{},
		Running:   map[string]bool{},
	}
}

func (f *FakeSupervisor) CanConnect(_ context.Context) bool {
	return f.Connected
}

func (f *FakeSupervisor) Plan(_ context.Context) (*workload.Plan, error) {
	if f.PlanErr != nil {
		return nil, f.PlanErr
	}

	return &workload.Plan{Services: maps.Clone(f.Services)}, nil
}

func (f *FakeSupervisor) AddLayer(_ context.Context, label string, layer *workload.Layer, _ bool) error {
	f.Calls = append(f.Calls, "add-layer:"+label)

	for name, service := range layer.Services {
		service.Environment = maps.Clone(service.Environment)
		f.Services[name] = service
	}

	return nil
}

func (f *FakeSupervisor) Service(_ context.Context, name string) (*workload.ServiceInfo, error) {
	if _, ok := f.Services[name]; !ok {
		return nil, errors.Wrapf(workload.ErrServiceNotFound, "service %s", name)
	}

	return &workload.ServiceInfo{Name: name, Running: f.Running[name]}, nil
}

func (f *FakeSupervisor) Start(_ context.Context, names ...string) error {
	if f.StartErr != nil {
		return f.StartErr
	}

	for _, name := range names {
		if _, ok := f.Services[name]; !ok {
			return errors.Wrapf(workload.ErrServiceNotFound, "service %s", name)
		}

		f.Calls = append(f.Calls, "start:"+name)
		f.Running[name] = true
	}

	return nil
}

func (f *FakeSupervisor) Stop(_ context.Context, names ...string) error {
	for _, name := range names {
		f.Calls = append(f.Calls, "stop:"+name)
		f.Running[name] = false
	}

	return nil
}

// Mutations counts recorded calls starting with prefix.
func (f *FakeSupervisor) Mutations(prefix string) int {
	count := 0

	for _, call := range f.Calls {
		if strings.HasPrefix(call, prefix) {
			count++
		}
	}

	return count
}

var _ workload.Supervisor = (*FakeSupervisor)(nil)
