package workload

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrServiceNotFound is returned when the supervisor does not know a service,
// typically because no layer declaring it was added yet.
var ErrServiceNotFound = errors.New("service not found")

// ServiceInfo is the runtime state of a supervised service.
type ServiceInfo struct {
	Name    string
	Running bool
}

// Supervisor is the process supervisor running inside the workload container.
type Supervisor interface {
	// CanConnect reports whether the supervisor API is reachable.
	CanConnect(ctx context.Context) bool

	// Plan returns the combined plan of all layers.
	Plan(ctx context.Context) (*Plan, error)

	// AddLayer adds a layer under label, merging into an existing layer with
	// the same label when combine is set.
	AddLayer(ctx context.Context, label string, layer *Layer, combine bool) error

	// Service returns the runtime state of a service or ErrServiceNotFound.
	Service(ctx context.Context, name string) (*ServiceInfo, error)

	Start(ctx context.Context, names ...string) error
	Stop(ctx context.Context, names ...string) error
}
