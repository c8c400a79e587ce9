package workload

import (
	"context"
	"log/slog"
	"time"

	"github.com/canonical/pebble/client"
	"github.com/cockroachdb/errors"
)

const defaultChangeTimeout = 30 * time.Second

// PebbleSupervisor implements Supervisor over the Pebble API socket that Juju
// mounts into the charm container for every workload container.
type PebbleSupervisor struct {
	client        *client.Client
	changeTimeout time.Duration
	logger        *slog.Logger
}

// NewPebbleSupervisor creates a supervisor client for the Pebble socket at
// socketPath. No connection is made until the first call.
func NewPebbleSupervisor(socketPath string, logger *slog.Logger) (*PebbleSupervisor, error) {
	pebble, err := client.New(&client.Config{Socket: socketPath})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create pebble client for %s", socketPath)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PebbleSupervisor{
		client:        pebble,
		changeTimeout: defaultChangeTimeout,
		logger:        logger.With("component", "pebble"),
	}, nil
}

// CanConnect reports whether Pebble answers a system-info request.
func (p *PebbleSupervisor) CanConnect(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	if _, err := p.client.SysInfo(); err != nil {
		p.logger.Debug("pebble is not reachable", "error", err)

		return false
	}

	return true
}

// Plan fetches and decodes the current plan.
func (p *PebbleSupervisor) Plan(ctx context.Context) (*Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "plan request cancelled")
	}

	data, err := p.client.PlanBytes(nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pebble plan")
	}

	return ParsePlan(data)
}

// AddLayer adds layer to Pebble under label.
func (p *PebbleSupervisor) AddLayer(ctx context.Context, label string, layer *Layer, combine bool) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "add layer cancelled")
	}

	data, err := layer.Marshal()
	if err != nil {
		return err
	}

	err = p.client.AddLayer(&client.AddLayerOptions{
		Combine:   combine,
		Label:     label,
		LayerData: data,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to add layer %s", label)
	}

	return nil
}

// Service returns the state of the named service.
func (p *PebbleSupervisor) Service(ctx context.Context, name string) (*ServiceInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "service request cancelled")
	}

	services, err := p.client.Services(&client.ServicesOptions{Names: []string{name}})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get service %s", name)
	}

	if len(services) == 0 {
		return nil, errors.Wrapf(ErrServiceNotFound, "service %s", name)
	}

	return &ServiceInfo{
		Name:    services[0].Name,
		Running: services[0].Current == client.StatusActive,
	}, nil
}

// Start starts services and waits for the change to finish.
func (p *PebbleSupervisor) Start(ctx context.Context, names ...string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "start cancelled")
	}

	changeID, err := p.client.Start(&client.ServiceOptions{Names: names})
	if err != nil {
		return errors.Wrapf(err, "failed to start %v", names)
	}

	return p.waitChange(changeID)
}

// Stop stops services and waits for the change to finish.
func (p *PebbleSupervisor) Stop(ctx context.Context, names ...string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "stop cancelled")
	}

	changeID, err := p.client.Stop(&client.ServiceOptions{Names: names})
	if err != nil {
		return errors.Wrapf(err, "failed to stop %v", names)
	}

	return p.waitChange(changeID)
}

func (p *PebbleSupervisor) waitChange(changeID string) error {
	change, err := p.client.WaitChange(changeID, &client.WaitChangeOptions{Timeout: p.changeTimeout})
	if err != nil {
		return errors.Wrapf(err, "failed to wait for change %s", changeID)
	}

	if change.Err != "" {
		return errors.Newf("change %s failed: %s", changeID, change.Err)
	}

	return nil
}

var _ Supervisor = (*PebbleSupervisor)(nil)
