// Package servicepatch corrects the port mapping of the Kubernetes Service
// that Juju creates for an application.
//
// Juju creates the application Service with a placeholder port. The charm
// knows which port its workload listens on and rewrites spec.ports with a
// JSON merge patch computed from the live object.
package servicepatch

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/lexfrei/spring-music-operator/internal/metrics"
)

const serviceResource = "service"

// Port is one port mapping on the Service.
type Port struct {
	Name       string
	Port       int32
	TargetPort int32
}

// PatchFailedError reports that the Service could not be read or patched.
// Callers treat it as recoverable: the patch is retried on a later hook.
type PatchFailedError struct {
	Namespace string
	Service   string
	Err       error
}

func (e *PatchFailedError) Error() string {
	return fmt.Sprintf("failed to patch service %s/%s: %v", e.Namespace, e.Service, e.Err)
}

func (e *PatchFailedError) Unwrap() error {
	return e.Err
}

// Patcher patches Services in a single namespace.
type Patcher struct {
	client    client.Client
	namespace string
	metrics   metrics.Collector
}

// NewPatcher creates a Patcher for Services in namespace.
func NewPatcher(c client.Client, namespace string, metricsCollector metrics.Collector) *Patcher {
	if metricsCollector == nil {
		metricsCollector = metrics.NewNoopCollector()
	}

	return &Patcher{
		client:    c,
		namespace: namespace,
		metrics:   metricsCollector,
	}
}

// SetPorts replaces the ports of the named Service. Every failure is returned
// as a *PatchFailedError.
func (p *Patcher) SetPorts(ctx context.Context, serviceName string, ports []Port) error {
	service := &corev1.Service{}

	getStart := time.Now()
	err := p.client.Get(ctx, types.NamespacedName{Namespace: p.namespace, Name: serviceName}, service)
	p.recordCall(ctx, "get", err, time.Since(getStart))

	if err != nil {
		return p.failed(serviceName, errors.Wrap(err, "failed to get service"))
	}

	base := service.DeepCopy()
	service.Spec.Ports = BuildServicePorts(ports)

	patchStart := time.Now()
	err = p.client.Patch(ctx, service, client.MergeFrom(base))
	p.recordCall(ctx, "patch", err, time.Since(patchStart))

	if err != nil {
		return p.failed(serviceName, errors.Wrap(err, "failed to apply patch"))
	}

	return nil
}

// BuildServicePorts converts port triples into TCP ServicePorts.
func BuildServicePorts(ports []Port) []corev1.ServicePort {
	servicePorts := make([]corev1.ServicePort, 0, len(ports))

	for _, port := range ports {
		servicePorts = append(servicePorts, corev1.ServicePort{
			Name:       port.Name,
			Protocol:   corev1.ProtocolTCP,
			Port:       port.Port,
			TargetPort: intstr.FromInt32(port.TargetPort),
		})
	}

	return servicePorts
}

func (p *Patcher) failed(serviceName string, err error) error {
	return &PatchFailedError{
		Namespace: p.namespace,
		Service:   serviceName,
		Err:       err,
	}
}

func (p *Patcher) recordCall(ctx context.Context, method string, err error, duration time.Duration) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusError
		p.metrics.RecordAPIError(ctx, method, metrics.ClassifyKubernetesError(err))
	}

	p.metrics.RecordAPICall(ctx, method, serviceResource, status, duration)
}
