package charm

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/spring-music-operator/internal/relation"
)

// ServiceHost is the in-cluster DNS name of the application Service.
func ServiceHost(application, model, clusterDomain string) string {
	return fmt.Sprintf("%s.%s.svc.%s", application, model, clusterDomain)
}

func (c *Charm) publishIngressRequest(ctx context.Context) error {
	leader, err := c.isLeader(ctx)
	if err != nil || !leader {
		return err
	}

	req := relation.IngressRequest{
		Model: c.Identity.Model,
		Name:  c.Identity.Application,
		Host:  ServiceHost(c.Identity.Application, c.Identity.Model, c.ClusterDomain),
		Port:  c.Port,
	}

	if err := c.Relations.PublishIngressRequest(ctx, req); err != nil {
		return errors.Wrap(err, "failed to publish ingress request")
	}

	return nil
}

func (c *Charm) publishScrapeJobs(ctx context.Context) error {
	leader, err := c.isLeader(ctx)
	if err != nil || !leader {
		return err
	}

	metadata := relation.ScrapeMetadata{
		Model:       c.Identity.Model,
		ModelUUID:   c.Identity.ModelUUID,
		Application: c.Identity.Application,
		CharmName:   c.Identity.Charm,
	}

	if err := c.Relations.PublishScrapeJobs(ctx, metadata, relation.DefaultScrapeJobs(c.Port)); err != nil {
		return errors.Wrap(err, "failed to publish scrape jobs")
	}

	return nil
}
