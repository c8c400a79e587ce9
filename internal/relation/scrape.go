package relation

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
)

// MetricsPath is where Spring Boot Actuator exposes Prometheus metrics.
const MetricsPath = "/actuator/prometheus"

// ScrapeMetadata identifies the scraped application to the Prometheus side.
type ScrapeMetadata struct {
	Model       string `json:"model"`
	ModelUUID   string `json:"model_uuid"`
	Application string `json:"application"`
	CharmName   string `json:"charm_name"`
}

// StaticConfig is a Prometheus static target group. "*" in a target is
// replaced by each unit address on the provider side.
type StaticConfig struct {
	Targets []string `json:"targets"`
}

// ScrapeJob is one Prometheus scrape job.
type ScrapeJob struct {
	MetricsPath   string         `json:"metrics_path"`
	StaticConfigs []StaticConfig `json:"static_configs"`
}

// DefaultScrapeJobs returns the actuator scrape job for port.
func DefaultScrapeJobs(port int) []ScrapeJob {
	return []ScrapeJob{
		{
			MetricsPath: MetricsPath,
			StaticConfigs: []StaticConfig{
				{Targets: []string{"*:" + strconv.Itoa(port)}},
			},
		},
	}
}

// PublishScrapeJobs writes the scrape metadata and jobs into the application
// databag of every metrics relation. Only the leader may call it.
func (c *Client) PublishScrapeJobs(ctx context.Context, metadata ScrapeMetadata, jobs []ScrapeJob) error {
	ids, err := c.tools.RelationIDs(ctx, c.endpoints.Metrics)
	if err != nil {
		return errors.Wrap(err, "failed to list metrics relations")
	}

	if len(ids) == 0 {
		return nil
	}

	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return errors.Wrap(err, "failed to encode scrape metadata")
	}

	rawJobs, err := json.Marshal(jobs)
	if err != nil {
		return errors.Wrap(err, "failed to encode scrape jobs")
	}

	data := map[string]string{
		"scrape_metadata": string(rawMetadata),
		"scrape_jobs":     string(rawJobs),
	}

	for _, id := range ids {
		if err := c.tools.RelationSet(ctx, id, true, data); err != nil {
			return errors.Wrap(err, "failed to publish scrape jobs")
		}
	}

	return nil
}
