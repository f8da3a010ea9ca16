package server

import (
	"context"
	"fmt"

	"github.com/vanshika/fintrace/linkgraph/internal/service"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is implemented by data sources that can check their backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SourceHealthService reports unhealthy when the data source is unreachable
// or no snapshot has been installed yet.
type SourceHealthService struct {
	Source    Pinger
	Analytics *service.AnalyticsService
}

// Probe implements the HealthService interface.
func (s SourceHealthService) Probe(ctx context.Context) error {
	if s.Source != nil {
		if err := s.Source.Ping(ctx); err != nil {
			return fmt.Errorf("data source: %w", err)
		}
	}
	if s.Analytics != nil {
		if _, err := s.Analytics.Snapshot(); err != nil {
			return err
		}
	}
	return nil
}
