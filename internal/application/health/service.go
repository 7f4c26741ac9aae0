package health

import (
	"context"
	"time"

	corehealth "3tcapital/gstlens/internal/core/health"
)

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Checker probes one backing dependency (database, redis, oracle breaker).
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta         Metadata
	startedAt    time.Time
	checkers     []Checker
	checkTimeout time.Duration
}

func NewService(meta Metadata, checkers ...Checker) *Service {
	return &Service{
		meta:         meta,
		startedAt:    time.Now().UTC(),
		checkers:     checkers,
		checkTimeout: 2 * time.Second,
	}
}

// Status returns the current availability snapshot.
// A failing dependency degrades the service but never marks it down.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, c := range s.checkers {
		dep := corehealth.Dependency{Name: c.Name, Status: corehealth.StatusUp}
		cctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
		if err := c.Check(cctx); err != nil {
			dep.Status = corehealth.StatusDegraded
			dep.Error = err.Error()
			status.Status = corehealth.StatusDegraded
		}
		cancel()
		status.Dependencies = append(status.Dependencies, dep)
	}

	return status
}
