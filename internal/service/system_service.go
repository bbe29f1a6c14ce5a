package service

import (
	"context"

	"basal-backend-go/pkg/mlserver"
)

// SystemService exposes liveness of this service's collaborators.
type SystemService interface {
	// MLHealth runs a single-attempt gateway health probe.
	MLHealth(ctx context.Context) bool

	// WarmUp fires a detached single ping at the ML service so a cold
	// serverless instance starts booting before real work arrives.
	WarmUp()
}

type systemService struct {
	ml mlserver.Client
}

// NewSystemService creates a new SystemService.
func NewSystemService(ml mlserver.Client) SystemService {
	return &systemService{ml: ml}
}

func (s *systemService) MLHealth(ctx context.Context) bool {
	return s.ml.HealthCheck(ctx, 1, 0)
}

func (s *systemService) WarmUp() {
	go s.ml.HealthCheck(context.Background(), 1, 0)
}
