package pipeline

import (
	"context"
	"time"

	"basal-backend-go/internal/config"
	"basal-backend-go/internal/repository"
	"basal-backend-go/pkg/log"
)

// Reaper periodically fails records and sources stuck in processing. A task
// lost between debit and completion would otherwise show "processing"
// forever.
type Reaper struct {
	analysisRepo repository.AnalysisRepository
	sourceRepo   repository.SourceRepository
	cfg          config.PipelineConfig
}

// NewReaper creates a new Reaper.
func NewReaper(analysisRepo repository.AnalysisRepository, sourceRepo repository.SourceRepository, cfg config.PipelineConfig) *Reaper {
	return &Reaper{analysisRepo: analysisRepo, sourceRepo: sourceRepo, cfg: cfg}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReaperInterval)
	defer ticker.Stop()

	log.Infof("[Reaper] started, interval %s, stuck after %s", r.cfg.ReaperInterval, r.cfg.StuckAfter)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Reaper) sweep() {
	cutoff := time.Now().Add(-r.cfg.StuckAfter)

	if n, err := r.analysisRepo.FailStuck(cutoff); err != nil {
		log.Errorf("[Reaper] analysis sweep failed: %v", err)
	} else if n > 0 {
		log.Warnf("[Reaper] failed %d stuck analysis records", n)
	}

	if n, err := r.sourceRepo.FailStuck(cutoff); err != nil {
		log.Errorf("[Reaper] source sweep failed: %v", err)
	} else if n > 0 {
		log.Warnf("[Reaper] failed %d stuck sources", n)
	}
}
