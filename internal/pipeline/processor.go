// Package pipeline executes the detached side of ingestion: waking the
// remote compute service, running the per-unit work and writing terminal
// state back onto each unit's own record.
package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"basal-backend-go/internal/config"
	"basal-backend-go/internal/model"
	"basal-backend-go/internal/repository"
	"basal-backend-go/pkg/log"
	"basal-backend-go/pkg/mlserver"
	"basal-backend-go/pkg/storage"
	"basal-backend-go/pkg/tasks"
)

// Processor consumes ingestion tasks. Every path ends in a terminal write on
// the unit's record; nothing is reported back through the queue.
type Processor struct {
	ml           mlserver.Client
	analysisRepo repository.AnalysisRepository
	sourceRepo   repository.SourceRepository
	store        storage.Store
	mlCfg        config.MLServerConfig
	pipeCfg      config.PipelineConfig
	pool         *ants.Pool
}

// NewProcessor creates the task processor. The worker pool bounds drive-batch
// fan-out so one large folder cannot monopolize the consumer.
func NewProcessor(
	ml mlserver.Client,
	analysisRepo repository.AnalysisRepository,
	sourceRepo repository.SourceRepository,
	store storage.Store,
	mlCfg config.MLServerConfig,
	pipeCfg config.PipelineConfig,
) (*Processor, error) {
	pool, err := ants.NewPool(pipeCfg.DrivePoolSize)
	if err != nil {
		return nil, err
	}
	return &Processor{
		ml:           ml,
		analysisRepo: analysisRepo,
		sourceRepo:   sourceRepo,
		store:        store,
		mlCfg:        mlCfg,
		pipeCfg:      pipeCfg,
		pool:         pool,
	}, nil
}

// Release tears down the worker pool.
func (p *Processor) Release() {
	p.pool.Release()
}

// Process executes one task to a terminal state.
func (p *Processor) Process(ctx context.Context, task tasks.IngestionTask) {
	log.Infof("[Pipeline] processing %s task", task.Kind)

	switch task.Kind {
	case tasks.KindDocument:
		p.processDocument(ctx, task)
	case tasks.KindVideo:
		p.processVideo(ctx, task)
	case tasks.KindResumeS3:
		p.processResume(ctx, task)
	case tasks.KindDriveBatch:
		p.processDriveBatch(ctx, task)
	default:
		log.Errorf("[Pipeline] dropping task with unknown kind %q", task.Kind)
	}
}

// wake blocks until the remote service answers a health probe or the retry
// budget runs out. One wake serves the whole task, batch included.
func (p *Processor) wake(ctx context.Context) bool {
	return p.ml.HealthCheck(ctx, p.mlCfg.WakeMaxRetries, p.mlCfg.WakeRetryDelay)
}

func (p *Processor) processDocument(ctx context.Context, task tasks.IngestionTask) {
	sourceID, err := uuid.Parse(task.SourceID)
	if err != nil {
		log.Errorf("[Pipeline] document task carries bad source id %q", task.SourceID)
		return
	}
	if !p.wake(ctx) {
		log.Errorf("[Pipeline] ml service never woke up, failing source %s", sourceID)
		p.failSource(sourceID)
		return
	}
	// Success here only means the hand-off was accepted. The source stays in
	// processing until the chunk-sync callback lands.
	if err := p.ml.ProcessDocument(ctx, task.SourceID, task.FileURL, task.Filename); err != nil {
		log.Errorf("[Pipeline] document hand-off failed for source %s: %v", sourceID, err)
		p.failSource(sourceID)
	}
}

func (p *Processor) processVideo(ctx context.Context, task tasks.IngestionTask) {
	sourceID, err := uuid.Parse(task.SourceID)
	if err != nil {
		log.Errorf("[Pipeline] video task carries bad source id %q", task.SourceID)
		return
	}
	if !p.wake(ctx) {
		log.Errorf("[Pipeline] ml service never woke up, failing source %s", sourceID)
		p.failSource(sourceID)
		return
	}
	if err := p.ml.ProcessVideo(ctx, task.SourceID, task.VideoURL); err != nil {
		log.Errorf("[Pipeline] video hand-off failed for source %s: %v", sourceID, err)
		p.failSource(sourceID)
	}
}

func (p *Processor) processResume(ctx context.Context, task tasks.IngestionTask) {
	recordID, err := uuid.Parse(task.RecordID)
	if err != nil {
		log.Errorf("[Pipeline] resume task carries bad record id %q", task.RecordID)
		return
	}
	if !p.wake(ctx) {
		log.Errorf("[Pipeline] ml service never woke up, failing record %s", recordID)
		p.failRecord(recordID)
		return
	}

	result, err := p.ml.AnalyzeS3(ctx, task.Filename, task.FileURL, task.Description)
	if err != nil {
		log.Errorf("[Pipeline] analysis failed for record %s: %v", recordID, err)
		p.failRecord(recordID)
		return
	}
	if err := p.analysisRepo.FinalizeSuccess(recordID, result.MatchScore, result.AnalysisDetails, result.CandidateInfo); err != nil {
		log.Errorf("[Pipeline] failed to finalize record %s: %v", recordID, err)
		return
	}
	log.Infof("[Pipeline] record %s completed with score %.2f", recordID, result.MatchScore)

	if p.pipeCfg.DeleteAfterwards {
		p.deleteStoredFile(ctx, recordID)
	}
}

// processDriveBatch fans the batch out over the worker pool. One wake covers
// every file; each file then succeeds or fails independently.
func (p *Processor) processDriveBatch(ctx context.Context, task tasks.IngestionTask) {
	if !p.wake(ctx) {
		log.Errorf("[Pipeline] ml service never woke up, failing %d drive records", len(task.Files))
		for _, f := range task.Files {
			if recordID, err := uuid.Parse(f.RecordID); err == nil {
				p.failRecord(recordID)
			}
		}
		return
	}

	var wg sync.WaitGroup
	for _, f := range task.Files {
		file := f
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			p.processDriveFile(ctx, file, task.GoogleToken, task.Description)
		})
		if submitErr != nil {
			wg.Done()
			log.Errorf("[Pipeline] failed to schedule drive file %s: %v", file.Name, submitErr)
			if recordID, err := uuid.Parse(file.RecordID); err == nil {
				p.failRecord(recordID)
			}
		}
	}
	wg.Wait()
	log.Infof("[Pipeline] drive batch of %d files done", len(task.Files))
}

func (p *Processor) processDriveFile(ctx context.Context, file tasks.DriveBatchFile, googleToken, description string) {
	recordID, err := uuid.Parse(file.RecordID)
	if err != nil {
		log.Errorf("[Pipeline] drive file %s carries bad record id %q", file.Name, file.RecordID)
		return
	}
	result, err := p.ml.AnalyzeDrive(ctx, file.FileID, googleToken, file.Name, file.MimeType, description)
	if err != nil {
		log.Errorf("[Pipeline] drive analysis failed for %s: %v", file.Name, err)
		p.failRecord(recordID)
		return
	}
	if err := p.analysisRepo.FinalizeSuccess(recordID, result.MatchScore, result.AnalysisDetails, result.CandidateInfo); err != nil {
		log.Errorf("[Pipeline] failed to finalize record %s: %v", recordID, err)
	}
}

func (p *Processor) failRecord(id uuid.UUID) {
	if err := p.analysisRepo.FinalizeFailure(id); err != nil {
		log.Errorf("[Pipeline] failed to mark record %s failed: %v", id, err)
	}
}

func (p *Processor) failSource(id uuid.UUID) {
	if err := p.sourceRepo.UpdateStatus(id, model.StatusFailed); err != nil {
		log.Errorf("[Pipeline] failed to mark source %s failed: %v", id, err)
	}
}

func (p *Processor) deleteStoredFile(ctx context.Context, recordID uuid.UUID) {
	record, err := p.analysisRepo.FindByID(recordID)
	if err != nil {
		log.Warnf("[Pipeline] could not look up record %s for cleanup: %v", recordID, err)
		return
	}
	if record.S3Key == nil || *record.S3Key == "" {
		return
	}
	if err := p.store.Delete(ctx, *record.S3Key); err != nil {
		log.Warnf("[Pipeline] failed to delete stored file %s: %v", *record.S3Key, err)
	}
}
