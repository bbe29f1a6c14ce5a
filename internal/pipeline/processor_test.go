package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"basal-backend-go/internal/config"
	"basal-backend-go/internal/model"
	"basal-backend-go/pkg/log"
	"basal-backend-go/pkg/mlserver"
	"basal-backend-go/pkg/tasks"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

var errDown = errors.New("service down")

type fakeML struct {
	mu          sync.Mutex
	healthy     bool
	analyzeErr  error
	score       float64
	handoffErr  error
	analyzed    []string
	healthCalls int
}

func (c *fakeML) HealthCheck(ctx context.Context, maxRetries int, delay time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthCalls++
	return c.healthy
}

func (c *fakeML) AnalyzeS3(ctx context.Context, filename, fileURL, description string) (*mlserver.AnalysisResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.analyzeErr != nil {
		return nil, c.analyzeErr
	}
	c.analyzed = append(c.analyzed, filename)
	return &mlserver.AnalysisResult{MatchScore: c.score}, nil
}

func (c *fakeML) AnalyzeDrive(ctx context.Context, fileID, googleToken, filename, mimeType, description string) (*mlserver.AnalysisResult, error) {
	return c.AnalyzeS3(ctx, filename, "", description)
}

func (c *fakeML) ProcessDocument(ctx context.Context, sourceID, fileURL, filename string) error {
	return c.handoffErr
}

func (c *fakeML) ProcessVideo(ctx context.Context, sourceID, videoURL string) error {
	return c.handoffErr
}

func (c *fakeML) GetVector(ctx context.Context, text string) ([]float32, error) {
	return nil, errDown
}

func (c *fakeML) GenerateAnswer(ctx context.Context, question, contextText string) (string, error) {
	return "", errDown
}

type fakeAnalysisRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*model.ResumeAnalysis
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{records: map[uuid.UUID]*model.ResumeAnalysis{}}
}

func (r *fakeAnalysisRepo) add(userID uuid.UUID, filename string, s3Key *string) *model.ResumeAnalysis {
	rec := &model.ResumeAnalysis{
		ID:       uuid.New(),
		UserID:   userID,
		Filename: filename,
		S3Key:    s3Key,
		Status:   model.StatusProcessing,
	}
	r.records[rec.ID] = rec
	return rec
}

func (r *fakeAnalysisRepo) CreatePlaceholder(userID uuid.UUID, filename string, s3Key *string, id *uuid.UUID) (*model.ResumeAnalysis, error) {
	return r.add(userID, filename, s3Key), nil
}

func (r *fakeAnalysisRepo) FinalizeSuccess(id uuid.UUID, score float64, details, candidateInfo map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok && !rec.Status.Terminal() {
		rec.Status = model.StatusCompleted
		rec.MatchScore = score
	}
	return nil
}

func (r *fakeAnalysisRepo) FinalizeFailure(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok && !rec.Status.Terminal() {
		rec.Status = model.StatusFailed
	}
	return nil
}

func (r *fakeAnalysisRepo) FindByUser(userID uuid.UUID) ([]model.ResumeAnalysis, error) {
	return nil, nil
}

func (r *fakeAnalysisRepo) FindByID(id uuid.UUID) (*model.ResumeAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeAnalysisRepo) DeleteByUser(userID uuid.UUID) ([]string, error) {
	return nil, nil
}

func (r *fakeAnalysisRepo) FailStuck(cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeSourceRepo struct {
	statuses map[uuid.UUID]model.AnalysisStatus
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{statuses: map[uuid.UUID]model.AnalysisStatus{}}
}

func (r *fakeSourceRepo) GetOrCreate(source *model.Source) (*model.Source, bool, error) {
	return source, false, nil
}

func (r *fakeSourceRepo) ReplaceChunks(sourceID uuid.UUID, chunks []model.SourceChunk) error {
	return nil
}

func (r *fakeSourceRepo) NearestChunks(userID, sourceID uuid.UUID, query []float32, limit int) ([]model.SourceChunk, error) {
	return nil, nil
}

func (r *fakeSourceRepo) FindByID(id uuid.UUID) (*model.Source, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSourceRepo) FindByUser(userID uuid.UUID) ([]model.Source, error) {
	return nil, nil
}

func (r *fakeSourceRepo) FindAll() ([]model.Source, error) {
	return nil, nil
}

func (r *fakeSourceRepo) UpdateStatus(id uuid.UUID, status model.AnalysisStatus) error {
	r.statuses[id] = status
	return nil
}

func (r *fakeSourceRepo) FailStuck(cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeStore struct {
	deletes []string
}

func (s *fakeStore) Put(ctx context.Context, r io.Reader, size int64, filename, contentType string) (string, string, error) {
	return "", "", nil
}

func (s *fakeStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "", nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return nil
}

func newTestProcessor(t *testing.T, ml *fakeML, analysisRepo *fakeAnalysisRepo, sourceRepo *fakeSourceRepo, store *fakeStore, deleteAfter bool) *Processor {
	t.Helper()
	p, err := NewProcessor(ml, analysisRepo, sourceRepo, store, config.MLServerConfig{WakeMaxRetries: 3, WakeRetryDelay: time.Millisecond}, config.PipelineConfig{DrivePoolSize: 2, DeleteAfterwards: deleteAfter})
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestProcessResumeSuccess(t *testing.T) {
	ml := &fakeML{healthy: true, score: 91}
	analysisRepo := newFakeAnalysisRepo()
	rec := analysisRepo.add(uuid.New(), "cv.pdf", nil)
	p := newTestProcessor(t, ml, analysisRepo, newFakeSourceRepo(), &fakeStore{}, false)

	p.Process(context.Background(), tasks.IngestionTask{
		Kind:     tasks.KindResumeS3,
		RecordID: rec.ID.String(),
		FileURL:  "https://example.com/cv.pdf",
		Filename: "cv.pdf",
	})

	assert.Equal(t, model.StatusCompleted, rec.Status)
	assert.Equal(t, float64(91), rec.MatchScore)
}

func TestProcessResumeWakeFailure(t *testing.T) {
	ml := &fakeML{healthy: false}
	analysisRepo := newFakeAnalysisRepo()
	rec := analysisRepo.add(uuid.New(), "cv.pdf", nil)
	p := newTestProcessor(t, ml, analysisRepo, newFakeSourceRepo(), &fakeStore{}, false)

	p.Process(context.Background(), tasks.IngestionTask{
		Kind:     tasks.KindResumeS3,
		RecordID: rec.ID.String(),
	})

	// The analyze call is never attempted against a sleeping service.
	assert.Equal(t, model.StatusFailed, rec.Status)
	assert.Empty(t, ml.analyzed)
}

func TestProcessResumeAnalyzeFailure(t *testing.T) {
	ml := &fakeML{healthy: true, analyzeErr: errDown}
	analysisRepo := newFakeAnalysisRepo()
	rec := analysisRepo.add(uuid.New(), "cv.pdf", nil)
	p := newTestProcessor(t, ml, analysisRepo, newFakeSourceRepo(), &fakeStore{}, false)

	p.Process(context.Background(), tasks.IngestionTask{
		Kind:     tasks.KindResumeS3,
		RecordID: rec.ID.String(),
	})

	assert.Equal(t, model.StatusFailed, rec.Status)
}

func TestProcessResumeDeletesAfterwards(t *testing.T) {
	ml := &fakeML{healthy: true, score: 50}
	analysisRepo := newFakeAnalysisRepo()
	key := "resumes/abc-cv.pdf"
	rec := analysisRepo.add(uuid.New(), "cv.pdf", &key)
	store := &fakeStore{}
	p := newTestProcessor(t, ml, analysisRepo, newFakeSourceRepo(), store, true)

	p.Process(context.Background(), tasks.IngestionTask{
		Kind:     tasks.KindResumeS3,
		RecordID: rec.ID.String(),
	})

	assert.Equal(t, []string{key}, store.deletes)
}

func TestProcessDriveBatch(t *testing.T) {
	ml := &fakeML{healthy: true, score: 70}
	analysisRepo := newFakeAnalysisRepo()
	userID := uuid.New()
	recA := analysisRepo.add(userID, "a.pdf", nil)
	recB := analysisRepo.add(userID, "b.pdf", nil)
	p := newTestProcessor(t, ml, analysisRepo, newFakeSourceRepo(), &fakeStore{}, false)

	p.Process(context.Background(), tasks.IngestionTask{
		Kind:        tasks.KindDriveBatch,
		GoogleToken: "tok",
		Files: []tasks.DriveBatchFile{
			{RecordID: recA.ID.String(), FileID: "1", Name: "a.pdf", MimeType: "application/pdf"},
			{RecordID: recB.ID.String(), FileID: "2", Name: "b.pdf", MimeType: "application/pdf"},
		},
	})

	assert.Equal(t, model.StatusCompleted, recA.Status)
	assert.Equal(t, model.StatusCompleted, recB.Status)
	// One wake serves the whole batch.
	assert.Equal(t, 1, ml.healthCalls)
}

func TestProcessDriveBatchWakeFailure(t *testing.T) {
	ml := &fakeML{healthy: false}
	analysisRepo := newFakeAnalysisRepo()
	rec := analysisRepo.add(uuid.New(), "a.pdf", nil)
	p := newTestProcessor(t, ml, analysisRepo, newFakeSourceRepo(), &fakeStore{}, false)

	p.Process(context.Background(), tasks.IngestionTask{
		Kind:  tasks.KindDriveBatch,
		Files: []tasks.DriveBatchFile{{RecordID: rec.ID.String(), FileID: "1", Name: "a.pdf"}},
	})

	assert.Equal(t, model.StatusFailed, rec.Status)
}

func TestProcessDocumentHandoffFailure(t *testing.T) {
	ml := &fakeML{healthy: true, handoffErr: errDown}
	sourceRepo := newFakeSourceRepo()
	sourceID := uuid.New()
	p := newTestProcessor(t, ml, newFakeAnalysisRepo(), sourceRepo, &fakeStore{}, false)

	p.Process(context.Background(), tasks.IngestionTask{
		Kind:     tasks.KindDocument,
		SourceID: sourceID.String(),
		FileURL:  "https://example.com/doc.pdf",
		Filename: "doc.pdf",
	})

	assert.Equal(t, model.StatusFailed, sourceRepo.statuses[sourceID])
}

func TestProcessDocumentHandoffAccepted(t *testing.T) {
	ml := &fakeML{healthy: true}
	sourceRepo := newFakeSourceRepo()
	sourceID := uuid.New()
	p := newTestProcessor(t, ml, newFakeAnalysisRepo(), sourceRepo, &fakeStore{}, false)

	p.Process(context.Background(), tasks.IngestionTask{
		Kind:     tasks.KindDocument,
		SourceID: sourceID.String(),
	})

	// The source is left in processing; the chunk callback completes it.
	_, touched := sourceRepo.statuses[sourceID]
	assert.False(t, touched)
}
