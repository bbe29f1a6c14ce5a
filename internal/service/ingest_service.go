package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"basal-backend-go/internal/config"
	"basal-backend-go/internal/model"
	"basal-backend-go/internal/repository"
	"basal-backend-go/pkg/drive"
	"basal-backend-go/pkg/log"
	"basal-backend-go/pkg/storage"
	"basal-backend-go/pkg/tasks"
)

// TaskPublisher enqueues ingestion tasks for the detached pipeline.
type TaskPublisher interface {
	Publish(ctx context.Context, task tasks.IngestionTask) error
}

// IngestResult is the immediate reply to an ingestion trigger; the real
// outcome lands on the record later.
type IngestResult struct {
	SourceID string `json:"source_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// ResumeUpload is one file of a resume batch.
type ResumeUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// FolderResult is the immediate reply to a drive-folder trigger.
type FolderResult struct {
	Message string       `json:"message"`
	Files   []drive.File `json:"files"`
}

// IngestService is the request side of the ingestion orchestrator: it gates
// on credits, de-duplicates, debits, and enqueues the detached work. The
// pipeline package owns the detached side.
type IngestService interface {
	IngestDocument(ctx context.Context, user *model.User, filename, contentType string, size int64, file io.Reader) (*IngestResult, error)
	IngestVideo(ctx context.Context, user *model.User, videoURL string) (*IngestResult, error)
	IngestFolder(ctx context.Context, user *model.User, folderID, googleToken, description string) (*FolderResult, error)
	UploadResumes(ctx context.Context, user *model.User, uploads []ResumeUpload, description string) (int, error)
}

type ingestService struct {
	sourceRepo   repository.SourceRepository
	analysisRepo repository.AnalysisRepository
	userRepo     repository.UserRepository
	store        storage.Store
	driveClient  *drive.Client
	producer     TaskPublisher
	driveCfg     config.DriveConfig
}

// NewIngestService creates a new IngestService.
func NewIngestService(
	sourceRepo repository.SourceRepository,
	analysisRepo repository.AnalysisRepository,
	userRepo repository.UserRepository,
	store storage.Store,
	driveClient *drive.Client,
	producer TaskPublisher,
	driveCfg config.DriveConfig,
) IngestService {
	return &ingestService{
		sourceRepo:   sourceRepo,
		analysisRepo: analysisRepo,
		userRepo:     userRepo,
		store:        store,
		driveClient:  driveClient,
		producer:     producer,
		driveCfg:     driveCfg,
	}
}

// DedupKey derives the per-owner de-duplication key for a logical filename.
func DedupKey(email, filename string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	return local + "_" + path.Base(filename)
}

// IngestDocument stores the document, registers the source and enqueues the
// chunking work. A repeat of the same file short-circuits unbilled.
func (s *ingestService) IngestDocument(ctx context.Context, user *model.User, filename, contentType string, size int64, file io.Reader) (*IngestResult, error) {
	if user.Credits <= 0 {
		return nil, ErrNoCredits
	}

	source := &model.Source{
		UserID:     user.ID,
		SourceName: filename,
		SourceType: model.SourceTypeDocument,
		UniqueKey:  DedupKey(user.Email, filename),
		Status:     model.StatusProcessing,
	}
	existing, existed, err := s.sourceRepo.GetOrCreate(source)
	if err != nil {
		return nil, err
	}
	if existed {
		return &IngestResult{
			SourceID: existing.ID.String(),
			Status:   "ready",
			Message:  "Already exists",
		}, nil
	}

	fileURL, _, err := s.store.Put(ctx, file, size, filename, contentType)
	if err != nil {
		return nil, err
	}

	// Debit commits before the detached work is scheduled; a crash after
	// this point still charges. Accepted trade-off, reconciled by the
	// pipeline reaper which fails stuck records.
	if _, err := s.userRepo.DebitCredit(user.ID); err != nil {
		return nil, err
	}

	task := tasks.IngestionTask{
		Kind:     tasks.KindDocument,
		SourceID: existing.ID.String(),
		FileURL:  fileURL,
		Filename: filename,
	}
	if err := s.producer.Publish(ctx, task); err != nil {
		return nil, err
	}

	return &IngestResult{
		SourceID: existing.ID.String(),
		Status:   "processing",
		Message:  "You can start chatting in a minute..!",
	}, nil
}

// IngestVideo registers a video URL as a source and enqueues the work.
func (s *ingestService) IngestVideo(ctx context.Context, user *model.User, videoURL string) (*IngestResult, error) {
	if user.Credits <= 0 {
		return nil, ErrNoCredits
	}

	segments := strings.Split(videoURL, "/")
	filename := segments[len(segments)-1]

	source := &model.Source{
		UserID:     user.ID,
		SourceName: videoURL,
		SourceType: model.SourceTypeVideo,
		UniqueKey:  DedupKey(user.Email, filename),
		Status:     model.StatusProcessing,
	}
	existing, existed, err := s.sourceRepo.GetOrCreate(source)
	if err != nil {
		return nil, err
	}
	if existed {
		return &IngestResult{
			SourceID: existing.ID.String(),
			Status:   "ready",
			Message:  "Already exists",
		}, nil
	}

	if _, err := s.userRepo.DebitCredit(user.ID); err != nil {
		return nil, err
	}

	task := tasks.IngestionTask{
		Kind:     tasks.KindVideo,
		SourceID: existing.ID.String(),
		VideoURL: videoURL,
	}
	if err := s.producer.Publish(ctx, task); err != nil {
		return nil, err
	}

	return &IngestResult{
		SourceID: existing.ID.String(),
		Status:   "processing",
		Message:  "You can start chatting in a minute..!",
	}, nil
}

// IngestFolder lists the drive folder, filters to the allow-listed mime
// types and enqueues one batch task. Each file gets its own placeholder
// record here so failures downstream stay isolated per file.
func (s *ingestService) IngestFolder(ctx context.Context, user *model.User, folderID, googleToken, description string) (*FolderResult, error) {
	if user.Credits <= 0 {
		return nil, ErrNoCredits
	}

	files, err := s.driveClient.ListFolder(ctx, folderID, googleToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	files = s.filterAllowed(files)
	if len(files) == 0 {
		return &FolderResult{Message: "No files found."}, nil
	}

	batch := make([]tasks.DriveBatchFile, 0, len(files))
	queued := make([]drive.File, 0, len(files))
	for _, f := range files {
		debited, err := s.userRepo.DebitCredit(user.ID)
		if err != nil {
			return nil, err
		}
		if !debited {
			log.Warnf("[IngestService] credits exhausted, queued %d of %d drive files", len(batch), len(files))
			break
		}
		record, err := s.analysisRepo.CreatePlaceholder(user.ID, f.Name, nil, nil)
		if err != nil {
			return nil, err
		}
		batch = append(batch, tasks.DriveBatchFile{
			RecordID: record.ID.String(),
			FileID:   f.ID,
			Name:     f.Name,
			MimeType: f.MimeType,
		})
		queued = append(queued, f)
	}
	if len(batch) == 0 {
		return nil, ErrNoCredits
	}

	task := tasks.IngestionTask{
		Kind:        tasks.KindDriveBatch,
		GoogleToken: googleToken,
		Description: description,
		Files:       batch,
	}
	if err := s.producer.Publish(ctx, task); err != nil {
		return nil, err
	}

	return &FolderResult{
		Message: fmt.Sprintf("Queued %d files for background processing.", len(batch)),
		Files:   queued,
	}, nil
}

// UploadResumes stores each file, creates its placeholder and enqueues one
// analyze task per file. Returns how many files were queued.
func (s *ingestService) UploadResumes(ctx context.Context, user *model.User, uploads []ResumeUpload, description string) (int, error) {
	if user.Credits <= 0 {
		return 0, ErrNoCredits
	}

	queued := 0
	for _, up := range uploads {
		debited, err := s.userRepo.DebitCredit(user.ID)
		if err != nil {
			return queued, err
		}
		if !debited {
			log.Warnf("[IngestService] credits exhausted, queued %d of %d uploads", queued, len(uploads))
			break
		}

		fileURL, key, err := s.store.Put(ctx, up.Reader, up.Size, up.Filename, up.ContentType)
		if err != nil {
			return queued, err
		}

		recordID := uuid.New()
		if _, err := s.analysisRepo.CreatePlaceholder(user.ID, up.Filename, &key, &recordID); err != nil {
			return queued, err
		}

		task := tasks.IngestionTask{
			Kind:        tasks.KindResumeS3,
			RecordID:    recordID.String(),
			FileURL:     fileURL,
			Filename:    up.Filename,
			Description: description,
		}
		if err := s.producer.Publish(ctx, task); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

func (s *ingestService) filterAllowed(files []drive.File) []drive.File {
	if len(s.driveCfg.AllowedMimeTypes) == 0 {
		return files
	}
	allowed := make(map[string]struct{}, len(s.driveCfg.AllowedMimeTypes))
	for _, mt := range s.driveCfg.AllowedMimeTypes {
		allowed[mt] = struct{}{}
	}
	kept := files[:0]
	for _, f := range files {
		if _, ok := allowed[f.MimeType]; ok {
			kept = append(kept, f)
		}
	}
	return kept
}
