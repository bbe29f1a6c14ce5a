package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basal-backend-go/internal/config"
	"basal-backend-go/internal/model"
	"basal-backend-go/pkg/tasks"
)

func testUser(credits int) *model.User {
	return &model.User{
		ID:      uuid.New(),
		Email:   "kim@example.com",
		Credits: credits,
	}
}

func newTestIngestService(userRepo *fakeUserRepo, sourceRepo *fakeSourceRepo, analysisRepo *fakeAnalysisRepo, store *fakeStore, pub *fakePublisher) IngestService {
	return NewIngestService(sourceRepo, analysisRepo, userRepo, store, nil, pub, config.DriveConfig{})
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "kim_cv.pdf", DedupKey("kim@example.com", "cv.pdf"))
	assert.Equal(t, "kim_cv.pdf", DedupKey("kim@example.com", "some/dir/cv.pdf"))
	assert.Equal(t, "kim_cv.pdf", DedupKey("kim", "cv.pdf"))
}

func TestIngestDocument(t *testing.T) {
	user := testUser(2)
	userRepo := newFakeUserRepo(user)
	sourceRepo := newFakeSourceRepo()
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newTestIngestService(userRepo, sourceRepo, newFakeAnalysisRepo(), store, pub)

	result, err := svc.IngestDocument(context.Background(), user, "cv.pdf", "application/pdf", 4, strings.NewReader("body"))
	require.NoError(t, err)
	assert.Equal(t, "processing", result.Status)
	assert.Equal(t, 1, userRepo.debits)
	assert.Equal(t, 1, store.puts)
	require.Len(t, pub.published, 1)
	assert.Equal(t, tasks.KindDocument, pub.published[0].Kind)
	assert.Equal(t, result.SourceID, pub.published[0].SourceID)
}

func TestIngestDocumentDuplicate(t *testing.T) {
	user := testUser(2)
	userRepo := newFakeUserRepo(user)
	sourceRepo := newFakeSourceRepo()
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newTestIngestService(userRepo, sourceRepo, newFakeAnalysisRepo(), store, pub)

	first, err := svc.IngestDocument(context.Background(), user, "cv.pdf", "application/pdf", 4, strings.NewReader("body"))
	require.NoError(t, err)

	second, err := svc.IngestDocument(context.Background(), user, "cv.pdf", "application/pdf", 4, strings.NewReader("body"))
	require.NoError(t, err)

	// The repeat is not billed, not stored and not enqueued.
	assert.Equal(t, first.SourceID, second.SourceID)
	assert.Equal(t, "ready", second.Status)
	assert.Equal(t, "Already exists", second.Message)
	assert.Equal(t, 1, userRepo.debits)
	assert.Equal(t, 1, store.puts)
	assert.Len(t, pub.published, 1)
}

func TestIngestDocumentNoCredits(t *testing.T) {
	user := testUser(0)
	svc := newTestIngestService(newFakeUserRepo(user), newFakeSourceRepo(), newFakeAnalysisRepo(), &fakeStore{}, &fakePublisher{})

	_, err := svc.IngestDocument(context.Background(), user, "cv.pdf", "application/pdf", 4, strings.NewReader("body"))
	assert.ErrorIs(t, err, ErrNoCredits)
}

func TestIngestVideo(t *testing.T) {
	user := testUser(1)
	userRepo := newFakeUserRepo(user)
	pub := &fakePublisher{}
	svc := newTestIngestService(userRepo, newFakeSourceRepo(), newFakeAnalysisRepo(), &fakeStore{}, pub)

	result, err := svc.IngestVideo(context.Background(), user, "https://videos.example.com/talks/intro.mp4")
	require.NoError(t, err)
	assert.Equal(t, "processing", result.Status)
	require.Len(t, pub.published, 1)
	assert.Equal(t, tasks.KindVideo, pub.published[0].Kind)
	assert.Equal(t, "https://videos.example.com/talks/intro.mp4", pub.published[0].VideoURL)
	assert.Equal(t, 1, userRepo.debits)
}

func TestUploadResumes(t *testing.T) {
	user := testUser(5)
	userRepo := newFakeUserRepo(user)
	analysisRepo := newFakeAnalysisRepo()
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newTestIngestService(userRepo, newFakeSourceRepo(), analysisRepo, store, pub)

	uploads := []ResumeUpload{
		{Filename: "a.pdf", ContentType: "application/pdf", Size: 1, Reader: strings.NewReader("a")},
		{Filename: "b.pdf", ContentType: "application/pdf", Size: 1, Reader: strings.NewReader("b")},
	}
	queued, err := svc.UploadResumes(context.Background(), user, uploads, "backend role")
	require.NoError(t, err)
	assert.Equal(t, 2, queued)
	assert.Equal(t, 2, userRepo.debits)
	assert.Len(t, analysisRepo.records, 2)
	require.Len(t, pub.published, 2)
	for _, task := range pub.published {
		assert.Equal(t, tasks.KindResumeS3, task.Kind)
		assert.Equal(t, "backend role", task.Description)
		assert.NotEmpty(t, task.RecordID)
	}
}

func TestUploadResumesStopsWhenCreditsRunOut(t *testing.T) {
	user := testUser(1)
	userRepo := newFakeUserRepo(user)
	pub := &fakePublisher{}
	svc := newTestIngestService(userRepo, newFakeSourceRepo(), newFakeAnalysisRepo(), &fakeStore{}, pub)

	uploads := []ResumeUpload{
		{Filename: "a.pdf", Size: 1, Reader: strings.NewReader("a")},
		{Filename: "b.pdf", Size: 1, Reader: strings.NewReader("b")},
		{Filename: "c.pdf", Size: 1, Reader: strings.NewReader("c")},
	}
	queued, err := svc.UploadResumes(context.Background(), user, uploads, "")
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	assert.Len(t, pub.published, 1)
	assert.Equal(t, 0, user.Credits)
}
