package service

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"basal-backend-go/internal/model"
	"basal-backend-go/pkg/log"
	"basal-backend-go/pkg/mlserver"
	"basal-backend-go/pkg/tasks"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

// fakeUserRepo keeps one user in memory with a mutable credit balance.
type fakeUserRepo struct {
	users  map[string]*model.User
	debits int
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.Email] = u
	}
	return r
}

func (r *fakeUserRepo) Create(user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) DebitCredit(id uuid.UUID) (bool, error) {
	for _, u := range r.users {
		if u.ID == id {
			if u.Credits <= 0 {
				return false, nil
			}
			u.Credits--
			r.debits++
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) CountConversations(userID uuid.UUID) (int64, error) {
	return 0, nil
}

// fakeSourceRepo keeps sources keyed by unique key.
type fakeSourceRepo struct {
	byKey  map[string]*model.Source
	chunks map[uuid.UUID][]model.SourceChunk
}

func newFakeSourceRepo() *fakeSourceRepo {
	return &fakeSourceRepo{
		byKey:  map[string]*model.Source{},
		chunks: map[uuid.UUID][]model.SourceChunk{},
	}
}

func (r *fakeSourceRepo) GetOrCreate(source *model.Source) (*model.Source, bool, error) {
	if existing, ok := r.byKey[source.UniqueKey]; ok {
		return existing, true, nil
	}
	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	r.byKey[source.UniqueKey] = source
	return source, false, nil
}

func (r *fakeSourceRepo) ReplaceChunks(sourceID uuid.UUID, chunks []model.SourceChunk) error {
	r.chunks[sourceID] = chunks
	for _, s := range r.byKey {
		if s.ID == sourceID {
			s.Status = model.StatusCompleted
		}
	}
	return nil
}

func (r *fakeSourceRepo) NearestChunks(userID, sourceID uuid.UUID, query []float32, limit int) ([]model.SourceChunk, error) {
	chunks := r.chunks[sourceID]
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

func (r *fakeSourceRepo) FindByID(id uuid.UUID) (*model.Source, error) {
	for _, s := range r.byKey {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSourceRepo) FindByUser(userID uuid.UUID) ([]model.Source, error) {
	var out []model.Source
	for _, s := range r.byKey {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSourceRepo) FindAll() ([]model.Source, error) {
	var out []model.Source
	for _, s := range r.byKey {
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSourceRepo) UpdateStatus(id uuid.UUID, status model.AnalysisStatus) error {
	for _, s := range r.byKey {
		if s.ID == id {
			s.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeSourceRepo) FailStuck(cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeAnalysisRepo records placeholder and finalize calls.
type fakeAnalysisRepo struct {
	records map[uuid.UUID]*model.ResumeAnalysis
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{records: map[uuid.UUID]*model.ResumeAnalysis{}}
}

func (r *fakeAnalysisRepo) CreatePlaceholder(userID uuid.UUID, filename string, s3Key *string, id *uuid.UUID) (*model.ResumeAnalysis, error) {
	recordID := uuid.New()
	if id != nil {
		recordID = *id
	}
	record := &model.ResumeAnalysis{
		ID:       recordID,
		UserID:   userID,
		Filename: filename,
		S3Key:    s3Key,
		Status:   model.StatusProcessing,
	}
	r.records[recordID] = record
	return record, nil
}

func (r *fakeAnalysisRepo) FinalizeSuccess(id uuid.UUID, score float64, details, candidateInfo map[string]interface{}) error {
	if rec, ok := r.records[id]; ok && !rec.Status.Terminal() {
		rec.Status = model.StatusCompleted
		rec.MatchScore = score
	}
	return nil
}

func (r *fakeAnalysisRepo) FinalizeFailure(id uuid.UUID) error {
	if rec, ok := r.records[id]; ok && !rec.Status.Terminal() {
		rec.Status = model.StatusFailed
	}
	return nil
}

func (r *fakeAnalysisRepo) FindByUser(userID uuid.UUID) ([]model.ResumeAnalysis, error) {
	var out []model.ResumeAnalysis
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeAnalysisRepo) FindByID(id uuid.UUID) (*model.ResumeAnalysis, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeAnalysisRepo) DeleteByUser(userID uuid.UUID) ([]string, error) {
	var keys []string
	for id, rec := range r.records {
		if rec.UserID == userID {
			if rec.S3Key != nil && *rec.S3Key != "" {
				keys = append(keys, *rec.S3Key)
			}
			delete(r.records, id)
		}
	}
	return keys, nil
}

func (r *fakeAnalysisRepo) FailStuck(cutoff time.Time) (int64, error) {
	return 0, nil
}

// fakeConvRepo records the committed exchange.
type fakeConvRepo struct {
	convs       map[uuid.UUID]*model.Conversation
	committed   []model.ChatMessage
	commitErr   error
	invalidated int
	lastCommit  *model.Conversation
	lastIsNew   bool
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: map[uuid.UUID]*model.Conversation{}}
}

func (r *fakeConvRepo) FindByIDAndUser(id, userID uuid.UUID) (*model.Conversation, error) {
	conv, ok := r.convs[id]
	if !ok || conv.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (r *fakeConvRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range r.convs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeConvRepo) ListAll() ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range r.convs {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeConvRepo) Messages(ctx context.Context, conversationID uuid.UUID) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range r.committed {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeConvRepo) CommitExchange(ctx context.Context, conv *model.Conversation, convIsNew bool, userMsg, assistantMsg *model.ChatMessage) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	if convIsNew {
		r.convs[conv.ID] = conv
	}
	for _, msg := range []*model.ChatMessage{userMsg, assistantMsg} {
		msg.ConversationID = conv.ID
		r.committed = append(r.committed, *msg)
	}
	r.lastCommit = conv
	r.lastIsNew = convIsNew
	return nil
}

func (r *fakeConvRepo) InvalidateUser(ctx context.Context, userID uuid.UUID, conversationIDs ...uuid.UUID) {
	r.invalidated++
}

// fakeMLClient scripts the gateway.
type fakeMLClient struct {
	healthy     bool
	vector      []float32
	vectorErr   error
	answer      string
	answerErr   error
	lastContext string
	healthCalls int
}

func (c *fakeMLClient) HealthCheck(ctx context.Context, maxRetries int, delay time.Duration) bool {
	c.healthCalls++
	return c.healthy
}

func (c *fakeMLClient) AnalyzeS3(ctx context.Context, filename, fileURL, description string) (*mlserver.AnalysisResult, error) {
	return nil, errBoom
}

func (c *fakeMLClient) AnalyzeDrive(ctx context.Context, fileID, googleToken, filename, mimeType, description string) (*mlserver.AnalysisResult, error) {
	return nil, errBoom
}

func (c *fakeMLClient) ProcessDocument(ctx context.Context, sourceID, fileURL, filename string) error {
	return nil
}

func (c *fakeMLClient) ProcessVideo(ctx context.Context, sourceID, videoURL string) error {
	return nil
}

func (c *fakeMLClient) GetVector(ctx context.Context, text string) ([]float32, error) {
	if c.vectorErr != nil {
		return nil, c.vectorErr
	}
	return c.vector, nil
}

func (c *fakeMLClient) GenerateAnswer(ctx context.Context, question, contextText string) (string, error) {
	if c.answerErr != nil {
		return "", c.answerErr
	}
	c.lastContext = contextText
	return c.answer, nil
}

// fakeStore records puts and deletes.
type fakeStore struct {
	puts    int
	deletes []string
	putErr  error
}

func (s *fakeStore) Put(ctx context.Context, r io.Reader, size int64, filename, contentType string) (string, string, error) {
	if s.putErr != nil {
		return "", "", s.putErr
	}
	s.puts++
	return "https://store.example.com/" + filename, "resumes/" + filename, nil
}

func (s *fakeStore) Presign(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://store.example.com/" + key, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return nil
}

// fakePublisher collects published tasks.
type fakePublisher struct {
	published []tasks.IngestionTask
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, task tasks.IngestionTask) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, task)
	return nil
}

var errBoom = errors.New("boom")
