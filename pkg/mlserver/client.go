// Package mlserver is the gateway to the remote ML compute service.
//
// The service runs on a serverless platform and cold-starts. Waking it and
// confirming liveness is therefore a separate, retrying step (HealthCheck);
// the expensive analyze/generate calls themselves are issued exactly once so
// a unit of work is never billed or processed twice upstream.
package mlserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"basal-backend-go/internal/config"
	"basal-backend-go/pkg/log"
)

// AnalysisResult is the remote service's verdict for one resume. Details and
// CandidateInfo are opaque payloads whose shape the remote side owns; absent
// fields decode to zero values and are never an error.
type AnalysisResult struct {
	MatchScore      float64                `json:"match_score"`
	AnalysisDetails map[string]interface{} `json:"analysis_details"`
	CandidateInfo   map[string]interface{} `json:"candidate_info"`
}

// Client is the interface the orchestrators program against.
type Client interface {
	// HealthCheck polls the liveness endpoint. It returns true on the first
	// success and false once maxRetries attempts are exhausted, sleeping
	// delay between attempts (not after the last one).
	HealthCheck(ctx context.Context, maxRetries int, delay time.Duration) bool

	// AnalyzeS3 analyzes a resume reachable at a presigned URL.
	AnalyzeS3(ctx context.Context, filename, fileURL, description string) (*AnalysisResult, error)

	// AnalyzeDrive analyzes a file living in a cloud drive, fetched remotely
	// with the caller's bearer token.
	AnalyzeDrive(ctx context.Context, fileID, googleToken, filename, mimeType, description string) (*AnalysisResult, error)

	// ProcessDocument asks the service to chunk and vectorize a document;
	// results come back through the source-sync callback endpoints.
	ProcessDocument(ctx context.Context, sourceID, fileURL, filename string) error

	// ProcessVideo asks the service to transcribe and vectorize a video.
	ProcessVideo(ctx context.Context, sourceID, videoURL string) error

	// GetVector embeds a piece of text.
	GetVector(ctx context.Context, text string) ([]float32, error)

	// GenerateAnswer produces an answer grounded on the given context block.
	GenerateAnswer(ctx context.Context, question, contextText string) (string, error)
}

type httpClient struct {
	cfg    config.MLServerConfig
	client *http.Client
}

// NewClient builds the gateway from config. Per-call timeouts come from the
// config rather than the shared http.Client so one slow endpoint cannot eat
// another's budget.
func NewClient(cfg config.MLServerConfig) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type healthResponse struct {
	Active interface{} `json:"active"`
}

// HealthCheck implements the wake-and-confirm step.
func (c *httpClient) HealthCheck(ctx context.Context, maxRetries int, delay time.Duration) bool {
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return false
			}
		}
		if c.ping(ctx) {
			return true
		}
	}
	return false
}

func (c *httpClient) ping(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return true
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	return body.Active == "healthy" || body.Active == true
}

// AnalyzeS3 issues a single timed analyze call. No retries here: the
// preceding health check owns the cold-start problem.
func (c *httpClient) AnalyzeS3(ctx context.Context, filename, fileURL, description string) (*AnalysisResult, error) {
	payload := map[string]string{
		"filename":    filename,
		"file_url":    fileURL,
		"description": description,
	}
	var result AnalysisResult
	if err := c.post(ctx, "/analyze-s3", payload, c.cfg.AnalyzeS3Timeout, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeDrive issues a single timed per-file drive analyze call.
func (c *httpClient) AnalyzeDrive(ctx context.Context, fileID, googleToken, filename, mimeType, description string) (*AnalysisResult, error) {
	payload := map[string]string{
		"file_id":      fileID,
		"google_token": googleToken,
		"filename":     filename,
		"mime_type":    mimeType,
		"description":  description,
	}
	var result AnalysisResult
	if err := c.post(ctx, "/analyze-drive", payload, c.cfg.AnalyzeDriveTimeout, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ProcessDocument hands a document over for chunking; the chunk set arrives
// later via the source-sync callbacks.
func (c *httpClient) ProcessDocument(ctx context.Context, sourceID, fileURL, filename string) error {
	payload := map[string]string{
		"source_id": sourceID,
		"file_url":  fileURL,
		"filename":  filename,
	}
	return c.post(ctx, "/ingest-document", payload, c.cfg.AnalyzeS3Timeout, nil)
}

// ProcessVideo hands a video URL over for transcription and chunking.
func (c *httpClient) ProcessVideo(ctx context.Context, sourceID, videoURL string) error {
	payload := map[string]string{
		"source_id": sourceID,
		"url":       videoURL,
	}
	return c.post(ctx, "/ingest-video", payload, c.cfg.AnalyzeDriveTimeout, nil)
}

type vectorResponse struct {
	Vector []float32 `json:"vector"`
}

// GetVector embeds the given text.
func (c *httpClient) GetVector(ctx context.Context, text string) ([]float32, error) {
	var result vectorResponse
	if err := c.post(ctx, "/get-vector", map[string]string{"text": text}, c.cfg.VectorTimeout, &result); err != nil {
		return nil, err
	}
	if len(result.Vector) == 0 {
		return nil, fmt.Errorf("ml server returned an empty vector")
	}
	return result.Vector, nil
}

type answerResponse struct {
	Answer string `json:"answer"`
}

// GenerateAnswer calls the generation endpoint with the question and the
// assembled context block. An empty context is a legal input.
func (c *httpClient) GenerateAnswer(ctx context.Context, question, contextText string) (string, error) {
	payload := map[string]string{
		"question": question,
		"context":  contextText,
	}
	var result answerResponse
	if err := c.post(ctx, "/generate-answer", payload, c.cfg.GenerateTimeout, &result); err != nil {
		return "", err
	}
	return result.Answer, nil
}

// post sends one JSON request with the shared-secret API key. Any transport
// error or non-2xx status is a failure; out is optional.
func (c *httpClient) post(ctx context.Context, endpoint string, payload interface{}, timeout time.Duration, out interface{}) error {
	reqBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", endpoint, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.cfg.BaseURL+endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call ml server %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Errorf("[MLServer] %s returned %s: %s", endpoint, resp.Status, string(body))
		return fmt.Errorf("ml server %s returned non-2xx status: %s", endpoint, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
		}
	}
	return nil
}
