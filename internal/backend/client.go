package backend

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/celiabustea/revu/internal/review"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed review_response.schema.json
var reviewResponseSchema string

// Service is the analysis backend surface the orchestrator depends on.
type Service interface {
	CheckHealth(ctx context.Context) (Health, error)
	Review(ctx context.Context, req ReviewRequest) (review.Result, error)
	Languages(ctx context.Context) ([]LanguageInfo, error)
	GenerateFix(ctx context.Context, req FixRequest) review.FixResult
	PullModel(ctx context.Context, model string) error
}

type Health struct {
	Status          string `json:"status"`
	OllamaConnected bool   `json:"ollama_connected"`
	ModelAvailable  bool   `json:"model_available"`
	Model           string `json:"model"`
	Message         string `json:"message,omitempty"`
}

type LanguageInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Alias      string   `json:"alias"`
}

type ReviewRequest struct {
	FilePath    string   `json:"file_path"`
	CodeContent string   `json:"code_content"`
	Language    string   `json:"language"`
	Guidelines  []string `json:"guidelines,omitempty"`
}

type FixRequest struct {
	Language    string `json:"language"`
	CodeSnippet string `json:"code_snippet"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// StatusError reports a non-success HTTP response with its body.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	return fmt.Sprintf("analysis service returned %d: %s", e.Status, body)
}

// Client talks to the local analysis service over HTTP. One request per
// operation, no retries, no caching; the orchestrator owns failure handling.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	reviewSchema *jsonschema.Schema
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	schema, err := jsonschema.CompileString("review_response.schema.json", reviewResponseSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile review response schema: %w", err)
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		reviewSchema: schema,
	}, nil
}

func (c *Client) CheckHealth(ctx context.Context) (Health, error) {
	var health Health
	if err := c.getJSON(ctx, "/health", &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

func (c *Client) Review(ctx context.Context, req ReviewRequest) (review.Result, error) {
	body, err := c.postRaw(ctx, "/api/review/snippet", req)
	if err != nil {
		return review.Result{}, err
	}
	if err := c.validateReviewBody(body); err != nil {
		return review.Result{}, err
	}
	var result review.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return review.Result{}, fmt.Errorf("failed to decode review response: %w", err)
	}
	return result, nil
}

func (c *Client) Languages(ctx context.Context) ([]LanguageInfo, error) {
	var payload struct {
		Languages []LanguageInfo `json:"languages"`
	}
	if err := c.getJSON(ctx, "/api/languages", &payload); err != nil {
		return nil, err
	}
	return payload.Languages, nil
}

// GenerateFix never returns a Go error: service and transport failures come
// back as FixResult{Success: false} so callers can render them inline.
func (c *Client) GenerateFix(ctx context.Context, req FixRequest) review.FixResult {
	body, err := c.postRaw(ctx, "/api/fix/generate", req)
	if err != nil {
		return review.FixResult{Success: false, Error: err.Error()}
	}
	var result review.FixResult
	if err := json.Unmarshal(body, &result); err != nil {
		return review.FixResult{Success: false, Error: fmt.Sprintf("failed to decode fix response: %v", err)}
	}
	return result
}

func (c *Client) PullModel(ctx context.Context, model string) error {
	var payload struct {
		Success bool   `json:"success"`
		Model   string `json:"model"`
		Message string `json:"message"`
	}
	path := "/api/llm/pull-model?model_name=" + url.QueryEscape(model)
	body, err := c.postRaw(ctx, path, struct{}{})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("failed to decode pull-model response: %w", err)
	}
	if !payload.Success {
		return fmt.Errorf("failed to pull model %s: %s", model, payload.Message)
	}
	return nil
}

func (c *Client) validateReviewBody(body []byte) error {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("analysis service returned invalid JSON: %w", err)
	}
	if err := c.reviewSchema.Validate(value); err != nil {
		return fmt.Errorf("review response failed schema validation: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) postRaw(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis service unreachable: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
