// Package backend talks to the AI backend that powers the dashboard: ask-qa,
// refactor, gitops, git-scenarios and screen-assist. Every call is a single
// JSON request with no retry; failures are returned as typed errors that
// UserMessage turns into display text.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/buker/devdash/internal/segment"
	"github.com/buker/devdash/internal/stream"
)

// debugEnabled checks if DEBUG environment variable is set
var debugEnabled = os.Getenv("DEBUG") != ""

// debugLog prints a debug message if DEBUG is set
func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		fmt.Fprintf(os.Stderr, "[BACKEND DEBUG] "+format+"\n", args...)
	}
}

// DefaultURL is where the backend listens unless configured otherwise.
const DefaultURL = "http://localhost:8000"

// maxErrorBody caps how much of an error body is read for diagnostics.
const maxErrorBody = 64 * 1024

// Asker answers developer questions.
type Asker interface {
	Ask(ctx context.Context, req AskRequest, onUpdate stream.UpdateFunc) (string, error)
}

// Client is an HTTP client for the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for baseURL. A zero timeout leaves requests
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AskQA posts a question and returns the answer text.
func (c *Client) AskQA(ctx context.Context, req AskRequest) (string, error) {
	req.Stream = false
	return c.Ask(ctx, req, nil)
}

// Ask posts a question. When the backend answers with text/event-stream the
// body is reassembled incrementally and onUpdate sees every snapshot;
// otherwise the JSON answer is delivered to onUpdate once.
func (c *Client) Ask(ctx context.Context, req AskRequest, onUpdate stream.UpdateFunc) (string, error) {
	accept := "application/json"
	if req.Stream {
		accept = "text/event-stream, application/json"
	}
	resp, err := c.do(ctx, http.MethodPost, "/ask-qa", req, accept)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if mediaType(resp) == "text/event-stream" {
		debugLog("ask-qa: streaming response")
		r := stream.NewReassembler(restoring(onUpdate))
		text, err := r.Consume(ctx, resp.Body)
		return segment.RestoreFences(text), err
	}

	var out askResponse
	if err := decode(resp, &out); err != nil {
		return "", err
	}
	text := segment.RestoreFences(out.text())
	if onUpdate != nil {
		onUpdate(text)
	}
	return text, nil
}

// restoring wraps onUpdate so snapshots carry restored fences.
func restoring(onUpdate stream.UpdateFunc) stream.UpdateFunc {
	if onUpdate == nil {
		return nil
	}
	return func(text string) {
		onUpdate(segment.RestoreFences(text))
	}
}

// ClaudeQA runs a free-form prompt with optional context and returns the
// answer, falling back to the content field and then to NoAnswer.
func (c *Client) ClaudeQA(ctx context.Context, req ClaudeQARequest) (string, error) {
	if strings.TrimSpace(req.Question) == "" {
		return "", fmt.Errorf("a prompt is required")
	}
	var out claudeQAResponse
	if err := c.doJSON(ctx, http.MethodPost, "/claude-qa", req, &out); err != nil {
		return "", err
	}
	return segment.RestoreFences(out.text()), nil
}

// Refactor sends code for refactoring and returns the rewritten code.
func (c *Client) Refactor(ctx context.Context, req RefactorRequest) (string, error) {
	req.Normalize()
	var out refactorResponse
	if err := c.doJSON(ctx, http.MethodPost, "/refactor", req, &out); err != nil {
		return "", err
	}
	if out.Refactored == "" {
		return "", &BackendError{Message: "No refactored code received"}
	}
	return out.Refactored, nil
}

// GitOps asks for git commands matching an instruction or scenario.
func (c *Client) GitOps(ctx context.Context, req GitOpsRequest) (*GitOpsResult, error) {
	if strings.TrimSpace(req.Instruction) == "" && req.ScenarioType == "" {
		return nil, fmt.Errorf("an instruction or a scenario is required")
	}
	var out GitOpsResult
	if err := c.doJSON(ctx, http.MethodPost, "/gitops", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GitScenarios lists the predefined git scenarios, sorted by key.
func (c *Client) GitScenarios(ctx context.Context) ([]Scenario, error) {
	var out scenariosResponse
	if err := c.doJSON(ctx, http.MethodGet, "/git-scenarios", nil, &out); err != nil {
		return nil, err
	}
	scenarios := make([]Scenario, 0, len(out.Scenarios))
	for k, v := range out.Scenarios {
		scenarios = append(scenarios, Scenario{Key: k, Label: v})
	}
	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Key < scenarios[j].Key
	})
	return scenarios, nil
}

// ScreenAssist submits captured frames for analysis.
func (c *Client) ScreenAssist(ctx context.Context, req ScreenRequest) (*ScreenResult, error) {
	if len(req.ImageBase64List) == 0 && req.ImageBase64 == "" {
		return nil, &BackendError{Message: "No images provided."}
	}
	var out ScreenResult
	if err := c.doJSON(ctx, http.MethodPost, "/screen-assist", req, &out); err != nil {
		return nil, err
	}
	if out.Analysis == "" {
		out.Analysis = NoAnalysis
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decode(resp, out)
}

// do sends the request and returns the response when its status is 2xx.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, accept string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)

	debugLog("%s %s", method, url)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		debugLog("%s %s failed after %s: %v", method, url, time.Since(start), err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &NetworkError{Op: method, URL: url, Err: ctxErr}
		}
		return nil, &NetworkError{Op: method, URL: url, Err: err}
	}
	debugLog("%s %s -> %d (%s) in %s", method, url, resp.StatusCode, resp.Header.Get("Content-Type"), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() { _ = resp.Body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		debugLog("error body: %s", raw)
		return nil, &StatusError{Code: resp.StatusCode, Detail: errorDetail(raw)}
	}
	return resp, nil
}

// envelope captures the failure fields every endpoint may return.
type envelope struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

func (e envelope) message() string {
	if e.Error != "" {
		return e.Error
	}
	return rawDetail(e.Detail)
}

// rawDetail renders a detail field, which may be a string or structured.
func rawDetail(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func errorDetail(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.message()
}

// decode checks the content type, surfaces error/detail fields and unmarshals
// the body into out.
func decode(resp *http.Response, out interface{}) error {
	ct := resp.Header.Get("Content-Type")
	if mediaType(resp) != "application/json" {
		return &MalformedResponseError{Code: resp.StatusCode, ContentType: ct}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &MalformedResponseError{Code: resp.StatusCode, ContentType: ct, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &MalformedResponseError{Code: resp.StatusCode, ContentType: ct, Err: err}
	}
	if msg := env.message(); msg != "" {
		return &BackendError{Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &MalformedResponseError{Code: resp.StatusCode, ContentType: ct, Err: err}
	}
	return nil
}

func mediaType(resp *http.Response) string {
	mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}
