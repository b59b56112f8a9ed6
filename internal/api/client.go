package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/sirupsen/logrus"
)

// ErrEmptyAnswer is returned when the backend answers a question with nothing
var ErrEmptyAnswer = errors.New("backend returned an empty answer")

// maxResponseBytes bounds how much of a backend response is read
const maxResponseBytes = 8 << 20

// Config holds the client settings. BaseURL is injected here, never read
// from the environment by the client itself.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// StatusError is a non-2xx response from the backend
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("unexpected status: %d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

// AskRequest is the body of a question
type AskRequest struct {
	Question string                `json:"question"`
	URL      string                `json:"url"`
	Context  model.AnalysisContext `json:"context,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error"`
}

type analyzeEnvelope struct {
	Summary          string                `json:"summary"`
	UserTypes        []model.UserTypeBlock `json:"userTypes"`
	ImportantNotices []string              `json:"importantNotices"`
	Error            string                `json:"error"`
}

// Client talks to the analysis backend
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a backend client
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = model.DefaultBackendURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(base, "/"),
		userAgent:  cfg.UserAgent,
	}
}

// BaseURL returns the backend base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze submits a URL for analysis. An empty URL is forwarded as a request
// without the url field; validating it is the backend's job.
func (c *Client) Analyze(ctx context.Context, pageURL string) (*model.AnalysisResult, error) {
	form := url.Values{}
	if pageURL != "" {
		form.Set("url", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("analyze"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	return decodeAnalysis(body)
}

// Ask sends a question about an analyzed page and returns the answer
func (c *Client) Ask(ctx context.Context, ask AskRequest) (string, error) {
	payload, err := json.Marshal(ask)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("ask"), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var resp askResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode answer: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("backend error: %s", resp.Error)
	}
	if strings.TrimSpace(resp.Answer) == "" {
		return "", ErrEmptyAnswer
	}

	return resp.Answer, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + path
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	log := logrus.WithFields(logrus.Fields{
		"backend":  c.baseURL,
		"endpoint": req.URL.Path,
	})
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Debug("Backend request failed")
		return nil, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	log = log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Round(time.Millisecond),
	})
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
		log.WithError(serr).Debug("Backend returned an error status")
		return nil, serr
	}
	log.Debug("Backend request completed")

	return body, nil
}

// decodeAnalysis maps a 2xx body onto a result. The whole body is kept as
// the opaque context. Bodies that are not a JSON object, or that carry an
// error field, are failures.
func decodeAnalysis(body []byte) (*model.AnalysisResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("decode analysis: response is not a JSON object")
	}

	var env analyzeEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if env.Error != "" {
		return nil, fmt.Errorf("backend error: %s", env.Error)
	}

	result := &model.AnalysisResult{
		Summary:          env.Summary,
		UserTypes:        env.UserTypes,
		ImportantNotices: env.ImportantNotices,
		Raw:              append(model.AnalysisContext{}, trimmed...),
	}
	if result.UserTypes == nil {
		result.UserTypes = []model.UserTypeBlock{}
	}
	if result.ImportantNotices == nil {
		result.ImportantNotices = []string{}
	}

	return result, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
