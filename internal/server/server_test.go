package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/ppiankov/termslens/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	mu         sync.Mutex
	analyzeErr error
	askErr     error
	answer     string

	analyzedURL string
	asked       askBody
}

func (f *fakeAnalyzer) Analyze(_ context.Context, u string) (*model.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzedURL = u
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	return &model.AnalysisResult{
		Summary: "# Terms",
		Raw:     json.RawMessage(`{"summary":"# Terms","userTypes":[],"importantNotices":[]}`),
	}, nil
}

func (f *fakeAnalyzer) Ask(_ context.Context, u, question string, forwarded json.RawMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = askBody{Question: question, URL: u, Context: forwarded}
	if f.askErr != nil {
		return "", f.askErr
	}
	return f.answer, nil
}

func newTestServer(t *testing.T, a Analyzer, checks map[string]HealthChecker) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(a, model.DefaultConfig().Server, checks))
	t.Cleanup(srv.Close)
	return srv
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestAnalyze(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := newTestServer(t, a, nil)

	resp, err := http.PostForm(srv.URL+"/analyze", url.Values{"url": {"https://api.example.com/terms"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	a.mu.Lock()
	assert.Equal(t, "https://api.example.com/terms", a.analyzedURL)
	a.mu.Unlock()

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "# Terms", got["summary"])
}

func TestAnalyze_MissingURL(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, nil)

	for _, form := range []url.Values{{}, {"url": {""}}, {"url": {"   "}}} {
		resp, err := http.PostForm(srv.URL+"/analyze", form)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No input provided", decodeError(t, resp))
		resp.Body.Close()
	}
}

func TestAnalyze_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: %q", pipeline.ErrInvalidURL, "ftp://x"), http.StatusBadRequest},
		{pipeline.ErrRobotsDisallowed, http.StatusForbidden},
		{pipeline.ErrNoTermsText, http.StatusUnprocessableEntity},
		{fmt.Errorf("llm analysis: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("llm analysis: quota exceeded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			srv := newTestServer(t, &fakeAnalyzer{analyzeErr: tt.err}, nil)

			resp, err := http.PostForm(srv.URL+"/analyze", url.Values{"url": {"https://a.example.com"}})
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.err.Error(), decodeError(t, resp))
		})
	}
}

func TestAsk(t *testing.T) {
	a := &fakeAnalyzer{answer: "100 requests per day"}
	srv := newTestServer(t, a, nil)

	body := `{"question":"What is the rate limit?","url":"https://api.example.com/terms","context":{"summary":"x"}}`
	resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "100 requests per day", got["answer"])

	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Equal(t, "What is the rate limit?", a.asked.Question)
	assert.Equal(t, "https://api.example.com/terms", a.asked.URL)
	assert.JSONEq(t, `{"summary":"x"}`, string(a.asked.Context))
}

func TestAsk_BadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing question", `{"url":"https://a.example.com"}`, "Missing question or context"},
		{"missing url", `{"question":"q"}`, "Missing question or context"},
		{"blank question", `{"question":"  ","url":"https://a.example.com"}`, "Missing question or context"},
		{"not json", `question=q`, "malformed request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/ask", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, decodeError(t, resp), tt.want)
		})
	}
}

func TestAsk_UnknownURL(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{askErr: pipeline.ErrUnknownURL}, nil)

	resp, err := http.Post(srv.URL+"/ask", "application/json",
		strings.NewReader(`{"question":"q","url":"https://gone.example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, pipeline.ErrUnknownURL.Error(), decodeError(t, resp))
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/ask", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	generated := resp.Header.Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "6f1c2a9e-3b7d-4c1e-9a55-0d2b8e7f4a10")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "6f1c2a9e-3b7d-4c1e-9a55-0d2b8e7f4a10", resp.Header.Get(RequestIDHeader))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, map[string]HealthChecker{
		"llm": CheckFunc(func(context.Context) error { return nil }),
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got healthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "healthy", got.Status)
	assert.Equal(t, "healthy", got.Checks["llm"].Status)
}

func TestHealth_Unhealthy(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, map[string]HealthChecker{
		"llm": CheckFunc(func(context.Context) error { return errors.New("provider unavailable") }),
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var got healthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "unhealthy", got.Status)
	assert.Equal(t, "provider unavailable", got.Checks["llm"].Message)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := model.DefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	s := New(&fakeAnalyzer{}, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
