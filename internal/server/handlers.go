package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/termslens/internal/pipeline"
	"github.com/sirupsen/logrus"
)

const maxAskBodyBytes = 1 << 20

var (
	ErrMissingURL      = errors.New("no input provided")
	ErrMissingQuestion = errors.New("missing question or context")
	errMalformedBody   = errors.New("malformed request body")
)

type askBody struct {
	Question string          `json:"question"`
	URL      string          `json:"url"`
	Context  json.RawMessage `json:"context,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors onto status codes and a JSON error body
func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		status := statusFor(err)
		entry := logrus.WithFields(logrus.Fields{
			"request_id": RequestIDFrom(r.Context()),
			"path":       r.URL.Path,
			"status":     status,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Debug("Request rejected")
		}

		writeJSON(w, status, errorBody{Error: publicMessage(err)})
	}
}

// publicMessage keeps the wording clients already match on for
// validation failures
func publicMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingURL):
		return "No input provided"
	case errors.Is(err, ErrMissingQuestion):
		return "Missing question or context"
	}
	return err.Error()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingURL),
		errors.Is(err, ErrMissingQuestion),
		errors.Is(err, errMalformedBody),
		errors.Is(err, pipeline.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrRobotsDisallowed):
		return http.StatusForbidden
	case errors.Is(err, pipeline.ErrUnknownURL):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrNoTermsText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrEmptyAnswer):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// POST /analyze
// Form: url=<page>
// Responds with the analysis JSON object itself.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) error {
	url := strings.TrimSpace(r.FormValue("url"))
	if url == "" {
		return ErrMissingURL
	}

	res, err := s.analyzer.Analyze(r.Context(), url)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(res.Raw)
	return err
}

// POST /ask
// Body: {"question": "...", "url": "...", "context": {...}}
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) error {
	var body askBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBodyBytes)).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if strings.TrimSpace(body.Question) == "" || strings.TrimSpace(body.URL) == "" {
		return ErrMissingQuestion
	}

	answer, err := s.analyzer.Ask(r.Context(), body.URL, body.Question, body.Context)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
	return nil
}

// HealthChecker reports whether a dependency is usable
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

type healthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]checkStatus `json:"checks,omitempty"`
}

type checkStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := healthStatus{Status: "healthy", Timestamp: time.Now().UTC()}
	if len(s.checks) > 0 {
		health.Checks = make(map[string]checkStatus, len(s.checks))
	}
	for name, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			health.Status = "unhealthy"
			health.Checks[name] = checkStatus{Status: "unhealthy", Message: err.Error()}
			continue
		}
		health.Checks[name] = checkStatus{Status: "healthy"}
	}

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Debug("Could not write response")
	}
}
