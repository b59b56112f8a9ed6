package session

import (
	"context"
	"errors"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/sirupsen/logrus"
)

var errNoResult = errors.New("backend returned no analysis")

// AnalyzeOutcome describes how an analyze call resolved
type AnalyzeOutcome struct {
	// Applied is true when this call's result (or fallback) became the live analysis
	Applied bool
	// Stale is true when a newer analyze call started before this one resolved
	Stale bool
	// Err is the underlying failure, if any. It has already been downgraded
	// to the fallback summary when Applied is true.
	Err error
}

// Analyze submits url for analysis and blocks until the backend resolves.
//
// On success the live analysis, its context, the chat log and the pending
// question are replaced in one step. On failure the fallback summary
// replaces the analysis and the context is dropped. The loading flag is
// cleared by whichever call is the most recent, so it never stays set once
// that call returns.
func (s *Session) Analyze(ctx context.Context, url string) AnalyzeOutcome {
	s.mu.Lock()
	s.analyzeSeq++
	id := s.analyzeSeq
	s.state.URL = url
	s.state.IsLoadingAnalysis = true
	s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"url": url, "request": id})
	log.Debug("analyze started")

	result, err := s.backend.Analyze(ctx, url)
	if err == nil && result == nil {
		err = errNoResult
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.analyzeSeq {
		log.WithField("latest", s.analyzeSeq).Debug("discarding stale analysis")
		return AnalyzeOutcome{Stale: true, Err: err}
	}

	s.state.IsLoadingAnalysis = false
	s.generation++

	if err != nil {
		log.WithError(err).Warn("analysis failed, showing fallback")
		s.state.Analysis = model.Fallback()
		s.state.Context = nil
		return AnalyzeOutcome{Applied: true, Err: err}
	}

	s.state.Analysis = result.Clone()
	s.state.Context = s.state.Analysis.Raw
	s.state.AnalyzedURL = url
	s.state.ChatLog = []model.ChatEntry{}
	s.state.PendingQuestion = ""
	s.state.LastError = ""

	log.WithFields(logrus.Fields{
		"user_types": len(result.UserTypes),
		"notices":    len(result.ImportantNotices),
	}).Info("analysis applied")

	return AnalyzeOutcome{Applied: true}
}
