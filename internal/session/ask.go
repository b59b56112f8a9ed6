package session

import (
	"context"
	"strings"

	"github.com/ppiankov/termslens/internal/api"
	"github.com/ppiankov/termslens/internal/model"
	"github.com/sirupsen/logrus"
)

// AskOutcome describes how an ask call resolved
type AskOutcome struct {
	// Sent is false when the call was ignored: blank question, no analysis
	// context, or another ask still outstanding. No request was made.
	Sent bool
	// Applied is true when Entry was appended to the chat log
	Applied bool
	// Stale is true when a newer analysis replaced the context mid-flight
	Stale bool
	Entry model.ChatEntry
}

// Ask sends question about the live analysis and blocks until answered.
//
// The request carries the URL the live analysis was produced for and its
// opaque context. A successful answer is appended to the chat log and the
// pending question is cleared. A failure appends nothing, keeps the pending
// question, records LastError and is returned.
func (s *Session) Ask(ctx context.Context, question string) (AskOutcome, error) {
	s.mu.Lock()
	if strings.TrimSpace(question) == "" || !s.state.HasContext() || s.state.IsAsking {
		s.mu.Unlock()
		return AskOutcome{}, nil
	}
	s.state.IsAsking = true
	gen := s.generation
	req := api.AskRequest{
		Question: question,
		URL:      s.state.AnalyzedURL,
		Context:  append(model.AnalysisContext{}, s.state.Context...),
	}
	s.mu.Unlock()

	log := logrus.WithField("url", req.URL)

	answer, err := s.backend.Ask(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsAsking = false

	if gen != s.generation {
		log.Debug("discarding answer for a replaced analysis")
		return AskOutcome{Sent: true, Stale: true}, err
	}

	if err != nil {
		log.WithError(err).Warn("question failed")
		s.state.LastError = err.Error()
		return AskOutcome{Sent: true}, err
	}

	entry := model.ChatEntry{Question: question, Answer: answer}
	s.state.ChatLog = append(s.state.ChatLog, entry)
	s.state.PendingQuestion = ""
	s.state.LastError = ""

	log.WithField("chat_len", len(s.state.ChatLog)).Debug("answer appended")

	return AskOutcome{Sent: true, Applied: true, Entry: entry}, nil
}
