// Package session holds the client-side state of one analysis conversation
// and the two controllers that mutate it.
//
// A Session moves from Unanalyzed to Analyzed when the first analyze call
// resolves, successfully or not, and never moves back. Analyze calls are
// tagged with a monotonically increasing id and only the most recent one
// may write its result. Asks are serialized: while one is outstanding
// further asks are ignored, and an answer that arrives after a newer
// analysis replaced the context is dropped.
package session

import (
	"context"
	"sync"

	"github.com/ppiankov/termslens/internal/api"
	"github.com/ppiankov/termslens/internal/model"
)

// Backend is the analysis service the controllers talk to
type Backend interface {
	Analyze(ctx context.Context, url string) (*model.AnalysisResult, error)
	Ask(ctx context.Context, req api.AskRequest) (string, error)
}

// Mode is the macro-state governing which parts of the UI are active
type Mode int

const (
	Unanalyzed Mode = iota
	Analyzed
)

func (m Mode) String() string {
	if m == Analyzed {
		return "analyzed"
	}
	return "unanalyzed"
}

// State is a point-in-time copy of the session. Mutating it has no effect
// on the session.
type State struct {
	URL               string
	AnalyzedURL       string // URL the live analysis was produced for
	Analysis          *model.AnalysisResult
	Context           model.AnalysisContext
	ChatLog           []model.ChatEntry
	PendingQuestion   string
	IsLoadingAnalysis bool
	IsAsking          bool
	LastError         string // most recent ask failure, cleared by the next success
}

// Mode reports the macro-state of this snapshot
func (s State) Mode() Mode {
	if s.Analysis != nil {
		return Analyzed
	}
	return Unanalyzed
}

// HasContext reports whether questions can be asked
func (s State) HasContext() bool {
	return s.Analysis != nil && len(s.Context) > 0
}

// Session owns the mutable state of one conversation. It is safe for
// concurrent use.
type Session struct {
	backend Backend

	mu    sync.Mutex
	state State

	analyzeSeq uint64 // id of the most recently started analyze call
	generation uint64 // bumped whenever an analyze result is applied
}

// New creates an empty, unanalyzed session
func New(backend Backend) *Session {
	return &Session{
		backend: backend,
		state:   State{ChatLog: []model.ChatEntry{}},
	}
}

// Snapshot returns a deep copy of the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := s.state
	cp.Analysis = s.state.Analysis.Clone()
	if s.state.Context != nil {
		cp.Context = append(model.AnalysisContext{}, s.state.Context...)
	}
	cp.ChatLog = append([]model.ChatEntry{}, s.state.ChatLog...)
	return cp
}

// Mode reports the current macro-state
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Mode()
}

// SetURL updates the URL field. It does not affect the live analysis.
func (s *Session) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.URL = url
}

// SetPendingQuestion updates the question being typed
func (s *Session) SetPendingQuestion(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PendingQuestion = q
}

// IsLoadingAnalysis reports whether an analyze call is outstanding
func (s *Session) IsLoadingAnalysis() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsLoadingAnalysis
}

// IsAsking reports whether an ask call is outstanding
func (s *Session) IsAsking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAsking
}
