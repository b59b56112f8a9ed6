package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/termslens/internal/api"
	"github.com/ppiankov/termslens/internal/cache"
	"github.com/ppiankov/termslens/internal/llm"
	"github.com/ppiankov/termslens/internal/model"
	"github.com/ppiankov/termslens/internal/pipeline"
	"github.com/ppiankov/termslens/internal/session"
	"github.com/ppiankov/termslens/internal/store"
)

// newAnalyzer builds the in-process analysis engine used by serve and --local
func newAnalyzer(c *model.Config) (*pipeline.Analyzer, llm.Provider, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(c.LLM, c.HTTP))
	if err != nil {
		return nil, nil, fmt.Errorf("create LLM provider: %w", err)
	}
	terms := store.NewTermsStore(c.Server.ContextTTL)
	return pipeline.NewAnalyzer(c, provider, terms, cache.Open(c.Cache)), provider, nil
}

// localBackend adapts the in-process analyzer to the client session
type localBackend struct {
	analyzer *pipeline.Analyzer
}

func (b localBackend) Analyze(ctx context.Context, url string) (*model.AnalysisResult, error) {
	return b.analyzer.Analyze(ctx, url)
}

func (b localBackend) Ask(ctx context.Context, req api.AskRequest) (string, error) {
	return b.analyzer.Ask(ctx, req.URL, req.Question, json.RawMessage(req.Context))
}

// newBackend returns the remote backend client, or the in-process engine
// when local is set
func newBackend(c *model.Config, local bool) (session.Backend, error) {
	if local {
		analyzer, _, err := newAnalyzer(c)
		if err != nil {
			return nil, err
		}
		return localBackend{analyzer: analyzer}, nil
	}
	return api.NewClient(api.Config{
		BaseURL:   c.Client.BackendURL,
		Timeout:   c.Client.Timeout,
		UserAgent: c.Client.UserAgent,
	}), nil
}
