package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/termslens/internal/cache"
	"github.com/ppiankov/termslens/internal/llm"
	"github.com/ppiankov/termslens/internal/model"
	"github.com/ppiankov/termslens/internal/store"
	"github.com/ppiankov/termslens/internal/util"
	"github.com/ppiankov/termslens/internal/worker"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidURL       = errors.New("invalid URL")
	ErrRobotsDisallowed = errors.New("robots.txt disallows fetching this page")
	ErrNoTermsText      = errors.New("no terms text found on page")
	ErrUnknownURL       = errors.New("URL has not been analyzed")
	ErrEmptyAnswer      = errors.New("model returned an empty answer")
)

// Analyzer turns a terms page into a structured analysis and answers
// follow-up questions about it.
type Analyzer struct {
	fetcher   *Fetcher
	extractor *TermsExtractor
	provider  llm.Provider
	robots    *util.RobotsChecker // nil when robots.txt is ignored
	limiter   *worker.Limiter
	cache     cache.Cache
	terms     *store.TermsStore
	cacheTTL  time.Duration
}

// NewAnalyzer wires the analyzer from config. provider and terms are
// shared with the caller; pages may be cache.Noop.
func NewAnalyzer(cfg *model.Config, provider llm.Provider, terms *store.TermsStore, pages cache.Cache) *Analyzer {
	fetcher := NewFetcher(
		cfg.HTTP.Timeout,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS,
		cfg.HTTP.HTTPProxy,
		cfg.HTTP.HTTPSProxy,
		cfg.HTTP.NoProxy,
	)

	var robots *util.RobotsChecker
	if cfg.Server.RespectRobots {
		robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, fetcher.Client())
	}

	if pages == nil {
		pages = cache.Noop{}
	}

	return &Analyzer{
		fetcher:   fetcher,
		extractor: NewTermsExtractor(),
		provider:  provider,
		robots:    robots,
		limiter:   worker.LimiterFromConfig(cfg.RateLimiting),
		cache:     pages,
		terms:     terms,
		cacheTTL:  cfg.Cache.DiskTTL,
	}
}

// Analyze fetches the page at rawURL, extracts its terms text and asks the
// model for the structured analysis. The result is stored for later
// questions about the same URL.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*model.AnalysisResult, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	log := logrus.WithField("url", rawURL)

	if cached, ok := a.cache.Get(cache.CacheKey(cache.KindAnalysis, rawURL)); ok {
		if res, err := llm.ParseAnalysis(string(cached)); err == nil {
			log.Debug("Analysis served from cache")
			text, _ := a.cache.Get(cache.CacheKey(cache.KindPage, rawURL))
			a.terms.Put(rawURL, res.Raw, string(text))
			return res, nil
		}
		_ = a.cache.Delete(cache.CacheKey(cache.KindAnalysis, rawURL))
	}

	text, err := a.termsText(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System: llm.AnalyzeSystemPrompt,
		Prompt: llm.BuildAnalyzePrompt(text),
	})
	if err != nil {
		return nil, fmt.Errorf("llm analysis: %w", err)
	}

	res, err := llm.ParseAnalysis(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("llm analysis: %w", err)
	}

	log.WithFields(logrus.Fields{
		"provider":   a.provider.Name(),
		"model":      resp.Model,
		"tokens":     resp.TokensUsed,
		"user_types": len(res.UserTypes),
		"elapsed":    time.Since(start).Round(time.Millisecond),
	}).Info("Terms analyzed")

	a.terms.Put(rawURL, res.Raw, text)
	if err := a.cache.Set(cache.CacheKey(cache.KindAnalysis, rawURL), res.Raw, a.cacheTTL); err != nil {
		log.WithError(err).Warn("Could not cache analysis")
	}

	return res, nil
}

// termsText returns the focus text for rawURL, from cache or by fetching
func (a *Analyzer) termsText(ctx context.Context, rawURL string) (string, error) {
	key := cache.CacheKey(cache.KindPage, rawURL)
	if cached, ok := a.cache.Get(key); ok && len(cached) > 0 {
		return string(cached), nil
	}

	if a.robots != nil {
		allowed, delay, err := a.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		if !allowed {
			return "", ErrRobotsDisallowed
		}
		if err := a.limiter.ApplyCrawlDelay(rawURL, delay); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
	}

	if err := a.limiter.Wait(ctx, rawURL); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	page, err := a.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}

	text, err := a.extractor.Extract(page.HTML)
	if err != nil {
		return "", fmt.Errorf("extract terms: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoTermsText
	}

	if err := a.cache.Set(key, []byte(text), a.cacheTTL); err != nil {
		logrus.WithError(err).WithField("url", rawURL).Warn("Could not cache page text")
	}
	return text, nil
}

// Ask answers a question about an analyzed URL. When the backend no longer
// holds the URL (restart or expiry) the context forwarded by the client is
// used instead and becomes the stored record.
func (a *Analyzer) Ask(ctx context.Context, rawURL, question string, forwarded json.RawMessage) (string, error) {
	terms, ok := a.terms.Get(rawURL)
	if !ok {
		if len(forwarded) == 0 || !json.Valid(forwarded) {
			return "", ErrUnknownURL
		}
		a.terms.Put(rawURL, forwarded, "")
		terms = store.Terms{URL: rawURL, Analysis: forwarded}
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System: llm.AskSystemPrompt,
		Prompt: llm.BuildAskPrompt(terms.Analysis, terms.Text, terms.Chats, question),
	})
	if err != nil {
		return "", fmt.Errorf("llm answer: %w", err)
	}

	answer := strings.TrimSpace(resp.Text)
	if answer == "" {
		return "", ErrEmptyAnswer
	}

	a.terms.AppendChat(rawURL, model.ChatEntry{Question: question, Answer: answer})
	logrus.WithFields(logrus.Fields{
		"url":    rawURL,
		"tokens": resp.TokensUsed,
		"turn":   len(terms.Chats) + 1,
	}).Info("Question answered")

	return answer, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}
