package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/termslens/internal/model"
	"github.com/sirupsen/logrus"
)

// Analyzer produces an analysis for a URL. The backend client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (*model.AnalysisResult, error)
}

// AnalyzeResult is the outcome of one URL in a batch
type AnalyzeResult struct {
	URL      string
	Analysis *model.AnalysisResult
	Error    error
	Duration time.Duration
}

// BatchProcessor analyzes many URLs concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a batch processor. requestsPerSecond limits
// requests per target domain; zero leaves them unlimited.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if requestsPerSecond > 0 {
		limiter = NewLimiter(requestsPerSecond, burst)
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessURLs analyzes every URL and returns one result per URL in input
// order. URLs that never ran because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AnalyzeResult {
	if len(urls) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPool[*AnalyzeResult](ctx, b.concurrency)
	pool.Start()

	for _, url := range urls {
		pool.Submit(b.job(url))
	}

	results := pool.Wait()
	for i, res := range results {
		if res != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		results[i] = &AnalyzeResult{URL: urls[i], Error: fmt.Errorf("not analyzed: %w", err)}
	}
	return results
}

func (b *BatchProcessor) job(url string) Job[*AnalyzeResult] {
	return func(ctx context.Context) *AnalyzeResult {
		start := time.Now()
		res := &AnalyzeResult{URL: url}
		if err := ctx.Err(); err != nil {
			res.Error = fmt.Errorf("not analyzed: %w", err)
			return res
		}

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx, url); err != nil {
				res.Error = fmt.Errorf("rate limit: %w", err)
				return res
			}
		}

		res.Analysis, res.Error = b.analyzer.Analyze(ctx, url)
		res.Duration = time.Since(start)

		entry := logrus.WithFields(logrus.Fields{"url": url, "duration": res.Duration})
		if res.Error != nil {
			entry.WithError(res.Error).Warn("Batch analysis failed")
		} else {
			entry.Debug("Batch analysis done")
		}
		return res
	}
}

// ProcessFile reads URLs from a file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file, one per line. Blank lines and
// lines starting with # are skipped; duplicates are dropped.
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
