package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/termslens/internal/model"
)

type mockAnalyzer struct {
	failFor string
}

func (m *mockAnalyzer) Analyze(ctx context.Context, url string) (*model.AnalysisResult, error) {
	time.Sleep(5 * time.Millisecond)
	if m.failFor != "" && strings.Contains(url, m.failFor) {
		return nil, errors.New("unexpected status: 500")
	}
	return &model.AnalysisResult{Summary: "Terms for " + url}, nil
}

func writeURLFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessURLs(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{failFor: "broken"}, 2, 0, 0)

	urls := []string{"http://a.example.com", "http://broken.example.com", "http://c.example.com"}
	results := processor.ProcessURLs(context.Background(), urls)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, res := range results {
		if res.URL != urls[i] {
			t.Errorf("result %d is for %s, want %s", i, res.URL, urls[i])
		}
	}

	if results[0].Error != nil || results[0].Analysis.Summary != "Terms for http://a.example.com" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Error == nil || results[1].Analysis != nil {
		t.Errorf("expected failure without analysis, got %+v", results[1])
	}
	if results[2].Duration <= 0 {
		t.Error("expected a duration to be recorded")
	}
}

func TestBatchProcessor_ProcessURLs_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0)

	results := processor.ProcessURLs(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_RateLimited(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 4, 0.01, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// Same domain twice: the second call cannot get a token before the deadline
	results := processor.ProcessURLs(ctx, []string{"http://a.example.com/1", "http://a.example.com/2"})
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected exactly one rate limited result, got %d", failed)
	}
}

func TestReadURLsFromFile(t *testing.T) {
	path := writeURLFile(t, "http://example.com\n# comment\nhttps://google.com\n   \nhttp://bing.com   \nhttp://example.com\n")

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile failed: %v", err)
	}

	expected := []string{"http://example.com", "https://google.com", "http://bing.com"}
	if len(urls) != len(expected) {
		t.Fatalf("expected %d URLs, got %d", len(expected), len(urls))
	}
	for i, url := range urls {
		if url != expected[i] {
			t.Errorf("expected URL %s at index %d, got %s", expected[i], i, url)
		}
	}
}

func TestReadURLsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadURLsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeURLFile(t, "http://example.com\nhttps://google.com\n# comment\n\nhttp://bing.com\n")

	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	empty := writeURLFile(t, "")
	results, err = processor.ProcessFile(context.Background(), empty)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty file, got %d", len(results))
	}

	if _, err := processor.ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessURLs_ManyURLs(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2, 0, 0)

	urls := make([]string, 30)
	for i := range urls {
		urls[i] = fmt.Sprintf("http://site%d.example.com/terms", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results := processor.ProcessURLs(ctx, urls)
	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, res := range results {
		if res.URL != urls[i] {
			t.Errorf("result %d is for %s, want %s", i, res.URL, urls[i])
		}
		if res.Error != nil {
			t.Errorf("result %d failed: %v", i, res.Error)
		}
	}
	if ctx.Err() != nil {
		t.Error("batch should finish well before its deadline")
	}
}

func TestBatchProcessor_CancelledURLsReported(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 1, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	urls := []string{"http://a.example.com", "http://b.example.com", "http://c.example.com"}
	results := processor.ProcessURLs(ctx, urls)
	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, res := range results {
		if res.URL != urls[i] {
			t.Errorf("result %d is for %s, want %s", i, res.URL, urls[i])
		}
		if res.Error == nil {
			t.Errorf("result %d: expected an error for a cancelled batch", i)
		}
	}
}
