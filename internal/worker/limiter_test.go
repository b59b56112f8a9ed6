package worker

import (
	"context"
	"testing"
	"time"

	"github.com/ppiankov/termslens/internal/model"
	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}

	l3 := NewLimiter(0, 1)
	if l3.defaultRate != rate.Inf {
		t.Errorf("expected unlimited rate for zero input, got %v", l3.defaultRate)
	}
}

func TestLimiterFromConfig(t *testing.T) {
	limiter := LimiterFromConfig(model.RateLimitingConfig{RequestsPerSecond: 2, BurstSize: 3})
	if limiter.defaultRate != 2 || limiter.defaultBurst != 3 {
		t.Errorf("unexpected limiter settings: rate %v burst %d", limiter.defaultRate, limiter.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/terms"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "http://other.example.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "/relative/path"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	url := "http://example.com"

	if err := limiter.Wait(context.Background(), url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// burst 1 is spent
	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}
	if limiter.Allow("http://EXAMPLE.com/other") {
		t.Errorf("domains are case-insensitive")
	}

	if !limiter.Allow("http://other.com") {
		t.Errorf("expected allow for other domain")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	url := "http://slow.example.com"
	_ = limiter.Wait(context.Background(), url)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetDomainRate("Slow.com", 0.1, 1)

	if !limiter.Allow("http://slow.com") {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://slow.com") {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://fast.com") {
		t.Errorf("other domain should pass")
	}
}

func TestLimiter_ApplyCrawlDelay(t *testing.T) {
	limiter := NewLimiter(10, 5)
	url := "http://docs.example.com/terms"

	if err := limiter.ApplyCrawlDelay(url, 10*time.Second); err != nil {
		t.Fatalf("ApplyCrawlDelay failed: %v", err)
	}
	if !limiter.Allow(url) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow(url) {
		t.Errorf("crawl delay should block the second request")
	}

	// A shorter delay never speeds a domain up
	_ = limiter.ApplyCrawlDelay(url, time.Millisecond)
	if got := limiter.getLimiter("docs.example.com").Limit(); got != rate.Every(10*time.Second) {
		t.Errorf("expected limit to stay at one per 10s, got %v", got)
	}

	if err := limiter.ApplyCrawlDelay(url, 0); err != nil {
		t.Errorf("zero delay is a no-op, got %v", err)
	}
}

func TestExtractDomain(t *testing.T) {
	domain, err := extractDomain("http://Example.com/foo")
	if err != nil {
		t.Fatalf("extractDomain failed: %v", err)
	}
	if domain != "example.com" {
		t.Errorf("expected example.com, got %s", domain)
	}

	if _, err := extractDomain("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
