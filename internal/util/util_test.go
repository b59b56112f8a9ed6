package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3128", "internal.example.com")

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "api.example.com"}}
	got, err := proxy(req)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "secure.local:3128", got.Host)

	req = &http.Request{URL: &url.URL{Scheme: "http", Host: "api.example.com"}}
	got, err = proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", got.Host)

	req = &http.Request{URL: &url.URL{Scheme: "https", Host: "internal.example.com"}}
	got, err = proxy(req)
	require.NoError(t, err)
	assert.Nil(t, got, "hosts in no_proxy bypass the proxy")
}

func TestNewProxyFunc_HTTPProxyCoversHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "")
	got, err := proxy(&http.Request{URL: &url.URL{Scheme: "https", Host: "api.example.com"}})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "proxy.local:3128", got.Host)
}

func TestRobotsChecker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("User-agent: TermsLens\nDisallow: /private\nCrawl-delay: 2\n"))
	}))
	defer srv.Close()

	rc := NewRobotsChecker("TermsLens/1.0", 5*time.Second, nil)

	allowed, delay, err := rc.CanFetch(context.Background(), srv.URL+"/terms")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2*time.Second, delay)

	allowed, _, err = rc.CanFetch(context.Background(), srv.URL+"/private/tos")
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "robots.txt is cached per host")
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc := NewRobotsChecker("TermsLens/1.0", 5*time.Second, nil)
	allowed, _, err := rc.CanFetch(context.Background(), srv.URL+"/terms")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_BadURL(t *testing.T) {
	rc := NewRobotsChecker("TermsLens/1.0", time.Second, nil)
	_, _, err := rc.CanFetch(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "TermsLens", NormalizeUserAgent("TermsLens/1.0 (+https://example.com)"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}
