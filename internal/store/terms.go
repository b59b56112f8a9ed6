// Package store keeps what the backend knows about each analyzed URL: the
// analysis it returned, the focus text it was built from and the questions
// asked since. Entries expire after the configured TTL.
package store

import (
	"encoding/json"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/termslens/internal/model"
)

// Terms is the stored record for one URL
type Terms struct {
	URL      string
	Analysis json.RawMessage
	Text     string
	Chats    []model.ChatEntry
	StoredAt time.Time
}

func (t Terms) clone() Terms {
	out := t
	if t.Analysis != nil {
		out.Analysis = append(json.RawMessage(nil), t.Analysis...)
	}
	out.Chats = append([]model.ChatEntry{}, t.Chats...)
	return out
}

// TermsStore is safe for concurrent use
type TermsStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewTermsStore creates a store whose entries live for ttl after their last
// write. A zero ttl keeps entries until the process exits.
func NewTermsStore(ttl time.Duration) *TermsStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	cleanup := ttl / 2
	if cleanup <= 0 || cleanup > 10*time.Minute {
		cleanup = 10 * time.Minute
	}
	return &TermsStore{cache: gocache.New(ttl, cleanup)}
}

// Put replaces the record for url. Earlier chats for the URL are dropped.
func (s *TermsStore) Put(url string, analysis json.RawMessage, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Terms{
		URL:      url,
		Analysis: analysis,
		Text:     text,
		Chats:    []model.ChatEntry{},
		StoredAt: time.Now().UTC(),
	}
	s.cache.SetDefault(url, t.clone())
}

// Get returns a copy of the record for url
func (s *TermsStore) Get(url string) (Terms, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.get(url)
	if !ok {
		return Terms{}, false
	}
	return t.clone(), true
}

// AppendChat records a question and answer for url. It reports false when
// the URL is unknown or expired.
func (s *TermsStore) AppendChat(url string, entry model.ChatEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.get(url)
	if !ok {
		return false
	}
	t = t.clone()
	t.Chats = append(t.Chats, entry)
	s.cache.SetDefault(url, t)
	return true
}

// Len returns the number of live records
func (s *TermsStore) Len() int {
	return s.cache.ItemCount()
}

func (s *TermsStore) get(url string) (Terms, bool) {
	v, ok := s.cache.Get(url)
	if !ok {
		return Terms{}, false
	}
	t, ok := v.(Terms)
	return t, ok
}
