// Package ratelimit throttles expensive API calls per client using token buckets.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Rule limits one method and path. A path ending in "/" matches by prefix.
type Rule struct {
	Method string
	Path   string
	Limit  int           // Requests per window
	Window time.Duration // Refill period for Limit tokens
	Burst  int           // Bucket capacity, defaults to Limit
}

func (r Rule) matches(method, path string) bool {
	if r.Method != method {
		return false
	}
	if strings.HasSuffix(r.Path, "/") {
		return strings.HasPrefix(path, r.Path)
	}
	return r.Path == path
}

func (r Rule) capacity() float64 {
	if r.Burst > 0 {
		return float64(r.Burst)
	}
	return float64(r.Limit)
}

// ScanRules limits scan submissions. perHour <= 0 disables the limit.
func ScanRules(perHour, burst int) []Rule {
	if perHour <= 0 {
		return nil
	}
	return []Rule{{Method: "POST", Path: "/scans", Limit: perHour, Window: time.Hour, Burst: burst}}
}

// Info describes the bucket state after a call to Allow.
type Info struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	tokens   float64
	last     time.Time
	lastSeen time.Time
}

// Limiter holds one bucket per client and rule. Requests matching no rule are
// always allowed.
type Limiter struct {
	mu        sync.Mutex
	rules     []Rule
	buckets   map[string]*bucket
	idleTTL   time.Duration
	lastPrune time.Time
	now       func() time.Time
}

// NewLimiter creates a limiter for rules. Buckets idle for longer than an hour
// are dropped lazily.
func NewLimiter(rules []Rule) *Limiter {
	return &Limiter{
		rules:   rules,
		buckets: make(map[string]*bucket),
		idleTTL: time.Hour,
		now:     time.Now,
	}
}

// Allow consumes a token for client if the request matches a rule.
func (l *Limiter) Allow(client, method, path string) (bool, Info) {
	var rule *Rule
	for i := range l.rules {
		if l.rules[i].matches(method, path) {
			rule = &l.rules[i]
			break
		}
	}
	if rule == nil || rule.Limit <= 0 || rule.Window <= 0 {
		return true, Info{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	key := client + " " + rule.Method + " " + rule.Path
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: rule.capacity(), last: now}
		l.buckets[key] = b
	}
	rate := float64(rule.Limit) / rule.Window.Seconds()
	b.tokens = min(rule.capacity(), b.tokens+now.Sub(b.last).Seconds()*rate)
	b.last = now
	b.lastSeen = now

	info := Info{Limit: rule.Limit}
	if b.tokens >= 1 {
		b.tokens--
		info.Remaining = int(b.tokens)
		return true, info
	}
	info.RetryAfter = time.Duration((1 - b.tokens) / rate * float64(time.Second))
	return false, info
}

// Len reports the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.idleTTL {
		return
	}
	l.lastPrune = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}
