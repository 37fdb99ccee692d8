package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Default limits applied when a zero Config is passed to New.
const (
	DefaultWindow        = 60 * time.Second
	DefaultLimit         = 20
	DefaultSweepInterval = 5 * time.Minute
)

// Config tunes the sliding window.
type Config struct {
	Window        time.Duration
	Limit         int
	SweepInterval time.Duration
}

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// SlidingWindow counts requests per key over a trailing window.
// Each key keeps the timestamps of its allowed requests in ascending order;
// denied requests are not recorded.
type SlidingWindow struct {
	mu      sync.Mutex
	entries map[string][]time.Time

	window        time.Duration
	limit         int
	sweepInterval time.Duration
	now           func() time.Time
}

// New builds a limiter, filling zero fields of cfg with defaults.
func New(cfg Config) *SlidingWindow {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	return &SlidingWindow{
		entries:       make(map[string][]time.Time),
		window:        cfg.Window,
		limit:         cfg.Limit,
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
	}
}

// WithClock replaces the time source (tests).
func (l *SlidingWindow) WithClock(now func() time.Time) *SlidingWindow {
	if now != nil {
		l.now = now
	}
	return l
}

// Window returns the configured window length.
func (l *SlidingWindow) Window() time.Duration { return l.window }

// Limit returns the configured request threshold.
func (l *SlidingWindow) Limit() int { return l.limit }

// Check prunes timestamps older than the window for key and either records
// the current request (Allowed) or rejects it without recording.
func (l *SlidingWindow) Check(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	stamps := prune(l.entries[key], now.Add(-l.window))

	if len(stamps) >= l.limit {
		l.entries[key] = stamps
		resetAt := stamps[0].Add(l.window)
		retry := resetAt.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			RetryAfter: retry,
			ResetAt:    resetAt,
		}
	}

	stamps = append(stamps, now)
	l.entries[key] = stamps

	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(stamps),
		ResetAt:   stamps[0].Add(l.window),
	}
}

// Allow is Check reduced to its verdict.
func (l *SlidingWindow) Allow(key string) bool {
	return l.Check(key).Allowed
}

// Sweep drops keys whose timestamps have all left the window and returns
// how many keys were evicted.
func (l *SlidingWindow) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	evicted := 0
	for key, stamps := range l.entries {
		stamps = prune(stamps, cutoff)
		if len(stamps) == 0 {
			delete(l.entries, key)
			evicted++
			continue
		}
		l.entries[key] = stamps
	}
	return evicted
}

// Len reports the number of tracked keys.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// StartSweeper runs Sweep every SweepInterval until ctx is done.
func (l *SlidingWindow) StartSweeper(ctx context.Context, onSweep func(evicted int)) {
	ticker := time.NewTicker(l.sweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := l.Sweep()
				if onSweep != nil {
					onSweep(n)
				}
			}
		}
	}()
}

// prune returns the suffix of stamps strictly newer than cutoff.
// The backing array is reused; stamps are ascending.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	// copy down so the evicted prefix does not pin memory
	n := copy(stamps, stamps[i:])
	return stamps[:n]
}
