// Package health persists per-source collection health across runs and
// gates chronically failing sources behind circuit breakers. Two breaker
// families share one record per source: a zero-yield counter reset by any
// successful run, and day-scoped transient counters (DNS, specific HTTP
// statuses) reset at calendar day rollover. Breakers are binary: there is no
// half-open state, the decision is re-evaluated at the start of every run.
package health

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	DefaultZeroYieldThreshold = 3
	DefaultTransientThreshold = 2

	dayFormat = "20060102"
)

// State is the persisted record for one source.
type State struct {
	ConsecutiveZero int            `json:"consecutive_zero"`
	Day             string         `json:"day,omitempty"` // day the transient counters belong to
	ConsecutiveDNS  int            `json:"consecutive_dns,omitempty"`
	ConsecutiveHTTP map[string]int `json:"consecutive_http,omitempty"` // keyed by status code
	LastCollected   int            `json:"last_collected"`
	UpdatedAt       string         `json:"updated_at"`
}

// Config for the tracker. Zero thresholds fall back to the defaults.
type Config struct {
	Enabled            bool
	Path               string
	ZeroYieldThreshold int
	TransientThreshold int
}

// Tracker owns all health state. It assumes a single orchestrator process;
// the file lock protects against an overlapping invocation, not against
// concurrent in-process writers (callers go through the mutex).
type Tracker struct {
	cfg Config

	mu     sync.Mutex
	states map[string]*State

	now func() time.Time
}

// Load reads the health file. A missing or corrupt file means no history:
// every breaker starts closed.
func Load(cfg Config) *Tracker {
	if cfg.ZeroYieldThreshold <= 0 {
		cfg.ZeroYieldThreshold = DefaultZeroYieldThreshold
	}
	if cfg.TransientThreshold <= 0 {
		cfg.TransientThreshold = DefaultTransientThreshold
	}
	t := &Tracker{
		cfg:    cfg,
		states: make(map[string]*State),
		now:    time.Now,
	}
	if !cfg.Enabled || cfg.Path == "" {
		return t
	}

	lock := flock.New(cfg.Path + ".lock")
	if err := lock.Lock(); err == nil {
		defer func() { _ = lock.Unlock() }()
	}

	b, err := os.ReadFile(cfg.Path)
	if err != nil {
		return t
	}
	var states map[string]*State
	if err := json.Unmarshal(b, &states); err != nil {
		log.Printf("[health] state file unreadable, starting empty path=%s err=%v", cfg.Path, err)
		return t
	}
	for k, v := range states {
		if v != nil {
			t.states[k] = v
		}
	}
	return t
}

// Save writes the whole state file back, creating parent directories as
// needed.
func (t *Tracker) Save() error {
	if !t.cfg.Enabled || t.cfg.Path == "" {
		return nil
	}
	t.mu.Lock()
	b, err := json.MarshalIndent(t.states, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(t.cfg.Path), 0o755); err != nil {
		return err
	}
	lock := flock.New(t.cfg.Path + ".lock")
	if err := lock.Lock(); err == nil {
		defer func() { _ = lock.Unlock() }()
	}
	return os.WriteFile(t.cfg.Path, b, 0o644)
}

func (t *Tracker) state(source string) *State {
	s, ok := t.states[source]
	if !ok {
		s = &State{}
		t.states[source] = s
	}
	return s
}

// rolled returns the state with day-scoped counters cleared when the
// calendar day moved on. Must be called with the mutex held.
func (t *Tracker) rolled(source string) *State {
	s := t.state(source)
	day := t.now().Format(dayFormat)
	if s.Day != day {
		s.Day = day
		s.ConsecutiveDNS = 0
		s.ConsecutiveHTTP = nil
	}
	return s
}

// ShouldSkipSource reports whether the zero-yield breaker is open for the
// source.
func (t *Tracker) ShouldSkipSource(source string) bool {
	if !t.cfg.Enabled {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state(source).ConsecutiveZero >= t.cfg.ZeroYieldThreshold
}

// RecordRun updates the zero-yield counter after a source run: any nonzero
// yield closes the breaker, a zero-yield run (including a thrown one) bumps
// it.
func (t *Tracker) RecordRun(source string, collected int) {
	if !t.cfg.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state(source)
	if collected > 0 {
		s.ConsecutiveZero = 0
	} else {
		s.ConsecutiveZero++
	}
	s.LastCollected = collected
	s.UpdatedAt = t.now().Format(time.RFC3339)
}

// DNSCircuitOpen reports whether the day-scoped DNS breaker is open.
func (t *Tracker) DNSCircuitOpen(source string) bool {
	if !t.cfg.Enabled {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rolled(source).ConsecutiveDNS >= t.cfg.TransientThreshold
}

// MarkDNSFailure bumps today's DNS counter and returns the new value.
func (t *Tracker) MarkDNSFailure(source string) int {
	if !t.cfg.Enabled {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.rolled(source)
	s.ConsecutiveDNS++
	s.UpdatedAt = t.now().Format(time.RFC3339)
	return s.ConsecutiveDNS
}

// ResetDNSFailures clears today's DNS counter after a successful resolve.
func (t *Tracker) ResetDNSFailures(source string) {
	if !t.cfg.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolled(source).ConsecutiveDNS = 0
}

// HTTPCircuitOpen reports whether today's breaker for one status code is
// open.
func (t *Tracker) HTTPCircuitOpen(source string, code int) bool {
	if !t.cfg.Enabled {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.rolled(source)
	return s.ConsecutiveHTTP[strconv.Itoa(code)] >= t.cfg.TransientThreshold
}

// MarkHTTPFailure bumps today's counter for one status code.
func (t *Tracker) MarkHTTPFailure(source string, code int) int {
	if !t.cfg.Enabled {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.rolled(source)
	if s.ConsecutiveHTTP == nil {
		s.ConsecutiveHTTP = make(map[string]int)
	}
	key := strconv.Itoa(code)
	s.ConsecutiveHTTP[key]++
	s.UpdatedAt = t.now().Format(time.RFC3339)
	return s.ConsecutiveHTTP[key]
}

// ResetHTTPFailures clears today's counter for one status code.
func (t *Tracker) ResetHTTPFailures(source string, code int) {
	if !t.cfg.Enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.rolled(source)
	if s.ConsecutiveHTTP != nil {
		delete(s.ConsecutiveHTTP, strconv.Itoa(code))
	}
}

// Snapshot returns a copy of one source's state, for logging.
func (t *Tracker) Snapshot(source string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.state(source)
}
