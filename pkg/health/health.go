// Package health implements liveness and readiness probes for the API server.
//
// Probes are registered during startup and evaluated together by a single
// background loop. Every evaluation publishes an immutable snapshot of the
// outcome, so the HTTP probe handlers only read snapshots and never block on
// a slow check. Streak thresholds keep a single hiccup from flipping the
// reported state: a probe must fail failAfter times in a row to be reported
// down, and pass recoverAfter times in a row to be reported up again.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Func evaluates one dependency. A nil return means healthy.
type Func func(ctx context.Context) error

type probeKind int

const (
	liveness probeKind = iota
	readiness
)

// snapshot is the published outcome of the most recent evaluations. The
// zero detail means the probe is passing.
type snapshot struct {
	up     bool
	detail string
}

// probe couples a check function with its streak counters. The counters are
// only touched by the evaluation loop; handlers read the atomic snapshot.
type probe struct {
	name    string
	kind    probeKind
	timeout time.Duration
	fn      Func

	failStreak int
	okStreak   int
	state      atomic.Pointer[snapshot]
}

func (p *probe) evaluate(ctx context.Context, failAfter, recoverAfter int) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.fn(probeCtx)
	cancel()

	prev := p.state.Load()
	next := snapshot{up: prev.up}

	if err != nil {
		p.okStreak = 0
		p.failStreak++
		next.detail = err.Error()
		if p.failStreak >= failAfter {
			next.up = false
		}
	} else {
		p.failStreak = 0
		p.okStreak++
		if p.okStreak >= recoverAfter {
			next.up = true
		} else if prev.detail != "" {
			// Still below the recovery streak, keep reporting the last error.
			next.detail = prev.detail
		}
	}
	p.state.Store(&next)
}

// Checker runs registered probes and serves the livez/readyz endpoints.
type Checker struct {
	interval     time.Duration
	failAfter    int
	recoverAfter int

	ready atomic.Bool

	mu     sync.Mutex
	probes []*probe
	stop   context.CancelFunc
}

// NewChecker builds a Checker that evaluates all probes every interval.
func NewChecker(interval time.Duration) *Checker {
	return &Checker{
		interval:     interval,
		failAfter:    3,
		recoverAfter: 1,
	}
}

// AddLiveness registers a probe for the livez endpoint. Liveness probes
// answer "is this process still functioning": goroutine leaks, GC stalls.
func (c *Checker) AddLiveness(name string, timeout time.Duration, fn Func) {
	c.add(name, liveness, timeout, fn)
}

// AddReadiness registers a probe for the readyz endpoint. Readiness probes
// answer "can this process serve traffic": database connectivity and the
// like.
func (c *Checker) AddReadiness(name string, timeout time.Duration, fn Func) {
	c.add(name, readiness, timeout, fn)
}

func (c *Checker) add(name string, kind probeKind, timeout time.Duration, fn Func) {
	p := &probe{name: name, kind: kind, timeout: timeout, fn: fn}
	p.state.Store(&snapshot{up: true})

	c.mu.Lock()
	c.probes = append(c.probes, p)
	c.mu.Unlock()
}

// Start launches the evaluation loop. All probes run sequentially on one
// ticker; registration must be finished before Start is called.
func (c *Checker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.stop = cancel
	probes := append([]*probe(nil), c.probes...)
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		c.sweep(ctx, probes)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep(ctx, probes)
			}
		}
	}()
}

func (c *Checker) sweep(ctx context.Context, probes []*probe) {
	for _, p := range probes {
		if ctx.Err() != nil {
			return
		}
		p.evaluate(ctx, c.failAfter, c.recoverAfter)
	}
}

// Stop cancels the evaluation loop. Safe to call more than once.
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

// MarkReady flips the manual readiness gate. The readyz endpoint reports
// ready only when the gate is open and every readiness probe passes; flip it
// to false at the start of graceful shutdown to drain traffic.
func (c *Checker) MarkReady(ready bool) {
	c.ready.Store(ready)
}

// Ready reports whether the service should receive traffic.
func (c *Checker) Ready() bool {
	if !c.ready.Load() {
		return false
	}
	for _, p := range c.snapshotProbes(readiness) {
		if !p.state.Load().up {
			return false
		}
	}
	return true
}

func (c *Checker) snapshotProbes(kind probeKind) []*probe {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*probe, 0, len(c.probes))
	for _, p := range c.probes {
		if p.kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// report is the JSON body served by both endpoints. Unlike a failures-only
// body, it lists every probe so an operator can see what was actually
// evaluated.
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

const (
	statusPass = "pass"
	statusFail = "fail"
)

// HandleLive serves the livez endpoint: 200 when every liveness probe is
// passing, 503 otherwise.
func (c *Checker) HandleLive(w http.ResponseWriter, _ *http.Request) {
	c.serveReport(w, c.snapshotProbes(liveness), true)
}

// HandleReady serves the readyz endpoint: 200 when the service is marked
// ready and every readiness probe is passing, 503 otherwise.
func (c *Checker) HandleReady(w http.ResponseWriter, _ *http.Request) {
	c.serveReport(w, c.snapshotProbes(readiness), c.ready.Load())
}

func (c *Checker) serveReport(w http.ResponseWriter, probes []*probe, gate bool) {
	rep := report{Status: statusPass, Checks: make(map[string]string, len(probes)+1)}
	if !gate {
		rep.Status = statusFail
		rep.Checks["service"] = "not accepting traffic"
	}

	for _, p := range probes {
		s := p.state.Load()
		switch {
		case s.up:
			rep.Checks[p.name] = statusPass
		case s.detail != "":
			rep.Status = statusFail
			rep.Checks[p.name] = s.detail
		default:
			rep.Status = statusFail
			rep.Checks[p.name] = statusFail
		}
	}

	code := http.StatusOK
	if rep.Status != statusPass {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(rep)
}
