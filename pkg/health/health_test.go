package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysUp(_ context.Context) error { return nil }

func alwaysDown(msg string) Func {
	return func(_ context.Context) error { return errors.New(msg) }
}

// sweepN drives the evaluation loop by hand so tests do not depend on timers.
func sweepN(c *Checker, n int) {
	for range n {
		c.sweep(context.Background(), c.probes)
	}
}

func serveLive(c *Checker) (*httptest.ResponseRecorder, report) {
	w := httptest.NewRecorder()
	c.HandleLive(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	return w, decodeReport(w)
}

func serveReady(c *Checker) (*httptest.ResponseRecorder, report) {
	w := httptest.NewRecorder()
	c.HandleReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	return w, decodeReport(w)
}

func decodeReport(w *httptest.ResponseRecorder) report {
	var rep report
	if err := json.NewDecoder(w.Body).Decode(&rep); err != nil {
		panic(err)
	}
	return rep
}

func TestHandleLive_AllPassing(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddLiveness("goroutines", time.Second, alwaysUp)
	c.AddLiveness("gc-pause", time.Second, alwaysUp)

	w, rep := serveLive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, statusPass, rep.Status)
	// Every probe is listed, not just failures.
	assert.Equal(t, map[string]string{"goroutines": "pass", "gc-pause": "pass"}, rep.Checks)
}

func TestHandleLive_FailingProbe(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddLiveness("goroutines", time.Second, alwaysDown("leak detected"))

	sweepN(c, 3)

	w, rep := serveLive(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, statusFail, rep.Status)
	assert.Equal(t, "leak detected", rep.Checks["goroutines"])
}

func TestHandleLive_FailureBelowStreak(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddLiveness("flaky", time.Second, alwaysDown("blip"))

	// Two failures, failAfter is three. Still reported up.
	sweepN(c, 2)

	w, rep := serveLive(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusPass, rep.Status)
}

func TestProbeRecovery(t *testing.T) {
	down := true
	c := NewChecker(time.Second)
	c.AddLiveness("flaky", time.Second, func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})

	sweepN(c, 3)
	require.False(t, c.probes[0].state.Load().up)

	down = false
	sweepN(c, 1)
	assert.True(t, c.probes[0].state.Load().up, "one pass should recover with recoverAfter=1")
}

func TestHandleReady_Gate(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddReadiness("postgres", time.Second, alwaysUp)

	// Gate closed until MarkReady.
	w, rep := serveReady(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not accepting traffic", rep.Checks["service"])

	c.MarkReady(true)
	w, rep = serveReady(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, statusPass, rep.Status)

	// Closing the gate again drains traffic.
	c.MarkReady(false)
	w, _ = serveReady(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleReady_OneProbeDown(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddReadiness("postgres", time.Second, alwaysUp)
	c.AddReadiness("cache", time.Second, alwaysDown("connection refused"))
	c.MarkReady(true)

	sweepN(c, 3)

	w, rep := serveReady(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, statusFail, rep.Status)
	assert.Equal(t, "connection refused", rep.Checks["cache"])
	assert.Equal(t, "pass", rep.Checks["postgres"])
}

func TestReady(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddReadiness("postgres", time.Second, alwaysDown("refused"))

	assert.False(t, c.Ready(), "gate starts closed")

	c.MarkReady(true)
	assert.True(t, c.Ready(), "probe has not failed its streak yet")

	sweepN(c, 3)
	assert.False(t, c.Ready(), "failed readiness probe blocks traffic")
}

func TestLivenessFailureDoesNotBlockReady(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddLiveness("goroutines", time.Second, alwaysDown("leak"))
	c.AddReadiness("postgres", time.Second, alwaysUp)
	c.MarkReady(true)

	sweepN(c, 3)

	assert.True(t, c.Ready())
	w, _ := serveReady(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartStop(t *testing.T) {
	c := NewChecker(10 * time.Millisecond)
	c.AddLiveness("goroutines", time.Second, alwaysUp)

	c.Start(context.Background())
	time.Sleep(30 * time.Millisecond)

	c.Stop()
	c.Stop() // idempotent
}

func TestProbeTimeout(t *testing.T) {
	c := NewChecker(time.Second)
	c.AddReadiness("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	c.MarkReady(true)

	sweepN(c, 3)

	assert.False(t, c.Ready(), "a probe that exceeds its timeout counts as failed")
}

func TestConcurrentHandlers(t *testing.T) {
	c := NewChecker(5 * time.Millisecond)
	c.AddLiveness("goroutines", time.Second, alwaysDown("err"))
	c.AddReadiness("postgres", time.Second, alwaysUp)
	c.MarkReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Ready()
				serveLive(c)
				serveReady(c)
			}
		}()
	}
	wg.Wait()
	c.Stop()
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestPingCheck(t *testing.T) {
	assert.NoError(t, PingCheck(fakePinger{})(context.Background()))

	err := PingCheck(fakePinger{err: errors.New("dial refused")})(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial refused")
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
