package output

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/firedrill-labs/firedrill/internal/metrics"
)

// Streamer prints one-line live metric snapshots while a run is in flight.
// It implements engine.SnapshotListener. A rate limiter caps output even
// when the engine is configured with a very short metrics interval.
type Streamer struct {
	w       io.Writer
	limiter rate.Sometimes
}

// NewStreamer creates a streamer writing to w. minGap is the minimum time
// between printed lines.
func NewStreamer(w io.Writer, minGap time.Duration) *Streamer {
	if w == nil {
		w = io.Discard
	}
	if minGap <= 0 {
		minGap = time.Second
	}
	return &Streamer{w: w, limiter: rate.Sometimes{Interval: minGap}}
}

// OnSnapshot prints the snapshot if the rate limiter allows.
func (s *Streamer) OnSnapshot(snap metrics.LiveSnapshot) {
	s.limiter.Do(func() {
		fmt.Fprintf(s.w,
			"[%6.1fs] requests=%d ok=%d failed=%d rate=%.1f%% rps=%.1f p50=%s p95=%s p99=%s\n",
			snap.Elapsed.Seconds(), snap.Total, snap.Successes, snap.Failures,
			snap.SuccessRate, snap.RequestsPerSec,
			snap.P50Latency.Round(time.Millisecond),
			snap.P95Latency.Round(time.Millisecond),
			snap.P99Latency.Round(time.Millisecond))
	})
}
