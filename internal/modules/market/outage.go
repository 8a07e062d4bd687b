package market

import (
	"sync"

	"github.com/vintagescan/pricer/internal/domain"
)

// Notifier receives source outage transitions.
type Notifier interface {
	NotifySourceDown(source domain.SourceType, cause error) error
	NotifySourceRecovered(source domain.SourceType, failures int) error
}

// outageTracker counts consecutive failures per source.
type outageTracker struct {
	mu       sync.Mutex
	failures map[domain.SourceType]int
}

func newOutageTracker() *outageTracker {
	return &outageTracker{failures: make(map[domain.SourceType]int)}
}

// failure records a failure and reports whether it starts an outage.
func (t *outageTracker) failure(source domain.SourceType) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[source]++
	return t.failures[source] == 1
}

// success clears the failure count and returns how many failures preceded it.
func (t *outageTracker) success(source domain.SourceType) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.failures[source]
	delete(t.failures, source)
	return n
}

// snapshot returns the current consecutive failure counts.
func (t *outageTracker) snapshot() map[domain.SourceType]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[domain.SourceType]int, len(t.failures))
	for k, v := range t.failures {
		out[k] = v
	}
	return out
}
