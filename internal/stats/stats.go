// Package stats aggregates wait and ride statistics from boarding and
// alighting events. The aggregator subscribes to the event bus and keeps
// everything keyed by call id, so it never touches live domain state.
package stats

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/arclight-sim/elevator-traffic-sim/internal/constants"
	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
	"github.com/arclight-sim/elevator-traffic-sim/internal/eventbus"
)

type requestInfo struct {
	requestT   float64
	personType domain.PersonType
}

// Aggregator computes wait and ride statistics for a run. Wait is
// board-time minus request-time; ride is alight-time minus board-time.
type Aggregator struct {
	mu sync.Mutex

	waitTarget float64

	requests map[int]requestInfo
	boards   map[int]float64

	waits        []float64
	rides        []float64
	perTypeWaits map[domain.PersonType][]float64

	sub    *eventbus.Subscription
	logger *slog.Logger
}

// New constructs an Aggregator subscribed to bus. waitTargetSeconds is
// the threshold for the within-target percentage; a non-positive value
// falls back to the default.
func New(bus *eventbus.Bus, waitTargetSeconds float64) *Aggregator {
	if waitTargetSeconds <= 0 {
		waitTargetSeconds = constants.DefaultWaitTargetSeconds
	}
	a := &Aggregator{
		waitTarget:   waitTargetSeconds,
		requests:     make(map[int]requestInfo),
		boards:       make(map[int]float64),
		perTypeWaits: make(map[domain.PersonType][]float64),
		logger:       slog.With(slog.String("component", constants.ComponentMetrics)),
	}
	a.sub = bus.Subscribe(a.handle)
	return a
}

// Close unsubscribes the aggregator from the bus.
func (a *Aggregator) Close() {
	if a.sub != nil {
		a.sub.Unsubscribe()
	}
}

func (a *Aggregator) handle(event domain.Event) {
	switch e := event.(type) {
	case domain.CallRequested:
		a.mu.Lock()
		a.requests[e.CallID] = requestInfo{requestT: e.T, personType: e.PersonType}
		a.mu.Unlock()
	case domain.PersonBoarded:
		a.mu.Lock()
		a.boards[e.CallID] = e.T
		if req, ok := a.requests[e.CallID]; ok {
			wait := e.T - req.requestT
			if wait >= 0 {
				a.waits = append(a.waits, wait)
				a.perTypeWaits[req.personType] = append(a.perTypeWaits[req.personType], wait)
			}
		}
		a.mu.Unlock()
	case domain.PersonAlighted:
		a.mu.Lock()
		if boardT, ok := a.boards[e.CallID]; ok {
			a.rides = append(a.rides, e.T-boardT)
		}
		a.mu.Unlock()
	}
}

// Report summarizes one sample set.
type Report struct {
	Count           int
	Mean            float64
	P95             float64
	PctWithinTarget float64
}

// WaitReport summarizes the overall wait samples.
func (a *Aggregator) WaitReport() Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summarize(a.waits)
}

// RideReport summarizes the overall ride samples. The within-target
// percentage is computed against the same wait target and is mostly
// informational for rides.
func (a *Aggregator) RideReport() Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summarize(a.rides)
}

// WaitReportByType summarizes the wait samples per passenger type.
func (a *Aggregator) WaitReportByType() map[domain.PersonType]Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[domain.PersonType]Report, len(a.perTypeWaits))
	for t, samples := range a.perTypeWaits {
		out[t] = a.summarize(samples)
	}
	return out
}

// summarize computes count, mean, nearest-rank 95th percentile, and the
// percentage of samples at or below the wait target. Caller holds a.mu.
func (a *Aggregator) summarize(samples []float64) Report {
	n := len(samples)
	if n == 0 {
		return Report{}
	}

	sum := 0.0
	within := 0
	for _, s := range samples {
		sum += s
		if s <= a.waitTarget {
			within++
		}
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	rank := int(math.Ceil(0.95 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}

	return Report{
		Count:           n,
		Mean:            sum / float64(n),
		P95:             sorted[rank-1],
		PctWithinTarget: 100 * float64(within) / float64(n),
	}
}
