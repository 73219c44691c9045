// Package arrival implements the piecewise rate curve and the
// non-homogeneous Poisson arrival sampler. Sampling thins candidate
// arrivals against the curve's peak rate, so the caller gets a
// next-arrival time rather than a per-interval count.
package arrival

import (
	"math"

	"github.com/arclight-sim/elevator-traffic-sim/internal/domain"
)

// Segment is one piece of a piecewise-constant rate curve: constant
// rate_per_second over [StartS, EndS).
type Segment struct {
	StartS        float64
	EndS          float64
	RatePerSecond float64
}

// Curve is an ordered, non-overlapping set of Segments covering (at most)
// a 24-hour day. Rate returns 0 outside every segment.
type Curve struct {
	segments []Segment
	maxRate  float64
}

// NewCurve validates and constructs a Curve. An empty segment list is a
// construction-time error.
func NewCurve(segments []Segment) (*Curve, error) {
	if len(segments) == 0 {
		return nil, domain.ErrRateCurveEmpty
	}
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	max := 0.0
	for _, s := range cp {
		if s.RatePerSecond > max {
			max = s.RatePerSecond
		}
	}
	return &Curve{segments: cp, maxRate: max}, nil
}

// Rate returns the rate at time t (seconds since start of day), or 0 if t
// falls outside every segment.
func (c *Curve) Rate(t float64) float64 {
	dayT := math.Mod(t, 24*3600)
	if dayT < 0 {
		dayT += 24 * 3600
	}
	for _, s := range c.segments {
		if dayT >= s.StartS && dayT < s.EndS {
			return s.RatePerSecond
		}
	}
	return 0
}

// MaxRate returns the curve's peak rate, used as the thinning envelope.
func (c *Curve) MaxRate() float64 {
	return c.maxRate
}

// Default curves loosely modeling residential, office-worker, and shopper
// diurnal patterns. Times are seconds since midnight.
var (
	ResidentCurve, _ = NewCurve([]Segment{
		{StartS: 6 * 3600, EndS: 9 * 3600, RatePerSecond: 0.03},
		{StartS: 9 * 3600, EndS: 17 * 3600, RatePerSecond: 0.005},
		{StartS: 17 * 3600, EndS: 20 * 3600, RatePerSecond: 0.04},
		{StartS: 20 * 3600, EndS: 23 * 3600, RatePerSecond: 0.01},
	})

	OfficeWorkerCurve, _ = NewCurve([]Segment{
		{StartS: 7 * 3600, EndS: 9 * 3600, RatePerSecond: 0.08},
		{StartS: 9 * 3600, EndS: 12 * 3600, RatePerSecond: 0.01},
		{StartS: 12 * 3600, EndS: 13 * 3600, RatePerSecond: 0.05},
		{StartS: 13 * 3600, EndS: 17 * 3600, RatePerSecond: 0.01},
		{StartS: 17 * 3600, EndS: 19 * 3600, RatePerSecond: 0.07},
	})

	ShopperCurve, _ = NewCurve([]Segment{
		{StartS: 10 * 3600, EndS: 12 * 3600, RatePerSecond: 0.015},
		{StartS: 12 * 3600, EndS: 18 * 3600, RatePerSecond: 0.03},
		{StartS: 18 * 3600, EndS: 21 * 3600, RatePerSecond: 0.02},
	})
)

// CurveFor returns the default curve for a passenger type.
func CurveFor(t domain.PersonType) *Curve {
	switch t {
	case domain.PersonResident:
		return ResidentCurve
	case domain.PersonOfficeWorker:
		return OfficeWorkerCurve
	case domain.PersonShopper:
		return ShopperCurve
	default:
		return ResidentCurve
	}
}
