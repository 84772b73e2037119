package dof

import (
	"parabolicdof/internal/models"
)

// accumulator groups consecutive samples with equal blur values into bands.
// It only tracks band boundaries; the caller owns the layers and performs
// the flush it is told about.
type accumulator struct {
	state   models.BandState
	value   float64
	samples int
}

func newAccumulator() accumulator {
	return accumulator{state: models.Flushed, value: sentinelBlur}
}

// observe registers one sample with blur value v. It is called after the
// sample has been drawn, so the sample always counts towards the pending
// band. When v differs from the pending band's value that band is returned
// with flush set, still carrying its own value, and v opens the next band.
// The first sample closes the sentinel band, which is never blurred.
func (a *accumulator) observe(v float64) (pending models.Band, flush bool) {
	a.samples++
	if v != a.value {
		pending = models.Band{Blur: a.value, Samples: a.samples}
		flush = true
		a.samples = 0
	}
	a.state = models.Accumulating
	a.value = v
	return pending, flush
}

// finish returns the band left open by the last sample and leaves the
// accumulator flushed. The band may hold no samples of its own when the
// last sample changed the value.
func (a *accumulator) finish() (pending models.Band, flush bool) {
	if a.state != models.Accumulating {
		return models.Band{}, false
	}
	pending = models.Band{Blur: a.value, Samples: a.samples}
	a.state = models.Flushed
	a.value = sentinelBlur
	a.samples = 0
	return pending, true
}
