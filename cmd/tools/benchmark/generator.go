package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/soltixdb/healthtrack/internal/health"
	"github.com/soltixdb/healthtrack/internal/models"
	"github.com/soltixdb/healthtrack/internal/units"
)

var metricTypes = health.AllMetricTypes()

// generator produces plausible readings with an occasional outlier.
// Not safe for concurrent use; each worker owns one.
type generator struct {
	rng     *rand.Rand
	start   time.Time
	span    time.Duration
	counter int
}

func newGenerator(seed int64, start time.Time, span time.Duration) *generator {
	if span <= 0 {
		span = time.Hour
	}
	return &generator{rng: rand.New(rand.NewSource(seed)), start: start, span: span}
}

// Batch returns n readings cycling through every metric type
func (g *generator) Batch(n int) []models.ReadingRequest {
	batch := make([]models.ReadingRequest, n)
	for i := range batch {
		batch[i] = g.next()
	}
	return batch
}

func (g *generator) next() models.ReadingRequest {
	metric := metricTypes[g.counter%len(metricTypes)]
	offset := time.Duration(g.rng.Int63n(int64(g.span)))
	g.counter++

	r := models.ReadingRequest{
		MetricType: string(metric),
		RecordedAt: g.start.Add(offset).UTC().Format(time.RFC3339),
	}

	// about one reading in fifty lands well outside the normal band
	spike := 1.0
	if g.rng.Intn(50) == 0 {
		spike = 1.4
	}

	switch metric {
	case health.MetricBloodPressure:
		sys := g.around(120, 8) * spike
		dia := math.Min(g.around(80, 5)*spike, sys-10)
		r.Systolic, r.Diastolic = &sys, &dia
		r.Unit = string(units.MmHg)
	case health.MetricBloodSugar:
		v := g.around(100, 12) * spike
		r.Value, r.Unit = &v, string(units.MgPerDL)
	case health.MetricWeight:
		v := g.around(70, 1.5) * spike
		r.Value, r.Unit = &v, string(units.Kilogram)
	case health.MetricHeartRate:
		v := g.around(68, 6) * spike
		r.Value, r.Unit = &v, string(units.BPM)
	default:
		v := g.around(36.7, 0.3)
		r.Value, r.Unit = &v, string(units.Celsius)
	}
	return r
}

// around draws from a normal distribution rounded to one decimal
func (g *generator) around(mean, stdDev float64) float64 {
	return math.Round((mean+g.rng.NormFloat64()*stdDev)*10) / 10
}
