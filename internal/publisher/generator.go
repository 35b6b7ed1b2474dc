package publisher

import (
	"math"
	"sync"
)

const (
	baseTemperature = 20.0
	amplitude       = 3.0
	maxStep         = 2.0
)

// RandSource yields uniform floats in [0, 1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Generator produces a daily sinusoid around 20 degrees with per-sensor noise.
// Consecutive values of the same sensor differ by at most 2 degrees.
type Generator struct {
	mu   sync.Mutex
	rnd  RandSource
	last map[string]float64
}

func NewGenerator(rnd RandSource) *Generator {
	return &Generator{rnd: rnd, last: map[string]float64{}}
}

// Next returns the temperature of sensor for the given hour of day
func (g *Generator) Next(hour int, sensor string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	fluctuation := amplitude * math.Sin(math.Pi/12*float64(hour-12))
	noise := g.rnd.Float64()*2 - 1
	t := baseTemperature + fluctuation + noise

	last, ok := g.last[sensor]
	if !ok {
		last = baseTemperature
	}
	if math.Abs(t-last) > maxStep {
		if t > last {
			t = last + maxStep
		} else {
			t = last - maxStep
		}
	}

	t = math.Round(t*100) / 100
	g.last[sensor] = t
	return t
}
