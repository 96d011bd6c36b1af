package core

import "sync"

const AVG_COUNT uint8 = 30

type MetricsState struct {
	TickAVGCounter    uint8
	MStimes           [AVG_COUNT]float64
	MSavg             float64
	Ticks             int32
	AccumulatedTickMS float64
	TPS               float64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			MStimes: [AVG_COUNT]float64{0},
		}
	})
	return nil
}

// MetricsUpdate records the wall-clock duration of one driver pass.
func MetricsUpdate(tick_elapsed_time float64) {
	// Calculate tick ms average
	tick_ms := (tick_elapsed_time * 1000.0)
	metricsState.MStimes[metricsState.TickAVGCounter] = tick_ms
	if metricsState.TickAVGCounter == AVG_COUNT-1 {
		for i := uint8(0); i < AVG_COUNT; i++ {
			metricsState.MSavg += metricsState.MStimes[i]
		}

		metricsState.MSavg /= float64(AVG_COUNT)
	}
	metricsState.TickAVGCounter++
	metricsState.TickAVGCounter %= AVG_COUNT

	// Calculate ticks per second.
	metricsState.AccumulatedTickMS += tick_ms
	if metricsState.AccumulatedTickMS > 1000 {
		metricsState.TPS = float64(metricsState.Ticks)
		metricsState.AccumulatedTickMS -= 1000
		metricsState.Ticks = 0
	}

	// Count all ticks.
	metricsState.Ticks++
}

func MetricsTPS() float64 {
	return metricsState.TPS
}

func MetricsTickTime() float64 {
	return metricsState.MSavg
}

func MetricsTick() (float64, float64) {
	return metricsState.TPS, metricsState.MSavg
}
