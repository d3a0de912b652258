// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package market

// Indicator window sizes. These are the conventional defaults used across
// retail charting platforms; they are not configurable per spec scope.
const (
	smaWindow       = 20
	emaWindow       = 20
	rsiWindow       = 14
	macdFastWindow  = 12
	macdSlowWindow  = 26
	macdSignalSpan  = 9
	goldenCrossFast = 50
	goldenCrossSlow = 200
)

// closes extracts the closing price series from points, oldest first.
func closes(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

// sma computes the simple moving average over the trailing window points of
// series. Returns (0, false) if series is shorter than window.
func sma(series []float64, window int) (float64, bool) {
	if len(series) < window || window <= 0 {
		return 0, false
	}
	var sum float64
	tail := series[len(series)-window:]
	for _, v := range tail {
		sum += v
	}
	return sum / float64(window), true
}

// emaSeries computes the exponential moving average series using the
// standard smoothing factor 2/(window+1), seeded by the SMA of the first
// window points. The returned slice is aligned to series[window-1:].
func emaSeries(series []float64, window int) []float64 {
	if len(series) < window || window <= 0 {
		return nil
	}
	seed, ok := sma(series[:window], window)
	if !ok {
		return nil
	}
	k := 2.0 / float64(window+1)
	out := make([]float64, len(series)-window+1)
	out[0] = seed
	for i := window; i < len(series); i++ {
		prev := out[i-window]
		out[i-window+1] = series[i]*k + prev*(1-k)
	}
	return out
}

// ema computes the most recent exponential moving average value over
// window. Returns (0, false) if series is too short.
func ema(series []float64, window int) (float64, bool) {
	es := emaSeries(series, window)
	if len(es) == 0 {
		return 0, false
	}
	return es[len(es)-1], true
}

// rsi computes the Wilder relative strength index over rsiWindow periods.
// Returns (0, false) if series has fewer than rsiWindow+1 points.
func rsi(series []float64) (float64, bool) {
	window := rsiWindow
	if len(series) < window+1 {
		return 0, false
	}

	var gainSum, lossSum float64
	for i := 1; i <= window; i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
	}
	avgGain := gainSum / float64(window)
	avgLoss := lossSum / float64(window)

	for i := window + 1; i < len(series); i++ {
		delta := series[i] - series[i-1]
		var gain, loss float64
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), true
}

// macdValue is the moving-average-convergence-divergence line (fast EMA
// minus slow EMA) and its signal line (EMA of the MACD line).
type macdValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// macd computes the standard 12/26/9 MACD. Returns (zero, false) if series
// is too short to compute both EMAs and the signal line.
func macd(series []float64) (macdValue, bool) {
	fast := emaSeries(series, macdFastWindow)
	slow := emaSeries(series, macdSlowWindow)
	if len(fast) == 0 || len(slow) == 0 {
		return macdValue{}, false
	}

	// Align fast/slow series to the same trailing window (slow starts
	// later since macdSlowWindow > macdFastWindow).
	offset := len(fast) - len(slow)
	if offset < 0 {
		return macdValue{}, false
	}
	macdLine := make([]float64, len(slow))
	for i := range slow {
		macdLine[i] = fast[i+offset] - slow[i]
	}

	signalLine := emaSeries(macdLine, macdSignalSpan)
	if len(signalLine) == 0 {
		return macdValue{}, false
	}

	lastMACD := macdLine[len(macdLine)-1]
	lastSignal := signalLine[len(signalLine)-1]
	return macdValue{MACD: lastMACD, Signal: lastSignal, Histogram: lastMACD - lastSignal}, true
}

// goldenCross reports whether the fast SMA (50) is currently above the slow
// SMA (200) — a "golden cross" setup — or below it (a "death cross").
// Returns ("", false) if series is too short for the slow SMA.
func goldenCross(series []float64) (string, bool) {
	fastAvg, ok := sma(series, goldenCrossFast)
	if !ok {
		return "", false
	}
	slowAvg, ok := sma(series, goldenCrossSlow)
	if !ok {
		return "", false
	}
	if fastAvg > slowAvg {
		return "bullish: 50-day above 200-day", true
	}
	if fastAvg < slowAvg {
		return "bearish: 50-day below 200-day", true
	}
	return "neutral: 50-day equals 200-day", true
}
