// Package anomaly flags decoded SPN values that deviate from
// the recent history of the same parameter.
package anomaly

import (
	"math"
	"sync"
)

const (
	trendLength = 5

	// MethodStatistical is the name of the z-score detection method.
	MethodStatistical = "Statistical"
)

// Severity grades an anomaly by the number of methods that detected it.
type Severity string

const (
	SeverityLow    Severity = "Low"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// Trend is the direction of the last values of a parameter.
type Trend string

const (
	TrendStable     Trend = "stable"
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
)

// Parameter configures the detection of a monitored SPN.
type Parameter struct {
	SPNName string

	// MinDataPoints is both the number of values needed before
	// any result is produced and the size of the rolling window.
	MinDataPoints int
	// StatisticalThreshold is the z-score above which a value is anomalous.
	StatisticalThreshold float64
}

// Statistics describes the rolling window a result was computed on.
type Statistics struct {
	CurrentValue float64 `json:"current_value" cbor:"current_value"`
	Mean         float64 `json:"mean" cbor:"mean"`
	Std          float64 `json:"std" cbor:"std"`
	Min          float64 `json:"min" cbor:"min"`
	Max          float64 `json:"max" cbor:"max"`
}

// Result is the outcome of an evaluation.
type Result struct {
	IsAnomaly        bool       `json:"is_anomaly" cbor:"is_anomaly"`
	Confidence       float64    `json:"confidence" cbor:"confidence"`
	DetectionMethods []string   `json:"detection_methods" cbor:"detection_methods"`
	Severity         Severity   `json:"severity" cbor:"severity"`
	Trend            Trend      `json:"trend" cbor:"trend"`
	Statistics       Statistics `json:"statistics" cbor:"statistics"`
}

type series struct {
	param   Parameter
	history *window
}

// Detector keeps a rolling history per monitored parameter.
// It is safe for concurrent use.
type Detector struct {
	mux    sync.Mutex
	series map[string]*series
}

// NewDetector returns a detector for the given parameters.
func NewDetector(params ...Parameter) *Detector {
	s := make(map[string]*series, len(params))
	for _, p := range params {
		if p.MinDataPoints < 2 {
			p.MinDataPoints = 2
		}

		s[p.SPNName] = &series{
			param:   p,
			history: newWindow(p.MinDataPoints),
		}
	}

	return &Detector{series: s}
}

// NewDefaultDetector returns a detector for [DefaultParameters].
func NewDefaultDetector() *Detector {
	return NewDetector(DefaultParameters()...)
}

// Evaluate records value in the history of the SPN and evaluates it.
// The boolean is false when the SPN is not monitored or when
// the history does not hold enough values yet.
func (d *Detector) Evaluate(spnName string, value float64) (Result, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return Result{}, false
	}

	d.mux.Lock()
	defer d.mux.Unlock()

	s, ok := d.series[spnName]
	if !ok {
		return Result{}, false
	}

	s.history.push(value)
	if !s.history.full() {
		return Result{}, false
	}

	stats := describe(s.history, value)

	methods := []string{}
	z := zScore(value, stats)
	isAnomaly, confidence := score(z, s.param.StatisticalThreshold)
	if isAnomaly {
		methods = append(methods, MethodStatistical)
	}

	return Result{
		IsAnomaly:        len(methods) > 0,
		Confidence:       confidence,
		DetectionMethods: methods,
		Severity:         severity(len(methods)),
		Trend:            trend(s.history.last(trendLength)),
		Statistics:       stats,
	}, true
}

// Reset clears the history of every parameter.
func (d *Detector) Reset() {
	d.mux.Lock()
	defer d.mux.Unlock()

	for _, s := range d.series {
		s.history = newWindow(s.param.MinDataPoints)
	}
}

func describe(w *window, current float64) Statistics {
	stats := Statistics{
		CurrentValue: current,
		Min:          math.Inf(1),
		Max:          math.Inf(-1),
	}

	sum := 0.0
	for v := range w.values() {
		sum += v
		stats.Min = min(stats.Min, v)
		stats.Max = max(stats.Max, v)
	}
	stats.Mean = sum / float64(w.len())

	// population standard deviation
	sqSum := 0.0
	for v := range w.values() {
		sqSum += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.Std = math.Sqrt(sqSum / float64(w.len()))

	return stats
}

func zScore(value float64, stats Statistics) float64 {
	if stats.Std == 0 {
		return 0
	}
	return math.Abs(value-stats.Mean) / stats.Std
}

func score(z, threshold float64) (bool, float64) {
	if threshold <= 0 {
		return false, 0
	}

	if z > threshold {
		return true, z / threshold
	}
	return false, z / (2 * threshold)
}

func severity(methods int) Severity {
	switch {
	case methods >= 2:
		return SeverityHigh
	case methods == 1:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func trend(values []float64) Trend {
	if len(values) < 2 {
		return TrendStable
	}

	increasing, decreasing := true, true
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			increasing = false
		}
		if values[i] >= values[i-1] {
			decreasing = false
		}
	}

	switch {
	case increasing:
		return TrendIncreasing
	case decreasing:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// DefaultParameters returns the monitored parameters of the BEML BD-155.
func DefaultParameters() []Parameter {
	return []Parameter{
		{SPNName: "Engine Speed", MinDataPoints: 50, StatisticalThreshold: 3.0},
		{SPNName: "Engine Oil Pressure", MinDataPoints: 30, StatisticalThreshold: 3.0},
		{SPNName: "Engine Coolant Temperature", MinDataPoints: 40, StatisticalThreshold: 2.5},
		{SPNName: "Hydraulic Temperature", MinDataPoints: 40, StatisticalThreshold: 2.5},
	}
}
