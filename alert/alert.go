// Package alert maps decoded SPN values to dashboard colors
// using static threshold tables.
package alert

import (
	"fmt"
	"math"
)

// Color is the dashboard color of a value.
type Color string

const (
	ColorGreen Color = "GREEN"
	ColorAmber Color = "AMBER"
	ColorRed   Color = "RED"
)

// Range is an inclusive value range with its color and alert text.
// An empty Alert means the range is nominal.
type Range struct {
	Min   float64
	Max   float64
	Color Color
	Alert string
}

func (r Range) contains(value float64) bool {
	return r.Min <= value && value <= r.Max
}

// Parameter holds the ranges of a monitored SPN, matched by SPN name.
type Parameter struct {
	SPNName string
	Ranges  []Range
}

// Result is the outcome of an evaluation.
type Result struct {
	Alert     string `json:"alert,omitempty" cbor:"alert,omitempty"`
	Color     Color  `json:"color" cbor:"color"`
	HasBuzzer bool   `json:"has_buzzer" cbor:"has_buzzer"`
}

// Evaluator evaluates values against a fixed set of parameters.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	params map[string]Parameter
}

// NewEvaluator returns an evaluator for the given parameters.
// When two parameters share an SPN name the last one is used.
func NewEvaluator(params ...Parameter) *Evaluator {
	m := make(map[string]Parameter, len(params))
	for _, p := range params {
		m[p.SPNName] = p
	}
	return &Evaluator{params: m}
}

// NewDefaultEvaluator returns an evaluator for [DefaultParameters].
func NewDefaultEvaluator() *Evaluator {
	return NewEvaluator(DefaultParameters()...)
}

// Evaluate returns the color of value for the SPN with the given name.
// The boolean is false when the SPN is not monitored.
//
// The first range containing the value wins. A value outside every range
// is reported as a red out of range alert.
func (e *Evaluator) Evaluate(spnName string, value float64) (Result, bool) {
	p, ok := e.params[spnName]
	if !ok {
		return Result{}, false
	}

	if !math.IsNaN(value) {
		for _, r := range p.Ranges {
			if r.contains(value) {
				return Result{
					Alert:     r.Alert,
					Color:     r.Color,
					HasBuzzer: r.Color == ColorRed,
				}, true
			}
		}
	}

	return Result{
		Alert:     fmt.Sprintf("CRITICAL: %s Out of Range", spnName),
		Color:     ColorRed,
		HasBuzzer: true,
	}, true
}

// DefaultParameters returns the thresholds of the BEML BD-155 dashboard.
func DefaultParameters() []Parameter {
	return []Parameter{
		{
			SPNName: "Engine Speed",
			Ranges: []Range{
				{Min: 0, Max: 1850, Color: ColorGreen},
				{Min: 1850, Max: 2000, Color: ColorAmber, Alert: "WARNING: Engine Speed Near Limit"},
				{Min: 2000, Max: 9999, Color: ColorRed, Alert: "CRITICAL: Engine Overspeed"},
			},
		},
		{
			SPNName: "Engine Oil Pressure",
			Ranges: []Range{
				{Min: 0, Max: 0.8, Color: ColorRed, Alert: "CRITICAL: Low Oil Pressure"},
				{Min: 0.8, Max: 999, Color: ColorGreen},
			},
		},
		{
			SPNName: "Engine Coolant Temperature",
			Ranges: []Range{
				{Min: 0, Max: 95, Color: ColorGreen},
				{Min: 95, Max: 999, Color: ColorRed, Alert: "CRITICAL: High Coolant Temperature"},
			},
		},
		{
			SPNName: "Hydraulic Temperature",
			Ranges: []Range{
				{Min: 0, Max: 105, Color: ColorGreen},
				{Min: 105, Max: 999, Color: ColorRed, Alert: "CRITICAL: High Hydraulic Oil Temperature"},
			},
		},
	}
}
