package alert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Evaluator(t *testing.T) {
	testCases := []struct {
		name     string
		spnName  string
		value    float64
		expect   Result
		expectOk bool
	}{
		{
			name:     "nominal engine speed",
			spnName:  "Engine Speed",
			value:    1200,
			expect:   Result{Color: ColorGreen},
			expectOk: true,
		},
		{
			name:     "boundary goes to first range",
			spnName:  "Engine Speed",
			value:    1850,
			expect:   Result{Color: ColorGreen},
			expectOk: true,
		},
		{
			name:     "near limit",
			spnName:  "Engine Speed",
			value:    1900,
			expect:   Result{Color: ColorAmber, Alert: "WARNING: Engine Speed Near Limit"},
			expectOk: true,
		},
		{
			name:     "overspeed",
			spnName:  "Engine Speed",
			value:    2100,
			expect:   Result{Color: ColorRed, Alert: "CRITICAL: Engine Overspeed", HasBuzzer: true},
			expectOk: true,
		},
		{
			name:     "low oil pressure",
			spnName:  "Engine Oil Pressure",
			value:    0.5,
			expect:   Result{Color: ColorRed, Alert: "CRITICAL: Low Oil Pressure", HasBuzzer: true},
			expectOk: true,
		},
		{
			name:     "negative coolant temperature",
			spnName:  "Engine Coolant Temperature",
			value:    -10,
			expect:   Result{Color: ColorRed, Alert: "CRITICAL: Engine Coolant Temperature Out of Range", HasBuzzer: true},
			expectOk: true,
		},
		{
			name:     "not a number",
			spnName:  "Hydraulic Temperature",
			value:    math.NaN(),
			expect:   Result{Color: ColorRed, Alert: "CRITICAL: Hydraulic Temperature Out of Range", HasBuzzer: true},
			expectOk: true,
		},
		{
			name:    "not monitored",
			spnName: "Fuel Temperature",
			value:   50,
		},
	}

	e := NewDefaultEvaluator()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			res, ok := e.Evaluate(tc.spnName, tc.value)
			assert.Equal(tc.expectOk, ok)
			assert.Equal(tc.expect, res)
		})
	}
}

func Test_Evaluator_Custom(t *testing.T) {
	assert := assert.New(t)

	e := NewEvaluator(Parameter{
		SPNName: "Fuel Temperature",
		Ranges:  []Range{{Min: -40, Max: 80, Color: ColorGreen}},
	})

	res, ok := e.Evaluate("Fuel Temperature", -20)
	assert.True(ok)
	assert.Equal(ColorGreen, res.Color)
	assert.False(res.HasBuzzer)

	_, ok = e.Evaluate("Engine Speed", 100)
	assert.False(ok)
}
