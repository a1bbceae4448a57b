package otter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAngle(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		unit     AngleUnit
		wantStr  string
		wantDeg  float64
		wantHour float64
	}{
		{name: "colon hourangle", input: "12:30:00", unit: UnitHourAngle, wantStr: "12h30m00s", wantDeg: 187.5, wantHour: 12.5},
		{name: "space hourangle", input: "12 30 00", unit: UnitHourAngle, wantStr: "12h30m00s", wantDeg: 187.5, wantHour: 12.5},
		{name: "fractional seconds", input: "05:06:07.25", unit: UnitHourAngle, wantStr: "5h06m07.25s", wantHour: 5 + 6.0/60 + 7.25/3600, wantDeg: 15 * (5 + 6.0/60 + 7.25/3600)},
		{name: "negative degrees", input: "-05:30:00", unit: UnitDegree, wantStr: "-5d30m00s", wantDeg: -5.5, wantHour: -5.5 / 15},
		{name: "positive sign", input: "+05:30:00", unit: UnitDegree, wantStr: "5d30m00s", wantDeg: 5.5, wantHour: 5.5 / 15},
		{name: "decimal string", input: "10.2345", unit: UnitDegree, wantStr: "10d14m04.2s", wantDeg: 10.2345, wantHour: 10.2345 / 15},
		{name: "number", input: 10.2345, unit: UnitDegree, wantStr: "10d14m04.2s", wantDeg: 10.2345, wantHour: 10.2345 / 15},
		{name: "lettered hours into degrees", input: "12h30m00s", unit: UnitDegree, wantStr: "187d30m00s", wantDeg: 187.5, wantHour: 12.5},
		{name: "lettered degrees", input: "-5d30m00s", unit: UnitDegree, wantStr: "-5d30m00s", wantDeg: -5.5, wantHour: -5.5 / 15},
		{name: "hours and minutes only", input: "12:30", unit: UnitHourAngle, wantStr: "12h30m00s", wantDeg: 187.5, wantHour: 12.5},
		{name: "seconds carry into minutes", input: "00:00:59.9999999999", unit: UnitHourAngle, wantStr: "0h01m00s", wantDeg: 15 * 59.9999999999 / 3600, wantHour: 59.9999999999 / 3600},
		{name: "negative zero", input: "-00:00:00", unit: UnitDegree, wantStr: "0d00m00s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAngle(tt.input, tt.unit)
			require.NoError(t, err)
			assert.Equal(t, tt.unit, a.Unit())
			assert.Equal(t, tt.wantStr, a.String())
			assert.InDelta(t, tt.wantDeg, a.Degrees(), 1e-9)
			assert.InDelta(t, tt.wantHour, a.Hours(), 1e-9)
		})
	}
}

func TestParseAngle_Invalid(t *testing.T) {
	inputs := []any{
		"",
		"abc",
		"12:61:00",
		"12:30:60",
		"12:30:00:00",
		"12h30d",
		"12:-30:00",
		"NaN",
		nil,
		[]any{12, 30},
	}
	for _, in := range inputs {
		_, err := ParseAngle(in, UnitDegree)
		assert.ErrorIs(t, err, ErrTypeConversion, "input %#v", in)
	}
}

func TestAngle_CanonicalStringParsesBack(t *testing.T) {
	for _, in := range []string{"12:30:00", "23:59:59.5", "00:00:01.125", "5:06:07"} {
		a, err := ParseAngle(in, UnitHourAngle)
		require.NoError(t, err)

		b, err := ParseAngle(a.String(), UnitHourAngle)
		require.NoError(t, err)
		assert.Equal(t, a.String(), b.String())
		assert.InDelta(t, a.Hours(), b.Hours(), 1e-12)
	}
}

func TestAngle_In(t *testing.T) {
	a := NewAngle(12.5, UnitHourAngle)
	d := a.In(UnitDegree)
	assert.Equal(t, UnitDegree, d.Unit())
	assert.InDelta(t, 187.5, d.Value(), 1e-12)
	assert.Equal(t, a, a.In(UnitHourAngle))
	assert.Equal(t, "hourangle", UnitHourAngle.String())
	assert.Equal(t, "deg", UnitDegree.String())
}
