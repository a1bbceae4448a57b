package otter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AngleUnit is the unit an angle value is expressed in.
type AngleUnit int

const (
	UnitDegree AngleUnit = iota
	UnitHourAngle
)

func (u AngleUnit) String() string {
	if u == UnitHourAngle {
		return "hourangle"
	}
	return "deg"
}

func (u AngleUnit) symbol() string {
	if u == UnitHourAngle {
		return "h"
	}
	return "d"
}

// Angle is a sky angle held in a fixed unit.
type Angle struct {
	value float64
	unit  AngleUnit
}

// NewAngle returns an angle of value expressed in unit.
func NewAngle(value float64, unit AngleUnit) Angle {
	return Angle{value: value, unit: unit}
}

func (a Angle) Value() float64  { return a.value }
func (a Angle) Unit() AngleUnit { return a.unit }

func (a Angle) Degrees() float64 {
	if a.unit == UnitHourAngle {
		return a.value * 15
	}
	return a.value
}

func (a Angle) Hours() float64 {
	if a.unit == UnitHourAngle {
		return a.value
	}
	return a.value / 15
}

// In converts the angle to unit.
func (a Angle) In(unit AngleUnit) Angle {
	if unit == a.unit {
		return a
	}
	if unit == UnitHourAngle {
		return Angle{value: a.Hours(), unit: unit}
	}
	return Angle{value: a.Degrees(), unit: unit}
}

// nanoseconds of arc (or time) per second field, used for rounding
const angleScale = 1e9

// String formats the angle sexagesimally in its own unit, e.g. 12h30m00s or
// -5d30m00.25s. Fractional seconds drop trailing zeros.
func (a Angle) String() string {
	v := a.value
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	units := int64(math.Round(v * 3600 * angleScale))
	if units == 0 {
		sign = ""
	}
	perMinute := int64(60 * angleScale)
	perLead := int64(3600 * angleScale)

	lead := units / perLead
	minutes := (units / perMinute) % 60
	rem := units % perMinute
	secWhole := rem / int64(angleScale)
	secFrac := rem % int64(angleScale)

	seconds := fmt.Sprintf("%02d", secWhole)
	if secFrac > 0 {
		seconds += "." + strings.TrimRight(fmt.Sprintf("%09d", secFrac), "0")
	}
	return fmt.Sprintf("%s%d%s%02dm%ss", sign, lead, a.unit.symbol(), minutes, seconds)
}

var angleSeparators = strings.NewReplacer(
	":", " ", "h", " ", "d", " ", "m", " ", "s", " ",
	"°", " ", "'", " ", "\"", " ", "′", " ", "″", " ",
)

// ParseAngle parses v as an angle in unit. Strings may be decimal, space or
// colon separated sexagesimal, or lettered (12h30m00s, -5d30m00s); a lettered
// unit overrides unit and the value is converted.
func ParseAngle(v any, unit AngleUnit) (Angle, error) {
	s, ok := v.(string)
	if !ok {
		f, err := toFloat("value", v)
		if err != nil {
			return Angle{}, NewTypeConversionError("value", v, "angle")
		}
		return Angle{value: f, unit: unit}, nil
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return Angle{}, NewTypeConversionError("value", v, "angle")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return Angle{}, NewTypeConversionError("value", v, "angle")
		}
		return Angle{value: f, unit: unit}, nil
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parsedUnit := unit
	hasHour := strings.Contains(s, "h")
	hasDeg := strings.Contains(s, "d") || strings.Contains(s, "°")
	switch {
	case hasHour && hasDeg:
		return Angle{}, NewTypeConversionError("value", v, "angle")
	case hasHour:
		parsedUnit = UnitHourAngle
	case hasDeg:
		parsedUnit = UnitDegree
	}

	fields := strings.Fields(angleSeparators.Replace(s))
	if len(fields) == 0 || len(fields) > 3 {
		return Angle{}, NewTypeConversionError("value", v, "angle")
	}

	total := 0.0
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return Angle{}, NewTypeConversionError("value", v, "angle")
		}
		if i > 0 && f >= 60 {
			return Angle{}, NewTypeConversionError("value", v, "angle").
				WithDetail("reason", "minutes and seconds must be below 60")
		}
		total += f / math.Pow(60, float64(i))
	}
	if negative {
		total = -total
	}

	return Angle{value: total, unit: parsedUnit}.In(unit), nil
}
