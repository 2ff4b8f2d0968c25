package metar

import (
	"fmt"
	"strconv"
)

// Track is a compass heading in whole degrees, 0 through 360.
type Track = Field[int, W3]

// Speed is a wind speed in the unit carried by its Velocity.
type Speed = Field[int, W2]

// SpeedUnit is the unit tag that closes a velocity group.
type SpeedUnit int

const (
	Knots SpeedUnit = iota
	MetersPerSecond
)

var speedUnitTokens = []string{"KT", "MPS"}

func (u SpeedUnit) String() string                { return tokenOf(speedUnitTokens, u) }
func (u SpeedUnit) MarshalText() ([]byte, error)  { return []byte(u.String()), nil }
func (u *SpeedUnit) UnmarshalText(b []byte) error { return parseToken(speedUnitTokens, b, u) }

// Velocity is a wind speed with optional gust.
type Velocity struct {
	Speed Speed     `json:"speed"`
	Gust  *Speed    `json:"gust,omitempty"`
	Unit  SpeedUnit `json:"unit"`
}

// MaxSpeed returns the gust when one was reported, otherwise the sustained speed.
func (v Velocity) MaxSpeed() (int, bool) {
	if v.Gust != nil {
		return v.Gust.Value()
	}
	return v.Speed.Value()
}

func (v Velocity) String() string {
	out := v.Speed.String()
	if v.Gust != nil {
		out += "G" + v.Gust.String()
	}
	return out + v.Unit.String()
}

// CloudHeight is a cloud base in hundreds of feet, as reported.
type CloudHeight int

// Feet applies the implicit hundreds-of-feet scale.
func (h CloudHeight) Feet() int { return int(h) * 100 }

func (h CloudHeight) String() string { return fmt.Sprintf("%03d", int(h)) }

// Celsius is a whole-degree temperature. Negative values use the M marker on
// the wire; M00 decodes as 0 and loses its sign.
type Celsius int

func (c Celsius) String() string {
	if c < 0 {
		return fmt.Sprintf("M%02d", -int(c))
	}
	return fmt.Sprintf("%02d", int(c))
}

// PressureUnit tags the altimeter setting.
type PressureUnit int

const (
	Hectopascals PressureUnit = iota
	InchesOfMercury
)

var pressureUnitTokens = []string{"Q", "A"}

func (u PressureUnit) String() string                { return tokenOf(pressureUnitTokens, u) }
func (u PressureUnit) MarshalText() ([]byte, error)  { return []byte(u.String()), nil }
func (u *PressureUnit) UnmarshalText(b []byte) error { return parseToken(pressureUnitTokens, b, u) }

// DistanceModifier marks a distance as a bound rather than an exact value.
type DistanceModifier int

const (
	Exact DistanceModifier = iota
	LessThan
	GreaterThan
)

var distanceModifierTokens = []string{"", "M", "P"}

func (m DistanceModifier) String() string                { return tokenOf(distanceModifierTokens, m) }
func (m DistanceModifier) MarshalText() ([]byte, error)  { return []byte(m.String()), nil }
func (m *DistanceModifier) UnmarshalText(b []byte) error { return parseToken(distanceModifierTokens, b, m) }

// Trend is the tendency reported after a runway visual range.
type Trend int

const (
	NoTrend Trend = iota
	Decreasing
	Increasing
	NoDistinctChange
)

var trendTokens = []string{"", "D", "U", "N"}

func (t Trend) String() string                { return tokenOf(trendTokens, t) }
func (t Trend) MarshalText() ([]byte, error)  { return []byte(t.String()), nil }
func (t *Trend) UnmarshalText(b []byte) error { return parseToken(trendTokens, b, t) }

func decodeTrack(field string) decodeFunc[Track] {
	return optional[int, W3](field, func(s *scanner) (int, error) {
		start := s.pos
		v, err := s.digits(field, 3)
		if err != nil {
			return 0, err
		}
		if v > 360 {
			return 0, s.fail(field, "heading 000..360", ErrOutOfRange, start)
		}
		return v, nil
	})
}

func decodeSpeed(field string) decodeFunc[Speed] {
	return optional[int, W2](field, func(s *scanner) (int, error) {
		return s.digitRun(field, 2, 3)
	})
}

func decodeVelocity(s *scanner) (Velocity, error) {
	speed, err := decodeSpeed("wind.speed")(s)
	if err != nil {
		return Velocity{}, err
	}
	var v Velocity
	v.Speed = speed
	if s.literal("G") {
		gust, err := decodeSpeed("wind.gust")(s)
		if err != nil {
			return Velocity{}, err
		}
		v.Gust = &gust
	}
	tok, err := s.oneOf("wind.unit", speedUnitTokens...)
	if err != nil {
		return Velocity{}, err
	}
	v.Unit = SpeedUnit(indexOf(speedUnitTokens, tok))
	return v, nil
}

func decodeCloudHeight(s *scanner) (Field[CloudHeight, W3], error) {
	return optional[CloudHeight, W3]("cloud.height", func(s *scanner) (CloudHeight, error) {
		v, err := s.digits("cloud.height", 3)
		return CloudHeight(v), err
	})(s)
}

// decodeCelsius reads an optional M marker followed by one or two digits.
func decodeCelsius(field string) decodeFunc[Celsius] {
	return func(s *scanner) (Celsius, error) {
		negative := s.literal("M")
		v, err := s.digitRun(field, 1, 2)
		if err != nil {
			return 0, err
		}
		if negative {
			v = -v
		}
		return Celsius(v), nil
	}
}

func decodePressureUnit(s *scanner) (PressureUnit, error) {
	tok, err := s.oneOf("pressure.unit", pressureUnitTokens...)
	if err != nil {
		return 0, err
	}
	return PressureUnit(indexOf(pressureUnitTokens, tok)), nil
}

// decodeModifier never fails: no marker means Exact.
func decodeModifier(s *scanner) DistanceModifier {
	switch {
	case s.literal("M"):
		return LessThan
	case s.literal("P"):
		return GreaterThan
	}
	return Exact
}

// decodeTrend never fails: no marker means NoTrend.
func decodeTrend(s *scanner) Trend {
	switch {
	case s.literal("D"):
		return Decreasing
	case s.literal("U"):
		return Increasing
	case s.literal("N"):
		return NoDistinctChange
	}
	return NoTrend
}

// fourDigits decodes a width-4 numeric field such as visibility or pressure.
func fourDigits(field string) decodeFunc[Field[int, W4]] {
	return optional[int, W4](field, func(s *scanner) (int, error) {
		return s.digits(field, 4)
	})
}

func tokenOf[E ~int](tokens []string, e E) string {
	if int(e) < 0 || int(e) >= len(tokens) {
		return "?" + strconv.Itoa(int(e))
	}
	return tokens[e]
}

func parseToken[E ~int](tokens []string, b []byte, dst *E) error {
	i := indexOf(tokens, string(b))
	if i < 0 {
		return fmt.Errorf("unknown token %q", b)
	}
	*dst = E(i)
	return nil
}

func indexOf(tokens []string, tok string) int {
	for i, t := range tokens {
		if t == tok {
			return i
		}
	}
	return -1
}
