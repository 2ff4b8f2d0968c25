package metar

import (
	"strconv"
	"strings"
)

// Fraction is a statute-mile fraction such as 1/4.
type Fraction struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

func (f Fraction) String() string { return strconv.Itoa(f.Num) + "/" + strconv.Itoa(f.Den) }

// StatuteMiles is a US-style visibility: "1 1/2SM", "1/4SM", "P6SM".
type StatuteMiles struct {
	Whole    *int             `json:"whole,omitempty"`
	Fraction *Fraction        `json:"fraction,omitempty"`
	Modifier DistanceModifier `json:"modifier,omitempty"`
}

func (m StatuteMiles) String() string {
	var b strings.Builder
	b.WriteString(m.Modifier.String())
	if m.Whole != nil {
		b.WriteString(strconv.Itoa(*m.Whole))
		if m.Fraction != nil {
			b.WriteByte(' ')
		}
	}
	if m.Fraction != nil {
		b.WriteString(m.Fraction.String())
	}
	b.WriteString("SM")
	return b.String()
}

// Visibility holds exactly one of Miles or Meters.
type Visibility struct {
	Meters *Field[int, W4] `json:"meters,omitempty"`
	Miles  *StatuteMiles   `json:"statute_miles,omitempty"`
}

func (v Visibility) String() string {
	if v.Miles != nil {
		return v.Miles.String()
	}
	if v.Meters != nil {
		return v.Meters.String()
	}
	return ""
}

// RVR is a runway visual range entry, e.g. R28L/P1500U or R06/2400FT.
// The value is in metres unless Feet is set.
type RVR struct {
	Runway   string           `json:"runway"`
	Modifier DistanceModifier `json:"modifier,omitempty"`
	Value    Field[int, W4]   `json:"value"`
	Feet     bool             `json:"feet,omitempty"`
	Trend    Trend            `json:"trend,omitempty"`
}

func (r RVR) String() string {
	out := "R" + r.Runway + "/" + r.Modifier.String() + r.Value.String()
	if r.Feet {
		out += "FT"
	}
	return out + r.Trend.String()
}

// Weather is one present-weather group, e.g. -SHRA or VCTS.
type Weather struct {
	Intensity  string   `json:"intensity,omitempty"`
	Descriptor string   `json:"descriptor,omitempty"`
	Phenomena  []string `json:"phenomena,omitempty"`
}

func (w Weather) String() string {
	return w.Intensity + w.Descriptor + strings.Join(w.Phenomena, "")
}

var (
	weatherIntensities = []string{"-", "+", "VC"}
	weatherDescriptors = []string{"MI", "PR", "BC", "DR", "BL", "SH", "TS", "FZ"}
	weatherPhenomena   = []string{
		"DZ", "RA", "SN", "SG", "IC", "PL", "GR", "GS", "UP",
		"BR", "FG", "FU", "VA", "DU", "SA", "HZ", "PY",
		"PO", "SQ", "FC", "SS", "DS",
	}
)

// Coverage is the sky fraction a cloud layer covers.
type Coverage int

const (
	Few Coverage = iota
	Scattered
	Broken
	Overcast
	VerticalVisibility
)

var coverageTokens = []string{"FEW", "SCT", "BKN", "OVC", "VV"}

func (c Coverage) String() string                { return tokenOf(coverageTokens, c) }
func (c Coverage) MarshalText() ([]byte, error)  { return []byte(c.String()), nil }
func (c *Coverage) UnmarshalText(b []byte) error { return parseToken(coverageTokens, b, c) }

// IsCeiling reports whether a layer of this coverage counts as a ceiling.
func (c Coverage) IsCeiling() bool {
	return c == Broken || c == Overcast || c == VerticalVisibility
}

// Cloud is one cloud layer, e.g. BKN025CB.
type Cloud struct {
	Coverage Field[Coverage, W3]    `json:"coverage"`
	Height   Field[CloudHeight, W3] `json:"height"`
	Type     *Field[string, W3]     `json:"type,omitempty"`
}

func (c Cloud) String() string {
	out := c.Coverage.String() + c.Height.String()
	if c.Type != nil {
		out += c.Type.String()
	}
	return out
}

// SkyCondition is a no-cloud marker reported in place of cloud layers.
type SkyCondition int

const (
	SkyLayered SkyCondition = iota
	SkyClear
	Clear
	NoSignificantCloud
	NoCloudDetected
)

var skyTokens = []string{"", "SKC", "CLR", "NSC", "NCD"}

func (c SkyCondition) String() string                { return tokenOf(skyTokens, c) }
func (c SkyCondition) MarshalText() ([]byte, error)  { return []byte(c.String()), nil }
func (c *SkyCondition) UnmarshalText(b []byte) error { return parseToken(skyTokens, b, c) }

// Obscuration is either CAVOK or the detailed visibility, RVR, weather and sky groups.
type Obscuration struct {
	CAVOK      bool         `json:"cavok,omitempty"`
	Visibility *Visibility  `json:"visibility,omitempty"`
	RVR        []RVR        `json:"rvr,omitempty"`
	Weather    []Weather    `json:"weather,omitempty"`
	Clouds     []Cloud      `json:"clouds,omitempty"`
	Sky        SkyCondition `json:"sky,omitempty"`
}

func (o Obscuration) String() string {
	if o.CAVOK {
		return "CAVOK"
	}
	var b strings.Builder
	if o.Visibility != nil {
		b.WriteString(o.Visibility.String())
	}
	for _, r := range o.RVR {
		b.WriteString(" " + r.String())
	}
	for _, w := range o.Weather {
		b.WriteString(" " + w.String())
	}
	for _, c := range o.Clouds {
		b.WriteString(" " + c.String())
	}
	if o.Sky != SkyLayered {
		b.WriteString(" " + o.Sky.String())
	}
	return b.String()
}

func decodeObscuration(s *scanner) (Obscuration, error) {
	if s.literal("CAVOK") {
		return Obscuration{CAVOK: true}, nil
	}
	vis, err := decodeVisibility(s)
	if err != nil {
		return Obscuration{}, furthest(err, s.mismatch("visibility", `"CAVOK", statute miles or 4-digit metres`))
	}
	o := Obscuration{Visibility: &vis}
	for !s.done() {
		r, ok := maybe(s, decodeRVR)
		if !ok {
			break
		}
		o.RVR = append(o.RVR, r)
	}
	for !s.done() {
		w, ok := maybe(s, decodeWeather)
		if !ok {
			break
		}
		o.Weather = append(o.Weather, w)
	}
	for !s.done() {
		c, ok := maybe(s, decodeCloud)
		if !ok {
			break
		}
		o.Clouds = append(o.Clouds, c)
	}
	if len(o.Clouds) == 0 {
		if sky, ok := maybe(s, decodeSky); ok {
			o.Sky = sky
		}
	}
	return o, nil
}

func decodeVisibility(s *scanner) (Visibility, error) {
	miles, errMiles := attempt(s, decodeStatuteMiles)
	if errMiles == nil {
		return Visibility{Miles: &miles}, nil
	}
	meters, errMeters := attempt(s, fourDigits("visibility.meters"))
	if errMeters == nil {
		return Visibility{Meters: &meters}, nil
	}
	return Visibility{}, furthest(errMiles, errMeters)
}

func decodeFraction(s *scanner) (Fraction, error) {
	num, err := s.digitRun("visibility.fraction", 1, 2)
	if err != nil {
		return Fraction{}, err
	}
	if err := s.expect("visibility.fraction", "/"); err != nil {
		return Fraction{}, err
	}
	den, err := s.digitRun("visibility.fraction", 1, 2)
	if err != nil {
		return Fraction{}, err
	}
	return Fraction{Num: num, Den: den}, nil
}

// decodeStatuteMiles tries the fraction-only form before the whole-number form.
func decodeStatuteMiles(s *scanner) (StatuteMiles, error) {
	fractionOnly := func(s *scanner) (StatuteMiles, error) {
		mod := decodeModifier(s)
		f, err := decodeFraction(s)
		if err != nil {
			return StatuteMiles{}, err
		}
		if err := s.expect("visibility.miles", "SM"); err != nil {
			return StatuteMiles{}, err
		}
		return StatuteMiles{Fraction: &f, Modifier: mod}, nil
	}
	whole := func(s *scanner) (StatuteMiles, error) {
		mod := decodeModifier(s)
		n, err := s.digitRun("visibility.miles", 1, 2)
		if err != nil {
			return StatuteMiles{}, err
		}
		m := StatuteMiles{Whole: &n, Modifier: mod}
		if f, ok := maybe(s, func(s *scanner) (Fraction, error) {
			if err := s.expect("visibility.fraction", " "); err != nil {
				return Fraction{}, err
			}
			return decodeFraction(s)
		}); ok {
			m.Fraction = &f
		}
		if err := s.expect("visibility.miles", "SM"); err != nil {
			return StatuteMiles{}, err
		}
		return m, nil
	}
	m, errFraction := attempt(s, fractionOnly)
	if errFraction == nil {
		return m, nil
	}
	m, errWhole := attempt(s, whole)
	if errWhole == nil {
		return m, nil
	}
	return StatuteMiles{}, furthest(errFraction, errWhole)
}

func decodeRVR(s *scanner) (RVR, error) {
	if err := s.expect("rvr", " R"); err != nil {
		return RVR{}, err
	}
	runway, err := s.alnumRun("rvr.runway")
	if err != nil {
		return RVR{}, err
	}
	if err := s.expect("rvr", "/"); err != nil {
		return RVR{}, err
	}
	mod := decodeModifier(s)
	value, err := fourDigits("rvr.value")(s)
	if err != nil {
		return RVR{}, err
	}
	feet := s.literal("FT")
	return RVR{Runway: runway, Modifier: mod, Value: value, Feet: feet, Trend: decodeTrend(s)}, nil
}

func decodeWeather(s *scanner) (Weather, error) {
	if err := s.expect("weather", " "); err != nil {
		return Weather{}, err
	}
	var w Weather
	if tok, err := s.oneOf("weather.intensity", weatherIntensities...); err == nil {
		w.Intensity = tok
	}
	if tok, err := s.oneOf("weather.descriptor", weatherDescriptors...); err == nil {
		w.Descriptor = tok
	}
	for {
		tok, err := s.oneOf("weather.phenomenon", weatherPhenomena...)
		if err != nil {
			break
		}
		w.Phenomena = append(w.Phenomena, tok)
	}
	if w.Descriptor == "" && len(w.Phenomena) == 0 {
		return Weather{}, s.mismatch("weather", "weather descriptor or phenomenon")
	}
	if !s.done() && s.src[s.pos] != ' ' {
		return Weather{}, s.mismatch("weather", "end of weather group")
	}
	return w, nil
}

func decodeCloud(s *scanner) (Cloud, error) {
	if err := s.expect("cloud", " "); err != nil {
		return Cloud{}, err
	}
	coverage, err := optional[Coverage, W3]("cloud.coverage", func(s *scanner) (Coverage, error) {
		tok, err := s.oneOf("cloud.coverage", coverageTokens...)
		return Coverage(indexOf(coverageTokens, tok)), err
	})(s)
	if err != nil {
		return Cloud{}, err
	}
	height, err := decodeCloudHeight(s)
	if err != nil {
		return Cloud{}, err
	}
	c := Cloud{Coverage: coverage, Height: height}
	if typ, ok := maybe(s, optional[string, W3]("cloud.type", func(s *scanner) (string, error) {
		return s.alnumRun("cloud.type")
	})); ok {
		c.Type = &typ
	}
	return c, nil
}

func decodeSky(s *scanner) (SkyCondition, error) {
	if err := s.expect("sky", " "); err != nil {
		return SkyLayered, err
	}
	tok, err := s.oneOf("sky", skyTokens[1:]...)
	if err != nil {
		return SkyLayered, err
	}
	return SkyCondition(indexOf(skyTokens, tok)), nil
}
