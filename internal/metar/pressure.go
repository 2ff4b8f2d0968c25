package metar

// Pressure is the altimeter group: Q1013 in hectopascals or A2992 in hundredths of inHg.
type Pressure struct {
	Unit  PressureUnit   `json:"unit"`
	Value Field[int, W4] `json:"value"`
}

func (p Pressure) String() string { return p.Unit.String() + p.Value.String() }

func decodePressure(s *scanner) (Pressure, error) {
	unit, err := decodePressureUnit(s)
	if err != nil {
		return Pressure{}, err
	}
	value, err := fourDigits("pressure.value")(s)
	if err != nil {
		return Pressure{}, err
	}
	return Pressure{Unit: unit, Value: value}, nil
}
