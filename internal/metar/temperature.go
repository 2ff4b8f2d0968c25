package metar

// Temperature is the air temperature and dew point pair, each independently reportable as missing.
type Temperature struct {
	Air      Field[Celsius, W2] `json:"air"`
	DewPoint Field[Celsius, W2] `json:"dew_point"`
}

func (t Temperature) String() string { return t.Air.String() + "/" + t.DewPoint.String() }

func decodeTemperature(s *scanner) (Temperature, error) {
	air, err := optional[Celsius, W2]("temperature.air", decodeCelsius("temperature.air"))(s)
	if err != nil {
		return Temperature{}, err
	}
	if err := s.expect("temperature", "/"); err != nil {
		return Temperature{}, err
	}
	dew, err := optional[Celsius, W2]("temperature.dew_point", decodeCelsius("temperature.dew_point"))(s)
	if err != nil {
		return Temperature{}, err
	}
	return Temperature{Air: air, DewPoint: dew}, nil
}
