package metar

// Direction is where the wind blows from: a heading, or VRB when it varies too much to report one.
type Direction struct {
	Variable bool  `json:"variable,omitempty"`
	Heading  Track `json:"heading"`
}

func (d Direction) String() string {
	if d.Variable {
		return "VRB"
	}
	return d.Heading.String()
}

// Variation is the "dddVddd" range a wind direction swings across.
type Variation struct {
	From Track `json:"from"`
	To   Track `json:"to"`
}

func (v Variation) String() string { return v.From.String() + "V" + v.To.String() }

// Wind is the surface wind group.
type Wind struct {
	Direction Direction  `json:"direction"`
	Velocity  Velocity   `json:"velocity"`
	Variation *Variation `json:"variation,omitempty"`
}

func (w Wind) String() string {
	out := w.Direction.String() + w.Velocity.String()
	if w.Variation != nil {
		out += " " + w.Variation.String()
	}
	return out
}

func decodeDirection(s *scanner) (Direction, error) {
	if s.literal("VRB") {
		return Direction{Variable: true}, nil
	}
	heading, err := decodeTrack("wind.direction")(s)
	if err != nil {
		return Direction{}, err
	}
	return Direction{Heading: heading}, nil
}

func decodeVariation(s *scanner) (Variation, error) {
	if err := s.expect("wind.variation", " "); err != nil {
		return Variation{}, err
	}
	from, err := decodeTrack("wind.variation.from")(s)
	if err != nil {
		return Variation{}, err
	}
	if err := s.expect("wind.variation", "V"); err != nil {
		return Variation{}, err
	}
	to, err := decodeTrack("wind.variation.to")(s)
	if err != nil {
		return Variation{}, err
	}
	return Variation{From: from, To: to}, nil
}

func decodeWind(s *scanner) (Wind, error) {
	dir, err := decodeDirection(s)
	if err != nil {
		return Wind{}, err
	}
	vel, err := decodeVelocity(s)
	if err != nil {
		return Wind{}, err
	}
	w := Wind{Direction: dir, Velocity: vel}
	if v, ok := maybe(s, decodeVariation); ok {
		w.Variation = &v
	}
	return w, nil
}
