package metar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func decodeObscurationString(t *testing.T, in string) Obscuration {
	t.Helper()
	s := newScanner(in)
	got, err := decodeObscuration(s)
	require.NoError(t, err, in)
	assert.True(t, s.done(), "leftover %q", s.rest())
	assert.Equal(t, in, got.String(), "render")
	return got
}

func TestObscuration_CAVOK(t *testing.T) {
	got := decodeObscurationString(t, "CAVOK")
	assert.Equal(t, Obscuration{CAVOK: true}, got)
}

func TestObscuration_Meters(t *testing.T) {
	got := decodeObscurationString(t, "9999")
	require.NotNil(t, got.Visibility)
	require.NotNil(t, got.Visibility.Meters)
	assert.Nil(t, got.Visibility.Miles)
	v, ok := got.Visibility.Meters.Value()
	assert.True(t, ok)
	assert.Equal(t, 9999, v)

	missing := decodeObscurationString(t, "////")
	assert.True(t, missing.Visibility.Meters.IsMissing())
}

func TestObscuration_StatuteMiles(t *testing.T) {
	tests := []struct {
		in   string
		want StatuteMiles
	}{
		{"10SM", StatuteMiles{Whole: intPtr(10)}},
		{"1 1/2SM", StatuteMiles{Whole: intPtr(1), Fraction: &Fraction{Num: 1, Den: 2}}},
		{"1/2SM", StatuteMiles{Fraction: &Fraction{Num: 1, Den: 2}}},
		{"M1/4SM", StatuteMiles{Fraction: &Fraction{Num: 1, Den: 4}, Modifier: LessThan}},
		{"P6SM", StatuteMiles{Whole: intPtr(6), Modifier: GreaterThan}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := decodeObscurationString(t, tc.in)
			require.NotNil(t, got.Visibility)
			require.NotNil(t, got.Visibility.Miles)
			assert.Equal(t, tc.want, *got.Visibility.Miles)
		})
	}
}

func TestObscuration_RVR(t *testing.T) {
	got := decodeObscurationString(t, "2000 R24/P1500U R06L/0800FT R09/////")
	require.Len(t, got.RVR, 3)

	assert.Equal(t, RVR{Runway: "24", Modifier: GreaterThan, Value: Present[int, W4](1500), Trend: Increasing}, got.RVR[0])
	assert.Equal(t, RVR{Runway: "06L", Value: Present[int, W4](800), Feet: true}, got.RVR[1])
	assert.Equal(t, RVR{Runway: "09", Value: Missing[int, W4]()}, got.RVR[2])
}

func TestObscuration_WeatherAndClouds(t *testing.T) {
	got := decodeObscurationString(t, "3SM -SHRA BR FEW008 BKN025CB OVC040///")

	assert.Equal(t, []Weather{
		{Intensity: "-", Descriptor: "SH", Phenomena: []string{"RA"}},
		{Phenomena: []string{"BR"}},
	}, got.Weather)

	cb := Present[string, W3]("CB")
	untyped := Missing[string, W3]()
	assert.Equal(t, []Cloud{
		{Coverage: Present[Coverage, W3](Few), Height: Present[CloudHeight, W3](8)},
		{Coverage: Present[Coverage, W3](Broken), Height: Present[CloudHeight, W3](25), Type: &cb},
		{Coverage: Present[Coverage, W3](Overcast), Height: Present[CloudHeight, W3](40), Type: &untyped},
	}, got.Clouds)
}

func TestObscuration_VerticalVisibility(t *testing.T) {
	got := decodeObscurationString(t, "0100 FG VV001")
	require.Len(t, got.Clouds, 1)
	cov, _ := got.Clouds[0].Coverage.Value()
	assert.Equal(t, VerticalVisibility, cov)
	assert.True(t, cov.IsCeiling())
}

func TestObscuration_MissingCloudLayer(t *testing.T) {
	got := decodeObscurationString(t, "9999 //////")
	require.Len(t, got.Clouds, 1)
	assert.True(t, got.Clouds[0].Coverage.IsMissing())
	assert.True(t, got.Clouds[0].Height.IsMissing())
}

func TestObscuration_SkyCondition(t *testing.T) {
	for in, want := range map[string]SkyCondition{
		"10SM CLR": Clear,
		"9999 NSC": NoSignificantCloud,
		"9999 NCD": NoCloudDetected,
		"10SM SKC": SkyClear,
	} {
		got := decodeObscurationString(t, in)
		assert.Equal(t, want, got.Sky, in)
		assert.Empty(t, got.Clouds, in)
	}
}

func TestObscuration_StopsAtTemperature(t *testing.T) {
	s := newScanner("9999 FEW020 M05/M07")
	got, err := decodeObscuration(s)
	require.NoError(t, err)
	assert.Len(t, got.Clouds, 1)
	assert.Equal(t, " M05/M07", s.rest())
}

func TestObscuration_Errors(t *testing.T) {
	_, err := decodeObscuration(newScanner("///"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedMissing))

	_, err = decodeObscuration(newScanner("XYZ"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMismatch))

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "visibility", pe.Field)
}
