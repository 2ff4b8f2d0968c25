package metar

import (
	"bufio"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAll(t *testing.T) {
	input := strings.Join([]string{
		"EGLL 281220Z 24015KT 9999 FEW020 12/08 Q1015",
		"",
		"LFPG 281200Z VRB02KT CAVOK 25/14 Q1018 NOSIG\r",
		"   ",
		"EDDF 281220Z 27010KT 9999 SCT030 18/10 Q1016 TEMPO 4000",
	}, "\n")

	d := NewDecoder(WithReferenceTime(midnightJune28.Add(24 * time.Hour)))
	results, err := d.DecodeAll(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].Line)
	assert.Equal(t, "EGLL", results[0].Report.Station)
	assert.Equal(t, 3, results[1].Line)
	assert.Equal(t, "LFPG", results[1].Report.Station)
	assert.Empty(t, results[1].Leftover)
	assert.Equal(t, 5, results[2].Line)
	assert.Equal(t, " TEMPO 4000", results[2].Leftover)
}

func TestDecodeAll_Empty(t *testing.T) {
	results, err := DecodeAll(strings.NewReader("\n\n"))
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDecodeAll_StopsAtFirstBadLine(t *testing.T) {
	input := "EGLL 281220Z 24015KT 9999 FEW020 12/08 Q1015\n" +
		"LFPG 281200Z VRB02KT CAVOK 25/14 Q1018\n" +
		"EGLL 281220Z 21007XX 9999 12/08 Q1015\n" +
		"EDDF 281220Z 27010KT 9999 SCT030 18/10 Q1016\n"

	d := NewDecoder(WithReferenceTime(midnightJune28.Add(24 * time.Hour)))
	results, err := d.DecodeAll(strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, results)

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 3, le.Line)
	assert.Equal(t, "EGLL 281220Z 21007XX 9999 12/08 Q1015", le.Text)
	assert.True(t, errors.Is(err, ErrMismatch))
	assert.Contains(t, err.Error(), "line 3")
}

func TestDecodeAll_StrictLeftoverFails(t *testing.T) {
	d := NewDecoder(WithStrict(true), WithReferenceTime(midnightJune28.Add(24*time.Hour)))
	_, err := d.DecodeAll(strings.NewReader("EGLL 281220Z 24015KT 9999 FEW020 12/08 Q1015 BECMG 4000\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTrailingInput))
}

func TestEach_CallbackErrorStops(t *testing.T) {
	stop := errors.New("stop")
	input := "EGLL 281220Z 24015KT 9999 FEW020 12/08 Q1015\n" +
		"LFPG 281200Z VRB02KT CAVOK 25/14 Q1018\n"

	d := NewDecoder(WithReferenceTime(midnightJune28.Add(24 * time.Hour)))
	calls := 0
	err := d.Each(strings.NewReader(input), func(Result) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestDecodeAll_LongLines(t *testing.T) {
	base := "EGLL 281220Z 24015KT 9999 FEW020 12/08 Q1015 "
	d := NewDecoder(WithReferenceTime(midnightJune28.Add(24 * time.Hour)))

	t.Run("beyond the default scanner buffer", func(t *testing.T) {
		line := base + strings.Repeat("X", 200*1024)
		results, err := d.DecodeAll(strings.NewReader(line + "\n"))
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Len(t, results[0].Leftover, 200*1024+1)
	})

	t.Run("beyond MaxLineLength", func(t *testing.T) {
		input := base + "\n" + base + strings.Repeat("X", MaxLineLength) + "\n"
		_, err := d.DecodeAll(strings.NewReader(input))
		require.Error(t, err)

		var le *LineError
		require.True(t, errors.As(err, &le))
		assert.Equal(t, 2, le.Line)
		assert.True(t, errors.Is(err, bufio.ErrTooLong))
	})
}
