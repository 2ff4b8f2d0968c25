package metar

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeTimestampAt(t *testing.T, in string, ref time.Time) (Timestamp, error) {
	t.Helper()
	s := newScanner(in)
	ts, err := decodeTimestamp(ref)(s)
	if err == nil {
		assert.True(t, s.done(), "timestamp should consume %q", in)
	}
	return ts, err
}

func TestTimestamp_Resolution(t *testing.T) {
	afternoon := time.Date(2025, time.June, 28, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		ref  time.Time
		want time.Time
	}{
		{
			name: "same day earlier",
			in:   "281250Z",
			ref:  afternoon,
			want: time.Date(2025, time.June, 28, 12, 50, 0, 0, time.UTC),
		},
		{
			name: "day before",
			in:   "271250Z",
			ref:  afternoon,
			want: time.Date(2025, time.June, 27, 12, 50, 0, 0, time.UTC),
		},
		{
			name: "late previous evening against midnight",
			in:   "272350Z",
			ref:  time.Date(2025, time.June, 28, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, time.June, 27, 23, 50, 0, 0, time.UTC),
		},
		{
			name: "later day belongs to previous month",
			in:   "291250Z",
			ref:  afternoon,
			want: time.Date(2025, time.May, 29, 12, 50, 0, 0, time.UTC),
		},
		{
			name: "equal triple stays in reference month",
			in:   "281600Z",
			ref:  afternoon,
			want: time.Date(2025, time.June, 28, 16, 0, 0, 0, time.UTC),
		},
		{
			name: "one minute later rolls back",
			in:   "281601Z",
			ref:  afternoon,
			want: time.Date(2025, time.May, 28, 16, 1, 0, 0, time.UTC),
		},
		{
			name: "january rolls back the year",
			in:   "151200Z",
			ref:  time.Date(2025, time.January, 5, 9, 0, 0, 0, time.UTC),
			want: time.Date(2024, time.December, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "leap day",
			in:   "291200Z",
			ref:  time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeTimestampAt(t, tc.in, tc.ref)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got.Time), "want %s, got %s", tc.want, got.Time)
		})
	}
}

func TestTimestamp_KeepsReferenceZone(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	ref := time.Date(2025, time.June, 28, 16, 0, 0, 0, zone)

	got, err := decodeTimestampAt(t, "281250Z", ref)
	require.NoError(t, err)
	assert.Equal(t, zone, got.Location())
	assert.Equal(t, 12, got.Hour())
}

func TestTimestamp_RejectsImpossibleDates(t *testing.T) {
	may := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		ref  time.Time
	}{
		{"april 31", "311200Z", may},
		{"day zero", "001200Z", may},
		{"hour 24", "012400Z", time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)},
		{"minute 60", "011260Z", time.Date(2025, time.May, 2, 0, 0, 0, 0, time.UTC)},
		{"february 30", "301200Z", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{"skipped by spring forward", "090230Z", time.Date(2025, time.March, 9, 12, 0, 0, 0, newYork)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeTimestampAt(t, tc.in, tc.ref)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOutOfRange))
		})
	}
}

func TestTimestamp_Malformed(t *testing.T) {
	ref := time.Date(2025, time.June, 28, 16, 0, 0, 0, time.UTC)

	for _, in := range []string{"2812Z", "281250", "281250X", "28A250Z"} {
		_, err := decodeTimestampAt(t, in, ref)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrMismatch), in)
	}
}

func TestTimestamp_String(t *testing.T) {
	ts := Timestamp{Time: time.Date(2025, time.June, 28, 12, 20, 0, 0, time.UTC)}
	assert.Equal(t, "281220Z", ts.String())

	got, err := decodeTimestampAt(t, ts.String(), time.Date(2025, time.June, 28, 16, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got.Time))
}
