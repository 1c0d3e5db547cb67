package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCSVBasic(t *testing.T) {
	in := strings.NewReader(
		"Date,Distance,Time,Avg HR\n" +
			"2025-03-05 07:30:00,10.2,55:30,148\n" +
			"2025-03-03 06:45:00,8.0,45:00,\n")

	runs, err := ParseCSV(in, "km")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Sorted ascending regardless of file order.
	require.True(t, runs[0].StartTime.Before(runs[1].StartTime))
	require.Equal(t, 8000.0, runs[0].DistanceM)
	require.Equal(t, 2700.0, runs[0].DurationS)
	require.Nil(t, runs[0].AvgHR)

	require.Equal(t, 10200.0, runs[1].DistanceM)
	require.Equal(t, 3330.0, runs[1].DurationS)
	require.NotNil(t, runs[1].AvgHR)
	require.Equal(t, 148.0, *runs[1].AvgHR)
}

func TestParseCSVDialects(t *testing.T) {
	t.Run("activity date with long heart rate name", func(t *testing.T) {
		in := strings.NewReader(
			"Activity Date,Distance,Time,Average Heart Rate\n" +
				"2025-03-03,8.5,2700,150\n")

		runs, err := ParseCSV(in, "km")
		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.Equal(t, 8500.0, runs[0].DistanceM)
		require.Equal(t, 150.0, *runs[0].AvgHR)
	})

	t.Run("start time with elapsed time", func(t *testing.T) {
		in := strings.NewReader(
			"Start Time,Distance,Elapsed Time\n" +
				"2025-03-03T06:45:00Z,5.0,1:02:30\n")

		runs, err := ParseCSV(in, "km")
		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.Equal(t, 3750.0, runs[0].DurationS)
		require.Equal(t, time.Date(2025, 3, 3, 6, 45, 0, 0, time.UTC), runs[0].StartTime)
	})

	t.Run("unit carried by the column name", func(t *testing.T) {
		in := strings.NewReader(
			"Date,Distance Mi,Time\n" +
				"2025-03-03,3.0,1800\n")

		runs, err := ParseCSV(in, "km")
		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.InDelta(t, 3.0*1609.344, runs[0].DistanceM, 1e-9)
	})
}

func TestParseCSVDefaultUnits(t *testing.T) {
	const body = "Date,Distance,Time\n2025-03-03,5.0,1800\n"

	for unit, wantM := range map[string]float64{
		"km": 5000.0,
		"m":  5.0,
		"mi": 5.0 * 1609.344,
	} {
		runs, err := ParseCSV(strings.NewReader(body), unit)
		require.NoError(t, err, "unit %s", unit)
		require.Len(t, runs, 1)
		require.InDelta(t, wantM, runs[0].DistanceM, 1e-9, "unit %s", unit)
	}
}

func TestParseCSVDropsNonPositiveRows(t *testing.T) {
	in := strings.NewReader(
		"Date,Distance,Time\n" +
			"2025-03-03,0,1800\n" +
			"2025-03-04,5.0,0\n" +
			"2025-03-05,5.0,1800\n")

	runs, err := ParseCSV(in, "km")
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestParseCSVRowErrorsFailTheFile(t *testing.T) {
	t.Run("bad start time", func(t *testing.T) {
		in := strings.NewReader("Date,Distance,Time\nnot-a-date,5.0,1800\n")
		_, err := ParseCSV(in, "km")
		require.Error(t, err)
		require.Contains(t, err.Error(), "row 2")
	})

	t.Run("bad duration", func(t *testing.T) {
		in := strings.NewReader("Date,Distance,Time\n2025-03-03,5.0,1:2:3:4\n")
		_, err := ParseCSV(in, "km")
		require.Error(t, err)
		require.Contains(t, err.Error(), "row 2")
	})

	t.Run("missing duration", func(t *testing.T) {
		in := strings.NewReader("Date,Distance,Time\n2025-03-03,5.0,\n")
		_, err := ParseCSV(in, "km")
		require.Error(t, err)
	})
}

func TestParseCSVUnmappableColumns(t *testing.T) {
	in := strings.NewReader("Foo,Bar\n1,2\n")
	_, err := ParseCSV(in, "km")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot map")
	require.Contains(t, err.Error(), "foo")
}

func TestParseCSVStripsBOM(t *testing.T) {
	in := strings.NewReader("\ufeffDate,Distance,Time\n2025-03-03,5.0,1800\n")
	runs, err := ParseCSV(in, "km")
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestParseSeconds(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2700", 2700},
		{"2700.5", 2700.5},
		{"45:00", 2700},
		{"1:02:30", 3750},
		{" 45:30 ", 2730},
	}
	for _, tc := range cases {
		got, err := parseSeconds(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("export.CSV")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)

	f, err = DetectFormat("morning_run.fit")
	require.NoError(t, err)
	require.Equal(t, FormatFIT, f)

	_, err = DetectFormat("track.gpx")
	require.ErrorIs(t, err, ErrUnknownFormat)
}
