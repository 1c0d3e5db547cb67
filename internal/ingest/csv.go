// Package ingest turns activity exports (Garmin-style CSV, FIT binaries)
// into normalized run records. Parsers are strict about the fields the
// analysis needs and lenient about everything else.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/jbustamante27/Fitness-AI-agent/internal/domain"
)

const metersPerMile = 1609.344

// columnMapping names the normalized header columns one export dialect uses.
type columnMapping struct {
	start    string
	distance string
	duration string
	avgHR    string
}

// candidateMappings covers the export dialects seen in the wild, tried in
// order. The first one whose start/distance/duration columns all exist wins.
var candidateMappings = []columnMapping{
	{start: "date", distance: "distance", duration: "time", avgHR: "avg_hr"},
	{start: "activity_date", distance: "distance", duration: "time", avgHR: "average_heart_rate"},
	{start: "start_time", distance: "distance", duration: "elapsed_time", avgHR: "avg_hr"},
	{start: "start_time", distance: "distance", duration: "time", avgHR: "avg_hr"},
	{start: "date", distance: "distance_km", duration: "time", avgHR: "avg_hr"},
	{start: "date", distance: "distance_mi", duration: "time", avgHR: "avg_hr"},
	{start: "date", distance: "distance_m", duration: "time", avgHR: "avg_hr"},
}

// ParseCSV reads an activity CSV into run records. defaultUnit ("km", "m" or
// "mi") applies only when the distance column name does not reveal its unit.
// Rows that parse but describe a non-positive distance or duration are
// dropped; rows that do not parse fail the whole file.
func ParseCSV(r io.Reader, defaultUnit string) ([]domain.Run, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	byName := make(map[string]int, len(header))
	normCols := make([]string, 0, len(header))
	for i, col := range header {
		n := normalizeColumn(col)
		normCols = append(normCols, n)
		if _, dup := byName[n]; !dup {
			byName[n] = i
		}
	}

	var chosen *columnMapping
	for i := range candidateMappings {
		c := candidateMappings[i]
		_, okStart := byName[c.start]
		_, okDist := byName[c.distance]
		_, okDur := byName[c.duration]
		if okStart && okDist && okDur {
			chosen = &c
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("csv: cannot map columns automatically (found: %s)", strings.Join(normCols, ", "))
	}

	startIdx := byName[chosen.start]
	distIdx := byName[chosen.distance]
	durIdx := byName[chosen.duration]
	hrIdx, hasHR := byName[chosen.avgHR]

	runs := make([]domain.Run, 0, 64)
	for rowNum := 2; ; rowNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: %w", rowNum, err)
		}

		start, err := dateparse.ParseAny(strings.TrimSpace(record[startIdx]))
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: parse start time %q: %w", rowNum, record[startIdx], err)
		}

		dist, err := strconv.ParseFloat(strings.TrimSpace(record[distIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: parse distance %q: %w", rowNum, record[distIdx], err)
		}

		durS, err := parseSeconds(record[durIdx])
		if err != nil {
			return nil, fmt.Errorf("csv: row %d: parse duration %q: %w", rowNum, record[durIdx], err)
		}

		run := domain.Run{
			StartTime: start,
			DistanceM: distanceMeters(dist, chosen.distance, defaultUnit),
			DurationS: durS,
		}
		// Heart rate is best effort: an empty or garbled cell just drops it.
		if hasHR {
			if hr, err := strconv.ParseFloat(strings.TrimSpace(record[hrIdx]), 64); err == nil {
				run.AvgHR = &hr
			}
		}
		runs = append(runs, run)
	}

	return domain.NormalizeRuns(runs), nil
}

func normalizeColumn(col string) string {
	n := strings.ToLower(strings.TrimSpace(col))
	n = strings.ReplaceAll(n, " ", "_")
	return strings.ReplaceAll(n, "-", "_")
}

// distanceMeters converts a raw distance using the unit implied by the
// normalized column name, falling back to defaultUnit. Kilometre names are
// tested before the bare metre suffix so "kilometers" is never read as
// meters.
func distanceMeters(value float64, normCol, defaultUnit string) float64 {
	switch {
	case strings.HasSuffix(normCol, "_km") || strings.Contains(normCol, "kilometer"):
		return value * 1000.0
	case strings.HasSuffix(normCol, "_mi") || strings.Contains(normCol, "mile"):
		return value * metersPerMile
	case strings.HasSuffix(normCol, "_m") || strings.Contains(normCol, "meter"):
		return value
	}
	switch defaultUnit {
	case "m":
		return value
	case "mi":
		return value * metersPerMile
	default:
		return value * 1000.0
	}
}

// parseSeconds accepts plain seconds ("2700", "2700.5"), mm:ss ("45:00") and
// h:mm:ss ("1:02:30").
func parseSeconds(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("missing duration")
	}
	if !strings.Contains(s, ":") {
		return strconv.ParseFloat(s, 64)
	}

	parts := strings.Split(s, ":")
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	switch len(vals) {
	case 2:
		return vals[0]*60 + vals[1], nil
	case 3:
		return vals[0]*3600 + vals[1]*60 + vals[2], nil
	}
	return 0, fmt.Errorf("unrecognized time format %q", raw)
}
