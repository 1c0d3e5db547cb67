package ingest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tormoder/fit"

	"github.com/jbustamante27/Fitness-AI-agent/internal/domain"
)

// fitInvalidUint8 is the FIT sentinel for an unset one-byte field.
const fitInvalidUint8 = 0xFF

// ParseFIT decodes a FIT activity file into run records. Session messages
// are the preferred source of totals; when a file carries none that survive
// validation, a single run is reconstructed from the raw record stream.
func ParseFIT(r io.Reader) ([]domain.Run, error) {
	f, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("fit: decode: %w", err)
	}
	activity, err := f.Activity()
	if err != nil {
		return nil, fmt.Errorf("fit: not an activity file: %w", err)
	}

	if runs := runsFromSessions(activity.Sessions); len(runs) > 0 {
		return domain.NormalizeRuns(runs), nil
	}
	if run, ok := runFromRecords(activity.Records); ok {
		return []domain.Run{run}, nil
	}
	return nil, nil
}

// runsFromSessions keeps running sessions (or sessions that never declared a
// sport) whose totals are complete. Timer time is preferred over elapsed
// time so paused stretches do not dilute pace.
func runsFromSessions(sessions []*fit.SessionMsg) []domain.Run {
	runs := make([]domain.Run, 0, len(sessions))
	for _, s := range sessions {
		if s == nil {
			continue
		}
		if s.Sport != fit.SportRunning && s.Sport != fit.SportInvalid {
			continue
		}

		start := s.StartTime
		if start.IsZero() {
			start = s.Timestamp
		}
		dist := s.GetTotalDistanceScaled()
		dur := s.GetTotalTimerTimeScaled()
		if math.IsNaN(dur) {
			dur = s.GetTotalElapsedTimeScaled()
		}
		if start.IsZero() || math.IsNaN(dist) || math.IsNaN(dur) {
			continue
		}

		run := domain.Run{StartTime: start, DistanceM: dist, DurationS: dur}
		if s.AvgHeartRate != fitInvalidUint8 && s.AvgHeartRate > 0 {
			hr := float64(s.AvgHeartRate)
			run.AvgHR = &hr
		}
		runs = append(runs, run)
	}
	return runs
}

// runFromRecords rebuilds one run from the per-second record stream: span of
// timestamps for duration, peak cumulative distance, mean of the heart-rate
// samples that exist.
func runFromRecords(records []*fit.RecordMsg) (domain.Run, bool) {
	var first, last time.Time
	var maxDistM float64
	var hrSum float64
	var hrCount int

	for _, rec := range records {
		if rec == nil || rec.Timestamp.IsZero() {
			continue
		}
		if first.IsZero() || rec.Timestamp.Before(first) {
			first = rec.Timestamp
		}
		if rec.Timestamp.After(last) {
			last = rec.Timestamp
		}
		if d := rec.GetDistanceScaled(); !math.IsNaN(d) && d > maxDistM {
			maxDistM = d
		}
		if rec.HeartRate != fitInvalidUint8 && rec.HeartRate > 0 {
			hrSum += float64(rec.HeartRate)
			hrCount++
		}
	}

	if first.IsZero() || maxDistM <= 0 {
		return domain.Run{}, false
	}
	run := domain.Run{
		StartTime: first,
		DistanceM: maxDistM,
		DurationS: last.Sub(first).Seconds(),
	}
	if hrCount > 0 {
		hr := hrSum / float64(hrCount)
		run.AvgHR = &hr
	}
	return run, run.Valid()
}
