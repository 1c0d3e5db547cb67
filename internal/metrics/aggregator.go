// Package metrics folds an ordered run history into the flat training-load
// snapshot consumed by the risk rule engine. Everything here is deterministic:
// no clocks, no randomness, no external calls.
package metrics

import (
	"math"
	"sort"
	"time"

	"github.com/jbustamante27/Fitness-AI-agent/internal/domain"
)

// DefaultLookbackDays is the aggregation window applied when the caller does
// not override it.
const DefaultLookbackDays = 28

// Snapshot is the metric mapping produced once per analysis invocation.
// ACWR and LongestRunPct are nil when their denominators are undefined; a nil
// ratio must never be conflated with a measured zero.
type Snapshot struct {
	LookbackDays         int       `json:"lookback_days"`
	RunCount             int       `json:"run_count"`
	TotalDistanceKm      float64   `json:"total_distance_km"`
	WeeklyDistance       []float64 `json:"weekly_distance"`
	WeeklyFrequency      []int     `json:"weekly_frequency"`
	ACWR                 *float64  `json:"acwr"`
	LongestRunPct        *float64  `json:"longest_run_pct"`
	RestDaysLast14       int       `json:"rest_days_last_14"`
	BackToBackRunsLast14 int       `json:"back_to_back_runs_last_14"`
	EasyPct              float64   `json:"easy_pct"`
	HardPct              float64   `json:"hard_pct"`
}

// Compute derives the snapshot from runs ordered ascending by start time.
// Invalid runs (non-positive distance or duration) must already have been
// filtered out by the caller; see domain.NormalizeRuns. A lookbackDays of
// zero or less falls back to DefaultLookbackDays.
func Compute(all []domain.Run, lookbackDays int) Snapshot {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	runs := filterLookback(all, lookbackDays)

	var totalM float64
	for _, r := range runs {
		totalM += r.DistanceM
	}

	weekly := weeklyBuckets(runs)
	weeklyKm := make([]float64, 0, len(weekly))
	weeklyCount := make([]int, 0, len(weekly))
	for _, b := range weekly {
		weeklyKm = append(weeklyKm, round2(b.distanceM/1000.0))
		weeklyCount = append(weeklyCount, b.count)
	}

	// Acute load: last 7 days relative to the latest retained run, chronic
	// load: the full retained window scaled to one week.
	var acwr, longestPct *float64
	var dist7 float64
	if len(runs) > 0 {
		cutoff7 := runs[len(runs)-1].StartTime.Add(-7 * 24 * time.Hour)
		var longest float64
		for _, r := range runs {
			if r.StartTime.Before(cutoff7) {
				continue
			}
			dist7 += r.DistanceM
			if r.DistanceM > longest {
				longest = r.DistanceM
			}
		}
		if denom := totalM / 4.0; totalM > 0 && denom > 0 {
			v := round2(dist7 / denom)
			acwr = &v
		}
		if dist7 > 0 {
			v := round2(longest / dist7)
			longestPct = &v
		}
	}

	easyPct, hardPct := intensitySplit(runs)

	return Snapshot{
		LookbackDays:         lookbackDays,
		RunCount:             len(runs),
		TotalDistanceKm:      round2(totalM / 1000.0),
		WeeklyDistance:       weeklyKm,
		WeeklyFrequency:      weeklyCount,
		ACWR:                 acwr,
		LongestRunPct:        longestPct,
		RestDaysLast14:       restDaysLast14(runs),
		BackToBackRunsLast14: backToBackRunsLast14(runs),
		EasyPct:              easyPct,
		HardPct:              hardPct,
	}
}

// filterLookback keeps runs on or after the cutoff anchored at the latest
// run's start time. An empty history stays empty; that is policy, not an
// error.
func filterLookback(runs []domain.Run, days int) []domain.Run {
	if len(runs) == 0 {
		return nil
	}
	cutoff := runs[len(runs)-1].StartTime.Add(-time.Duration(days) * 24 * time.Hour)
	out := make([]domain.Run, 0, len(runs))
	for _, r := range runs {
		if !r.StartTime.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

type weekBucket struct {
	week      int64 // civil ordinal of the ISO week's Monday
	distanceM float64
	count     int
}

// weeklyBuckets groups runs by ISO week, Monday 00:00 on the run's own clock.
// No timezone conversion happens; two runs on the same civil Monday-anchored
// week share a bucket regardless of offset.
func weeklyBuckets(runs []domain.Run) []weekBucket {
	byWeek := make(map[int64]*weekBucket)
	for _, r := range runs {
		wk := dayOrdinal(weekStart(r.StartTime))
		b, ok := byWeek[wk]
		if !ok {
			b = &weekBucket{week: wk}
			byWeek[wk] = b
		}
		b.distanceM += r.DistanceM
		b.count++
	}

	out := make([]weekBucket, 0, len(byWeek))
	for _, b := range byWeek {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].week < out[j].week })
	return out
}

// weekStart returns Monday 00:00 of t's week in t's own location.
func weekStart(t time.Time) time.Time {
	sinceMonday := (int(t.Weekday()) + 6) % 7
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -sinceMonday)
}

// dayOrdinal maps t's wall-clock date to a canonical day number so calendar
// arithmetic ignores the location a run happened to be recorded in.
func dayOrdinal(t time.Time) int64 {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// restDaysLast14 counts calendar days without a run among the 14 ending on
// the latest run's date. Maximal rest (14) for an empty history.
func restDaysLast14(runs []domain.Run) int {
	if len(runs) == 0 {
		return 14
	}
	lastDay := dayOrdinal(runs[len(runs)-1].StartTime)
	days := make(map[int64]struct{})
	for _, r := range runs {
		if d := dayOrdinal(r.StartTime); lastDay-d <= 13 {
			days[d] = struct{}{}
		}
	}
	return 14 - len(days)
}

// backToBackRunsLast14 counts adjacent-day pairs among the distinct run dates
// of the last 14 days.
func backToBackRunsLast14(runs []domain.Run) int {
	if len(runs) == 0 {
		return 0
	}
	lastDay := dayOrdinal(runs[len(runs)-1].StartTime)
	set := make(map[int64]struct{})
	for _, r := range runs {
		if d := dayOrdinal(r.StartTime); lastDay-d <= 13 {
			set[d] = struct{}{}
		}
	}
	days := make([]int64, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	b2b := 0
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			b2b++
		}
	}
	return b2b
}

// intensitySplit buckets distance by pace against the athlete's own
// distribution inside the lookback window: the fastest 15% of paces count as
// hard, the slowest 60% as easy, the band between as neither. Percentages are
// distance-weighted. Under three eligible runs there is no distribution to
// speak of, so conservative defaults apply.
func intensitySplit(runs []domain.Run) (easyPct, hardPct float64) {
	if len(runs) == 0 {
		return 0.0, 0.0
	}

	type paceDist struct{ pace, distM float64 }
	eligible := make([]paceDist, 0, len(runs))
	for _, r := range runs {
		if r.DistanceM > 0 {
			eligible = append(eligible, paceDist{pace: r.PaceSecPerKm(), distM: r.DistanceM})
		}
	}
	if len(eligible) < 3 {
		return 70.0, 0.0
	}

	paces := make([]float64, 0, len(eligible))
	for _, pr := range eligible {
		paces = append(paces, pr.pace)
	}
	sort.Float64s(paces) // lower = faster

	hardCut := nearestRank(paces, 0.15)
	easyCut := nearestRank(paces, 0.60)

	var hardM, easyM, totalM float64
	for _, pr := range eligible {
		totalM += pr.distM
		switch {
		case pr.pace <= hardCut:
			hardM += pr.distM
		case pr.pace >= easyCut:
			easyM += pr.distM
		}
	}
	if totalM <= 0 {
		return 0.0, 0.0
	}
	return round1(easyM / totalM * 100.0), round1(hardM / totalM * 100.0)
}

// nearestRank picks the value at the given percentile of an ascending-sorted
// slice. The index rounds half to even so cut points stay reproducible across
// history sizes.
func nearestRank(sorted []float64, pct float64) float64 {
	idx := int(math.RoundToEven(float64(len(sorted)-1) * pct))
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
