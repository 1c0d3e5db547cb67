package risk

import "sort"

// Risk levels, lowest to highest.
const (
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelHigh     = "high"
)

// Flag identifiers. These are wire-stable: the narrative layer keys its
// prompt off them.
const (
	FlagVolumeSpike          = "volume_spike"
	FlagUndertraining        = "undertraining"
	FlagLongRunDominance     = "long_run_dominance"
	FlagInsufficientEasy     = "insufficient_easy_running"
	FlagExcessiveHard        = "excessive_hard_running"
	FlagInsufficientRecovery = "insufficient_recovery"
)

// Limitation notes, one per degraded check. Wire-stable as well.
const (
	limVolumeSpikeMissing  = "Missing acwr and weekly_distance; cannot assess volume spikes reliably."
	limWeeklyValuesInvalid = "weekly_distance values invalid; spike check skipped."
	limUndertraining       = "Missing acwr or sufficient weekly_distance; undertraining check may be incomplete."
	limLongestMissing      = "Missing longest_run_pct; cannot assess long-run dominance."
	limLongestInvalid      = "longest_run_pct invalid; long-run dominance check skipped."
	limEasyMissing         = "Missing easy_pct; cannot assess easy-running balance."
	limEasyInvalid         = "easy_pct invalid; easy-running balance check skipped."
	limHardMissing         = "Missing hard_pct; cannot assess hard-running proportion."
	limHardInvalid         = "hard_pct invalid; hard-running proportion check skipped."
	limRecoveryMissing     = "Missing rest_days_last_14 and back_to_back_runs_last_14; cannot assess recovery density."
)

// Assessment is the engine's output. Flags and limitations are sorted and
// the maps/slices are always non-nil so serialization is byte-stable.
type Assessment struct {
	RiskLevel   string            `json:"risk_level"`
	RiskFlags   []string          `json:"risk_flags"`
	Limitations []string          `json:"limitations"`
	FlagDetails map[string]string `json:"flag_details"`
}

// outcome is what a single rule reports back: triggered or not, plus any
// limitation notes it hit along the way. A rule can both trigger and note a
// limitation when only part of its evidence was usable.
type outcome struct {
	triggered   bool
	limitations []string
}

type rule struct {
	flag   string
	detail string
	eval   func(Inputs) outcome
}

// rules is the fixed evaluation order. Order changes nothing observable, but
// keeping it fixed keeps evaluation reproducible.
var rules = []rule{
	{
		flag: FlagVolumeSpike,
		detail: "Training volume increased sharply relative to your recent baseline. " +
			"Sudden spikes elevate short-term injury and fatigue risk.",
		eval: evalVolumeSpike,
	},
	{
		flag: FlagUndertraining,
		detail: "Recent training load is below your longer-term baseline and appears flat or declining. " +
			"This can reduce fitness and make harder efforts feel disproportionately taxing.",
		eval: evalUndertraining,
	},
	{
		flag: FlagLongRunDominance,
		detail: "A large share of your weekly volume is concentrated in one run. " +
			"When the long run dominates the week, connective tissues often have less time to adapt.",
		eval: scalarRule(
			func(in Inputs) Metric { return in.LongestRunPct },
			limLongestMissing, limLongestInvalid,
			func(v float64) bool { return v >= 0.40 },
		),
	},
	{
		flag: FlagInsufficientEasy,
		detail: "A relatively low portion of your running is truly easy. " +
			"Too much moderate/hard running can accumulate fatigue and limit recovery between sessions.",
		eval: scalarRule(
			func(in Inputs) Metric { return in.EasyPct },
			limEasyMissing, limEasyInvalid,
			func(v float64) bool { return v < 65.0 },
		),
	},
	{
		flag: FlagExcessiveHard,
		detail: "A relatively high portion of your mileage is hard intensity. " +
			"Sustained high-intensity volume is effective but increases recovery demand and injury risk.",
		eval: scalarRule(
			func(in Inputs) Metric { return in.HardPct },
			limHardMissing, limHardInvalid,
			func(v float64) bool { return v >= 20.0 },
		),
	},
	{
		flag: FlagInsufficientRecovery,
		detail: "Recent training has limited recovery spacing (few rest days and/or frequent back-to-back runs). " +
			"Insufficient recovery increases fatigue and can make small issues linger into injuries.",
		eval: evalRecovery,
	},
}

// Evaluate runs every rule against the inputs and aggregates the result.
// It never fails: unusable inputs surface as limitations, not errors.
func Evaluate(in Inputs) Assessment {
	flags := []string{}
	limitations := []string{}
	details := map[string]string{}

	for _, r := range rules {
		out := r.eval(in)
		limitations = append(limitations, out.limitations...)
		if out.triggered {
			flags = append(flags, r.flag)
			details[r.flag] = r.detail
		}
	}

	level := severity(flags)
	sort.Strings(flags)

	return Assessment{
		RiskLevel:   level,
		RiskFlags:   flags,
		Limitations: dedupeSorted(limitations),
		FlagDetails: details,
	}
}

// severity maps the triggered flag set to an overall level. The volume-spike
// plus insufficient-recovery pairing is high on its own, regardless of count.
func severity(flags []string) string {
	spike, recovery := false, false
	for _, f := range flags {
		switch f {
		case FlagVolumeSpike:
			spike = true
		case FlagInsufficientRecovery:
			recovery = true
		}
	}
	switch {
	case len(flags) >= 4 || (spike && recovery):
		return LevelHigh
	case len(flags) >= 2:
		return LevelModerate
	default:
		return LevelLow
	}
}

// scalarRule builds the common shape shared by the single-metric rules:
// absent input notes the missing limitation, unusable input notes the
// invalid one, and a usable value runs the predicate.
func scalarRule(metric func(Inputs) Metric, missing, invalid string, hit func(float64) bool) func(Inputs) outcome {
	return func(in Inputs) outcome {
		m := metric(in)
		switch {
		case !m.Present:
			return outcome{limitations: []string{missing}}
		case !m.Valid:
			return outcome{limitations: []string{invalid}}
		default:
			return outcome{triggered: hit(m.Value)}
		}
	}
}

// evalVolumeSpike triggers on a high acute:chronic ratio or a sharp
// week-over-week jump. The check is skipped entirely only when neither
// signal exists; with at least two weekly points the ratio sub-check still
// runs even if acwr itself is unusable.
func evalVolumeSpike(in Inputs) outcome {
	var out outcome
	if !in.ACWR.Valid && !in.WeeklyDistance.nonEmptyList() {
		out.limitations = append(out.limitations, limVolumeSpikeMissing)
		return out
	}

	if in.ACWR.Valid && in.ACWR.Value >= 1.5 {
		out.triggered = true
	}

	if in.WeeklyDistance.IsList && in.WeeklyDistance.Len() >= 2 {
		prev, last, ok := in.WeeklyDistance.lastTwo()
		switch {
		case !ok:
			out.limitations = append(out.limitations, limWeeklyValuesInvalid)
		case prev > 0 && last >= 1.25*prev:
			out.triggered = true
		}
	}
	return out
}

// evalUndertraining needs both a usable acwr and at least two usable weekly
// points; anything short of that degrades into one limitation note.
func evalUndertraining(in Inputs) outcome {
	if !in.ACWR.Valid || !in.WeeklyDistance.IsList || in.WeeklyDistance.Len() < 2 {
		return outcome{limitations: []string{limUndertraining}}
	}
	weekly, ok := in.WeeklyDistance.floats()
	if !ok {
		return outcome{limitations: []string{limUndertraining}}
	}
	return outcome{triggered: in.ACWR.Value < 0.8 && trendFlatOrDecreasing(weekly)}
}

// evalRecovery triggers on scarce rest days or frequent back-to-back days.
// Either signal alone can carry the rule; the limitation fires only when
// both are unusable.
func evalRecovery(in Inputs) outcome {
	rest, b2b := in.RestDaysLast14, in.BackToBackRunsLast14
	if !rest.Valid && !b2b.Valid {
		return outcome{limitations: []string{limRecoveryMissing}}
	}
	triggered := (rest.Valid && rest.Value <= 1) || (b2b.Valid && b2b.Value >= 5)
	return outcome{triggered: triggered}
}

// trendFlatOrDecreasing is deliberately conservative: with three or more
// weeks it compares the latest week against the average of the two before
// it, with exactly two it compares last against previous, and with fewer it
// cannot claim an increase at all.
func trendFlatOrDecreasing(weekly []float64) bool {
	n := len(weekly)
	if n < 2 {
		return true
	}
	if n == 2 {
		return weekly[1] <= weekly[0]
	}
	prevAvg := (weekly[n-2] + weekly[n-3]) / 2.0
	return weekly[n-1] <= prevAvg
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
