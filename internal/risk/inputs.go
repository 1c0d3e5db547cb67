// Package risk evaluates aggregated training-load metrics against a fixed set
// of deterministic rules and produces a structured assessment. The engine is a
// pure function of its inputs: given the same Inputs it returns the same
// Assessment, which downstream narrative generation depends on.
package risk

import (
	"errors"
	"math"

	"github.com/jbustamante27/Fitness-AI-agent/internal/metrics"
)

// ErrInvalidMetrics reports a metrics payload that is not a mapping at all.
// Anything less broken than that degrades into limitation notes instead.
var ErrInvalidMetrics = errors.New("metrics payload must be a JSON object")

// Metric is one scalar rule input. The three states matter independently:
// a metric can be absent (never supplied, or null), present but unusable
// (wrong type), or a usable number. The zero value is absent.
type Metric struct {
	Present bool
	Valid   bool
	Value   float64
}

// Number returns a valid Metric.
func Number(v float64) Metric {
	return Metric{Present: true, Valid: true, Value: v}
}

// InvalidMetric returns a Metric that was supplied but is not usable.
func InvalidMetric() Metric {
	return Metric{Present: true}
}

// Series is the weekly_distance input: a list whose elements are validated
// one by one, so a single bad element degrades only the checks that touch it.
type Series struct {
	Present bool
	IsList  bool
	Elems   []Metric
}

// NumberSeries returns a Series holding the given values, all valid.
func NumberSeries(vals []float64) Series {
	s := Series{Present: true, IsList: true, Elems: make([]Metric, 0, len(vals))}
	for _, v := range vals {
		s.Elems = append(s.Elems, Number(v))
	}
	return s
}

func (s Series) Len() int { return len(s.Elems) }

func (s Series) nonEmptyList() bool { return s.IsList && len(s.Elems) > 0 }

// lastTwo returns the final two elements when both are valid.
func (s Series) lastTwo() (prev, last float64, ok bool) {
	n := len(s.Elems)
	if n < 2 || !s.Elems[n-1].Valid || !s.Elems[n-2].Valid {
		return 0, 0, false
	}
	return s.Elems[n-2].Value, s.Elems[n-1].Value, true
}

// floats returns every element value, or ok=false if any element is invalid.
func (s Series) floats() ([]float64, bool) {
	out := make([]float64, 0, len(s.Elems))
	for _, e := range s.Elems {
		if !e.Valid {
			return nil, false
		}
		out = append(out, e.Value)
	}
	return out, true
}

// Inputs is the structured form of the metrics mapping the engine consumes.
// Each field carries its own missing/invalid/valid state; the engine never
// sees the raw mapping.
type Inputs struct {
	ACWR                 Metric
	WeeklyDistance       Series
	LongestRunPct        Metric
	EasyPct              Metric
	HardPct              Metric
	RestDaysLast14       Metric
	BackToBackRunsLast14 Metric
}

// FromSnapshot adapts an aggregator snapshot. Everything the aggregator emits
// is well typed; only the nullable ratios can come through absent.
func FromSnapshot(s metrics.Snapshot) Inputs {
	in := Inputs{
		WeeklyDistance:       NumberSeries(s.WeeklyDistance),
		EasyPct:              Number(s.EasyPct),
		HardPct:              Number(s.HardPct),
		RestDaysLast14:       Number(float64(s.RestDaysLast14)),
		BackToBackRunsLast14: Number(float64(s.BackToBackRunsLast14)),
	}
	if s.ACWR != nil {
		in.ACWR = Number(*s.ACWR)
	}
	if s.LongestRunPct != nil {
		in.LongestRunPct = Number(*s.LongestRunPct)
	}
	return in
}

// DecodeAny converts a decoded JSON value into Inputs. Only a non-object
// payload is fatal; every field-level problem is preserved as metric state
// for the engine to report as a limitation.
func DecodeAny(v any) (Inputs, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Inputs{}, ErrInvalidMetrics
	}
	return DecodeInputs(m), nil
}

// DecodeInputs maps an untyped metrics mapping onto Inputs. A missing key and
// an explicit null both read as absent; a present value of the wrong type
// reads as invalid. Booleans are not numbers here.
func DecodeInputs(m map[string]any) Inputs {
	return Inputs{
		ACWR:                 numberField(m, "acwr"),
		WeeklyDistance:       seriesField(m, "weekly_distance"),
		LongestRunPct:        numberField(m, "longest_run_pct"),
		EasyPct:              numberField(m, "easy_pct"),
		HardPct:              numberField(m, "hard_pct"),
		RestDaysLast14:       integerField(m, "rest_days_last_14"),
		BackToBackRunsLast14: integerField(m, "back_to_back_runs_last_14"),
	}
}

func numberField(m map[string]any, key string) Metric {
	v, ok := m[key]
	if !ok || v == nil {
		return Metric{}
	}
	f, ok := asNumber(v)
	if !ok {
		return InvalidMetric()
	}
	return Number(f)
}

// integerField accepts whole numbers only. JSON carries every number as a
// float, so 3.0 counts as the integer 3 while 3.5 is invalid.
func integerField(m map[string]any, key string) Metric {
	v, ok := m[key]
	if !ok || v == nil {
		return Metric{}
	}
	f, ok := asNumber(v)
	if !ok || f != math.Trunc(f) {
		return InvalidMetric()
	}
	return Number(f)
}

func seriesField(m map[string]any, key string) Series {
	v, ok := m[key]
	if !ok || v == nil {
		return Series{}
	}
	list, ok := v.([]any)
	if !ok {
		return Series{Present: true}
	}
	s := Series{Present: true, IsList: true, Elems: make([]Metric, 0, len(list))}
	for _, el := range list {
		if f, ok := asNumber(el); ok {
			s.Elems = append(s.Elems, Number(f))
		} else {
			s.Elems = append(s.Elems, InvalidMetric())
		}
	}
	return s
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
