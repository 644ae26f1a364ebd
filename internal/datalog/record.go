// Package datalog persists what a session did: one record per trial to the
// trial sinks and one settings snapshot at session start.
package datalog

import (
	"strconv"
	"strings"
	"time"
)

// Columns is the column order of the trial log.
var Columns = []string{
	"session_id",
	"trial_index",
	"trial_id",
	"phase",
	"block",
	"trial_type",
	"option1",
	"option2",
	"feedback",
	"stim1pos",
	"outcome_randomness",
	"probability1",
	"probability2",
	"outcome1",
	"outcome2",
	"actual_outcome1",
	"actual_outcome2",
	"resolved_outcome1",
	"resolved_outcome2",
	"onset",
	"timed_out",
	"response",
	"choice",
	"rt",
	"reward",
	"total_reward",
	"iti",
}

// Record is one trial's log entry. Nil pointers are absent values and are
// written as empty CSV cells or SQL NULL, never as zero.
type Record struct {
	SessionID  string
	Index      int
	TrialID    string
	Phase      string
	Block      string
	TrialType  string
	Option1    string
	Option2    string
	Feedback   string
	Stim1Pos   string
	Randomness string

	Probability1 *float64
	Probability2 *float64
	Outcome1     *float64
	Outcome2     *float64
	Actual1      *float64
	Actual2      *float64

	Resolved1 float64
	Resolved2 float64

	Onset    time.Time
	TimedOut bool
	Response *string
	Choice   *int
	RT       *time.Duration

	Reward float64
	Total  float64
	ITI    time.Duration
}

// Values returns the record as typed column values in Columns order.
// Absent values are nil.
func (r Record) Values() []any {
	return []any{
		r.SessionID,
		r.Index,
		r.TrialID,
		r.Phase,
		r.Block,
		r.TrialType,
		r.Option1,
		r.Option2,
		r.Feedback,
		r.Stim1Pos,
		r.Randomness,
		optFloat(r.Probability1),
		optFloat(r.Probability2),
		optFloat(r.Outcome1),
		optFloat(r.Outcome2),
		optFloat(r.Actual1),
		optFloat(r.Actual2),
		r.Resolved1,
		r.Resolved2,
		r.Onset.Format(time.RFC3339Nano),
		r.TimedOut,
		optString(r.Response),
		optInt(r.Choice),
		optSeconds(r.RT),
		r.Reward,
		r.Total,
		r.ITI.Seconds(),
	}
}

// Strings returns the record as CSV cells in Columns order.
func (r Record) Strings() []string {
	vals := r.Values()
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = cell(v)
	}
	return out
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	}
	return ""
}

// FormatNumber renders a number in its shortest exact decimal form.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

// FormatSigned renders an outcome for display: "+10", "0", "-2.5".
func FormatSigned(v float64) string {
	s := FormatNumber(v)
	if v > 0 && !strings.HasPrefix(s, "+") {
		return "+" + s
	}
	return s
}

func optFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optSeconds(p *time.Duration) any {
	if p == nil {
		return nil
	}
	return p.Seconds()
}
