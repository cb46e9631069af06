// Package icron adds introspection on top of robfig/cron schedules:
// given an expression and a reference time it reports the previous and
// next fire.
package icron

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// TriggerInfo describes where a reference time sits between two fires
// of a schedule. Last is zero when no fire happened within a year.
type TriggerInfo struct {
	Expression string
	Next       time.Time
	Last       time.Time

	TimeSinceLast time.Duration
	TimeUntilNext time.Duration
}

// lookbacks are tried in order when searching for the previous fire.
// Walking fires forward from a probe point is exact but costs one
// iteration per fire, so dense schedules must be caught by the short
// windows before the long ones come into play.
var lookbacks = []time.Duration{
	time.Hour,
	24 * time.Hour,
	32 * 24 * time.Hour,
	366 * 24 * time.Hour,
}

// Parse validates a standard 5-field cron expression or @descriptor.
func Parse(expr string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// Describe resolves the fires around ref for the given expression.
func Describe(expr string, ref time.Time) (*TriggerInfo, error) {
	schedule, err := Parse(expr)
	if err != nil {
		return nil, err
	}

	info := &TriggerInfo{
		Expression: expr,
		Next:       schedule.Next(ref),
		Last:       previousFire(schedule, ref),
	}
	info.TimeUntilNext = info.Next.Sub(ref)
	if !info.Last.IsZero() {
		info.TimeSinceLast = ref.Sub(info.Last)
	}
	return info, nil
}

// previousFire finds the latest fire at or before ref by walking the
// schedule forward from progressively older probe points.
func previousFire(schedule cron.Schedule, ref time.Time) time.Time {
	for _, window := range lookbacks {
		var last time.Time
		t := schedule.Next(ref.Add(-window))
		for !t.IsZero() && !t.After(ref) {
			last = t
			t = schedule.Next(t)
		}
		if !last.IsZero() {
			return last
		}
	}
	return time.Time{}
}
