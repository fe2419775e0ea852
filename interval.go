package goduck

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	microsPerSecond = int64(1_000_000)
	microsPerMinute = 60 * microsPerSecond
	microsPerHour   = 60 * microsPerMinute
	microsPerDay    = 24 * microsPerHour
)

// Interval is a calendar interval the way the engine stores it. Months and
// days are kept apart from the sub-day part because their length depends on
// the date they are applied to.
type Interval struct {
	Months int32
	Days   int32
	Micros int64
}

// IntervalFromMicros splits micros into whole days and the remainder.
func IntervalFromMicros(micros int64) Interval {
	return Interval{
		Days:   int32(micros / microsPerDay),
		Micros: micros % microsPerDay,
	}
}

func IntervalFromDays(days int32) Interval {
	return Interval{Days: days}
}

func IntervalFromWeeks(weeks int32) Interval {
	return Interval{Days: weeks * 7}
}

// IntervalFromDuration truncates d to microseconds.
func IntervalFromDuration(d time.Duration) Interval {
	return IntervalFromMicros(d.Microseconds())
}

func (i Interval) IsZero() bool {
	return i.Months == 0 && i.Days == 0 && i.Micros == 0
}

// Duration converts the interval into a fixed length, counting every month
// as daysPerMonth days. It reports false when the result does not fit in a
// time.Duration.
func (i Interval) Duration(daysPerMonth float64) (time.Duration, bool) {
	const maxMicros = math.MaxInt64 / int64(time.Microsecond)
	if i.Months == 0 {
		days := int64(i.Days)
		if days > maxMicros/microsPerDay || days < -maxMicros/microsPerDay {
			return 0, false
		}
		total := days*microsPerDay + i.Micros
		if total > maxMicros || total < -maxMicros {
			return 0, false
		}
		return time.Duration(total) * time.Microsecond, true
	}

	days := float64(i.Months)*daysPerMonth + float64(i.Days)
	total := days*float64(microsPerDay) + float64(i.Micros)
	if math.IsNaN(total) || math.Abs(total) > float64(maxMicros) {
		return 0, false
	}
	return time.Duration(int64(math.Round(total))) * time.Microsecond, true
}

func (i Interval) String() string {
	if i.IsZero() {
		return "00:00:00"
	}

	var parts []string
	if years, months := i.Months/12, i.Months%12; years != 0 || months != 0 {
		if years != 0 {
			parts = append(parts, plural(int64(years), "year"))
		}
		if months != 0 {
			parts = append(parts, plural(int64(months), "month"))
		}
	}
	if i.Days != 0 {
		parts = append(parts, plural(int64(i.Days), "day"))
	}
	if i.Micros != 0 {
		micros := i.Micros
		sign := ""
		if micros < 0 {
			sign = "-"
			micros = -micros
		}
		clock := fmt.Sprintf("%s%02d:%02d:%02d", sign,
			micros/microsPerHour, micros%microsPerHour/microsPerMinute, micros%microsPerMinute/microsPerSecond)
		if frac := micros % microsPerSecond; frac != 0 {
			clock += strings.TrimRight(fmt.Sprintf(".%06d", frac), "0")
		}
		parts = append(parts, clock)
	}
	return strings.Join(parts, " ")
}

func plural(n int64, unit string) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
