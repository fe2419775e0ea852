package goduck

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterval_constructors(t *testing.T) {
	assert.Equal(t, Interval{Days: 1, Micros: 5}, IntervalFromMicros(microsPerDay+5))
	assert.Equal(t, Interval{Days: -1, Micros: -5}, IntervalFromMicros(-microsPerDay-5))
	assert.Equal(t, Interval{Days: 3}, IntervalFromDays(3))
	assert.Equal(t, Interval{Days: 14}, IntervalFromWeeks(2))
	assert.Equal(t, Interval{Micros: 1}, IntervalFromDuration(1500*time.Nanosecond))
	assert.True(t, Interval{}.IsZero())
}

func TestInterval_Duration(t *testing.T) {
	tests := []struct {
		interval Interval
		duration time.Duration
		ok       bool
	}{
		{Interval{Micros: 1500}, 1500 * time.Microsecond, true},
		{Interval{Days: 2, Micros: 1}, 48*time.Hour + time.Microsecond, true},
		{Interval{Months: 1}, 30 * 24 * time.Hour, true},
		{Interval{Months: -1, Days: 30}, 0, true},
		{Interval{Days: math.MaxInt32}, 0, false},
		{Interval{Months: math.MaxInt32}, 0, false},
	}

	for _, test := range tests {
		d, ok := test.interval.Duration(30)
		assert.Equal(t, test.ok, ok, test.interval)
		if ok {
			assert.Equal(t, test.duration, d, test.interval)
		}
	}
}

func TestInterval_String(t *testing.T) {
	tests := []struct {
		interval Interval
		text     string
	}{
		{Interval{}, "00:00:00"},
		{Interval{Months: 14}, "1 year 2 months"},
		{Interval{Months: 24, Days: 1}, "2 years 1 day"},
		{Interval{Days: -3}, "-3 days"},
		{Interval{Micros: 90 * microsPerMinute}, "01:30:00"},
		{Interval{Days: 1, Micros: microsPerSecond + 500}, "1 day 00:00:01.0005"},
		{Interval{Micros: -microsPerHour}, "-01:00:00"},
	}

	for _, test := range tests {
		assert.Equal(t, test.text, test.interval.String())
	}
}
