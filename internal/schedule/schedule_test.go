package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday.
var first = time.Date(2024, 9, 2, 9, 0, 0, 0, time.UTC)

func TestFixedNext(t *testing.T) {
	f, err := NewFixed([]Session{
		{ID: "b", Start: first.Add(24 * time.Hour), End: first.Add(25 * time.Hour)},
		{ID: "a", Start: first, End: first.Add(time.Hour)},
	})
	require.NoError(t, err)

	s, ok := f.Next(first.Add(-time.Hour))
	require.True(t, ok)
	assert.Equal(t, "a", s.ID)

	// A session in progress is still "next".
	s, ok = f.Next(first.Add(30 * time.Minute))
	require.True(t, ok)
	assert.Equal(t, "a", s.ID)

	s, ok = f.Next(first.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, "b", s.ID)
	assert.Equal(t, time.Hour, s.Length())

	_, ok = f.Next(first.Add(48 * time.Hour))
	assert.False(t, ok)
}

func TestFixedRejectsBadSessions(t *testing.T) {
	_, err := NewFixed([]Session{{Start: first, End: first}})
	assert.Error(t, err)

	_, err = NewFixed([]Session{
		{Start: first, End: first.Add(time.Hour)},
		{Start: first.Add(30 * time.Minute), End: first.Add(2 * time.Hour)},
	})
	assert.Error(t, err)
}

func TestIntervalBuild(t *testing.T) {
	f, err := Interval{First: first, Every: 24 * time.Hour, Length: 45 * time.Minute, Count: 3}.Build()
	require.NoError(t, err)
	all := f.All()
	require.Len(t, all, 3)
	assert.Equal(t, first.Add(48*time.Hour), all[2].Start)
	assert.Equal(t, 45*time.Minute, all[2].Length())
	for _, s := range all {
		assert.NotEmpty(t, s.ID)
	}
}

func TestIntervalWeekdays(t *testing.T) {
	f, err := Interval{
		First:    first,
		Every:    24 * time.Hour,
		Length:   time.Hour,
		Count:    4,
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
	}.Build()
	require.NoError(t, err)
	var days []time.Weekday
	for _, s := range f.All() {
		days = append(days, s.Start.Weekday())
	}
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Monday, time.Wednesday}, days)
}

func TestIntervalValidation(t *testing.T) {
	_, err := Interval{First: first, Every: time.Hour, Length: 2 * time.Hour, Count: 2}.Build()
	assert.Error(t, err)
	_, err = Interval{First: first, Every: time.Hour, Length: time.Hour}.Build()
	assert.Error(t, err)
	_, err = Interval{First: first, Every: 7 * 24 * time.Hour, Length: time.Hour, Count: 2, Weekdays: []time.Weekday{time.Sunday}}.Build()
	assert.Error(t, err)
}
