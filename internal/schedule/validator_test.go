package schedule

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02T15:04", "2024-01-01T"+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func iv(from, to string) Interval {
	return Interval{Start: at(from), End: at(to)}
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{name: "partial overlap", a: iv("10:00", "12:00"), b: iv("11:00", "13:00"), want: true},
		{name: "adjacent after", a: iv("10:00", "11:00"), b: iv("11:00", "12:00"), want: false},
		{name: "adjacent before", a: iv("11:00", "12:00"), b: iv("10:00", "11:00"), want: false},
		{name: "containment", a: iv("09:00", "11:00"), b: iv("09:30", "10:00"), want: true},
		{name: "contained", a: iv("09:30", "10:00"), b: iv("09:00", "11:00"), want: true},
		{name: "identical", a: iv("10:00", "12:00"), b: iv("10:00", "12:00"), want: true},
		{name: "disjoint", a: iv("08:00", "09:00"), b: iv("10:00", "11:00"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
		})
	}
}

func TestOverlapsSymmetric(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	base := at("00:00")
	random := func() Interval {
		start := base.Add(time.Duration(rng.Intn(24*60)) * time.Minute)
		return Interval{Start: start, End: start.Add(time.Duration(1+rng.Intn(240)) * time.Minute)}
	}
	for i := 0; i < 2000; i++ {
		a, b := random(), random()
		require.Equal(t, Overlaps(a, b), Overlaps(b, a), "a=%v b=%v", a, b)
	}
}

func TestOverlapsReflexive(t *testing.T) {
	t.Parallel()

	a := iv("10:00", "12:00")
	assert.True(t, Overlaps(a, a))

	self := a
	assert.NoError(t, Validate(a, []Interval{a}, &self))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	self := iv("10:00", "12:00")

	tests := []struct {
		name      string
		candidate Interval
		existing  []Interval
		self      *Interval
		conflicts []Interval
	}{
		{
			name:      "overlaps existing",
			candidate: iv("11:00", "13:00"),
			existing:  []Interval{iv("10:00", "12:00")},
			conflicts: []Interval{iv("10:00", "12:00")},
		},
		{
			name:      "touching existing",
			candidate: iv("12:00", "13:00"),
			existing:  []Interval{iv("10:00", "12:00")},
		},
		{
			name:      "unchanged edit is exempt",
			candidate: iv("10:00", "12:00"),
			existing:  []Interval{iv("09:00", "11:00")},
			self:      &self,
		},
		{
			name:      "changed edit is revalidated",
			candidate: iv("10:00", "12:30"),
			existing:  []Interval{iv("09:00", "11:00")},
			self:      &self,
			conflicts: []Interval{iv("09:00", "11:00")},
		},
		{
			name:      "contains existing",
			candidate: iv("09:00", "11:00"),
			existing:  []Interval{iv("09:30", "10:00")},
			conflicts: []Interval{iv("09:30", "10:00")},
		},
		{
			name:      "reports every conflict in order",
			candidate: iv("09:00", "15:00"),
			existing:  []Interval{iv("08:00", "09:30"), iv("16:00", "17:00"), iv("14:00", "16:00")},
			conflicts: []Interval{iv("08:00", "09:30"), iv("14:00", "16:00")},
		},
		{
			name:      "empty calendar",
			candidate: iv("09:00", "10:00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.candidate, tt.existing, tt.self)
			if tt.conflicts == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrScheduleConflict))
			assert.Equal(t, ConflictMessage, err.Error())

			var ce *ConflictError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.candidate, ce.Candidate)
			assert.Equal(t, tt.conflicts, ce.Conflicts)
		})
	}
}

func TestValidateSelfExemptionUsesInstants(t *testing.T) {
	t.Parallel()

	lagos := time.FixedZone("WAT", 3600)
	stored := iv("10:00", "12:00")
	candidate := Interval{Start: stored.Start.In(lagos), End: stored.End.In(lagos)}

	assert.NoError(t, Validate(candidate, []Interval{iv("11:00", "11:30")}, &stored))
}

func TestNewInterval(t *testing.T) {
	t.Parallel()

	_, err := NewInterval(at("10:00"), at("10:00"))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval(at("11:00"), at("10:00"))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewInterval(time.Time{}, at("10:00"))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	got, err := NewInterval(at("10:00"), at("11:30"))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, got.Duration())
}
