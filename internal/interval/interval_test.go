package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, from, to time.Time) Interval {
	iv, err := New(from, to)
	require.NoError(t, err)
	return iv
}

func at(hour, min int) time.Time {
	return time.Date(2024, 1, 1, hour, min, 0, 0, time.UTC)
}

func TestNew_RejectsInvertedAndEmpty(t *testing.T) {
	_, err := New(at(11, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(at(10, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestNew_NormalizesToUTC(t *testing.T) {
	offset := time.FixedZone("UTC+3", 3*60*60)
	from := time.Date(2024, 1, 1, 13, 0, 0, 0, offset)
	to := time.Date(2024, 1, 1, 15, 0, 0, 0, offset)

	iv := mustNew(t, from, to)

	assert.Equal(t, time.UTC, iv.From.Location())
	assert.Equal(t, time.UTC, iv.To.Location())
	assert.True(t, iv.From.Equal(at(10, 0)))
	assert.True(t, iv.To.Equal(at(12, 0)))
}

func TestOverlaps(t *testing.T) {
	existing := mustNew(t, at(11, 0), at(12, 0))

	// partial overlap
	assert.True(t, mustNew(t, at(10, 30), at(11, 30)).Overlaps(existing))
	// fully inside
	assert.True(t, mustNew(t, at(11, 15), at(11, 45)).Overlaps(existing))
	// fully covering
	assert.True(t, mustNew(t, at(10, 0), at(13, 0)).Overlaps(existing))
	// touching end boundary is not an overlap
	assert.False(t, mustNew(t, at(10, 0), at(11, 0)).Overlaps(existing))
	// touching start boundary is not an overlap
	assert.False(t, mustNew(t, at(12, 0), at(13, 0)).Overlaps(existing))
	// disjoint
	assert.False(t, mustNew(t, at(8, 0), at(9, 0)).Overlaps(existing))
}

func TestOverlaps_IsSymmetric(t *testing.T) {
	a := mustNew(t, at(10, 30), at(11, 30))
	b := mustNew(t, at(11, 0), at(12, 0))

	assert.Equal(t, a.Overlaps(b), b.Overlaps(a))
}

func TestContains(t *testing.T) {
	iv := mustNew(t, at(10, 0), at(12, 0))

	assert.True(t, iv.Contains(at(10, 0)), "From is inclusive")
	assert.True(t, iv.Contains(at(11, 0)))
	assert.False(t, iv.Contains(at(12, 0)), "To is exclusive")
	assert.False(t, iv.Contains(at(9, 59)))
}

func TestContains_ComparesAcrossZones(t *testing.T) {
	iv := mustNew(t, at(10, 0), at(12, 0))

	offset := time.FixedZone("UTC+3", 3*60*60)
	assert.True(t, iv.Contains(time.Date(2024, 1, 1, 14, 0, 0, 0, offset)))
}

func TestCanAccept(t *testing.T) {
	existing := []Interval{
		mustNew(t, at(11, 0), at(12, 0)),
		mustNew(t, at(14, 0), at(15, 0)),
	}

	assert.True(t, CanAccept(existing, mustNew(t, at(10, 0), at(11, 0))))
	assert.True(t, CanAccept(existing, mustNew(t, at(12, 0), at(14, 0))))
	assert.False(t, CanAccept(existing, mustNew(t, at(10, 30), at(11, 30))))
	assert.False(t, CanAccept(existing, mustNew(t, at(14, 30), at(14, 45))))
	assert.True(t, CanAccept(nil, mustNew(t, at(0, 0), at(23, 0))))
}

func TestAvailableAt(t *testing.T) {
	existing := []Interval{mustNew(t, at(10, 0), at(12, 0))}

	assert.False(t, AvailableAt(existing, at(10, 0)))
	assert.False(t, AvailableAt(existing, at(11, 59)))
	assert.True(t, AvailableAt(existing, at(12, 0)))
	assert.True(t, AvailableAt(nil, at(3, 0)), "no reservations means available at every instant")
}
