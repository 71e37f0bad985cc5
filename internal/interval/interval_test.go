package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func span(startHour, startMin, endHour, endMin int) Span {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return Span{
		Start: day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute),
		End:   day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute),
	}
}

func TestSpanOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"identical", span(10, 0, 12, 0), span(10, 0, 12, 0), true},
		{"contained", span(10, 0, 12, 0), span(10, 30, 11, 30), true},
		{"partial front", span(10, 0, 12, 0), span(9, 0, 10, 30), true},
		{"partial back", span(10, 0, 12, 0), span(11, 30, 13, 0), true},
		{"boundary touch after", span(10, 0, 12, 0), span(12, 0, 13, 0), false},
		{"boundary touch before", span(10, 0, 12, 0), span(9, 0, 10, 0), false},
		{"disjoint", span(10, 0, 12, 0), span(14, 0, 15, 0), false},
		{"one minute overlap", span(10, 0, 12, 0), span(11, 59, 13, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestLinearCheckerFirstConflict(t *testing.T) {
	var c LinearChecker

	existing := []Span{
		span(8, 0, 9, 0),
		span(10, 0, 12, 0),
		span(13, 0, 14, 0),
	}

	t.Run("no conflict", func(t *testing.T) {
		assert.Equal(t, -1, c.FirstConflict(span(12, 0, 13, 0), existing))
		assert.False(t, Conflicts(c, span(12, 0, 13, 0), existing))
	})

	t.Run("returns first match", func(t *testing.T) {
		assert.Equal(t, 1, c.FirstConflict(span(10, 30, 11, 30), existing))
	})

	t.Run("matches across several", func(t *testing.T) {
		assert.Equal(t, 0, c.FirstConflict(span(8, 30, 13, 30), existing))
	})

	t.Run("empty existing", func(t *testing.T) {
		assert.Equal(t, -1, c.FirstConflict(span(10, 0, 12, 0), nil))
	})
}

func TestSpanValid(t *testing.T) {
	assert.True(t, span(10, 0, 12, 0).Valid())
	assert.False(t, span(12, 0, 10, 0).Valid())
	assert.False(t, span(10, 0, 10, 0).Valid())
}
