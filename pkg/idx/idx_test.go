package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProducesDistinctSortableIDs(t *testing.T) {
	a := New()
	b := New()

	require.False(t, a.IsZero())
	require.NotEqual(t, a, b)
	require.Less(t, a.String(), b.String(), "ids from one generator sort in issue order")
}

func TestParseRoundTrip(t *testing.T) {
	at := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	id := NewAt(at)

	parsed, err := Parse(" " + id.String() + " ")
	require.NoError(t, err)
	require.Equal(t, id, parsed)
	require.Equal(t, at.Truncate(time.Millisecond), parsed.Time())
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"whitespace": "   ",
		"garbage":    "not-a-ulid",
		"too short":  "0123456789",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestZeroValue(t *testing.T) {
	require.True(t, Zero.IsZero())
	require.True(t, Zero.Time().IsZero())
}
