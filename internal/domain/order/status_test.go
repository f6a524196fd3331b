package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

	allowed := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusCancelled},
		StatusConfirmed: {StatusShipped, StatusCancelled},
		StatusShipped:   {StatusDelivered},
		StatusDelivered: {},
		StatusCancelled: {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatusRestocksOnTransition(t *testing.T) {
	assert.True(t, StatusPending.RestocksOnTransition(StatusCancelled))
	assert.True(t, StatusConfirmed.RestocksOnTransition(StatusCancelled))
	assert.False(t, StatusShipped.RestocksOnTransition(StatusDelivered))
	assert.False(t, StatusPending.RestocksOnTransition(StatusConfirmed))
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	_, err = ParseStatus("shipped")
	require.Error(t, err)

	_, err = ParseStatus("REFUNDED")
	require.Error(t, err)
}
