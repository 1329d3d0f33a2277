package schedule

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_MatchesOnKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(KindTimeslotUnavailable, "10:00 on drone 000"))
	require.ErrorIs(t, err, ErrTimeslotUnavailable)
	require.NotErrorIs(t, err, ErrNoFreeDroneAtTimeSlot)
	require.Equal(t, KindTimeslotUnavailable, KindOf(err))
	require.Equal(t, "the time slot is unavailable: 10:00 on drone 000", newError(KindTimeslotUnavailable, "10:00 on drone 000").Error())
	require.Equal(t, "drone not found", ErrDroneNotFound.Error())
}

func TestKindOf_Infrastructure(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("disk full")))
	require.Equal(t, KindUnknown, KindOf(nil))
}

func TestFromKind_RoundTrip(t *testing.T) {
	for k := KindZeroDronesInFleet; k <= KindDroneAlreadyRegistered; k++ {
		err := FromKind(k, "detail")
		require.Equal(t, k, KindOf(err), k.String())
	}
	require.NoError(t, FromKind(KindUnknown, "x"))
	require.Equal(t, "Kind(42)", Kind(42).String())
}
