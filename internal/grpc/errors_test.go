package grpcserver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneDeliveryScheduler/internal/schedule"
)

func TestStatusMapping_RoundTripsEveryKind(t *testing.T) {
	for k := schedule.KindZeroDronesInFleet; k <= schedule.KindDroneAlreadyRegistered; k++ {
		c, ok := kindCodes[k]
		require.True(t, ok, k.String())

		st := toStatus(schedule.FromKind(k, "slot 10:00"))
		require.Equal(t, c, status.Code(st))

		back := fromStatus(st)
		require.Equal(t, k, schedule.KindOf(back))
		require.Equal(t, schedule.FromKind(k, "slot 10:00").Error(), back.Error())
	}
}

func TestFromStatus_SharedCodeUsesMessage(t *testing.T) {
	require.Equal(t, []schedule.Kind{schedule.KindDeliveryAlreadyScheduled, schedule.KindDroneAlreadyRegistered},
		codeKinds[codes.AlreadyExists])

	dup := fromStatus(status.Error(codes.AlreadyExists, "the drone is already registered: 042"))
	require.ErrorIs(t, dup, schedule.ErrDroneAlreadyRegistered)
	require.Equal(t, "the drone is already registered: 042", dup.Error())

	// An unrecognised message falls back to the first kind on the code.
	other := fromStatus(status.Error(codes.AlreadyExists, "exists"))
	require.ErrorIs(t, other, schedule.ErrDeliveryAlreadyScheduled)
}

func TestToStatus_Passthrough(t *testing.T) {
	require.NoError(t, toStatus(nil))
	require.Equal(t, codes.Internal, status.Code(toStatus(errors.New("disk I/O error"))))

	denied := status.Error(codes.PermissionDenied, "nope")
	require.Equal(t, denied, toStatus(denied))
	require.Equal(t, denied, fromStatus(denied))
}
