package grpcserver

import (
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"droneDeliveryScheduler/internal/schedule"
)

var kindCodes = map[schedule.Kind]codes.Code{
	schedule.KindZeroDronesInFleet:        codes.FailedPrecondition,
	schedule.KindNoFreeDroneAtTimeSlot:    codes.ResourceExhausted,
	schedule.KindOutsideOperatingHours:    codes.OutOfRange,
	schedule.KindTimeslotUnavailable:      codes.Aborted,
	schedule.KindDroneNotFound:            codes.NotFound,
	schedule.KindDeliveryAlreadyScheduled: codes.AlreadyExists,
	schedule.KindDroneAlreadyRegistered:   codes.AlreadyExists,
}

// codeKinds lists the kinds behind each code in kind order. Codes shared by
// several kinds are told apart by the default message the status starts with.
var codeKinds = func() map[codes.Code][]schedule.Kind {
	m := make(map[codes.Code][]schedule.Kind, len(kindCodes))
	for k := schedule.KindUnknown + 1; ; k++ {
		c, ok := kindCodes[k]
		if !ok {
			break
		}
		m[c] = append(m[c], k)
	}
	return m
}()

// toStatus converts a scheduler error into a gRPC status. Errors that already are
// statuses pass through; infrastructure failures become Internal.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if k := schedule.KindOf(err); k != schedule.KindUnknown {
		return status.Error(kindCodes[k], err.Error())
	}
	return status.Errorf(codes.Internal, "%v", err)
}

// fromStatus rebuilds the scheduler sentinel carried by a status, so callers can
// use errors.Is against schedule.ErrXxx on the client side.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}
	kinds, ok := codeKinds[st.Code()]
	if !ok {
		return err
	}
	k := kinds[0]
	for _, candidate := range kinds {
		if strings.HasPrefix(st.Message(), schedule.FromKind(candidate, "").Error()) {
			k = candidate
			break
		}
	}
	prefix := schedule.FromKind(k, "").Error()
	detail := strings.TrimPrefix(strings.TrimPrefix(st.Message(), prefix), ": ")
	return schedule.FromKind(k, detail)
}
