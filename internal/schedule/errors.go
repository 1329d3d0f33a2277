package schedule

import (
	"errors"
	"fmt"
)

// Kind enumerates the failures a scheduling request can surface to its caller.
// Values are stable; transports map each kind to their own status codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindZeroDronesInFleet
	KindNoFreeDroneAtTimeSlot
	KindOutsideOperatingHours
	KindTimeslotUnavailable
	KindDroneNotFound
	KindDeliveryAlreadyScheduled
	KindDroneAlreadyRegistered
)

var kindNames = map[Kind]string{
	KindUnknown:                  "Unknown",
	KindZeroDronesInFleet:        "ZeroDronesInFleet",
	KindNoFreeDroneAtTimeSlot:    "NoFreeDroneAtTimeSlot",
	KindOutsideOperatingHours:    "OutsideOperatingHours",
	KindTimeslotUnavailable:      "TimeslotUnavailable",
	KindDroneNotFound:            "DroneNotFound",
	KindDeliveryAlreadyScheduled: "DeliveryAlreadyScheduled",
	KindDroneAlreadyRegistered:   "DroneAlreadyRegistered",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a typed scheduling failure. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	msg := defaultMessages[e.Kind]
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Detail == "" {
		return msg
	}
	return msg + ": " + e.Detail
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var defaultMessages = map[Kind]string{
	KindZeroDronesInFleet:        "there is no registered drone in the warehouse",
	KindNoFreeDroneAtTimeSlot:    "there is no free drone for the time slot",
	KindOutsideOperatingHours:    "the slot is not within operating hours",
	KindTimeslotUnavailable:      "the time slot is unavailable",
	KindDroneNotFound:            "drone not found",
	KindDeliveryAlreadyScheduled: "the delivery is already scheduled",
	KindDroneAlreadyRegistered:   "the drone is already registered",
}

var (
	ErrZeroDronesInFleet        = &Error{Kind: KindZeroDronesInFleet}
	ErrNoFreeDroneAtTimeSlot    = &Error{Kind: KindNoFreeDroneAtTimeSlot}
	ErrOutsideOperatingHours    = &Error{Kind: KindOutsideOperatingHours}
	ErrTimeslotUnavailable      = &Error{Kind: KindTimeslotUnavailable}
	ErrDroneNotFound            = &Error{Kind: KindDroneNotFound}
	ErrDeliveryAlreadyScheduled = &Error{Kind: KindDeliveryAlreadyScheduled}
	ErrDroneAlreadyRegistered   = &Error{Kind: KindDroneAlreadyRegistered}
)

// newError builds an error of the given kind with a formatted detail.
func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Detail: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind carried by err, or KindUnknown for infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FromKind returns the sentinel for k, or nil for KindUnknown.
func FromKind(k Kind, detail string) error {
	if k == KindUnknown {
		return nil
	}
	return &Error{Kind: k, Detail: detail}
}
