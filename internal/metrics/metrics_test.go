package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()
	c.ObserveSchedule("accepted", time.Millisecond)
	c.ObserveSchedule("accepted", time.Millisecond)
	c.ObserveSchedule("NoFreeDroneAtTimeSlot", time.Millisecond)
	c.ChargePromoted(4)
	c.ChargePromoted(0)
	c.DayPlanInitialized()
	c.DayPlanReset()

	if got := testutil.ToFloat64(c.scheduleRequests.WithLabelValues("accepted")); got != 2 {
		t.Fatalf("accepted=%v want 2", got)
	}
	if got := testutil.ToFloat64(c.chargePromoted); got != 4 {
		t.Fatalf("promoted=%v want 4", got)
	}
	if got := testutil.ToFloat64(c.dayPlansInit); got != 1 {
		t.Fatalf("init=%v want 1", got)
	}
	if n := testutil.CollectAndCount(c.scheduleLatency); n != 1 {
		t.Fatalf("latency series=%d want 1", n)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.ObserveSchedule("accepted", time.Second)
	c.ChargePromoted(1)
	c.DayPlanInitialized()
	c.DayPlanReset()
}
