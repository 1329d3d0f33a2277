package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"droneDeliveryScheduler/models"
)

const (
	A = models.StateAvailable
	D = models.StateDelivery
	R = models.StateReservedForCharge
	C = models.StateCharging
	V = models.StateReview
)

func repeat(s models.State, n int) []models.State {
	out := make([]models.State, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func join(parts ...[]models.State) []models.State {
	var out []models.State
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestInitDayPlan_ChargeCycle(t *testing.T) {
	g := DefaultGrid()
	plan := g.Planning(InitDayPlan(g, DefaultPolicy(), 0, day))
	want := join(
		repeat(A, 3), repeat(R, 4),
		repeat(A, 3), repeat(R, 4),
		repeat(A, 3), repeat(R, 4),
		repeat(A, 3), repeat(R, 4),
		repeat(A, 3), repeat(R, 4),
		repeat(A, 3), repeat(R, 2),
	)
	require.Equal(t, want, plan)
}

func TestInitDayPlan_ReviewWhenThresholdReached(t *testing.T) {
	g := DefaultGrid()
	plan := g.Planning(InitDayPlan(g, DefaultPolicy(), 79, day))
	require.Equal(t, A, plan[0])
	require.Equal(t, repeat(V, 12), plan[1:13])
	require.Equal(t, []models.State{A, A, A}, plan[13:16])
	require.Equal(t, repeat(R, 4), plan[16:20])

	reviews := 0
	for _, s := range plan {
		if s == V {
			reviews++
		}
	}
	require.Equal(t, 12, reviews, "review is scheduled once per day")
}

func TestInitDayPlan_OverdueReviewStartsAtOpening(t *testing.T) {
	g := DefaultGrid()
	slots := InitDayPlan(g, DefaultPolicy(), 200, day)
	plan := g.Planning(slots)
	require.Equal(t, repeat(V, 12), plan[0:12])
	require.Equal(t, A, plan[12])
	for _, s := range slots {
		require.NotEqual(t, models.StateAvailable, s.State, "free slots are implicit")
		require.True(t, g.Contains(s.At))
	}
}

func TestInitDayPlan_TruncatesLastBlock(t *testing.T) {
	g := DefaultGrid()
	p := DefaultPolicy()
	p.ReviewSlots = 100
	slots := InitDayPlan(g, p, p.ReviewThreshold, day)
	require.Len(t, slots, g.SlotsPerDay())
	require.Equal(t, g.TimestampOf(g.SlotsPerDay()-1, day), slots[len(slots)-1].At)
}

func TestChargeRunAfter(t *testing.T) {
	plan := join([]models.State{D}, repeat(A, 2), repeat(R, 4), repeat(A, 3), repeat(R, 4))
	require.Equal(t, []int{3, 4, 5, 6}, ChargeRunAfter(plan, 0))
	require.Equal(t, []int{10, 11, 12, 13}, ChargeRunAfter(plan, 7))
	require.Nil(t, ChargeRunAfter(plan, 13))

	started := join(repeat(A, 2), repeat(C, 4), repeat(A, 1), repeat(R, 4))
	require.Nil(t, ChargeRunAfter(started, 0), "a charge already under way is not extended")

	review := join([]models.State{D}, repeat(V, 3), repeat(R, 2))
	require.Equal(t, []int{4, 5}, ChargeRunAfter(review, 0))
}
