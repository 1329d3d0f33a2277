package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"droneDeliveryScheduler/models"
)

var day = time.Date(2030, time.March, 5, 0, 0, 0, 0, time.UTC)

func clock(h, m int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC)
}

func TestGrid_ReferenceConstants(t *testing.T) {
	g := DefaultGrid()
	require.NoError(t, g.Validate())
	require.Equal(t, 40, g.SlotsPerDay())
	require.Equal(t, clock(8, 0), g.StartOfDay(clock(17, 59)))
}

func TestGrid_RoundTrip(t *testing.T) {
	g := DefaultGrid()
	for i := 0; i < g.SlotsPerDay(); i++ {
		require.Equal(t, i, g.IndexOf(g.TimestampOf(i, day)), "index %d", i)
	}
	require.Equal(t, clock(11, 15), g.TimestampOf(13, day))
}

func TestGrid_ContainsAndAlign(t *testing.T) {
	g := DefaultGrid()
	require.True(t, g.Contains(clock(8, 0)))
	require.True(t, g.Contains(clock(17, 45)))
	require.False(t, g.Contains(clock(18, 0)))
	require.False(t, g.Contains(clock(7, 59)))
	require.False(t, g.Contains(clock(0, 0)))

	require.Equal(t, clock(9, 15), g.Align(clock(9, 29)))
	require.Equal(t, clock(7, 45), g.Align(clock(7, 50)))
	require.Equal(t, -1, g.IndexOf(clock(7, 50)))
}

func TestGrid_LocationAware(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	g := DefaultGrid()
	g.Location = paris
	// 07:00 UTC is 08:00 in Paris in March (CET, UTC+1).
	require.Equal(t, 0, g.IndexOf(time.Date(2030, time.March, 5, 7, 0, 0, 0, time.UTC)))
}

func TestGrid_Validate(t *testing.T) {
	bad := []Grid{
		{OpeningHour: 18, ClosingHour: 8, SlotDuration: 15 * time.Minute},
		{OpeningHour: 8, ClosingHour: 18, SlotDuration: 0},
		{OpeningHour: 8, ClosingHour: 18, SlotDuration: 7 * time.Minute},
		{OpeningHour: 8, ClosingHour: 25, SlotDuration: 15 * time.Minute},
	}
	for _, g := range bad {
		require.Error(t, g.Validate(), "%+v", g)
	}
}

func TestGrid_StateAtIgnoresDate(t *testing.T) {
	g := DefaultGrid()
	d := &models.Drone{ID: "000", TimeSlots: []models.TimeSlot{
		{At: clock(8, 15), State: models.StateDelivery},
		{At: clock(8, 30), State: models.StateCharging},
	}}
	require.Equal(t, models.StateDelivery, g.StateAt(d, clock(8, 15)))
	require.Equal(t, models.StateDelivery, g.StateAt(d, clock(8, 15).AddDate(0, 0, 3)))
	require.Equal(t, models.StateCharging, g.StateAt(d, clock(8, 30)))
	require.Equal(t, models.StateAvailable, g.StateAt(d, clock(8, 0)))
	require.Equal(t, models.StateAvailable, g.StateAt(&models.Drone{}, clock(8, 0)))
}

func TestGrid_FindFreeDrone(t *testing.T) {
	g := DefaultGrid()
	_, err := g.FindFreeDrone(nil, clock(8, 0))
	require.ErrorIs(t, err, ErrZeroDronesInFleet)

	busy := &models.Drone{ID: "000", TimeSlots: []models.TimeSlot{{At: clock(8, 0), State: models.StateReview}}}
	free := &models.Drone{ID: "001"}
	got, err := g.FindFreeDrone([]*models.Drone{busy, free}, clock(8, 0))
	require.NoError(t, err)
	require.Equal(t, "001", got.ID)

	_, err = g.FindFreeDrone([]*models.Drone{busy}, clock(8, 0))
	require.ErrorIs(t, err, ErrNoFreeDroneAtTimeSlot)
}
