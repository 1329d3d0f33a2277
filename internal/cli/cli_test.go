package cli

import (
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"droneDeliveryScheduler/internal/auth"
	"droneDeliveryScheduler/internal/config"
	grpcserver "droneDeliveryScheduler/internal/grpc"
	"droneDeliveryScheduler/internal/schedule"
	"droneDeliveryScheduler/internal/testutil"
)

const secret = "cli-test-secret"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := BuildCLI()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func startServer(t *testing.T) string {
	t.Helper()
	drones, deliveries := testutil.Repositories(t, "cli_remote")
	sched := schedule.New(schedule.DefaultGrid(), schedule.DefaultPolicy(), drones, deliveries)
	srv := grpcserver.NewServer(&config.Config{Auth: config.AuthConfig{JWTSecret: secret}}, sched, zerolog.Nop())
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func TestRemoteCommands(t *testing.T) {
	addr := startServer(t)
	admin, err := auth.IssueToken(secret, auth.Principal{Name: "ops", Kind: auth.KindAdmin}, time.Hour)
	require.NoError(t, err)
	flags := []string{"--addr", addr, "--token", admin}

	out, err := run(t, append([]string{"drone", "add", "000", "--flight-time", "10"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "registered drone 000")

	_, err = run(t, append([]string{"drone", "flight", "000", "5"}, flags...)...)
	require.NoError(t, err)

	out, err = run(t, append([]string{"schedule", "08:00", "--date", "2030-03-05", "--delivery", "DDDDDDDDD1"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "scheduled on drone 000")

	_, err = run(t, append([]string{"schedule", "2030-03-05T08:00:00Z"}, flags...)...)
	require.ErrorIs(t, err, schedule.ErrNoFreeDroneAtTimeSlot)

	out, err = run(t, append([]string{"next", "--after", "2030-03-05T07:00:00Z"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "DDDDDDDDD1 on drone 000")

	out, err = run(t, append([]string{"planning", "000"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, " 0 DELIVERY")
	require.Contains(t, out, " 3 CHARGING")

	out, err = run(t, append([]string{"drone", "list"}, flags...)...)
	require.NoError(t, err)
	require.Regexp(t, `000\s+15\s+true\s+1`, out)

	_, err = run(t, append([]string{"drone", "add", "000"}, flags...)...)
	require.ErrorIs(t, err, schedule.ErrDroneAlreadyRegistered)
	_, err = run(t, append([]string{"drone", "flight", "000", "soon"}, flags...)...)
	require.Error(t, err)

	out, err = run(t, append([]string{"drone", "deliveries", "000"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "DELIVERY")
	require.Contains(t, out, "DDDDDDDDD1")

	out, err = run(t, append([]string{"reset-day"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "reset 1 day-plan(s)")

	out, err = run(t, append([]string{"drone", "remove", "000"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "removed drone 000")
	_, err = run(t, append([]string{"drone", "deliveries", "000"}, flags...)...)
	require.ErrorIs(t, err, schedule.ErrDroneNotFound)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", secret)
	out, err := run(t, "token", "--name", "000", "--kind", "drone")
	require.NoError(t, err)

	p, err := auth.ParseBearer("Bearer "+strings.TrimSpace(out), secret)
	require.NoError(t, err)
	require.Equal(t, &auth.Principal{Name: "000", Kind: auth.KindDrone}, p)
}

func TestMigrateCommands(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "schedule.db"))

	out, err := run(t, "migrate", "version")
	require.NoError(t, err)
	require.Contains(t, out, "schema version 2")

	out, err = run(t, "migrate", "rollback")
	require.NoError(t, err)
	require.Contains(t, out, "schema version 1")
}

func TestParseSlot(t *testing.T) {
	now := time.Date(2030, time.March, 4, 17, 30, 0, 0, time.UTC)

	got, err := parseSlot("09:45", "", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2030, time.March, 4, 9, 45, 0, 0, time.UTC), got)

	got, err = parseSlot("09:45", "2030-03-05", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2030, time.March, 5, 9, 45, 0, 0, time.UTC), got)

	got, err = parseSlot("2030-03-05T10:00:00Z", "", now)
	require.NoError(t, err)
	require.Equal(t, 10, got.Hour())

	_, err = parseSlot("soon", "", now)
	require.Error(t, err)
	_, err = parseSlot("09:45", "05/03/2030", now)
	require.Error(t, err)
}

func TestGridFromConfig(t *testing.T) {
	g, p, err := gridFromConfig(config.ScheduleConfig{OpeningHour: 8, ClosingHour: 18, SlotMinutes: 15, ReviewThreshold: 60, Timezone: "UTC"})
	require.NoError(t, err)
	require.Equal(t, 40, g.SlotsPerDay())
	require.Equal(t, 60, p.ReviewThreshold)
	require.Equal(t, schedule.DefaultPolicy().ChargeSlots, p.ChargeSlots)

	_, _, err = gridFromConfig(config.ScheduleConfig{OpeningHour: 8, ClosingHour: 18, SlotMinutes: 7, Timezone: "UTC"})
	require.Error(t, err)
}
