package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"droneDeliveryScheduler/internal/config"
	grpcserver "droneDeliveryScheduler/internal/grpc"
	"droneDeliveryScheduler/internal/schedule"
)

type rootOptions struct {
	addr    string
	token   string
	timeout time.Duration
}

// BuildCLI assembles the command tree:
//
//	drone-scheduler serve
//	drone-scheduler drone add|list|flight
//	drone-scheduler schedule | next | planning | reset-day
//	drone-scheduler token
//	drone-scheduler migrate version|rollback
//
// serve, token and migrate work on local configuration; the rest call a running server.
func BuildCLI() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "drone-scheduler",
		Short:         "Delivery slot allocation for a drone fleet",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", envOr("SCHEDULER_ADDR", "localhost:50051"), "scheduler gRPC address")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("SCHEDULER_TOKEN"), "bearer token for remote commands")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "timeout for remote commands")

	root.AddCommand(
		buildServeCommand(),
		buildDroneCommand(opts),
		buildScheduleCommand(opts),
		buildNextCommand(opts),
		buildPlanningCommand(opts),
		buildResetDayCommand(opts),
		buildTokenCommand(),
		buildMigrateCommand(),
	)
	return root
}

// remote runs fn with a connected client and a bounded context.
func (o *rootOptions) remote(cmd *cobra.Command, fn func(ctx context.Context, c *grpcserver.Client) error) error {
	client, closeFn, err := grpcserver.Dial(o.addr, o.token)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", o.addr, err)
	}
	defer closeFn()
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	return fn(ctx, client)
}

// gridFromConfig builds the slot grid and maintenance policy from configuration.
func gridFromConfig(c config.ScheduleConfig) (schedule.Grid, schedule.Policy, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return schedule.Grid{}, schedule.Policy{}, fmt.Errorf("load timezone: %w", err)
	}
	g := schedule.Grid{
		OpeningHour:  c.OpeningHour,
		ClosingHour:  c.ClosingHour,
		SlotDuration: time.Duration(c.SlotMinutes) * time.Minute,
		Location:     loc,
	}
	if err := g.Validate(); err != nil {
		return schedule.Grid{}, schedule.Policy{}, err
	}
	p := schedule.DefaultPolicy()
	p.ReviewThreshold = c.ReviewThreshold
	return g, p, nil
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
