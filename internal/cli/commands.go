package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"droneDeliveryScheduler/internal/auth"
	"droneDeliveryScheduler/internal/config"
	"droneDeliveryScheduler/internal/db"
	grpcserver "droneDeliveryScheduler/internal/grpc"
)

func buildDroneCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "drone", Short: "Manage the fleet"}

	var flightTime int
	add := &cobra.Command{
		Use:   "add <id>",
		Short: "Register a drone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				if err := c.RegisterDrone(ctx, args[0], flightTime); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered drone %s\n", args[0])
				return nil
			})
		},
	}
	add.Flags().IntVar(&flightTime, "flight-time", 0, "accumulated flight time")

	list := &cobra.Command{
		Use:   "list",
		Short: "List drones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				fleet, err := c.ListDrones(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tFLIGHT TIME\tPLANNED\tDELIVERIES")
				for _, d := range fleet {
					fmt.Fprintf(tw, "%s\t%d\t%t\t%d\n", d.DroneID, d.FlightTime, d.Planned, d.Deliveries)
				}
				return tw.Flush()
			})
		},
	}

	flight := &cobra.Command{
		Use:   "flight <id> <delta>",
		Short: "Record flight time for a drone",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid flight time delta %q", args[1])
			}
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				return c.AddFlightTime(ctx, args[0], delta)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Take a drone out of the fleet; its deliveries become unscheduled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				if err := c.RemoveDrone(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed drone %s\n", args[0])
				return nil
			})
		},
	}

	deliveries := &cobra.Command{
		Use:   "deliveries <id>",
		Short: "List the deliveries bound to a drone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				list, err := c.Deliveries(ctx, args[0])
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DELIVERY\tCREATED")
				for _, d := range list {
					fmt.Fprintf(tw, "%s\t%s\n", d.ID, d.CreatedAt)
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(add, list, flight, remove, deliveries)
	return cmd
}

func buildScheduleCommand(opts *rootOptions) *cobra.Command {
	var deliveryID, date string
	cmd := &cobra.Command{
		Use:   "schedule <HH:MM|RFC3339>",
		Short: "Schedule a delivery on the first free drone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseSlot(args[0], date, time.Now())
			if err != nil {
				return err
			}
			if deliveryID == "" {
				deliveryID = uuid.NewString()
			}
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				droneID, err := c.ScheduleDelivery(ctx, deliveryID, at)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "delivery %s scheduled on drone %s at %s\n", deliveryID, droneID, at.Format(time.RFC3339))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&deliveryID, "delivery", "", "delivery id (generated when empty)")
	cmd.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD when the slot is given as HH:MM (default today)")
	return cmd
}

func buildNextCommand(opts *rootOptions) *cobra.Command {
	var after string
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next scheduled delivery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from := time.Now()
			if after != "" {
				t, err := time.Parse(time.RFC3339, after)
				if err != nil {
					return fmt.Errorf("--after must be RFC3339: %w", err)
				}
				from = t
			}
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				d, err := c.NextDelivery(ctx, from)
				if err != nil {
					return err
				}
				if d == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "no delivery scheduled")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s on drone %s\n", d.ID, *d.DroneID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&after, "after", "", "RFC3339 instant (default now)")
	return cmd
}

func buildPlanningCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "planning <drone-id>",
		Short: "Print a drone's state for every slot of the day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				plan, err := c.CurrentPlanning(ctx, args[0])
				if err != nil {
					return err
				}
				for i, st := range plan {
					fmt.Fprintf(cmd.OutOrStdout(), "%2d %s\n", i, st)
				}
				return nil
			})
		},
	}
}

func buildResetDayCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-day [drone-id]",
		Short: "Clear day-plans so the next request starts a new day",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return opts.remote(cmd, func(ctx context.Context, c *grpcserver.Client) error {
				n, err := c.ResetDay(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reset %d day-plan(s)\n", n)
				return nil
			})
		},
	}
}

func buildTokenCommand() *cobra.Command {
	var name, kind string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tok, err := auth.IssueToken(cfg.Auth.JWTSecret, auth.Principal{Name: name, Kind: kind}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "principal name (drone id for drones)")
	cmd.Flags().StringVar(&kind, "kind", auth.KindDispatcher, "admin, dispatcher or drone")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for none")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func buildMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Inspect or roll back the schema"}
	version := &cobra.Command{
		Use:  "version",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithDefaults()
			if err != nil {
				return err
			}
			d, err := db.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer d.Close()
			v, err := db.Version(d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
	rollback := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the latest migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithDefaults()
			if err != nil {
				return err
			}
			d, err := db.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer d.Close()
			if err := db.RollbackLast(d); err != nil {
				return err
			}
			v, err := db.Version(d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back, schema version %d\n", v)
			return nil
		},
	}
	cmd.AddCommand(version, rollback)
	return cmd
}

// parseSlot accepts an RFC3339 instant, or HH:MM on date (YYYY-MM-DD, default the day of now).
func parseSlot(value, date string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	hm, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("slot %q is neither HH:MM nor RFC3339", value)
	}
	day := now
	if date != "" {
		day, err = time.ParseInLocation("2006-01-02", date, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --date %q: %w", date, err)
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, now.Location()), nil
}
