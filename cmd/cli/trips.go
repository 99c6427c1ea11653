package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/ourtrips/pkg/logger"
	"github.com/himanishpuri/ourtrips/pkg/ourtrips"
)

const dateLayout = "2006-01-02"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newUserCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user profiles",
	}

	add := &cobra.Command{
		Use:   "add <email> <name>",
		Short: "Register a user; an existing e-mail returns its profile ID",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				id, err := svc.RegisterUser(ctx, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				u, err := svc.GetUser(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (ID: %s)\n", u.Name, u.Email, u.ID)
				return nil
			})
		},
	}

	cmd.AddCommand(add, show)
	return cmd
}

func newTripCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trip",
		Short: "Create, list and delete trips",
	}

	var (
		title, owner, friend, start, end string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a trip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := ourtrips.TripRequest{Title: title, OwnerID: owner, FriendID: friend}
			var err error
			if req.StartDate, err = time.Parse(dateLayout, start); err != nil {
				return fmt.Errorf("--start must be YYYY-MM-DD: %w", err)
			}
			if req.EndDate, err = time.Parse(dateLayout, end); err != nil {
				return fmt.Errorf("--end must be YYYY-MM-DD: %w", err)
			}
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				trip, err := svc.CreateTrip(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), trip.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&title, "title", "", "Trip title")
	create.Flags().StringVar(&owner, "owner", "", "Owner user ID")
	create.Flags().StringVar(&friend, "friend", "", "User ID of the friend travelling along")
	create.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	create.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD); same as --start for a day trip")
	create.MarkFlagRequired("title")
	create.MarkFlagRequired("owner")
	create.MarkFlagRequired("friend")
	create.MarkFlagRequired("start")
	create.MarkFlagRequired("end")

	var (
		listUser string
		listJSON bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List trips, optionally only those a user belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				trips, err := svc.ListTrips(ctx, listUser)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if listJSON {
					return printJSON(out, trips)
				}
				if len(trips) == 0 {
					fmt.Fprintln(out, "📭 No trips yet")
					return nil
				}
				for i, t := range trips {
					fmt.Fprintf(out, "%d. %s (ID: %s)\n", i+1, t.Title, t.ID)
					fmt.Fprintf(out, "   %s\n", formatDates(t.StartDate, t.EndDate))
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&listUser, "user", "", "Only trips this user ID is a member of")
	list.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")

	show := &cobra.Command{
		Use:   "show <trip-id>",
		Short: "Show a trip with its plan board and map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				a, err := svc.ExportTrip(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (ID: %s)\n", a.Trip.Title, a.Trip.ID)
				fmt.Fprintf(out, "   %s\n", formatDates(a.Trip.StartDate, a.Trip.EndDate))
				fmt.Fprintf(out, "   travellers: %s\n", strings.Join(a.Trip.MemberIDs, ", "))
				fmt.Fprintf(out, "   %d plan(s), %d photo(s), %d pinned place(s)\n", len(a.Plans), len(a.Photos), len(a.Locations))
				for _, p := range a.Plans {
					fmt.Fprintf(out, "   [%s] %s: %s\n", formatMs(p.CreatedAtMs), p.AuthorName, p.Text)
				}
				for _, l := range a.Locations {
					fmt.Fprintf(out, "   📍 %s (%.5f, %.5f)\n", l.Name, l.Latitude, l.Longitude)
				}
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <trip-id>",
		Short: "Delete a trip with its plans, photos and pins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				if err := svc.DeleteTrip(ctx, args[0]); err != nil {
					return err
				}
				logger.Infof("Deleted trip %s", args[0])
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Deleted trip %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(create, list, show, del)
	return cmd
}

func formatDates(start, end time.Time) string {
	if end.IsZero() || end.Equal(start) {
		return start.Format(dateLayout)
	}
	return start.Format(dateLayout) + " to " + end.Format(dateLayout)
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

func newPlanCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Post to and read a trip's plan board",
	}

	var (
		author string
		at     int64
	)
	add := &cobra.Command{
		Use:   "add <trip-id> <text>...",
		Short: "Post a message to the plan board",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				p, err := svc.AddPlan(ctx, args[0], author, strings.Join(args[1:], " "), at)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), p.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&author, "author", "", "Author user ID")
	add.Flags().Int64Var(&at, "at", 0, "Creation time in Unix milliseconds (default now)")
	add.MarkFlagRequired("author")

	var listJSON bool
	list := &cobra.Command{
		Use:   "list <trip-id>",
		Short: "List plan messages, earliest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				plans, err := svc.ListPlans(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if listJSON {
					return printJSON(out, plans)
				}
				for _, p := range plans {
					fmt.Fprintf(out, "[%s] %s: %s\n", formatMs(p.CreatedAtMs), p.AuthorName, p.Text)
				}
				return nil
			})
		},
	}
	list.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")

	cmd.AddCommand(add, list)
	return cmd
}

func newStatsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, svc ourtrips.Service) error {
				s, err := svc.Stats(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			})
		},
	}
}
