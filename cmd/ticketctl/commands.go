package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/judy2649/the-grey-pegeant/src/boot"
	"github.com/judy2649/the-grey-pegeant/src/config"
	"github.com/judy2649/the-grey-pegeant/src/controllers"
	"github.com/judy2649/the-grey-pegeant/src/db"
	"github.com/judy2649/the-grey-pegeant/src/engine"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/spf13/cobra"
)

func newEngine() *engine.Engine {
	return boot.NewEngine(config.Get(), db.GetDb(), nil)
}

func parseBookingID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid booking id %q", arg)
	}
	return uint(id), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [booking-id]",
		Short: "Confirm a pending booking and issue its ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookingID(args[0])
			if err != nil {
				return err
			}
			res, err := newEngine().AdminVerify(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("%s", types.PublicMessage(err))
			}
			if res.AlreadyVerified {
				fmt.Fprintf(cmd.OutOrStdout(), "booking %d was already %s (%s)\n", res.BookingID, res.Status, res.TicketID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "booking %d verified with ticket %s\n", res.BookingID, res.TicketID)
			return printJSON(cmd.OutOrStdout(), res.Notifications.Map())
		},
	}
}

func resendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resend [booking-id]",
		Short: "Send the ticket notifications for a confirmed booking again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookingID(args[0])
			if err != nil {
				return err
			}
			res, err := newEngine().Resend(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("%s", types.PublicMessage(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "booking %d resent (%s)\n", res.BookingID, res.TicketID)
			return printJSON(cmd.OutOrStdout(), res.Notifications.Map())
		},
	}
}

func bookingsCmd() *cobra.Command {
	var filters types.BookingQueryFilters
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List recent bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings, err := controllers.ListBookings(db.GetDb().WithContext(cmd.Context()), filters)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, b := range bookings {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\t%.0f %s\t%s\t%s\n",
					b.ID, b.CreatedAt.Format(config.TIME_PARSE_FORMAT), b.Status, b.TierName, b.Amount, b.Currency, b.Ticket(), b.Claim())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filters.Status, "status", "s", "", "Filter by status (PAID, CONFIRMED, PENDING, FAILED, VERIFIED)")
	cmd.Flags().StringVarP(&filters.Tier, "tier", "t", "", "Filter by tier name")
	cmd.Flags().IntVarP(&filters.Limit, "limit", "n", 100, "Maximum results")

	return cmd
}

func analyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show sales totals by tier, status and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := controllers.BookingAnalytics(db.GetDb().WithContext(cmd.Context()))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}
}

func expireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Close push payments whose callback never arrived",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := newEngine().ExpirePending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d pending transactions\n", n)
			return nil
		},
	}
}
