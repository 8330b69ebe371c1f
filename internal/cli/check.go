package cli

import (
	"fmt"
	"text/tabwriter"

	"equiprent-backend/internal/domain"

	"github.com/spf13/cobra"
)

type checkOutput struct {
	*domain.AvailabilityVerdict
	Alternatives []domain.Alternative `json:"alternatives,omitempty"`
}

func checkCmd(opts *rootOptions) *cobra.Command {
	var equipmentID, start, end, exclude string
	var alternatives bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a unit is free for an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("equipment", equipmentID); err != nil {
				return err
			}
			iv, err := parseInterval(start, end)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			v, err := opts.backend.Availability.CheckAvailability(ctx, equipmentID, iv, exclude)
			if err != nil {
				return err
			}
			out := checkOutput{AvailabilityVerdict: v}
			if alternatives && !v.IsAvailable {
				if out.Alternatives, err = opts.backend.Availability.SuggestAlternatives(ctx, equipmentID, iv, 0); err != nil {
					return err
				}
			}

			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			if v.IsAvailable {
				fmt.Fprintf(w, "%s is available for %s\n", equipmentID, formatInterval(iv))
				return nil
			}
			fmt.Fprintf(w, "%s is NOT available for %s\n", equipmentID, formatInterval(iv))
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			for _, b := range v.ConflictingBookings {
				fmt.Fprintf(tw, "  booking\t%s\t%s\t%s\n", b.BookingNumber, b.Status, formatInterval(b.Interval))
			}
			for _, iv := range v.BlackoutDates {
				fmt.Fprintf(tw, "  blocked\t\t\t%s\n", formatInterval(iv))
			}
			tw.Flush()
			if v.NextAvailableDate != nil {
				fmt.Fprintf(w, "Next available: %s\n", formatTime(*v.NextAvailableDate))
			}
			for _, a := range out.Alternatives {
				fmt.Fprintf(w, "Alternative (%s): %s\n", a.Reason, formatInterval(a.Interval))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&equipmentID, "equipment", "", "Equipment ID")
	cmd.Flags().StringVar(&start, "start", "", "Start (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End, exclusive (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&exclude, "exclude-booking", "", "Booking ID to ignore, for reschedules")
	cmd.Flags().BoolVar(&alternatives, "alternatives", false, "Suggest nearby free intervals when taken")
	return cmd
}
