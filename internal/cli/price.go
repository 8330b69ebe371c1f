package cli

import (
	"fmt"
	"text/tabwriter"

	"equiprent-backend/internal/service"

	"github.com/spf13/cobra"
)

func priceCmd(opts *rootOptions) *cobra.Command {
	var req service.PricingRequest
	var start, end string

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Quote a rental",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("equipment", req.EquipmentID); err != nil {
				return err
			}
			iv, err := parseInterval(start, end)
			if err != nil {
				return err
			}
			req.Interval = iv

			q, err := opts.backend.Pricing.CalculatePricing(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), q)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Equipment\t%s\n", q.EquipmentID)
			fmt.Fprintf(tw, "Interval\t%s (%d days)\n", formatInterval(q.Interval), q.Days)
			fmt.Fprintf(tw, "Tiers\t%d months, %d weeks, %d days\n", q.Tiers.Months, q.Tiers.Weeks, q.Tiers.Days)
			if q.Season != "" {
				fmt.Fprintf(tw, "Season\t%s (x%.2f)\n", q.Season, q.SeasonalMultiplier)
			}
			fmt.Fprintf(tw, "Subtotal\t%s\n", formatCents(q.Subtotal))
			fmt.Fprintf(tw, "Delivery\t%s\n", formatCents(q.DeliveryFee))
			fmt.Fprintf(tw, "Float\t%s\n", formatCents(q.FloatFee))
			fmt.Fprintf(tw, "Taxes (%.1f%%)\t%s\n", q.TaxRate*100, formatCents(q.Taxes))
			fmt.Fprintf(tw, "Total\t%s\n", formatCents(q.TotalAmount))
			fmt.Fprintf(tw, "Deposit\t%s\n", formatCents(q.SecurityDeposit))
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&req.EquipmentID, "equipment", "", "Equipment ID")
	cmd.Flags().StringVar(&start, "start", "", "Start (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End, exclusive (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.CustomerID, "customer", "", "Customer ID")
	cmd.Flags().StringVar(&req.DeliveryCity, "delivery-city", "", "Delivery city; empty means pickup")
	cmd.Flags().StringVar(&req.Jurisdiction, "jurisdiction", "", "Tax jurisdiction")
	return cmd
}
