package cli

import (
	"fmt"
	"text/tabwriter"

	"equiprent-backend/internal/domain"

	"github.com/spf13/cobra"
)

func blockCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Manage availability blocks",
	}
	cmd.AddCommand(blockCreateCmd(opts))
	cmd.AddCommand(blockDeleteCmd(opts))
	cmd.AddCommand(blockListCmd(opts))
	return cmd
}

func blockCreateCmd(opts *rootOptions) *cobra.Command {
	var equipmentID, start, end, reason, notes, createdBy string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Block a unit for an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			iv, err := parseInterval(start, end)
			if err != nil {
				return err
			}
			b, err := opts.backend.Blocks.CreateBlock(cmd.Context(), equipmentID, iv, domain.BlockReason(reason), notes, createdBy)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), b)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s block %s on %s for %s\n", b.Reason, b.ID, b.EquipmentID, formatInterval(b.Interval))
			return nil
		},
	}
	cmd.Flags().StringVar(&equipmentID, "equipment", "", "Equipment ID")
	cmd.Flags().StringVar(&start, "start", "", "Start (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End, exclusive (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&reason, "reason", string(domain.BlockReasonMaintenance), "booked, maintenance, blackout, buffer or reserved")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "Admin user ID")
	return cmd
}

func blockDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <block-id>",
		Short: "Delete a block (no-op when it does not exist)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.backend.Blocks.DeleteBlock(cmd.Context(), args[0]); err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted block %s\n", args[0])
			return nil
		},
	}
}

func blockListCmd(opts *rootOptions) *cobra.Command {
	var equipmentID, start, end string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List blocks for a unit",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				blocks []domain.AvailabilityBlock
				err    error
			)
			if start == "" && end == "" {
				blocks, err = opts.backend.Blocks.ListBlocksForEquipment(cmd.Context(), equipmentID)
			} else {
				var iv domain.Interval
				if iv, err = parseInterval(start, end); err == nil {
					blocks, err = opts.backend.Blocks.ListBlocks(cmd.Context(), equipmentID, iv)
				}
			}
			if err != nil {
				return err
			}

			if opts.outputJSON {
				if blocks == nil {
					blocks = []domain.AvailabilityBlock{}
				}
				return writeJSON(cmd.OutOrStdout(), blocks)
			}
			if len(blocks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No blocks")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tREASON\tINTERVAL\tNOTES")
			for _, b := range blocks {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Reason, formatInterval(b.Interval), b.Notes)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&equipmentID, "equipment", "", "Equipment ID")
	cmd.Flags().StringVar(&start, "start", "", "Window start; omit for now until the search horizon")
	cmd.Flags().StringVar(&end, "end", "", "Window end")
	return cmd
}
