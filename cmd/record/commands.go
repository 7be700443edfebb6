package record

import (
	"fmt"
	"strconv"

	"github.com/dzakmu/UNDIP-Sietem-Rumah-Sakit/lib/records"
	"github.com/spf13/cobra"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [name] [complaint]",
		Short: "Adds a patient record and prints it with its new id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := rpcRecords.AddPatientRecord(records.Payload{Name: args[0], Complaint: args[1]})
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), rec)
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Reads the patient record with the given id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := rpcRecords.GetPatientRecord(id)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), rec)
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [id] [name] [complaint]",
		Short: "Replaces name and complaint of an existing patient record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := rpcRecords.UpdatePatientRecord(id, records.Payload{Name: args[1], Complaint: args[2]})
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), rec)
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Deletes a patient record and prints the removed record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := rpcRecords.DeletePatientRecord(id)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), rec)
		},
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists patient records in ascending id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			after, _ := cmd.Flags().GetUint64("after")
			limit, _ := cmd.Flags().GetInt("limit")
			recs, err := rpcRecords.ListPatientRecords(after, limit)
			if err != nil {
				return err
			}
			return printRecords(cmd.OutOrStdout(), recs...)
		},
	}
)

func init() {
	listCmd.Flags().Uint64("after", 0, "Only list records with an id greater than this")
	listCmd.Flags().Int("limit", records.DefaultListLimit, fmt.Sprintf("Maximum number of records (at most %d)", records.MaxListLimit))
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be a positive number: %w", err)
	}
	return id, nil
}
