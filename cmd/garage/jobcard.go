package main

import (
	"fmt"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/store"
	"github.com/spf13/cobra"
)

func newJobCardCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobcard",
		Aliases: []string{"jobcards"},
		Short:   "Raise and track job cards",
	}
	cmd.AddCommand(newJobCardAddCmd(o), newJobCardListCmd(o), newJobCardStatusCmd(o))
	return cmd
}

func newJobCardAddCmd(o *rootOptions) *cobra.Command {
	var jc models.JobCard
	var status string
	cmd := &cobra.Command{
		Use:   "add ESTIMATE_ID",
		Short: "Raise a job card against an existing estimate",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(o, func(a *app, _ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := models.ParseJobCardStatus(status)
			if err != nil {
				return err
			}
			jc.Status = st
			jid, err := a.store.AddJobCard(id, &jc)
			if err != nil {
				if store.IsNotFound(err) {
					return fmt.Errorf("estimate #%d does not exist", id)
				}
				return err
			}
			fmt.Fprintf(a.out, "Job card #%d created for estimate #%d\n", jid, id)
			return nil
		}),
	}
	cmd.Flags().StringVar(&jc.Technician, "technician", "", "assigned technician")
	cmd.Flags().Float64Var(&jc.LaborHours, "labor-hours", 0, "labor hours")
	cmd.Flags().StringVar(&jc.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&status, "status", string(models.JobCardStatusPending), "pending, in_progress, completed or cancelled")
	return cmd
}

func newJobCardListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List job cards, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			tw := newTable(a.out)
			fmt.Fprintln(tw, "ID\tESTIMATE\tCUSTOMER\tVEHICLE\tSTATUS\tTECHNICIAN\tHOURS")
			for jc, err := range a.store.ListJobCards() {
				if err != nil {
					tw.Flush()
					return err
				}
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s %s\t%s\t%s\t%.2f\n", jc.ID, jc.EstimateID, jc.CustomerName,
					jc.VehicleMake, jc.VehicleModel, jc.Status, jc.Technician, jc.LaborHours)
			}
			return tw.Flush()
		}),
	}
}

func newJobCardStatusCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move a job card to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(o, func(a *app, _ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			next, err := models.ParseJobCardStatus(args[1])
			if err != nil {
				return err
			}
			jc, err := a.store.UpdateJobCardStatus(id, next, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Job card #%d is now %s\n", jc.ID, jc.Status)
			return nil
		}),
	}
}
