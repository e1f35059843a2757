package main

import (
	"fmt"
	"strings"

	"github.com/diewo77/go-garage/internal/report"
	"github.com/diewo77/go-garage/internal/store"
	"github.com/diewo77/go-garage/internal/validation"
	"github.com/spf13/cobra"
)

func newReportCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export PDF and XLSX documents to the report directory",
	}
	cmd.AddCommand(
		newEstimateReportCmd(o),
		newJobCardReportCmd(o),
		newInventoryReportCmd(o),
		newEstimatesReportCmd(o),
		newHistoryReportCmd(o),
	)
	return cmd
}

func (a *app) save(name string, data []byte) error {
	path, err := a.writer.Save(name, data)
	if err != nil {
		return err
	}
	a.log.WithField("path", path).Info("report written")
	fmt.Fprintln(a.out, path)
	return nil
}

func checkFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f != "pdf" && f != "xlsx" {
		return "", validation.New("format", fmt.Sprintf("format %q must be pdf or xlsx", format))
	}
	return f, nil
}

func newEstimateReportCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "estimate ID",
		Short: "Render one estimate as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(o, func(a *app, _ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			est, err := a.workflow.Load(id)
			if err != nil {
				return err
			}
			data, err := a.renderer.EstimatePDF(est)
			if err != nil {
				return err
			}
			return a.save(report.EstimateFileName(est.ID), data)
		}),
	}
}

func newJobCardReportCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "jobcard ID",
		Short: "Render one job card as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(o, func(a *app, _ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			jc, err := a.store.GetJobCard(id)
			if err != nil {
				return err
			}
			est, err := a.store.GetEstimate(jc.EstimateID)
			if err != nil {
				return err
			}
			data, err := a.renderer.JobCardPDF(jc, est)
			if err != nil {
				return err
			}
			return a.save(report.JobCardFileName(jc.ID), data)
		}),
	}
}

func newInventoryReportCmd(o *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Export the stock list",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			ext, err := checkFormat(format)
			if err != nil {
				return err
			}
			items, err := store.Collect(a.store.ListInventory())
			if err != nil {
				return err
			}
			var data []byte
			if ext == "xlsx" {
				data, err = a.renderer.InventoryXLSX(items)
			} else {
				data, err = a.renderer.InventoryPDF(items)
			}
			if err != nil {
				return err
			}
			return a.save(report.InventoryFileName(a.renderer.Now(), ext), data)
		}),
	}
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf or xlsx")
	return cmd
}

func newEstimatesReportCmd(o *rootOptions) *cobra.Command {
	var from, to, format string
	cmd := &cobra.Command{
		Use:   "estimates",
		Short: "Export the estimates dated within a period",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			ext, err := checkFormat(format)
			if err != nil {
				return err
			}
			start, end, err := dateRange(from, to)
			if err != nil {
				return err
			}
			ests, err := store.Collect(a.store.ListEstimatesBetween(start, end))
			if err != nil {
				return err
			}
			var data []byte
			if ext == "xlsx" {
				data, err = a.renderer.EstimatesXLSX(start, end, ests)
			} else {
				data, err = a.renderer.EstimatesSummaryPDF(start, end, ests)
			}
			if err != nil {
				return err
			}
			return a.save(report.EstimatesFileName(start, end, ext), data)
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&format, "format", "pdf", "pdf or xlsx")
	return cmd
}

func newHistoryReportCmd(o *rootOptions) *cobra.Command {
	var customer string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Render a customer's service history as PDF",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			name := strings.TrimSpace(customer)
			if name == "" {
				return validation.New("customer", "customer is required")
			}
			ests, err := store.Collect(a.store.ListEstimatesForCustomer(name))
			if err != nil {
				return err
			}
			data, err := a.renderer.ServiceHistoryPDF(name, ests)
			if err != nil {
				return err
			}
			return a.save(report.ServiceHistoryFileName(a.renderer.Now()), data)
		}),
	}
	cmd.Flags().StringVar(&customer, "customer", "", "customer name")
	return cmd
}
