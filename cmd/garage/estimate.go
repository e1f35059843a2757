package main

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/pricing"
	"github.com/diewo77/go-garage/internal/report"
	"github.com/diewo77/go-garage/internal/services"
	"github.com/diewo77/go-garage/internal/store"
	"github.com/spf13/cobra"
)

type estimateOptions struct {
	customer    models.Customer
	vehicle     models.Vehicle
	lastService string
	subtotal    float64
	lines       []string
	date        string
	status      string
	notes       string

	jobCard    bool
	technician string
	laborHours float64
	jobNotes   string
}

func newEstimateCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "estimate",
		Aliases: []string{"estimates"},
		Short:   "Create and inspect estimates",
	}
	cmd.AddCommand(
		newEstimateCreateCmd(o),
		newEstimateListCmd(o),
		newEstimateShowCmd(o),
		newEstimateStatusCmd(o),
	)
	return cmd
}

func newEstimateCreateCmd(o *rootOptions) *cobra.Command {
	var opts estimateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Price and save a new estimate, optionally with a job card",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, cmd *cobra.Command, _ []string) error {
			draft, err := opts.draft(cmd.Flags().Changed("subtotal"))
			if err != nil {
				return err
			}
			var jc *models.JobCard
			if opts.jobCard {
				jc = &models.JobCard{Technician: opts.technician, LaborHours: opts.laborHours, Notes: opts.jobNotes}
			}
			run, err := a.workflow.Submit(draft, jc)
			if err != nil {
				return err
			}
			est := run.Estimate()
			fmt.Fprintf(a.out, "Estimate #%d saved\n", est.ID)
			printBreakdown(a, est)
			switch {
			case run.JobCardErr() != nil:
				fmt.Fprintf(a.out, "Warning: job card not created: %v\n", run.JobCardErr())
			case run.JobCard() != nil:
				fmt.Fprintf(a.out, "Job card #%d created\n", run.JobCard().ID)
			}
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&opts.customer.Name, "customer", "", "customer name")
	f.StringVar(&opts.customer.Phone, "phone", "", "customer phone")
	f.StringVar(&opts.customer.Email, "email", "", "customer email")
	f.StringVar(&opts.vehicle.Make, "make", "", "vehicle make")
	f.StringVar(&opts.vehicle.Model, "model", "", "vehicle model")
	f.IntVar(&opts.vehicle.Year, "year", 0, "vehicle model year")
	f.StringVar(&opts.vehicle.VIN, "vin", "", "17 character VIN")
	f.IntVar(&opts.vehicle.Mileage, "mileage", 0, "odometer reading")
	f.StringVar(&opts.vehicle.LicensePlate, "plate", "", "license plate")
	f.StringVar(&opts.lastService, "last-service", "", "last service date (YYYY-MM-DD)")
	f.Float64Var(&opts.subtotal, "subtotal", 0, "pre-levy amount; defaults to the sum of --service lines")
	f.StringArrayVar(&opts.lines, "service", nil, `service line "description:parts:labor" (repeatable)`)
	f.StringVar(&opts.date, "date", "", "estimate date (YYYY-MM-DD, default today)")
	f.StringVar(&opts.status, "status", string(models.EstimateStatusPending), "estimate status")
	f.StringVar(&opts.notes, "notes", "", "free text notes")
	f.BoolVar(&opts.jobCard, "jobcard", false, "also raise a job card")
	f.StringVar(&opts.technician, "technician", "", "job card technician")
	f.Float64Var(&opts.laborHours, "labor-hours", 0, "job card labor hours")
	f.StringVar(&opts.jobNotes, "jobcard-notes", "", "job card notes")
	return cmd
}

func (opts *estimateOptions) draft(subtotalSet bool) (services.EstimateDraft, error) {
	d := services.EstimateDraft{
		Customer: opts.customer,
		Vehicle:  opts.vehicle,
		Subtotal: opts.subtotal,
		Status:   models.EstimateStatus(opts.status),
		Notes:    opts.notes,
	}
	last, err := parseDate("last_service_date", opts.lastService)
	if err != nil {
		return d, err
	}
	if !last.IsZero() {
		d.Vehicle.LastServiceDate = &last
	}
	if d.Date, err = parseDate("date", opts.date); err != nil {
		return d, err
	}
	for _, line := range opts.lines {
		svc, err := parseServiceLine(line)
		if err != nil {
			return d, err
		}
		d.Services = append(d.Services, svc)
	}
	if !subtotalSet {
		d.Subtotal = pricing.SubtotalFromServices(d.Services)
	}
	return d, nil
}

func printBreakdown(a *app, est *models.Estimate) {
	tw := newTable(a.out)
	fmt.Fprintf(tw, "Subtotal\t%s\n", a.renderer.Money(est.Subtotal))
	fmt.Fprintf(tw, "NHIL (2.5%%)\t%s\n", a.renderer.Money(est.NHIL))
	fmt.Fprintf(tw, "GETFund (2.5%%)\t%s\n", a.renderer.Money(est.GETFund))
	fmt.Fprintf(tw, "COVID-19 (1%%)\t%s\n", a.renderer.Money(est.COVIDLevy))
	fmt.Fprintf(tw, "Levied amount\t%s\n", a.renderer.Money(est.LeviedAmount()))
	fmt.Fprintf(tw, "VAT (15%%)\t%s\n", a.renderer.Money(est.VAT))
	fmt.Fprintf(tw, "Total\t%s\n", a.renderer.Money(est.TotalAmount))
	tw.Flush()
}

func newEstimateListCmd(o *rootOptions) *cobra.Command {
	var from, to, customer string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List estimates, newest first",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			seq, err := estimateQuery(a, from, to, customer)
			if err != nil {
				return err
			}
			tw := newTable(a.out)
			fmt.Fprintln(tw, "ID\tDATE\tCUSTOMER\tVEHICLE\tSTATUS\tTOTAL")
			var listed []models.Estimate
			for est, err := range seq {
				if err != nil {
					tw.Flush()
					return err
				}
				listed = append(listed, est)
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", est.ID, est.Date.Format(dateLayout),
					est.Customer.Name, est.Vehicle.FullName(), est.Status, report.Amount(est.TotalAmount))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if customer != "" {
				if v := models.CountVisits(listed); v.Count > 0 {
					fmt.Fprintf(a.out, "Visits: %d (last %s)\n", v.Count, v.Last.Format(dateLayout))
				}
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&customer, "customer", "", "only this customer's estimates")
	return cmd
}

// estimateQuery picks the listing for the given filters. A date range needs
// both ends; a customer filter cannot be combined with one.
func estimateQuery(a *app, from, to, customer string) (iter.Seq2[models.Estimate, error], error) {
	if customer != "" {
		if from != "" || to != "" {
			return nil, errors.New("--customer cannot be combined with --from/--to")
		}
		return a.store.ListEstimatesForCustomer(customer), nil
	}
	if from == "" && to == "" {
		return a.store.ListEstimates(), nil
	}
	start, end, err := dateRange(from, to)
	if err != nil {
		return nil, err
	}
	return a.store.ListEstimatesBetween(start, end), nil
}

func dateRange(from, to string) (time.Time, time.Time, error) {
	if from == "" || to == "" {
		return time.Time{}, time.Time{}, errors.New("both --from and --to are required")
	}
	start, err := parseDate("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, errors.New("start date must not be after end date")
	}
	return start, end, nil
}

func newEstimateShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one estimate with its service lines",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(o, func(a *app, _ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			est, err := a.workflow.Load(id)
			if est == nil {
				return err
			}
			printEstimate(a, est)
			if errors.Is(err, pricing.ErrCorruptEstimate) {
				fmt.Fprintln(a.out, "Warning: stored amounts do not match the levy schedule")
			}
			return err
		}),
	}
}

func printEstimate(a *app, est *models.Estimate) {
	tw := newTable(a.out)
	fmt.Fprintf(tw, "Estimate\t#%d\n", est.ID)
	fmt.Fprintf(tw, "Date\t%s\n", est.Date.Format(dateLayout))
	fmt.Fprintf(tw, "Status\t%s\n", est.Status)
	fmt.Fprintf(tw, "Customer\t%s\n", est.Customer)
	fmt.Fprintf(tw, "Vehicle\t%s\n", est.Vehicle)
	if est.Notes != "" {
		fmt.Fprintf(tw, "Notes\t%s\n", est.Notes)
	}
	tw.Flush()
	if len(est.Services) > 0 {
		fmt.Fprintln(a.out)
		tw = newTable(a.out)
		fmt.Fprintln(tw, "#\tDESCRIPTION\tPARTS\tLABOR\tTOTAL")
		for i, s := range est.Services {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, s.Description,
				report.Amount(s.PartsCost), report.Amount(s.LaborCost), report.Amount(s.TotalCost))
		}
		fmt.Fprintf(tw, "\t\t\t\t%s\n", report.Amount(est.ServicesTotal()))
		tw.Flush()
	}
	fmt.Fprintln(a.out)
	printBreakdown(a, est)
}

func newEstimateStatusCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change an estimate's status label",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(o, func(a *app, _ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.store.UpdateEstimateStatus(id, models.EstimateStatus(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Estimate #%d is now %s\n", id, args[1])
			return nil
		}),
	}
}

func newServiceCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage estimate service lines",
	}
	var desc string
	var parts, labor float64
	add := &cobra.Command{
		Use:   "add ESTIMATE_ID",
		Short: "Append a service line to an estimate",
		Long:  "Append a service line to an estimate. The estimate's stored amounts are not repriced.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(o, func(a *app, _ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc := models.NewService(desc, parts, labor)
			sid, err := a.store.AddService(id, &svc)
			if err != nil {
				if store.IsNotFound(err) {
					return fmt.Errorf("estimate #%d does not exist", id)
				}
				return err
			}
			fmt.Fprintf(a.out, "Service #%d added to estimate #%d (%s)\n", sid, id, a.renderer.Money(svc.TotalCost))
			return nil
		}),
	}
	add.Flags().StringVar(&desc, "description", "", "what will be done")
	add.Flags().Float64Var(&parts, "parts", 0, "parts cost")
	add.Flags().Float64Var(&labor, "labor", 0, "labor cost")
	cmd.AddCommand(add)
	return cmd
}
