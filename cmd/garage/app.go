package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/diewo77/go-garage/internal/config"
	"github.com/diewo77/go-garage/internal/db"
	"github.com/diewo77/go-garage/internal/logger"
	"github.com/diewo77/go-garage/internal/report"
	"github.com/diewo77/go-garage/internal/services"
	"github.com/diewo77/go-garage/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app holds everything a command needs. It is built once per invocation.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	logClose io.Closer
	store    *store.Store
	workflow *services.EstimateWorkflow
	renderer *report.Renderer
	writer   report.Writer
	out      io.Writer
}

type rootOptions struct {
	configPath string
	out        io.Writer
	errOut     io.Writer
}

func newApp(o *rootOptions) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	log, closer, err := logger.Setup(cfg.Logging, o.errOut)
	if err != nil {
		return nil, fmt.Errorf("logger setup: %w", err)
	}
	entry := logrus.NewEntry(log)
	st := store.New(db.Opener(cfg.Database, log), entry)
	return &app{
		cfg:      cfg,
		log:      log,
		logClose: closer,
		store:    st,
		workflow: services.NewEstimateWorkflow(st, entry),
		renderer: report.NewRenderer(cfg.Reports),
		writer:   report.Writer{Dir: cfg.Reports.OutputDir},
		out:      o.out,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.logClose.Close())
}

// withApp adapts fn to cobra, opening the app before the command runs and
// closing it afterwards.
func withApp(o *rootOptions, fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(o)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		if err := fn(a, cmd, args); err != nil {
			a.log.WithError(err).WithField("command", cmd.CommandPath()).Debug("command failed")
			return err
		}
		return nil
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	o := &rootOptions{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "garage",
		Short:         "Estimates, job cards and inventory for a vehicle repair shop",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "path to config.yml (default ./config.yml or ./configs/config.yml)")

	root.AddCommand(
		newMigrateCmd(o),
		newSeedCmd(o),
		newEstimateCmd(o),
		newServiceCmd(o),
		newInventoryCmd(o),
		newJobCardCmd(o),
		newReportCmd(o),
	)
	return root
}

func newMigrateCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			if _, err := a.store.DB(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Migrations completed successfully")
			return nil
		}),
	}
}

func newSeedCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample inventory",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			conn, err := a.store.DB()
			if err != nil {
				return err
			}
			if err := db.Seed(conn); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			fmt.Fprintln(a.out, "Seeding completed successfully")
			return nil
		}),
	}
}
