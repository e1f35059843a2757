package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/pricing"
	"github.com/diewo77/go-garage/internal/validation"
	"github.com/sirupsen/logrus"
)

// EstimateState is the position of one estimate run in the workflow.
type EstimateState string

const (
	StateDraft         EstimateState = "draft"
	StatePriced        EstimateState = "priced"
	StatePersisted     EstimateState = "persisted"
	StateJobCardLinked EstimateState = "job_card_linked"
)

// ErrWrongState is returned when a step is invoked out of order.
var ErrWrongState = errors.New("estimate workflow step out of order")

// EstimateStore is the part of the persistence layer the workflow drives.
type EstimateStore interface {
	CreateEstimateWithServices(est *models.Estimate, lines []models.Service) (uint, error)
	AddJobCard(estimateID uint, jc *models.JobCard) (uint, error)
	GetEstimate(id uint) (*models.Estimate, error)
}

// EstimateDraft is the form data collected before pricing.
type EstimateDraft struct {
	Customer models.Customer
	Vehicle  models.Vehicle
	Subtotal float64
	Services []models.Service
	Date     time.Time
	Status   models.EstimateStatus
	Notes    string
}

// EstimateRun tracks one estimate from draft to persisted record.
type EstimateRun struct {
	state      EstimateState
	draft      EstimateDraft
	levies     pricing.LevyBreakdown
	estimate   *models.Estimate
	jobCard    *models.JobCard
	jobCardErr error
}

func (r *EstimateRun) State() EstimateState { return r.state }
func (r *EstimateRun) Draft() EstimateDraft { return r.draft }
func (r *EstimateRun) Levies() pricing.LevyBreakdown { return r.levies }
func (r *EstimateRun) Estimate() *models.Estimate { return r.estimate }
func (r *EstimateRun) JobCard() *models.JobCard { return r.jobCard }

// JobCardErr is the failure of the last job card attempt, if any.
func (r *EstimateRun) JobCardErr() error { return r.jobCardErr }

// EstimateWorkflow sequences validation, pricing, persistence and the
// optional job card for new estimates.
type EstimateWorkflow struct {
	store EstimateStore
	log   *logrus.Entry
	now   func() time.Time
}

// NewEstimateWorkflow drives store; a nil log falls back to the standard logger.
func NewEstimateWorkflow(store EstimateStore, log *logrus.Entry) *EstimateWorkflow {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &EstimateWorkflow{store: store, log: log.WithField("component", "estimate_workflow"), now: time.Now}
}

// Start opens a run in the Draft state.
func (w *EstimateWorkflow) Start(d EstimateDraft) *EstimateRun {
	return &EstimateRun{state: StateDraft, draft: d}
}

// Price validates the draft and computes the levies. On failure the run stays in Draft.
func (w *EstimateWorkflow) Price(r *EstimateRun) error {
	if r.state != StateDraft {
		return fmt.Errorf("%w: price from %s", ErrWrongState, r.state)
	}
	d := r.draft
	v := validation.Violations{}
	v.Merge(d.Customer.Normalize())
	v.Merge(d.Vehicle.Normalize(w.now()))
	lines := make([]models.Service, len(d.Services))
	for i, s := range d.Services {
		for field, msg := range s.Validate() {
			v.Add(fmt.Sprintf("services[%d].%s", i, field), fmt.Sprintf("service %d: %s", i+1, msg))
		}
		lines[i] = models.NewService(s.Description, s.PartsCost, s.LaborCost)
	}
	d.Services = lines
	d.Notes = strings.TrimSpace(d.Notes)

	levies, err := pricing.ComputeLevies(d.Subtotal)
	if err != nil {
		var ve *validation.Error
		if !errors.As(err, &ve) {
			return err
		}
		v.Merge(ve.Violations)
	}
	if err := v.Err(); err != nil {
		w.log.WithError(err).Debug("estimate draft rejected")
		return err
	}
	r.draft = d
	r.levies = levies
	r.state = StatePriced
	return nil
}

// Persist writes the priced estimate and its lines. On failure the run stays
// in Priced and may be retried; the levies are not recomputed.
func (w *EstimateWorkflow) Persist(r *EstimateRun) error {
	if r.state != StatePriced {
		return fmt.Errorf("%w: persist from %s", ErrWrongState, r.state)
	}
	est := w.buildEstimate(r)
	lines := make([]models.Service, len(r.draft.Services))
	copy(lines, r.draft.Services)
	id, err := w.store.CreateEstimateWithServices(est, lines)
	if err != nil {
		w.log.WithError(err).Warn("estimate not saved")
		return err
	}
	est.ID = id
	r.estimate = est
	r.state = StatePersisted
	w.log.WithFields(logrus.Fields{"estimate_id": id, "total": r.levies.Total}).Info("estimate saved")
	return nil
}

func (w *EstimateWorkflow) buildEstimate(r *EstimateRun) *models.Estimate {
	d := r.draft
	est := &models.Estimate{
		Customer: d.Customer,
		Vehicle:  d.Vehicle,
		Date:     d.Date,
		Status:   d.Status,
		Notes:    d.Notes,
	}
	if est.Date.IsZero() {
		est.Date = w.now()
	}
	if est.Status == "" {
		est.Status = models.EstimateStatusPending
	}
	r.levies.Apply(est)
	return est
}

// LinkJobCard raises a job card against the persisted estimate. A failure is
// recorded on the run and returned, but the estimate stays Persisted.
func (w *EstimateWorkflow) LinkJobCard(r *EstimateRun, jc models.JobCard) error {
	if r.state != StatePersisted {
		return fmt.Errorf("%w: link job card from %s", ErrWrongState, r.state)
	}
	if _, err := w.store.AddJobCard(r.estimate.ID, &jc); err != nil {
		r.jobCardErr = err
		w.log.WithError(err).WithField("estimate_id", r.estimate.ID).Warn("job card not created")
		return err
	}
	r.jobCardErr = nil
	r.jobCard = &jc
	r.state = StateJobCardLinked
	return nil
}

// Submit runs the whole chain. A job card failure is not returned; inspect
// run.JobCardErr instead.
func (w *EstimateWorkflow) Submit(d EstimateDraft, jc *models.JobCard) (*EstimateRun, error) {
	r := w.Start(d)
	if err := w.Price(r); err != nil {
		return r, err
	}
	if err := w.Persist(r); err != nil {
		return r, err
	}
	if jc != nil {
		_ = w.LinkJobCard(r, *jc)
	}
	return r, nil
}

// Load reads an estimate with its ordered lines and checks its stored amounts.
func (w *EstimateWorkflow) Load(id uint) (*models.Estimate, error) {
	est, err := w.store.GetEstimate(id)
	if err != nil {
		return nil, err
	}
	if err := pricing.VerifyEstimate(est); err != nil {
		w.log.WithError(err).Error("corrupt estimate")
		return est, err
	}
	return est, nil
}
