package services

import (
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/pricing"
	"github.com/diewo77/go-garage/internal/validation"
	"github.com/sirupsen/logrus"
)

type fakeStore struct {
	createErrs  []error
	jobCardErr  error
	creates     int
	estimates   map[uint]*models.Estimate
	lines       map[uint][]models.Service
	jobCards    []models.JobCard
	lastCreated *models.Estimate
}

func newFakeStore() *fakeStore {
	return &fakeStore{estimates: map[uint]*models.Estimate{}, lines: map[uint][]models.Service{}}
}

func (f *fakeStore) CreateEstimateWithServices(est *models.Estimate, lines []models.Service) (uint, error) {
	f.creates++
	f.lastCreated = est
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	id := uint(len(f.estimates) + 1)
	cp := *est
	cp.ID = id
	cp.Services = lines
	f.estimates[id] = &cp
	f.lines[id] = lines
	return id, nil
}

func (f *fakeStore) AddJobCard(estimateID uint, jc *models.JobCard) (uint, error) {
	if f.jobCardErr != nil {
		return 0, f.jobCardErr
	}
	jc.EstimateID = estimateID
	jc.ID = uint(len(f.jobCards) + 1)
	f.jobCards = append(f.jobCards, *jc)
	return jc.ID, nil
}

func (f *fakeStore) GetEstimate(id uint) (*models.Estimate, error) {
	e, ok := f.estimates[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return e, nil
}

func quietEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func validDraft() EstimateDraft {
	return EstimateDraft{
		Customer: models.Customer{Name: " Ama Mensah ", Phone: "0241234567", Email: "AMA@example.com"},
		Vehicle:  models.Vehicle{Make: "Toyota", Model: "Corolla", Year: 2018, VIN: " 1hgcm82633a004352 "},
		Subtotal: 100,
		Services: []models.Service{{Description: "Oil change", PartsCost: 80, LaborCost: 20}},
	}
}

func newWorkflow(store EstimateStore) *EstimateWorkflow {
	w := NewEstimateWorkflow(store, quietEntry())
	w.now = func() time.Time { return time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC) }
	return w
}

func TestWorkflowHappyPath(t *testing.T) {
	fs := newFakeStore()
	w := newWorkflow(fs)
	run, err := w.Submit(validDraft(), &models.JobCard{Technician: "Kofi"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if run.State() != StateJobCardLinked {
		t.Fatalf("expected job_card_linked, got %s", run.State())
	}
	est := run.Estimate()
	if est.ID != 1 || math.Abs(est.TotalAmount-121.9) > pricing.Tolerance || math.Abs(est.VAT-15.9) > pricing.Tolerance {
		t.Fatalf("unexpected estimate %+v", est)
	}
	if est.Customer.Name != "Ama Mensah" || est.Customer.Phone != "(024) 123-4567" || est.Customer.Email != "ama@example.com" {
		t.Fatalf("customer not normalized: %+v", est.Customer)
	}
	if est.Vehicle.VIN != "1HGCM82633A004352" {
		t.Fatalf("vin not normalized: %q", est.Vehicle.VIN)
	}
	if est.Status != models.EstimateStatusPending || !est.Date.Equal(w.now()) {
		t.Fatalf("defaults not applied: %q %v", est.Status, est.Date)
	}
	if len(fs.jobCards) != 1 || fs.jobCards[0].EstimateID != 1 || run.JobCard() == nil {
		t.Fatalf("job card not linked: %+v", fs.jobCards)
	}
	if got := fs.lines[1]; len(got) != 1 || got[0].TotalCost != 100 {
		t.Fatalf("lines not passed through: %+v", got)
	}

	loaded, err := w.Load(1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != 1 {
		t.Fatalf("loaded wrong estimate %d", loaded.ID)
	}
}

func TestWorkflowRejectsInvalidDraft(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*EstimateDraft)
		field string
	}{
		{"zero subtotal", func(d *EstimateDraft) { d.Subtotal = 0 }, "subtotal"},
		{"negative subtotal", func(d *EstimateDraft) { d.Subtotal = -5 }, "subtotal"},
		{"missing customer", func(d *EstimateDraft) { d.Customer.Name = "" }, "customer_name"},
		{"missing make", func(d *EstimateDraft) { d.Vehicle.Make = " " }, "vehicle_make"},
		{"missing model", func(d *EstimateDraft) { d.Vehicle.Model = "" }, "vehicle_model"},
		{"bad vin", func(d *EstimateDraft) { d.Vehicle.VIN = "12345" }, "vehicle_vin"},
		{"bad email", func(d *EstimateDraft) { d.Customer.Email = "nobody" }, "customer_email"},
		{"bad phone", func(d *EstimateDraft) { d.Customer.Phone = "123" }, "customer_phone"},
		{"blank line", func(d *EstimateDraft) { d.Services[0].Description = "" }, "services[0].description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeStore()
			w := newWorkflow(fs)
			d := validDraft()
			tt.edit(&d)
			run := w.Start(d)
			err := w.Price(run)
			var ve *validation.Error
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := ve.Violations[tt.field]; !ok {
				t.Fatalf("expected violation on %s, got %v", tt.field, ve.Violations)
			}
			if run.State() != StateDraft {
				t.Fatalf("run left draft: %s", run.State())
			}
			if fs.creates != 0 {
				t.Fatalf("store touched on invalid draft")
			}
		})
	}
}

func TestWorkflowSubtotalMessage(t *testing.T) {
	d := validDraft()
	d.Subtotal = 0
	_, err := newWorkflow(newFakeStore()).Submit(d, nil)
	if err == nil || err.Error() != "subtotal must be greater than zero" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestWorkflowPersistRetryKeepsPricing(t *testing.T) {
	fs := newFakeStore()
	fs.createErrs = []error{errors.New("database is locked")}
	w := newWorkflow(fs)
	run := w.Start(validDraft())
	if err := w.Price(run); err != nil {
		t.Fatal(err)
	}
	priced := run.Levies()

	if err := w.Persist(run); err == nil {
		t.Fatal("expected first persist to fail")
	}
	if run.State() != StatePriced || run.Estimate() != nil {
		t.Fatalf("failed persist moved the run: %s", run.State())
	}
	if err := w.Price(run); !errors.Is(err, ErrWrongState) {
		t.Fatalf("re-pricing a priced run must be refused, got %v", err)
	}

	if err := w.Persist(run); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if run.State() != StatePersisted {
		t.Fatalf("expected persisted, got %s", run.State())
	}
	if run.Levies() != priced || fs.lastCreated.TotalAmount != priced.Total {
		t.Fatalf("levies changed across retry")
	}
	if fs.creates != 2 {
		t.Fatalf("expected two create attempts, got %d", fs.creates)
	}
}

func TestWorkflowJobCardFailureIsBestEffort(t *testing.T) {
	fs := newFakeStore()
	fs.jobCardErr = errors.New("estimate 1 not found")
	w := newWorkflow(fs)
	run, err := w.Submit(validDraft(), &models.JobCard{Technician: "Kofi"})
	if err != nil {
		t.Fatalf("job card failure must not fail the submit: %v", err)
	}
	if run.State() != StatePersisted {
		t.Fatalf("expected persisted, got %s", run.State())
	}
	if run.JobCardErr() == nil {
		t.Fatal("job card failure not recorded")
	}
	if _, ok := fs.estimates[run.Estimate().ID]; !ok {
		t.Fatal("estimate rolled back after job card failure")
	}

	fs.jobCardErr = nil
	if err := w.LinkJobCard(run, models.JobCard{Technician: "Kofi"}); err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if run.State() != StateJobCardLinked || run.JobCardErr() != nil {
		t.Fatalf("expected linked, got %s (%v)", run.State(), run.JobCardErr())
	}
}

func TestWorkflowStepsOutOfOrder(t *testing.T) {
	w := newWorkflow(newFakeStore())
	run := w.Start(validDraft())
	if err := w.Persist(run); !errors.Is(err, ErrWrongState) {
		t.Fatalf("persist from draft: %v", err)
	}
	if err := w.LinkJobCard(run, models.JobCard{}); !errors.Is(err, ErrWrongState) {
		t.Fatalf("link from draft: %v", err)
	}
}

func TestWorkflowLoadDetectsCorruption(t *testing.T) {
	fs := newFakeStore()
	fs.estimates[7] = &models.Estimate{ID: 7, Subtotal: 100, NHIL: 2.5, GETFund: 2.5, COVIDLevy: 1, VAT: 15.9, TotalAmount: 125}
	w := newWorkflow(fs)
	if _, err := w.Load(7); !errors.Is(err, pricing.ErrCorruptEstimate) {
		t.Fatalf("expected corrupt estimate, got %v", err)
	}
}
