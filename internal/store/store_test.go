package store

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-garage/internal/config"
	"github.com/diewo77/go-garage/internal/db"
	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/pricing"
	"github.com/diewo77/go-garage/internal/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func quietEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func openerFor(dsn string) Opener {
	return func() (*gorm.DB, error) {
		d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: logger.Default.LogMode(logger.Silent)})
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(d, config.DatabaseConfig{Driver: config.DriverSQLite}); err != nil {
			return nil, err
		}
		return d, nil
	}
}

func setupTestStore(t *testing.T) *Store {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	s := New(openerFor(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)), quietEntry())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleEstimate(date time.Time) *models.Estimate {
	last := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	return &models.Estimate{
		Customer: models.Customer{Name: "Kwame Boateng", Phone: "(024) 123-4567", Email: "kwame@example.com"},
		Vehicle: models.Vehicle{
			Make: "Toyota", Model: "Corolla", Year: 2019, VIN: "1HGCM82633A004352",
			Mileage: 42000, LicensePlate: "GR-1234-20", LastServiceDate: &last,
		},
		Subtotal: 100, NHIL: 2.5, GETFund: 2.5, COVIDLevy: 1, VAT: 15.9, TotalAmount: 121.9,
		Date:   date,
		Status: models.EstimateStatusPending,
	}
}

func count(t *testing.T, s *Store, model any) int64 {
	t.Helper()
	d, err := s.DB()
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	var n int64
	if err := d.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCreateEstimateRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	date := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	est := sampleEstimate(date)
	lines := []models.Service{
		models.NewService("Oil change", 80, 20),
		{Description: "Brake inspection", PartsCost: 0, LaborCost: 35},
	}
	id, err := s.CreateEstimateWithServices(est, lines)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == 0 || est.ID != id {
		t.Fatalf("expected assigned id, got %d / %d", id, est.ID)
	}

	got, err := s.GetEstimate(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Customer != est.Customer {
		t.Fatalf("customer mismatch: %+v vs %+v", got.Customer, est.Customer)
	}
	if got.Vehicle.Make != "Toyota" || got.Vehicle.VIN != "1HGCM82633A004352" || got.Vehicle.Mileage != 42000 || got.Vehicle.Year != 2019 {
		t.Fatalf("vehicle mismatch: %+v", got.Vehicle)
	}
	if got.Vehicle.LastServiceDate == nil || !got.Vehicle.LastServiceDate.Equal(*est.Vehicle.LastServiceDate) {
		t.Fatalf("last service date mismatch: %v", got.Vehicle.LastServiceDate)
	}
	if got.Subtotal != 100 || got.NHIL != 2.5 || got.GETFund != 2.5 || got.COVIDLevy != 1 || got.VAT != 15.9 || got.TotalAmount != 121.9 {
		t.Fatalf("amounts mismatch: %+v", got)
	}
	if !got.Date.Equal(date) || got.Status != models.EstimateStatusPending {
		t.Fatalf("date/status mismatch: %v %q", got.Date, got.Status)
	}
	if len(got.Services) != 2 || got.Services[0].Description != "Oil change" || got.Services[1].Description != "Brake inspection" {
		t.Fatalf("services not returned in order: %+v", got.Services)
	}
	if got.Services[1].TotalCost != 35 || got.Services[0].TotalCost != 100 {
		t.Fatalf("service totals not derived: %+v", got.Services)
	}
}

func TestCreateEstimateMissingFieldWritesNothing(t *testing.T) {
	s := setupTestStore(t)
	est := sampleEstimate(time.Now())
	est.Customer.Name = "  "
	_, err := s.CreateEstimate(est)
	if !IsPersistence(err) || !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected persistence error for missing field, got %v", err)
	}
	if !strings.Contains(err.Error(), "customer_name") {
		t.Fatalf("error should name the field: %v", err)
	}
	if n := count(t, s, &models.Estimate{}); n != 0 {
		t.Fatalf("expected no rows, got %d", n)
	}
}

func TestCreateEstimateInvalidLineWritesNothing(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.CreateEstimateWithServices(sampleEstimate(time.Now()), []models.Service{
		models.NewService("Wheel alignment", 0, 50),
		models.NewService("", 10, 0),
	})
	if !validation.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := count(t, s, &models.Estimate{}); n != 0 {
		t.Fatalf("estimate written despite invalid line: %d", n)
	}
	if n := count(t, s, &models.Service{}); n != 0 {
		t.Fatalf("services written: %d", n)
	}
}

func TestCreateEstimateRejectsOffScheduleAmounts(t *testing.T) {
	s := setupTestStore(t)
	zero := sampleEstimate(time.Now())
	zero.Subtotal = 0
	negative := sampleEstimate(time.Now())
	negative.Subtotal = -50
	nan := sampleEstimate(time.Now())
	nan.Subtotal = math.NaN()
	wrongTotal := sampleEstimate(time.Now())
	wrongTotal.TotalAmount = 1
	wrongVAT := sampleEstimate(time.Now())
	wrongVAT.VAT += 0.01

	for _, est := range []*models.Estimate{zero, negative, nan} {
		_, err := s.CreateEstimate(est)
		if !validation.IsValidation(err) || err.Error() != "subtotal must be greater than zero" {
			t.Fatalf("subtotal %v: expected validation error, got %v", est.Subtotal, err)
		}
	}
	for _, est := range []*models.Estimate{wrongTotal, wrongVAT} {
		_, err := s.CreateEstimateWithServices(est, []models.Service{models.NewService("Oil change", 60, 40)})
		if !errors.Is(err, pricing.ErrCorruptEstimate) {
			t.Fatalf("expected corrupt estimate error, got %v", err)
		}
	}
	if n := count(t, s, &models.Estimate{}); n != 0 {
		t.Fatalf("expected no estimate rows, got %d", n)
	}
	if n := count(t, s, &models.Service{}); n != 0 {
		t.Fatalf("expected no service rows, got %d", n)
	}
}

func TestAddService(t *testing.T) {
	s := setupTestStore(t)
	id, err := s.CreateEstimate(sampleEstimate(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	svc := models.Service{Description: "Replace wipers", PartsCost: 40, LaborCost: 10}
	sid, err := s.AddService(id, &svc)
	if err != nil {
		t.Fatalf("add service: %v", err)
	}
	if sid == 0 || svc.TotalCost != 50 {
		t.Fatalf("unexpected service %+v", svc)
	}

	lines, err := s.ServicesForEstimate(id)
	if err != nil || len(lines) != 1 {
		t.Fatalf("expected one line, got %v (%v)", lines, err)
	}

	if _, err := s.AddService(id, &models.Service{Description: " "}); !validation.IsValidation(err) {
		t.Fatalf("expected validation error for empty description, got %v", err)
	}
	for _, bad := range []models.Service{
		models.NewService("Brakes", math.Inf(1), 10),
		models.NewService("Brakes", 10, math.NaN()),
	} {
		if _, err := s.AddService(id, &bad); !validation.IsValidation(err) {
			t.Fatalf("expected validation error for %+v, got %v", bad, err)
		}
	}
	if _, err := s.AddService(id+999, &models.Service{Description: "Ghost"}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n := count(t, s, &models.Service{}); n != 1 {
		t.Fatalf("expected exactly one service row, got %d", n)
	}
}

func TestAddJobCardUnknownEstimate(t *testing.T) {
	s := setupTestStore(t)
	jc := models.JobCard{Technician: "Yaw", LaborHours: 2}
	_, err := s.AddJobCard(404, &jc)
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Entity != "estimate" {
		t.Fatalf("expected estimate not found, got %v", err)
	}
	if jc.ID != 0 {
		t.Fatalf("id assigned on failure: %d", jc.ID)
	}
	if n := count(t, s, &models.JobCard{}); n != 0 {
		t.Fatalf("job card row written: %d", n)
	}
}

func TestAddJobCardDefaultsAndValidation(t *testing.T) {
	s := setupTestStore(t)
	id, err := s.CreateEstimate(sampleEstimate(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	jc := models.JobCard{Technician: " Efua ", LaborHours: 3.5}
	if _, err := s.AddJobCard(id, &jc); err != nil {
		t.Fatalf("add job card: %v", err)
	}
	got, err := s.GetJobCard(jc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.JobCardStatusPending || got.Technician != "Efua" || got.EstimateID != id {
		t.Fatalf("unexpected job card %+v", got)
	}
	if _, err := s.AddJobCard(id, &models.JobCard{LaborHours: -1}); !validation.IsValidation(err) {
		t.Fatalf("expected validation error for negative hours, got %v", err)
	}
	if _, err := s.AddJobCard(id, &models.JobCard{Status: "parked"}); !validation.IsValidation(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestUpsertInventoryItemIdempotent(t *testing.T) {
	s := setupTestStore(t)
	item := models.InventoryItem{ItemCode: "brk-pad-f", Description: "Front brake pads", Quantity: 4, UnitPrice: 220}
	for i := 0; i < 2; i++ {
		in := item
		if err := s.UpsertInventoryItem(&in); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}
	d, _ := s.DB()
	var n int64
	d.Model(&models.InventoryItem{}).Where("item_code = ?", "BRK-PAD-F").Count(&n)
	if n != 1 {
		t.Fatalf("expected one row, got %d", n)
	}

	changed := item
	changed.Quantity = 9
	changed.Description = "Front brake pads (ceramic)"
	if err := s.UpsertInventoryItem(&changed); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetInventoryItem("BRK-PAD-F")
	if err != nil {
		t.Fatal(err)
	}
	if got.Quantity != 9 || got.Description != "Front brake pads (ceramic)" || got.LastUpdated.IsZero() {
		t.Fatalf("row not replaced: %+v", got)
	}
	if count(t, s, &models.InventoryItem{}) != 1 {
		t.Fatal("replace created a second row")
	}

	if err := s.UpsertInventoryItem(&models.InventoryItem{ItemCode: "X", Description: "bad", Quantity: -1}); !validation.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := s.GetInventoryItem("missing"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListEstimatesNewestFirstAndRestartable(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, d := range []int{0, 2, 1} {
		if _, err := s.CreateEstimate(sampleEstimate(base.AddDate(0, 0, d))); err != nil {
			t.Fatal(err)
		}
	}
	seq := s.ListEstimates()
	got, err := Collect(seq)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 estimates, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.After(got[i-1].Date) {
			t.Fatalf("not ordered by date desc: %v", got)
		}
	}
	if got[0].Customer.Name != "Kwame Boateng" {
		t.Fatalf("embedded columns not scanned: %+v", got[0].Customer)
	}

	// the same sequence re-reads current state
	if _, err := s.CreateEstimate(sampleEstimate(base.AddDate(0, 0, 5))); err != nil {
		t.Fatal(err)
	}
	again, err := Collect(seq)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 4 || !again[0].Date.Equal(base.AddDate(0, 0, 5)) {
		t.Fatalf("sequence did not restart on current state: %d rows", len(again))
	}

	// breaking early stops the scan
	seen := 0
	for _, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		seen++
		break
	}
	if seen != 1 {
		t.Fatalf("expected to stop after one row, saw %d", seen)
	}
}

func TestListEstimatesBetween(t *testing.T) {
	s := setupTestStore(t)
	for _, day := range []int{1, 5, 10} {
		if _, err := s.CreateEstimate(sampleEstimate(time.Date(2025, 6, day, 15, 0, 0, 0, time.UTC))); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Collect(s.ListEstimatesBetween(time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Date.Day() != 10 || got[1].Date.Day() != 5 {
		t.Fatalf("unexpected range result: %+v", got)
	}
}

func TestListEstimatesForCustomer(t *testing.T) {
	s := setupTestStore(t)
	for i, name := range []string{"Kwame Boateng", "Ama Owusu", "Kwame Boateng"} {
		est := sampleEstimate(time.Date(2025, 3, i+1, 9, 0, 0, 0, time.UTC))
		est.Customer.Name = name
		if _, err := s.CreateEstimate(est); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Collect(s.ListEstimatesForCustomer("  kwame boateng "))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Date.Day() != 3 || got[1].Date.Day() != 1 {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestListInventoryByCode(t *testing.T) {
	s := setupTestStore(t)
	for _, code := range []string{"SPK-PLUG", "AIR-FLT", "OIL-5W30"} {
		if err := s.UpsertInventoryItem(&models.InventoryItem{ItemCode: code, Description: code, Quantity: 1, UnitPrice: 1}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Collect(s.ListInventory())
	if err != nil {
		t.Fatal(err)
	}
	codes := []string{}
	for _, it := range got {
		codes = append(codes, it.ItemCode)
	}
	if strings.Join(codes, ",") != "AIR-FLT,OIL-5W30,SPK-PLUG" {
		t.Fatalf("unexpected order %v", codes)
	}
}

func TestListJobCardsJoinsEstimate(t *testing.T) {
	s := setupTestStore(t)
	id, err := s.CreateEstimate(sampleEstimate(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	for _, tech := range []string{"Kofi", "Akosua"} {
		if _, err := s.AddJobCard(id, &models.JobCard{Technician: tech}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Collect(s.ListJobCards())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 job cards, got %d", len(got))
	}
	if got[0].Technician != "Akosua" {
		t.Fatalf("expected newest first, got %q", got[0].Technician)
	}
	if got[0].CustomerName != "Kwame Boateng" || got[0].VehicleMake != "Toyota" || got[0].VehicleModel != "Corolla" {
		t.Fatalf("estimate columns not joined: %+v", got[0])
	}
}

func TestUpdateJobCardStatus(t *testing.T) {
	s := setupTestStore(t)
	id, err := s.CreateEstimate(sampleEstimate(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	jc := models.JobCard{Technician: "Kofi"}
	if _, err := s.AddJobCard(id, &jc); err != nil {
		t.Fatal(err)
	}
	start := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	got, err := s.UpdateJobCardStatus(jc.ID, models.JobCardStatusInProgress, start)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got.StartDate == nil || !got.StartDate.Equal(start) {
		t.Fatalf("start date not stamped: %v", got.StartDate)
	}
	done := start.Add(5 * time.Hour)
	if _, err := s.UpdateJobCardStatus(jc.ID, models.JobCardStatusCompleted, done); err != nil {
		t.Fatalf("complete: %v", err)
	}
	stored, err := s.GetJobCard(jc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.JobCardStatusCompleted || stored.CompletionDate == nil || !stored.CompletionDate.Equal(done) {
		t.Fatalf("completion not stored: %+v", stored)
	}
	if _, err := s.UpdateJobCardStatus(jc.ID, models.JobCardStatusPending, done); !validation.IsValidation(err) {
		t.Fatalf("terminal status must reject transitions, got %v", err)
	}
	if _, err := s.UpdateJobCardStatus(9999, models.JobCardStatusCompleted, done); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateEstimateStatus(t *testing.T) {
	s := setupTestStore(t)
	id, err := s.CreateEstimate(sampleEstimate(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateEstimateStatus(id, models.EstimateStatusApproved); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetEstimate(id)
	if got.Status != models.EstimateStatusApproved || got.TotalAmount != 121.9 {
		t.Fatalf("unexpected estimate after status change: %+v", got)
	}
	if err := s.UpdateEstimateStatus(id, ""); !validation.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := s.UpdateEstimateStatus(id+1, models.EstimateStatusApproved); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.GetEstimate(id + 1); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCloseReopensLazily(t *testing.T) {
	file := filepath.Join(t.TempDir(), "garage.db")
	s := New(openerFor(db.SQLiteDSN(file)), quietEntry())
	id, err := s.CreateEstimate(sampleEstimate(time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	got, err := s.GetEstimate(id)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got.ID != id {
		t.Fatalf("expected estimate %d, got %d", id, got.ID)
	}
	_ = s.Close()
}

func TestConnectFailureIsTyped(t *testing.T) {
	s := New(func() (*gorm.DB, error) { return nil, errors.New("disk on fire") }, quietEntry())
	if _, err := s.CreateEstimate(sampleEstimate(time.Now())); !IsPersistence(err) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	var failures int
	for _, err := range s.ListInventory() {
		if !IsPersistence(err) {
			t.Fatalf("expected persistence error from list, got %v", err)
		}
		failures++
	}
	if failures != 1 {
		t.Fatalf("expected a single yielded failure, got %d", failures)
	}
}
