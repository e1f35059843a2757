package store

import (
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/pricing"
	"github.com/diewo77/go-garage/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxStatusLen bounds an estimate status label.
const MaxStatusLen = 20

func requireEstimateFields(est *models.Estimate) error {
	missing := []string{}
	if strings.TrimSpace(est.Customer.Name) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(est.Vehicle.Make) == "" {
		missing = append(missing, "vehicle_make")
	}
	if strings.TrimSpace(est.Vehicle.Model) == "" {
		missing = append(missing, "vehicle_model")
	}
	if est.Date.IsZero() {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(string(est.Status)) == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// CreateEstimate inserts the estimate row alone and returns its id.
func (s *Store) CreateEstimate(est *models.Estimate) (uint, error) {
	return s.CreateEstimateWithServices(est, nil)
}

// CreateEstimateWithServices inserts the estimate and its lines in one
// transaction. The stored amounts must match the levy schedule for the
// subtotal. Nothing is written when any check or insert fails.
func (s *Store) CreateEstimateWithServices(est *models.Estimate, lines []models.Service) (uint, error) {
	const op = "create estimate"
	if err := requireEstimateFields(est); err != nil {
		return 0, &PersistenceError{Op: op, Err: err}
	}
	if _, err := pricing.ComputeLevies(est.Subtotal); err != nil {
		return 0, err
	}
	if err := pricing.VerifyEstimate(est); err != nil {
		return 0, err
	}
	v := validation.Violations{}
	for i := range lines {
		for field, msg := range lines[i].Validate() {
			v.Add(fmt.Sprintf("services[%d].%s", i, field), msg)
		}
	}
	if err := v.Err(); err != nil {
		return 0, err
	}

	est.ID = 0
	err := s.write(op, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(est).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].ID = 0
			lines[i].EstimateID = est.ID
			if err := tx.Create(&lines[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		est.ID = 0
		return 0, err
	}
	est.Services = lines
	s.log.WithField("estimate_id", est.ID).Debug("estimate inserted")
	return est.ID, nil
}

// AddService appends a line under an existing estimate.
func (s *Store) AddService(estimateID uint, svc *models.Service) (uint, error) {
	if err := svc.Validate().Err(); err != nil {
		return 0, err
	}
	svc.ID = 0
	svc.EstimateID = estimateID
	err := s.write("add service", func(tx *gorm.DB) error {
		if err := s.estimateExists(tx, estimateID); err != nil {
			return err
		}
		if err := tx.Create(svc).Error; err != nil {
			if isForeignKeyViolation(err) {
				return &NotFoundError{Entity: "estimate", ID: estimateID}
			}
			return err
		}
		return nil
	})
	if err != nil {
		svc.ID = 0
		return 0, err
	}
	return svc.ID, nil
}

// GetEstimate returns the estimate with its lines ordered by id.
func (s *Store) GetEstimate(id uint) (*models.Estimate, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var est models.Estimate
	err = db.Preload("Services", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id ASC")
	}).First(&est, id).Error
	if isNotFound(err) {
		return nil, &NotFoundError{Entity: "estimate", ID: id}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get estimate", Err: err}
	}
	return &est, nil
}

// ServicesForEstimate lists the lines of one estimate in insertion order.
func (s *Store) ServicesForEstimate(id uint) ([]models.Service, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if err := s.estimateExists(db, id); err != nil {
		return nil, s.fail("list services", err)
	}
	var out []models.Service
	if err := db.Where("estimate_id = ?", id).Order("id ASC").Find(&out).Error; err != nil {
		return nil, &PersistenceError{Op: "list services", Err: err}
	}
	return out, nil
}

// UpdateEstimateStatus is the only in-place change an estimate accepts.
func (s *Store) UpdateEstimateStatus(id uint, status models.EstimateStatus) error {
	label := strings.TrimSpace(string(status))
	v := validation.Violations{}
	validation.Required("status", label, v)
	if len(label) > MaxStatusLen {
		v.Add("status", fmt.Sprintf("status must be at most %d characters", MaxStatusLen))
	}
	if err := v.Err(); err != nil {
		return err
	}
	return s.write("update estimate status", func(tx *gorm.DB) error {
		res := tx.Model(&models.Estimate{}).Where("id = ?", id).Update("status", label)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &NotFoundError{Entity: "estimate", ID: id}
		}
		return nil
	})
}

// ListEstimates streams every estimate, newest first. Lines are not loaded.
func (s *Store) ListEstimates() iter.Seq2[models.Estimate, error] {
	return scan[models.Estimate](s, "list estimates", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Estimate{}).Order("date DESC").Order("id DESC")
	})
}

// ListEstimatesBetween streams estimates dated within [from, to], both days inclusive.
func (s *Store) ListEstimatesBetween(from, to time.Time) iter.Seq2[models.Estimate, error] {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
	return scan[models.Estimate](s, "list estimates", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Estimate{}).
			Where("date >= ? AND date < ?", start, end).
			Order("date DESC").Order("id DESC")
	})
}

// ListEstimatesForCustomer streams the estimates whose customer name matches
// name case-insensitively, newest first.
func (s *Store) ListEstimatesForCustomer(name string) iter.Seq2[models.Estimate, error] {
	name = strings.ToLower(strings.TrimSpace(name))
	return scan[models.Estimate](s, "list customer estimates", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Estimate{}).
			Where("LOWER(customer_name) = ?", name).
			Order("date DESC").Order("id DESC")
	})
}
