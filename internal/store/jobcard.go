package store

import (
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"gorm.io/gorm"
)

// JobCardSummary is a job card joined with the estimate fields shown in listings.
type JobCardSummary struct {
	models.JobCard
	CustomerName string `json:"customer_name"`
	VehicleMake  string `json:"vehicle_make"`
	VehicleModel string `json:"vehicle_model"`
}

// AddJobCard raises a job card against a persisted estimate.
func (s *Store) AddJobCard(estimateID uint, jc *models.JobCard) (uint, error) {
	if err := jc.Validate().Err(); err != nil {
		return 0, err
	}
	jc.ID = 0
	jc.EstimateID = estimateID
	jc.Estimate = nil
	if jc.Status == models.JobCardStatusCompleted && jc.CompletionDate == nil {
		now := time.Now()
		jc.CompletionDate = &now
	}
	err := s.write("add job card", func(tx *gorm.DB) error {
		if err := s.estimateExists(tx, estimateID); err != nil {
			return err
		}
		if err := tx.Create(jc).Error; err != nil {
			if isForeignKeyViolation(err) {
				return &NotFoundError{Entity: "estimate", ID: estimateID}
			}
			return err
		}
		return nil
	})
	if err != nil {
		jc.ID = 0
		return 0, err
	}
	s.log.WithField("job_card_id", jc.ID).Debug("job card inserted")
	return jc.ID, nil
}

// GetJobCard loads one job card.
func (s *Store) GetJobCard(id uint) (*models.JobCard, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var jc models.JobCard
	err = db.First(&jc, id).Error
	if isNotFound(err) {
		return nil, &NotFoundError{Entity: "job card", ID: id}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get job card", Err: err}
	}
	return &jc, nil
}

// UpdateJobCardStatus applies one status transition, stamping dates at `at`.
func (s *Store) UpdateJobCardStatus(id uint, next models.JobCardStatus, at time.Time) (*models.JobCard, error) {
	var jc models.JobCard
	err := s.write("update job card status", func(tx *gorm.DB) error {
		if err := tx.First(&jc, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Entity: "job card", ID: id}
			}
			return err
		}
		if err := jc.Transition(next, at); err != nil {
			return err
		}
		return tx.Model(&jc).Select("status", "start_date", "completion_date").Updates(&jc).Error
	})
	if err != nil {
		return nil, err
	}
	return &jc, nil
}

// ListJobCards streams every job card with its estimate's customer and
// vehicle, newest first.
func (s *Store) ListJobCards() iter.Seq2[JobCardSummary, error] {
	return scan[JobCardSummary](s, "list job cards", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.JobCard{}).
			Select("job_cards.*, estimates.customer_name, estimates.vehicle_make, estimates.vehicle_model").
			Joins("LEFT JOIN estimates ON estimates.id = job_cards.estimate_id").
			Order("job_cards.created_at DESC").Order("job_cards.id DESC")
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint")
}
