package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/validation"
)

// JobCardStatus tracks a work order through the shop.
type JobCardStatus string

const (
	JobCardStatusPending    JobCardStatus = "pending"
	JobCardStatusInProgress JobCardStatus = "in_progress"
	JobCardStatusCompleted  JobCardStatus = "completed"
	JobCardStatusCancelled  JobCardStatus = "cancelled"
)

// MaxLaborHours bounds the hours recorded on a single card.
const MaxLaborHours = 999.99

var jobCardTransitions = map[JobCardStatus][]JobCardStatus{
	JobCardStatusPending:    {JobCardStatusInProgress, JobCardStatusCompleted, JobCardStatusCancelled},
	JobCardStatusInProgress: {JobCardStatusCompleted, JobCardStatusCancelled},
}

// ParseJobCardStatus accepts the stored spelling, case-insensitively.
func ParseJobCardStatus(s string) (JobCardStatus, error) {
	st := JobCardStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case JobCardStatusPending, JobCardStatusInProgress, JobCardStatusCompleted, JobCardStatusCancelled:
		return st, nil
	}
	return "", validation.New("status", fmt.Sprintf("status %q is not a job card status", s))
}

// IsTerminal reports whether no further transition is allowed.
func (s JobCardStatus) IsTerminal() bool {
	return s == JobCardStatusCompleted || s == JobCardStatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s JobCardStatus) CanTransitionTo(next JobCardStatus) bool {
	for _, allowed := range jobCardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// JobCard is a work order raised against a persisted estimate.
type JobCard struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	EstimateID uint      `gorm:"index;not null" json:"estimate_id"`
	Estimate   *Estimate `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE" json:"-" validate:"-"`

	Status         JobCardStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	Technician     string        `gorm:"size:100" json:"technician,omitempty" validate:"max=100"`
	StartDate      *time.Time    `gorm:"index" json:"start_date,omitempty"`
	CompletionDate *time.Time    `json:"completion_date,omitempty"`
	LaborHours     float64       `json:"labor_hours"`
	Notes          string        `gorm:"type:text" json:"notes,omitempty"`
}

// Validate normalizes free text, defaults the status and checks ranges.
func (j *JobCard) Validate() validation.Violations {
	j.Technician = strings.TrimSpace(j.Technician)
	j.Notes = strings.TrimSpace(j.Notes)
	if j.Status == "" {
		j.Status = JobCardStatusPending
	}
	v := validation.Struct("", j)
	validation.RangeFloat("labor_hours", j.LaborHours, 0, MaxLaborHours, v)
	if _, err := ParseJobCardStatus(string(j.Status)); err != nil {
		v.Add("status", err.Error())
	}
	if j.StartDate != nil && j.CompletionDate != nil {
		validation.DateOrder("completion_date", *j.StartDate, *j.CompletionDate, v)
	}
	return v
}

// Transition moves the card to next, stamping start and completion dates.
func (j *JobCard) Transition(next JobCardStatus, at time.Time) error {
	if j.Status == next {
		return nil
	}
	if !j.Status.CanTransitionTo(next) {
		return validation.New("status", fmt.Sprintf("cannot move job card from %s to %s", j.Status, next))
	}
	j.Status = next
	switch next {
	case JobCardStatusInProgress:
		if j.StartDate == nil {
			t := at
			j.StartDate = &t
		}
	case JobCardStatusCompleted:
		if j.StartDate == nil {
			t := at
			j.StartDate = &t
		}
		t := at
		j.CompletionDate = &t
	}
	return nil
}
