package models

import (
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/validation"
	"gorm.io/gorm"
)

// Service is a parts and labor line under one estimate.
type Service struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	EstimateID uint      `gorm:"index;not null" json:"estimate_id"`

	Description string  `gorm:"size:500;not null" json:"description"`
	PartsCost   float64 `gorm:"not null;default:0" json:"parts_cost"`
	LaborCost   float64 `gorm:"not null;default:0" json:"labor_cost"`
	TotalCost   float64 `gorm:"not null;default:0" json:"total_cost"`
}

// NewService builds a line with its total already derived.
func NewService(description string, parts, labor float64) Service {
	return Service{
		Description: strings.TrimSpace(description),
		PartsCost:   parts,
		LaborCost:   labor,
		TotalCost:   parts + labor,
	}
}

// Validate checks the line before it reaches storage.
func (s *Service) Validate() validation.Violations {
	s.Description = strings.TrimSpace(s.Description)
	v := validation.Violations{}
	validation.Required("description", s.Description, v)
	validation.NonNegativeFloat("parts_cost", s.PartsCost, v)
	validation.NonNegativeFloat("labor_cost", s.LaborCost, v)
	return v
}

// BeforeSave keeps total_cost equal to parts_cost + labor_cost.
func (s *Service) BeforeSave(tx *gorm.DB) error {
	s.TotalCost = s.PartsCost + s.LaborCost
	return nil
}
