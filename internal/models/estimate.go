package models

import "time"

// EstimateStatus is an open set; the constants below are the ones the shop uses.
type EstimateStatus string

const (
	EstimateStatusPending   EstimateStatus = "Pending"
	EstimateStatusApproved  EstimateStatus = "Approved"
	EstimateStatusCompleted EstimateStatus = "Completed"
	EstimateStatusCancelled EstimateStatus = "Cancelled"
)

// Estimate is a priced quotation for work on a customer's vehicle.
// The levy columns and TotalAmount are written once, together, at creation.
type Estimate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Customer Customer `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Vehicle  Vehicle  `gorm:"embedded;embeddedPrefix:vehicle_" json:"vehicle"`

	Subtotal    float64 `gorm:"not null" json:"subtotal"`
	NHIL        float64 `gorm:"column:nhil;not null" json:"nhil"`
	GETFund     float64 `gorm:"column:getfund;not null" json:"getfund"`
	COVIDLevy   float64 `gorm:"column:covid_levy;not null" json:"covid_levy"`
	VAT         float64 `gorm:"column:vat;not null" json:"vat"`
	TotalAmount float64 `gorm:"column:total_amount;not null" json:"total_amount"`

	Date   time.Time      `gorm:"index;not null" json:"date"`
	Status EstimateStatus `gorm:"size:20;not null;default:'Pending'" json:"status"`
	Notes  string         `gorm:"type:text" json:"notes,omitempty"`

	Services []Service `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE" json:"services,omitempty"`
}

// LeviedAmount is the subtotal plus the three stored surcharges.
func (e *Estimate) LeviedAmount() float64 {
	return e.Subtotal + e.NHIL + e.GETFund + e.COVIDLevy
}

// ServicesTotal sums the stored line totals.
func (e *Estimate) ServicesTotal() float64 {
	var total float64
	for _, s := range e.Services {
		total += s.TotalCost
	}
	return total
}
