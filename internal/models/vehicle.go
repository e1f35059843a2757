package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/validation"
)

const (
	// MinVehicleYear is the oldest model year accepted.
	MinVehicleYear = 1900
	// DefaultServiceInterval is the mileage above which a vehicle is due.
	DefaultServiceInterval = 5000
	serviceAge             = 180 * 24 * time.Hour
)

// Vehicle is stored inline on each estimate (vehicle_* columns).
// Year and Mileage use zero for "not recorded".
type Vehicle struct {
	Make            string     `gorm:"size:100;not null" json:"make" validate:"required,max=100"`
	Model           string     `gorm:"size:100;not null" json:"model" validate:"required,max=100"`
	Year            int        `json:"year,omitempty"`
	VIN             string     `gorm:"column:vin;size:17" json:"vin,omitempty" validate:"omitempty,vin"`
	Mileage         int        `json:"mileage" validate:"gte=0"`
	LicensePlate    string     `gorm:"size:20" json:"license_plate,omitempty"`
	LastServiceDate *time.Time `json:"last_service_date,omitempty"`
}

// NormalizeVIN strips spaces and upper-cases a raw VIN.
func NormalizeVIN(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

// Normalize canonicalizes the vehicle in place and returns violations keyed
// with the vehicle_ prefix. now bounds the accepted model year.
func (v *Vehicle) Normalize(now time.Time) validation.Violations {
	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.LicensePlate = strings.ToUpper(strings.TrimSpace(v.LicensePlate))
	v.VIN = NormalizeVIN(v.VIN)

	out := validation.Struct("vehicle_", v)
	if v.Year != 0 {
		maxYear := now.Year() + 1
		if v.Year < MinVehicleYear || v.Year > maxYear {
			out.Add("vehicle_year", fmt.Sprintf("vehicle_year must be between %d and %d", MinVehicleYear, maxYear))
		}
	}
	return out
}

// FullName renders "year make model", omitting an unknown year.
func (v Vehicle) FullName() string {
	if v.Year == 0 {
		return strings.TrimSpace(v.Make + " " + v.Model)
	}
	return fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model)
}

// NeedsService is true when the last service is older than 180 days or the
// mileage exceeds interval. Unknown mileage or service date yields false.
func (v Vehicle) NeedsService(now time.Time, interval int) bool {
	if v.Mileage == 0 || v.LastServiceDate == nil {
		return false
	}
	if interval <= 0 {
		interval = DefaultServiceInterval
	}
	return now.Sub(*v.LastServiceDate) > serviceAge || v.Mileage > interval
}

func (v Vehicle) String() string {
	vin := v.VIN
	if vin == "" {
		vin = "N/A"
	}
	return fmt.Sprintf("%s (VIN: %s)", v.FullName(), vin)
}
