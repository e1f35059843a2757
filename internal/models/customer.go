package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/validation"
)

var nonDigit = regexp.MustCompile(`\D`)

// Customer is stored inline on each estimate (customer_* columns).
type Customer struct {
	Name  string `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Phone string `gorm:"size:32" json:"phone,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty" validate:"omitempty,shopemail"`
}

// Normalize trims and canonicalizes the contact fields in place and returns
// any violations, keyed with the customer_ prefix.
func (c *Customer) Normalize() validation.Violations {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)

	v := validation.Violations{}
	if c.Phone = strings.TrimSpace(c.Phone); c.Phone != "" {
		digits := nonDigit.ReplaceAllString(c.Phone, "")
		switch {
		case len(digits) < 10 || len(digits) > 15:
			v.Add("customer_phone", "customer_phone must contain 10 to 15 digits")
		case len(digits) == 10:
			c.Phone = "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
		default:
			c.Phone = digits
		}
	}
	v.Merge(validation.Struct("customer_", c))
	if c.Email != "" && validation.ValidEmail(c.Email) {
		c.Email = strings.ToLower(c.Email)
	}
	return v
}

// Contact returns the preferred way to reach the customer.
func (c Customer) Contact() string {
	switch {
	case c.Phone != "":
		return c.Phone
	case c.Email != "":
		return c.Email
	}
	return "No contact info"
}

func (c Customer) String() string {
	return c.Name + " (" + c.Contact() + ")"
}

// Visits summarizes a customer's estimates: one estimate counts as one visit.
type Visits struct {
	Count int
	Last  time.Time
}

// CountVisits tallies ests and keeps the latest estimate date.
func CountVisits(ests []Estimate) Visits {
	var v Visits
	for _, e := range ests {
		v.Count++
		if e.Date.After(v.Last) {
			v.Last = e.Date
		}
	}
	return v
}
