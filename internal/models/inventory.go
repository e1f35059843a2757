package models

import (
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/validation"
)

// InventoryItem is a stocked part keyed by its shop item code.
type InventoryItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ItemCode    string    `gorm:"size:50;uniqueIndex;not null" json:"item_code" validate:"required,max=50"`
	Description string    `gorm:"size:255;not null" json:"description" validate:"required,max=255"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity" validate:"gte=0"`
	UnitPrice   float64   `gorm:"not null;default:0" json:"unit_price"`
	LastUpdated time.Time `json:"last_updated"`
}

func (InventoryItem) TableName() string { return "inventory" }

// Normalize trims the text fields, upper-cases the code and validates.
func (i *InventoryItem) Normalize() validation.Violations {
	i.ItemCode = strings.ToUpper(strings.TrimSpace(i.ItemCode))
	i.Description = strings.TrimSpace(i.Description)
	v := validation.Struct("", i)
	validation.NonNegativeFloat("unit_price", i.UnitPrice, v)
	return v
}

// Value is the stock value at the current unit price.
func (i *InventoryItem) Value() float64 {
	return float64(i.Quantity) * i.UnitPrice
}
