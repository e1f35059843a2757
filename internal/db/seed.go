package db

import (
	"errors"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"gorm.io/gorm"
)

var sampleInventory = []models.InventoryItem{
	{ItemCode: "OIL-5W30", Description: "Engine oil 5W-30 (1L)", Quantity: 40, UnitPrice: 45.00},
	{ItemCode: "FLT-OIL", Description: "Oil filter", Quantity: 25, UnitPrice: 35.00},
	{ItemCode: "FLT-AIR", Description: "Air filter", Quantity: 15, UnitPrice: 60.00},
	{ItemCode: "BRK-PAD-F", Description: "Front brake pads (set)", Quantity: 10, UnitPrice: 220.00},
	{ItemCode: "SPK-PLUG", Description: "Spark plug", Quantity: 48, UnitPrice: 18.50},
}

// Seed inserts the sample inventory. Existing codes are left untouched, so
// running it twice is harmless.
func Seed(conn *gorm.DB) error {
	for _, item := range sampleInventory {
		var existing models.InventoryItem
		err := conn.Where("item_code = ?", item.ItemCode).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		item.LastUpdated = time.Now()
		if err := conn.Create(&item).Error; err != nil {
			return err
		}
	}
	return nil
}
