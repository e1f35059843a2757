package store

import (
	"iter"
	"strings"
	"time"

	"github.com/diewo77/go-garage/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertInventoryItem inserts the item or replaces the row holding the same
// item code. On return item reflects the stored row.
func (s *Store) UpsertInventoryItem(item *models.InventoryItem) error {
	if err := item.Normalize().Err(); err != nil {
		return err
	}
	row := *item
	row.ID = 0
	row.LastUpdated = time.Now()
	return s.write("upsert inventory item", func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"description", "quantity", "unit_price", "last_updated"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		var stored models.InventoryItem
		if err := tx.Where("item_code = ?", row.ItemCode).First(&stored).Error; err != nil {
			return err
		}
		*item = stored
		return nil
	})
}

// GetInventoryItem looks an item up by its code.
func (s *Store) GetInventoryItem(code string) (*models.InventoryItem, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	var item models.InventoryItem
	err = db.Where("item_code = ?", code).First(&item).Error
	if isNotFound(err) {
		return nil, &NotFoundError{Entity: "inventory item", ID: code}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get inventory item", Err: err}
	}
	return &item, nil
}

// ListInventory streams every item ordered by code.
func (s *Store) ListInventory() iter.Seq2[models.InventoryItem, error] {
	return scan[models.InventoryItem](s, "list inventory", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.InventoryItem{}).Order("item_code ASC")
	})
}
