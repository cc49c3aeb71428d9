package database

import (
	"go-pos-terminal/internal/storage"

	"gorm.io/gorm"
)

// StorageUsage is what the status endpoint reports so an operator can see
// how close the terminal is to running out of room.
type StorageUsage struct {
	Entries    int64 `json:"entries"`
	EntryBytes int64 `json:"entryBytes"`
	Images     int64 `json:"images"`
	ImageBytes int64 `json:"imageBytes"`
}

// GetStorageUsage counts rows and payload bytes of both storage tables.
func GetStorageUsage(db *gorm.DB) (*StorageUsage, error) {
	var usage StorageUsage

	// COALESCE gives 0 instead of NULL on empty tables
	err := db.Model(&storage.Entry{}).
		Select("COALESCE(SUM(LENGTH(value)), 0)").
		Scan(&usage.EntryBytes).Error
	if err != nil {
		return nil, err
	}
	if err := db.Model(&storage.Entry{}).Count(&usage.Entries).Error; err != nil {
		return nil, err
	}

	err = db.Model(&storage.ProductImage{}).
		Select("COALESCE(SUM(LENGTH(data)), 0)").
		Scan(&usage.ImageBytes).Error
	if err != nil {
		return nil, err
	}
	if err := db.Model(&storage.ProductImage{}).Count(&usage.Images).Error; err != nil {
		return nil, err
	}

	return &usage, nil
}
