package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry - one row of the key-value namespace
type Entry struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

// ProductImage - the blob row for a product
type ProductImage struct {
	ProductID   int64  `gorm:"primaryKey;autoIncrement:false"`
	ContentType string `gorm:"size:100"`
	Data        []byte
	UpdatedAt   time.Time
}

// Models lists the tables AutoMigrate must create.
func Models() []interface{} {
	return []interface{}{&Entry{}, &ProductImage{}}
}

// GormKV stores entries in the kv_entries table.
type GormKV struct {
	db *gorm.DB
}

func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{db: db}
}

func (s *GormKV) Get(ctx context.Context, key string) (string, bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).Where("`key` = ?", key).Limit(1).Find(&entry).Error
	if err != nil {
		return "", false, err
	}
	if entry.Key == "" {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *GormKV) Put(ctx context.Context, key, value string) error {
	entry := Entry{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *GormKV) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("`key` = ?", key).Delete(&Entry{}).Error
}

func (s *GormKV) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&Entry{}).Order("`key`").Pluck("key", &keys).Error
	return keys, err
}

// GormBlobs stores images in the product_images table.
type GormBlobs struct {
	db *gorm.DB
}

func NewGormBlobs(db *gorm.DB) *GormBlobs {
	return &GormBlobs{db: db}
}

func (s *GormBlobs) PutBlob(ctx context.Context, id int64, blob Blob) error {
	row := ProductImage{ProductID: id, ContentType: blob.ContentType, Data: blob.Data, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_type", "data", "updated_at"}),
	}).Create(&row).Error
}

func (s *GormBlobs) GetBlob(ctx context.Context, id int64) (Blob, bool, error) {
	var rows []ProductImage
	if err := s.db.WithContext(ctx).Where("product_id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return Blob{}, false, err
	}
	if len(rows) == 0 {
		return Blob{}, false, nil
	}
	return Blob{ContentType: rows[0].ContentType, Data: rows[0].Data}, true, nil
}

func (s *GormBlobs) DeleteBlob(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Where("product_id = ?", id).Delete(&ProductImage{}).Error
}

func (s *GormBlobs) ClearBlobs(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ProductImage{}).Error
}
