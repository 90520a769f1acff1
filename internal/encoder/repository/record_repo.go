package repository

import (
	"time"

	"pet_adoption_service/internal/encoder/domain"

	"gorm.io/gorm"
)

// EncodeRecordRepo definition encode attempt record repo
type EncodeRecordRepo interface {
	AutoMigrate() error
	Create(record *domain.EncodeRecord) error
	MarkCompleted(id uint) error
	MarkFailed(id uint, reason string) error
}

type encodeRecordRepo struct {
	db *gorm.DB
}

// NewEncodeRecordRepo create EncodeRecordRepo
func NewEncodeRecordRepo(db *gorm.DB) EncodeRecordRepo {
	return &encodeRecordRepo{db: db}
}

// AutoMigrate 依 EncodeRecord 模型建立/更新資料表
func (r *encodeRecordRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.EncodeRecord{})
}

// Create 寫入一次 attempt 記錄，狀態 processing
func (r *encodeRecordRepo) Create(record *domain.EncodeRecord) error {
	return r.db.Create(record).Error
}

// MarkCompleted attempt 成功結束
func (r *encodeRecordRepo) MarkCompleted(id uint) error {
	now := time.Now()
	return r.db.Model(&domain.EncodeRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      string(domain.RecordCompleted),
		"finished_at": &now,
	}).Error
}

// MarkFailed attempt 失敗結束，保留原因
func (r *encodeRecordRepo) MarkFailed(id uint, reason string) error {
	now := time.Now()
	return r.db.Model(&domain.EncodeRecord{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      string(domain.RecordFailed),
		"reason":      reason,
		"finished_at": &now,
	}).Error
}
