package domain

import "time"

// EncodeRecordStatus definition encode record status
type EncodeRecordStatus string

const (
	//RecordProcessing 工作執行中
	RecordProcessing EncodeRecordStatus = "processing"
	//RecordCompleted 工作成功
	RecordCompleted EncodeRecordStatus = "completed"
	//RecordFailed 工作失敗
	RecordFailed EncodeRecordStatus = "failed"
)

// EncodeRecord 每次轉碼嘗試的簿記，一列代表一次 attempt
// 重投遞（redelivery）由 broker 決定，這裡只記錄發生過什麼
type EncodeRecord struct {
	ID          uint   `gorm:"primaryKey"`
	VideoID     string `gorm:"index"`
	OriginalKey string
	Status      string
	Reason      string
	StartedAt   time.Time
	FinishedAt  *time.Time
}
