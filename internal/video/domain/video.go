package domain

import (
	"io"
	"time"
)

// VideoStatus definition video status
type VideoStatus string

const (
	//VideoUploaded 原始檔已上傳，等待轉碼
	VideoUploaded VideoStatus = "uploaded"
	//VideoProcessing 轉碼中
	VideoProcessing VideoStatus = "processing"
	//VideoReady 轉碼完成可播放
	VideoReady VideoStatus = "ready"
	//VideoFailed 轉碼失敗
	VideoFailed VideoStatus = "failed"
)

// Video 定義影片模型，存於 Mongo 的 videos collection
// ManifestKey 只會在轉碼全部成功後由 worker 寫入，
// 讀取端不會拿到缺分段的播放位址
type Video struct {
	VideoID         string    `bson:"video_id"`
	Title           string    `bson:"title"`
	Description     string    `bson:"description"`
	PetID           string    `bson:"pet_id,omitempty"` // 關聯的送養寵物
	OriginalKey     string    `bson:"original_key"`     // 原始檔在 MinIO 上的 object key
	Status          string    `bson:"status"`
	ManifestKey     string    `bson:"manifest_key,omitempty"`
	ThumbnailKey    string    `bson:"thumbnail_key,omitempty"`
	DurationSeconds float64   `bson:"duration_seconds,omitempty"`
	Width           int       `bson:"width,omitempty"`
	Height          int       `bson:"height,omitempty"`
	FailureReason   string    `bson:"failure_reason,omitempty"`
	ViewCount       int64     `bson:"view_count"`
	UploadedBy      string    `bson:"uploaded_by,omitempty"`
	CreatedAt       time.Time `bson:"created_at"`
}

// UploadVideoReq usecase upload video request
type UploadVideoReq struct {
	Title       string
	Description string
	PetID       string
	FileName    string
	UploadedBy  string
	File        io.Reader
}

// UploadVideoRes usecase upload video response
type UploadVideoRes struct {
	Message string
	VideoID string
}

// GetVideoRes usecase get video response
type GetVideoRes struct {
	VideoID      string
	Title        string
	Status       string
	HlsURL       string
	ThumbnailURL string
}

// EncodeProgressRes usecase get encode progress response
type EncodeProgressRes struct {
	VideoID  string
	Status   string
	Progress int
}
