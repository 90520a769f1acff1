package domain

const (
	//EventVideoReady 轉碼完成事件
	EventVideoReady = "video.ready"
	//EventVideoFailed 轉碼失敗事件
	EventVideoFailed = "video.failed"
)

// EncodeResultEvent 轉碼結果事件，發布到 Kafka 供通知服務消費
type EncodeResultEvent struct {
	Type            string  `json:"type"`
	VideoID         string  `json:"video_id"`
	ManifestKey     string  `json:"manifest_key,omitempty"`
	ThumbnailKey    string  `json:"thumbnail_key,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Reason          string  `json:"reason,omitempty"`
}
