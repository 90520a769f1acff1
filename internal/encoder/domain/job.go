package domain

import "fmt"

const (
	//QueueName definition encode queue name
	QueueName = "video_encode"
)

// EncodingJob 定義轉碼工作訊息（上傳端發布，worker 消費一次）
type EncodingJob struct {
	VideoID     string `json:"video_id"`
	OriginalKey string `json:"original_key"` // 原始檔在 MinIO 上的 object key
}

// VideoMetadata ffprobe 探測出的影片資訊
// Width/Height 必須大於 0，否則視為整個工作的硬性失敗
type VideoMetadata struct {
	DurationSeconds float64
	Width           int
	Height          int
}

// EncodingArtifacts 轉碼完成後回寫 metadata store 的產物
// object key 由 worker 決定（deterministic），不是由儲存層回傳
type EncodingArtifacts struct {
	ManifestKey     string
	ThumbnailKey    string
	DurationSeconds float64
	Width           int
	Height          int
}

// 進度檢查點，數值是對外契約，客戶端進度條依賴這些值
// 上傳 fan-out 階段由 ProgressThumbnail 線性推進到 ProgressHLSUploaded
const (
	//ProgressWorkdirReady 工作目錄建立完成
	ProgressWorkdirReady = 5
	//ProgressDownloaded 原始檔下載完成
	ProgressDownloaded = 15
	//ProgressProbed 影片資訊探測完成
	ProgressProbed = 20
	//ProgressTranscoded HLS 轉碼完成
	ProgressTranscoded = 70
	//ProgressThumbnail 縮圖產生完成
	ProgressThumbnail = 80
	//ProgressHLSUploaded HLS 檔案全部上傳完成
	ProgressHLSUploaded = 95
	//ProgressThumbUploaded 縮圖上傳完成
	ProgressThumbUploaded = 98
	//ProgressCompleted metadata store 回寫完成
	ProgressCompleted = 100
)

// HLSManifestKey master 播放清單的 object key，例如 "videos/hls/{videoID}/master.m3u8"
func HLSManifestKey(videoID string) string {
	return fmt.Sprintf("videos/hls/%s/master.m3u8", videoID)
}

// HLSObjectKey 單一 HLS 檔案（子播放清單或 TS 分段）的 object key
func HLSObjectKey(videoID, fileName string) string {
	return fmt.Sprintf("videos/hls/%s/%s", videoID, fileName)
}

// ThumbnailKey 縮圖的 object key，例如 "videos/thumbnails/{videoID}.jpg"
func ThumbnailKey(videoID string) string {
	return fmt.Sprintf("videos/thumbnails/%s.jpg", videoID)
}

// OriginalObjectKey 原始上傳檔的 object key，例如 "videos/original/{videoID}/{fileName}"
func OriginalObjectKey(videoID, fileName string) string {
	return fmt.Sprintf("videos/original/%s/%s", videoID, fileName)
}

// ProgressKey 進度快取在 Redis 上的 key
func ProgressKey(videoID string) string {
	return "encode:progress:" + videoID
}
