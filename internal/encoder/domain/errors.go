package domain

import (
	"errors"
	"fmt"
)

// EncodeStage 轉碼管線階段
type EncodeStage string

const (
	//StageDownload 下載原始檔
	StageDownload EncodeStage = "download"
	//StageProbe 探測影片資訊
	StageProbe EncodeStage = "probe"
	//StageTranscode HLS 轉碼
	StageTranscode EncodeStage = "transcode"
	//StageThumbnail 產生縮圖
	StageThumbnail EncodeStage = "thumbnail"
	//StageUpload 上傳轉碼產物
	StageUpload EncodeStage = "upload"
)

// PipelineError 帶影片編號與階段的轉碼管線錯誤
// 任一階段錯誤對該工作都是致命的，不在管線內重試
type PipelineError struct {
	VideoID string
	Stage   EncodeStage
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("videoID[%s] %s 階段失敗 : %v", e.VideoID, e.Stage, e.Err)
}

// Unwrap 保留底層錯誤供 errors.Is/As 使用
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewDownloadError 下載階段錯誤
func NewDownloadError(videoID string, err error) error {
	return &PipelineError{VideoID: videoID, Stage: StageDownload, Err: err}
}

// NewProbeError 探測階段錯誤
func NewProbeError(videoID string, err error) error {
	return &PipelineError{VideoID: videoID, Stage: StageProbe, Err: err}
}

// NewTranscodeError 轉碼階段錯誤
func NewTranscodeError(videoID string, err error) error {
	return &PipelineError{VideoID: videoID, Stage: StageTranscode, Err: err}
}

// NewThumbnailError 縮圖階段錯誤
func NewThumbnailError(videoID string, err error) error {
	return &PipelineError{VideoID: videoID, Stage: StageThumbnail, Err: err}
}

// NewUploadError 上傳階段錯誤
func NewUploadError(videoID string, err error) error {
	return &PipelineError{VideoID: videoID, Stage: StageUpload, Err: err}
}

// StageOf 取出錯誤所屬的管線階段，非管線錯誤回傳空字串
func StageOf(err error) EncodeStage {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return ""
}
