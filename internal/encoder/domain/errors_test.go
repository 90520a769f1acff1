package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 測試 PipelineError
func TestPipelineError(t *testing.T) {
	base := errors.New("connection refused")

	t.Run("錯誤訊息帶影片編號與階段", func(t *testing.T) {
		err := NewDownloadError("vid-1", base)
		assert.Equal(t, "videoID[vid-1] download 階段失敗 : connection refused", err.Error())
	})

	t.Run("Unwrap 保留底層錯誤", func(t *testing.T) {
		err := NewUploadError("vid-1", base)
		assert.True(t, errors.Is(err, base))
	})

	t.Run("StageOf 取出階段", func(t *testing.T) {
		assert.Equal(t, StageDownload, StageOf(NewDownloadError("v", base)))
		assert.Equal(t, StageProbe, StageOf(NewProbeError("v", base)))
		assert.Equal(t, StageTranscode, StageOf(NewTranscodeError("v", base)))
		assert.Equal(t, StageThumbnail, StageOf(NewThumbnailError("v", base)))
		assert.Equal(t, StageUpload, StageOf(NewUploadError("v", base)))
	})

	t.Run("包裝後仍可取出階段", func(t *testing.T) {
		wrapped := fmt.Errorf("handle job: %w", NewTranscodeError("v", base))
		assert.Equal(t, StageTranscode, StageOf(wrapped))
	})

	t.Run("非管線錯誤回傳空字串", func(t *testing.T) {
		assert.Equal(t, EncodeStage(""), StageOf(base))
		assert.Equal(t, EncodeStage(""), StageOf(nil))
	})
}

// 測試 object key 與進度 key 的固定格式
func TestDeterministicKeys(t *testing.T) {
	assert.Equal(t, "videos/hls/vid-1/master.m3u8", HLSManifestKey("vid-1"))
	assert.Equal(t, "videos/hls/vid-1/720p.m3u8", HLSObjectKey("vid-1", "720p.m3u8"))
	assert.Equal(t, "videos/thumbnails/vid-1.jpg", ThumbnailKey("vid-1"))
	assert.Equal(t, "videos/original/vid-1/cat.mp4", OriginalObjectKey("vid-1", "cat.mp4"))
	assert.Equal(t, "encode:progress:vid-1", ProgressKey("vid-1"))
}
