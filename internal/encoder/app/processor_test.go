package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"pet_adoption_service/internal/encoder/domain"
	"pet_adoption_service/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMinIOClient 是 MinIOClient 的 Mock
type MockMinIOClient struct {
	mock.Mock
}

// UploadFile 模擬 MinIO 上傳行為
func (m *MockMinIOClient) UploadFile(ctx context.Context, objectName, filePath, contentType string) error {
	args := m.Called(ctx, objectName, filePath, contentType)
	return args.Error(0)
}

// DownloadFile 模擬 MinIO 下載行為
func (m *MockMinIOClient) DownloadFile(ctx context.Context, objectName, destPath string) error {
	args := m.Called(ctx, objectName, destPath)
	return args.Error(0)
}

// PresignGetURL 模擬 MinIO presign url
func (m *MockMinIOClient) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.Get(0).(string), args.Error(1)
}

// GetObject 模擬 MinIO 取得object
func (m *MockMinIOClient) GetObject(ctx context.Context, objectName string, opts minio.GetObjectOptions) (io.Reader, error) {
	args := m.Called(ctx, objectName, opts)
	return args.Get(0).(io.Reader), args.Error(1)
}

// MockEngine 是 TranscodingEngine 的 Mock
type MockEngine struct {
	mock.Mock
}

// Probe 模擬 ffprobe 探測
func (m *MockEngine) Probe(ctx context.Context, inputPath string) (*domain.VideoMetadata, error) {
	args := m.Called(ctx, inputPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VideoMetadata), args.Error(1)
}

// TranscodeToHLS 模擬 HLS 轉碼
func (m *MockEngine) TranscodeToHLS(ctx context.Context, inputPath, outDir string, resolutions []int) error {
	args := m.Called(ctx, inputPath, outDir, resolutions)
	return args.Error(0)
}

// ExtractThumbnail 模擬縮圖擷取
func (m *MockEngine) ExtractThumbnail(ctx context.Context, inputPath, outPath string) error {
	args := m.Called(ctx, inputPath, outPath)
	return args.Error(0)
}

// MockMetadataRepo 是 VideoMetadataRepo 的 Mock
type MockMetadataRepo struct {
	mock.Mock
}

// MarkEncodingComplete 模擬回寫轉碼成功
func (m *MockMetadataRepo) MarkEncodingComplete(ctx context.Context, videoID string, artifacts domain.EncodingArtifacts) error {
	args := m.Called(ctx, videoID, artifacts)
	return args.Error(0)
}

// MarkEncodingFailed 模擬回寫轉碼失敗
func (m *MockMetadataRepo) MarkEncodingFailed(ctx context.Context, videoID string, reason string) error {
	args := m.Called(ctx, videoID, reason)
	return args.Error(0)
}

// writeFakeHlsFiles 在 hls 目錄寫出假的轉碼產物
func writeFakeHlsFiles(t *testing.T, hlsDir string, names []string) {
	t.Helper()
	for _, name := range names {
		err := os.WriteFile(filepath.Join(hlsDir, name), []byte("fake"), 0644)
		assert.NoError(t, err)
	}
}

// 測試 ProcessEncodingJob
func TestProcessEncodingJob(t *testing.T) {
	logger.SetNewNop()
	ctx := context.Background()

	// **情境 1: 成功轉碼 1080p 影片**
	t.Run("成功轉碼 1080p 影片", func(t *testing.T) {
		mockMinIO := new(MockMinIOClient)
		mockEngine := new(MockEngine)
		mockMeta := new(MockMetadataRepo)
		workRoot := t.TempDir()

		job := domain.EncodingJob{VideoID: "vid-1080", OriginalKey: "videos/original/vid-1080/test.mp4"}
		hlsDir := filepath.Join(workRoot, job.VideoID, "hls")

		mockMinIO.On("DownloadFile", mock.Anything, job.OriginalKey, mock.Anything).Return(nil).Once()
		mockEngine.On("Probe", mock.Anything, mock.Anything).
			Return(&domain.VideoMetadata{DurationSeconds: 12.5, Width: 1920, Height: 1080}, nil).Once()

		// 轉碼 Mock 在 hls 目錄寫出假的產物，供上傳 fan-out 使用
		mockEngine.On("TranscodeToHLS", mock.Anything, mock.Anything, hlsDir, []int{360, 480, 720}).
			Return(nil).Run(func(args mock.Arguments) {
			writeFakeHlsFiles(t, hlsDir, []string{"720p.m3u8", "720p_000.ts", "master.m3u8"})
		}).Once()
		mockEngine.On("ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		// hls 目錄以檔名排序逐一上傳，content type 依副檔名
		mockMinIO.On("UploadFile", mock.Anything, "videos/hls/vid-1080/720p.m3u8", mock.Anything, "application/vnd.apple.mpegurl").Return(nil).Once()
		mockMinIO.On("UploadFile", mock.Anything, "videos/hls/vid-1080/720p_000.ts", mock.Anything, "video/mp2t").Return(nil).Once()
		mockMinIO.On("UploadFile", mock.Anything, "videos/hls/vid-1080/master.m3u8", mock.Anything, "application/vnd.apple.mpegurl").Return(nil).Once()
		mockMinIO.On("UploadFile", mock.Anything, "videos/thumbnails/vid-1080.jpg", mock.Anything, "image/jpeg").Return(nil).Once()

		mockMeta.On("MarkEncodingComplete", mock.Anything, job.VideoID, domain.EncodingArtifacts{
			ManifestKey:     "videos/hls/vid-1080/master.m3u8",
			ThumbnailKey:    "videos/thumbnails/vid-1080.jpg",
			DurationSeconds: 12.5,
			Width:           1920,
			Height:          1080,
		}).Return(nil).Once()

		processor := NewProcessor(mockMinIO, mockEngine, mockMeta, workRoot)

		var progress []int
		artifacts, err := processor.ProcessEncodingJob(ctx, job, func(p int) {
			progress = append(progress, p)
		})

		assert.NoError(t, err)
		assert.NotNil(t, artifacts)
		assert.Equal(t, "videos/hls/vid-1080/master.m3u8", artifacts.ManifestKey)
		assert.Equal(t, "videos/thumbnails/vid-1080.jpg", artifacts.ThumbnailKey)

		// 進度檢查點：上傳 fan-out 從 80 線性推進到 95
		assert.Equal(t, []int{5, 15, 20, 70, 80, 85, 90, 95, 98, 100}, progress)
		assert.True(t, sort.IntsAreSorted(progress))

		// 工作目錄必須被清掉
		_, statErr := os.Stat(filepath.Join(workRoot, job.VideoID))
		assert.True(t, os.IsNotExist(statErr))

		mockMinIO.AssertExpectations(t)
		mockEngine.AssertExpectations(t)
		mockMeta.AssertExpectations(t)
	})

	// **情境 2: 低解析度影片放大到最低檔**
	t.Run("低解析度影片放大到最低檔", func(t *testing.T) {
		mockMinIO := new(MockMinIOClient)
		mockEngine := new(MockEngine)
		mockMeta := new(MockMetadataRepo)
		workRoot := t.TempDir()

		job := domain.EncodingJob{VideoID: "vid-240", OriginalKey: "videos/original/vid-240/small.mp4"}
		hlsDir := filepath.Join(workRoot, job.VideoID, "hls")

		mockMinIO.On("DownloadFile", mock.Anything, job.OriginalKey, mock.Anything).Return(nil).Once()
		mockEngine.On("Probe", mock.Anything, mock.Anything).
			Return(&domain.VideoMetadata{DurationSeconds: 3.0, Width: 320, Height: 240}, nil).Once()

		// 240p 原始檔也要有一檔 360p 可播
		mockEngine.On("TranscodeToHLS", mock.Anything, mock.Anything, hlsDir, []int{360}).
			Return(nil).Run(func(args mock.Arguments) {
			writeFakeHlsFiles(t, hlsDir, []string{"360p.m3u8", "360p_000.ts", "master.m3u8"})
		}).Once()
		mockEngine.On("ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		mockMinIO.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		mockMeta.On("MarkEncodingComplete", mock.Anything, job.VideoID, mock.Anything).Return(nil).Once()

		processor := NewProcessor(mockMinIO, mockEngine, mockMeta, workRoot)

		artifacts, err := processor.ProcessEncodingJob(ctx, job, nil)

		assert.NoError(t, err)
		assert.NotNil(t, artifacts)
		mockEngine.AssertExpectations(t)
		mockMeta.AssertExpectations(t)
	})

	// **情境 3: 下載原始檔失敗**
	t.Run("下載原始檔失敗", func(t *testing.T) {
		mockMinIO := new(MockMinIOClient)
		mockEngine := new(MockEngine)
		mockMeta := new(MockMetadataRepo)
		workRoot := t.TempDir()

		job := domain.EncodingJob{VideoID: "vid-dl", OriginalKey: "videos/original/vid-dl/test.mp4"}

		mockMinIO.On("DownloadFile", mock.Anything, job.OriginalKey, mock.Anything).
			Return(errors.New("minio error")).Once()

		// 失敗原因必須回寫 metadata store
		mockMeta.On("MarkEncodingFailed", mock.Anything, job.VideoID, mock.MatchedBy(func(reason string) bool {
			return strings.Contains(reason, "download 階段失敗")
		})).Return(nil).Once()

		processor := NewProcessor(mockMinIO, mockEngine, mockMeta, workRoot)

		var progress []int
		artifacts, err := processor.ProcessEncodingJob(ctx, job, func(p int) {
			progress = append(progress, p)
		})

		assert.Error(t, err)
		assert.Nil(t, artifacts)
		assert.Equal(t, domain.StageDownload, domain.StageOf(err))
		assert.Equal(t, []int{5}, progress)

		// 失敗時工作目錄也要清掉
		_, statErr := os.Stat(filepath.Join(workRoot, job.VideoID))
		assert.True(t, os.IsNotExist(statErr))

		mockMinIO.AssertExpectations(t)
		mockMeta.AssertExpectations(t)
	})

	// **情境 4: HLS 轉碼失敗**
	t.Run("HLS 轉碼失敗", func(t *testing.T) {
		mockMinIO := new(MockMinIOClient)
		mockEngine := new(MockEngine)
		mockMeta := new(MockMetadataRepo)
		workRoot := t.TempDir()

		job := domain.EncodingJob{VideoID: "vid-tc", OriginalKey: "videos/original/vid-tc/test.mp4"}

		mockMinIO.On("DownloadFile", mock.Anything, job.OriginalKey, mock.Anything).Return(nil).Once()
		mockEngine.On("Probe", mock.Anything, mock.Anything).
			Return(&domain.VideoMetadata{DurationSeconds: 10, Width: 1280, Height: 720}, nil).Once()
		mockEngine.On("TranscodeToHLS", mock.Anything, mock.Anything, mock.Anything, []int{360, 480, 720}).
			Return(errors.New("ffmpeg exit 1")).Once()

		mockMeta.On("MarkEncodingFailed", mock.Anything, job.VideoID, mock.MatchedBy(func(reason string) bool {
			return strings.Contains(reason, "transcode 階段失敗")
		})).Return(nil).Once()

		processor := NewProcessor(mockMinIO, mockEngine, mockMeta, workRoot)

		artifacts, err := processor.ProcessEncodingJob(ctx, job, nil)

		assert.Error(t, err)
		assert.Nil(t, artifacts)
		assert.Equal(t, domain.StageTranscode, domain.StageOf(err))

		mockMinIO.AssertExpectations(t)
		mockEngine.AssertExpectations(t)
		mockMeta.AssertExpectations(t)
	})

	// **情境 5: 上傳產物失敗**
	t.Run("上傳產物失敗", func(t *testing.T) {
		mockMinIO := new(MockMinIOClient)
		mockEngine := new(MockEngine)
		mockMeta := new(MockMetadataRepo)
		workRoot := t.TempDir()

		job := domain.EncodingJob{VideoID: "vid-up", OriginalKey: "videos/original/vid-up/test.mp4"}
		hlsDir := filepath.Join(workRoot, job.VideoID, "hls")

		mockMinIO.On("DownloadFile", mock.Anything, job.OriginalKey, mock.Anything).Return(nil).Once()
		mockEngine.On("Probe", mock.Anything, mock.Anything).
			Return(&domain.VideoMetadata{DurationSeconds: 10, Width: 640, Height: 360}, nil).Once()
		mockEngine.On("TranscodeToHLS", mock.Anything, mock.Anything, hlsDir, []int{360}).
			Return(nil).Run(func(args mock.Arguments) {
			writeFakeHlsFiles(t, hlsDir, []string{"360p.m3u8"})
		}).Once()
		mockEngine.On("ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		mockMinIO.On("UploadFile", mock.Anything, "videos/hls/vid-up/360p.m3u8", mock.Anything, mock.Anything).
			Return(errors.New("minio error")).Once()

		mockMeta.On("MarkEncodingFailed", mock.Anything, job.VideoID, mock.MatchedBy(func(reason string) bool {
			return strings.Contains(reason, "upload 階段失敗")
		})).Return(nil).Once()

		processor := NewProcessor(mockMinIO, mockEngine, mockMeta, workRoot)

		artifacts, err := processor.ProcessEncodingJob(ctx, job, nil)

		assert.Error(t, err)
		assert.Nil(t, artifacts)
		assert.Equal(t, domain.StageUpload, domain.StageOf(err))

		mockMinIO.AssertExpectations(t)
		mockMeta.AssertExpectations(t)
	})

	// **情境 6: 回寫轉碼結果失敗**
	t.Run("回寫轉碼結果失敗", func(t *testing.T) {
		mockMinIO := new(MockMinIOClient)
		mockEngine := new(MockEngine)
		mockMeta := new(MockMetadataRepo)
		workRoot := t.TempDir()

		job := domain.EncodingJob{VideoID: "vid-meta", OriginalKey: "videos/original/vid-meta/test.mp4"}
		hlsDir := filepath.Join(workRoot, job.VideoID, "hls")

		mockMinIO.On("DownloadFile", mock.Anything, job.OriginalKey, mock.Anything).Return(nil).Once()
		mockEngine.On("Probe", mock.Anything, mock.Anything).
			Return(&domain.VideoMetadata{DurationSeconds: 10, Width: 640, Height: 360}, nil).Once()
		mockEngine.On("TranscodeToHLS", mock.Anything, mock.Anything, hlsDir, []int{360}).
			Return(nil).Run(func(args mock.Arguments) {
			writeFakeHlsFiles(t, hlsDir, []string{"360p.m3u8"})
		}).Once()
		mockEngine.On("ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		mockMinIO.On("UploadFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		mockMeta.On("MarkEncodingComplete", mock.Anything, job.VideoID, mock.Anything).
			Return(errors.New("mongo error")).Once()
		mockMeta.On("MarkEncodingFailed", mock.Anything, job.VideoID, mock.Anything).Return(nil).Once()

		processor := NewProcessor(mockMinIO, mockEngine, mockMeta, workRoot)

		artifacts, err := processor.ProcessEncodingJob(ctx, job, nil)

		assert.Error(t, err)
		assert.Nil(t, artifacts)
		mockMeta.AssertExpectations(t)
	})

	// **情境 7: hls 目錄含子目錄仍推進到 95**
	t.Run("hls 目錄含子目錄仍推進到 95", func(t *testing.T) {
		mockMinIO := new(MockMinIOClient)
		mockEngine := new(MockEngine)
		mockMeta := new(MockMetadataRepo)
		workRoot := t.TempDir()

		job := domain.EncodingJob{VideoID: "vid-sub", OriginalKey: "videos/original/vid-sub/test.mp4"}
		hlsDir := filepath.Join(workRoot, job.VideoID, "hls")

		mockMinIO.On("DownloadFile", mock.Anything, job.OriginalKey, mock.Anything).Return(nil).Once()
		mockEngine.On("Probe", mock.Anything, mock.Anything).
			Return(&domain.VideoMetadata{DurationSeconds: 5, Width: 640, Height: 360}, nil).Once()

		// 目錄項目不上傳，進度配額只分給一般檔案
		mockEngine.On("TranscodeToHLS", mock.Anything, mock.Anything, hlsDir, []int{360}).
			Return(nil).Run(func(args mock.Arguments) {
			writeFakeHlsFiles(t, hlsDir, []string{"360p.m3u8", "master.m3u8"})
			assert.NoError(t, os.MkdirAll(filepath.Join(hlsDir, "nested"), 0755))
		}).Once()
		mockEngine.On("ExtractThumbnail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		mockMinIO.On("UploadFile", mock.Anything, "videos/hls/vid-sub/360p.m3u8", mock.Anything, mock.Anything).Return(nil).Once()
		mockMinIO.On("UploadFile", mock.Anything, "videos/hls/vid-sub/master.m3u8", mock.Anything, mock.Anything).Return(nil).Once()
		mockMinIO.On("UploadFile", mock.Anything, "videos/thumbnails/vid-sub.jpg", mock.Anything, "image/jpeg").Return(nil).Once()
		mockMeta.On("MarkEncodingComplete", mock.Anything, job.VideoID, mock.Anything).Return(nil).Once()

		processor := NewProcessor(mockMinIO, mockEngine, mockMeta, workRoot)

		var progress []int
		artifacts, err := processor.ProcessEncodingJob(ctx, job, func(p int) {
			progress = append(progress, p)
		})

		assert.NoError(t, err)
		assert.NotNil(t, artifacts)
		// 兩個檔案分掉 80→95 的配額，最後一個檔案必須正好落在 95
		assert.Equal(t, []int{5, 15, 20, 70, 80, 87, 95, 98, 100}, progress)

		mockMinIO.AssertExpectations(t)
		mockEngine.AssertExpectations(t)
		mockMeta.AssertExpectations(t)
	})

	// **情境 8: 建立工作目錄失敗**
	t.Run("建立工作目錄失敗", func(t *testing.T) {
		originalCreateDir := createDir
		defer func() { createDir = originalCreateDir }()

		createDir = func(path string) error {
			return errors.New("mkdir error")
		}

		mockMinIO := new(MockMinIOClient)
		mockEngine := new(MockEngine)
		mockMeta := new(MockMetadataRepo)

		job := domain.EncodingJob{VideoID: "vid-mk", OriginalKey: "videos/original/vid-mk/test.mp4"}
		mockMeta.On("MarkEncodingFailed", mock.Anything, job.VideoID, mock.Anything).Return(nil).Once()

		processor := NewProcessor(mockMinIO, mockEngine, mockMeta, t.TempDir())

		artifacts, err := processor.ProcessEncodingJob(ctx, job, nil)

		assert.Error(t, err)
		assert.Nil(t, artifacts)
		mockMeta.AssertExpectations(t)
	})
}
