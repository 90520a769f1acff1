package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"pet_adoption_service/internal/encoder/domain"
	"pet_adoption_service/internal/encoder/repository"
	"pet_adoption_service/pkg/database"
	"pet_adoption_service/pkg/logger"
)

// 讓 processor test mock 使用的檔案系統包裝函數
var (
	createDir = func(path string) error {
		return os.MkdirAll(path, 0755)
	}

	removeDir = func(path string) error {
		return os.RemoveAll(path)
	}

	readDir = func(path string) ([]os.DirEntry, error) {
		return os.ReadDir(path)
	}
)

// Processor 單一轉碼工作的執行器
// 每次 ProcessEncodingJob 是一個獨立的狀態機，不保存跨工作狀態
type Processor struct {
	MinioClient database.MinIOClientRepo
	Engine      TranscodingEngine
	Metadata    repository.VideoMetadataRepo
	WorkRoot    string // 工作目錄根路徑，例如 ./tmp
}

// NewProcessor create Processor
func NewProcessor(minioClient database.MinIOClientRepo,
	engine TranscodingEngine,
	metadata repository.VideoMetadataRepo,
	workRoot string,
) *Processor {
	return &Processor{
		MinioClient: minioClient,
		Engine:      engine,
		Metadata:    metadata,
		WorkRoot:    workRoot,
	}
}

// ProcessEncodingJob 負責執行一次轉碼工作：
// 1. 建立以 videoID 為名的工作目錄
// 2. 從 MinIO 下載原始影片檔
// 3. 以 ffprobe 探測影片資訊（探不出來就不浪費一次轉碼）
// 4. 依原始高度決定解析度階梯
// 5. 轉碼成多解析度 HLS 到 hls 子目錄
// 6. 擷取縮圖
// 7. 將 hls 目錄全部檔案與縮圖上傳到 MinIO 的固定 key
// 8. 回寫 metadata store（成功 ready / 失敗 failed + 原因）
// 9. 無論成功或失敗都清掉工作目錄
//
// reportProgress 在各階段結束時收到 0-100 的進度值，同一工作內只增不減；
// 失敗時回傳造成失敗的原始錯誤，讓 queue 端自己決定重投遞
func (p *Processor) ProcessEncodingJob(ctx context.Context, job domain.EncodingJob, reportProgress func(int)) (artifacts *domain.EncodingArtifacts, err error) {
	if reportProgress == nil {
		reportProgress = func(int) {}
	}

	workDir := filepath.Join(p.WorkRoot, job.VideoID)

	// 失敗回報與目錄清理集中在這裡，涵蓋每一條離開路徑
	// 清理失敗只記 log，不可蓋掉造成工作失敗的原始錯誤
	defer func() {
		if err != nil {
			if mErr := p.Metadata.MarkEncodingFailed(ctx, job.VideoID, err.Error()); mErr != nil {
				logger.Log.Errorf(fmt.Sprintf("videoID[%s] 回寫失敗狀態失敗:", job.VideoID), mErr)
			}
		}
		if rmErr := removeDir(workDir); rmErr != nil {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 清理工作目錄失敗: %v", job.VideoID, rmErr))
		}
	}()

	// 1. 建立工作目錄（以 videoID 為名，由本次執行獨占）
	if mkErr := createDir(workDir); mkErr != nil {
		err = fmt.Errorf("videoID[%s] 建立工作目錄失敗 : %v", job.VideoID, mkErr)
		return nil, err
	}
	reportProgress(domain.ProgressWorkdirReady)

	// 2. 從 MinIO 下載原始影片檔
	localInput := filepath.Join(workDir, "original"+filepath.Ext(job.OriginalKey))
	if dErr := p.MinioClient.DownloadFile(ctx, job.OriginalKey, localInput); dErr != nil {
		err = domain.NewDownloadError(job.VideoID, dErr)
		return nil, err
	}
	reportProgress(domain.ProgressDownloaded)

	// 3. 探測影片資訊
	meta, pErr := p.Engine.Probe(ctx, localInput)
	if pErr != nil {
		err = domain.NewProbeError(job.VideoID, pErr)
		return nil, err
	}
	reportProgress(domain.ProgressProbed)

	// 4. 純函式，依原始高度決定輸出解析度
	ladder := SelectResolutionLadder(meta.Height)

	// 5. HLS 轉碼到工作目錄下的 hls 子目錄
	hlsDir := filepath.Join(workDir, "hls")
	if mkErr := createDir(hlsDir); mkErr != nil {
		err = domain.NewTranscodeError(job.VideoID, mkErr)
		return nil, err
	}
	if tErr := p.Engine.TranscodeToHLS(ctx, localInput, hlsDir, ladder); tErr != nil {
		err = domain.NewTranscodeError(job.VideoID, tErr)
		return nil, err
	}
	reportProgress(domain.ProgressTranscoded)

	// 6. 擷取縮圖
	thumbPath := filepath.Join(workDir, "thumbnail.jpg")
	if thErr := p.Engine.ExtractThumbnail(ctx, localInput, thumbPath); thErr != nil {
		err = domain.NewThumbnailError(job.VideoID, thErr)
		return nil, err
	}
	reportProgress(domain.ProgressThumbnail)

	// 7. 上傳 hls 目錄下全部檔案，任何一個失敗整個工作就失敗
	//    已上傳的部分不回滾：manifest key 還沒寫入 metadata store 前對讀取端不可見
	entries, rErr := readDir(hlsDir)
	if rErr != nil {
		err = domain.NewUploadError(job.VideoID, rErr)
		return nil, err
	}
	// 只數一般檔案，目錄不上傳也不佔進度配額
	files := make([]os.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry)
	}
	for i, entry := range files {
		objectName := domain.HLSObjectKey(job.VideoID, entry.Name())
		localPath := filepath.Join(hlsDir, entry.Name())
		if uErr := p.MinioClient.UploadFile(ctx, objectName, localPath, contentTypeByExt(entry.Name())); uErr != nil {
			err = domain.NewUploadError(job.VideoID, uErr)
			return nil, err
		}
		// 進度依已上傳檔案數從 80 線性推進到 95
		reportProgress(domain.ProgressThumbnail + (i+1)*(domain.ProgressHLSUploaded-domain.ProgressThumbnail)/len(files))
	}

	thumbKey := domain.ThumbnailKey(job.VideoID)
	if uErr := p.MinioClient.UploadFile(ctx, thumbKey, thumbPath, "image/jpeg"); uErr != nil {
		err = domain.NewUploadError(job.VideoID, uErr)
		return nil, err
	}
	reportProgress(domain.ProgressThumbUploaded)

	// 8. 回寫 metadata store，manifest key 在這裡才第一次對外可見
	artifacts = &domain.EncodingArtifacts{
		ManifestKey:     domain.HLSManifestKey(job.VideoID),
		ThumbnailKey:    thumbKey,
		DurationSeconds: meta.DurationSeconds,
		Width:           meta.Width,
		Height:          meta.Height,
	}
	if mErr := p.Metadata.MarkEncodingComplete(ctx, job.VideoID, *artifacts); mErr != nil {
		artifacts = nil
		err = fmt.Errorf("videoID[%s] 回寫轉碼結果失敗 : %v", job.VideoID, mErr)
		return nil, err
	}
	reportProgress(domain.ProgressCompleted)

	return artifacts, nil
}

// contentTypeByExt 依副檔名推斷上傳的 Content-Type
func contentTypeByExt(filename string) string {
	switch filepath.Ext(filename) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}
