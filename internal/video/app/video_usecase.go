package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pet_adoption_service/internal/encoder/domain"
	videodomain "pet_adoption_service/internal/video/domain"
	"pet_adoption_service/internal/video/repository"
	"pet_adoption_service/pkg"
	"pet_adoption_service/pkg/database"
	errprocess "pet_adoption_service/pkg/err"
	"pet_adoption_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/streadway/amqp"
)

// allowedVideoExts 可接受的上傳影片副檔名
var allowedVideoExts = []string{".mp4", ".mov", ".mkv", ".webm"}

// VideoUseCase 這裡封裝了對外提供的應用服務
type VideoUseCase interface {
	UploadVideo(ctx context.Context, up videodomain.UploadVideoReq) (*videodomain.UploadVideoRes, error)
	GetVideo(ctx context.Context, videoID string) (*videodomain.GetVideoRes, error)
	GetEncodeProgress(ctx context.Context, videoID string) (*videodomain.EncodeProgressRes, error)
	Search(ctx context.Context, keyWord string) ([]videodomain.Video, error)
	GetRecommendations(ctx context.Context, limit int) ([]videodomain.Video, error)
	GetMasterPlaylist(ctx context.Context, videoID string) ([]byte, error)
	GetHlsFile(ctx context.Context, videoID, fileName string) ([]byte, error)
}

type videoUseCase struct {
	MinioClient   database.MinIOClientRepo
	VideoRepo     repository.VideoRepo
	RabbitChannel database.RabbitRepo // 用於發布轉碼工作訊息的 RabbitMQ Channel
	ProgressCache database.RedisRepository[int]
	PublicHost    string // 組 HLS 播放位址用，例如 "127.0.0.1:8087"
}

// NewVideoUseCase 建立一個新的 VideoUseCase
func NewVideoUseCase(minIO database.MinIOClientRepo,
	repo repository.VideoRepo,
	rabbitChannel database.RabbitRepo,
	progressCache database.RedisRepository[int],
	publicHost string,
) VideoUseCase {
	return &videoUseCase{
		MinioClient:   minIO,
		VideoRepo:     repo,
		RabbitChannel: rabbitChannel,
		ProgressCache: progressCache,
		PublicHost:    publicHost,
	}
}

// 讓 `video_usecase` test mock 使用的檔案系統包裝函數
var (
	createDir = func(path string) error {
		return os.MkdirAll(path, 0755)
	}

	createFile = func(name string) (*os.File, error) {
		return os.Create(name)
	}

	copyFile = func(dst *os.File, src io.Reader) (written int64, err error) {
		return io.Copy(dst, src)
	}

	readFile = func(r io.Reader) ([]byte, error) {
		return io.ReadAll(r)
	}
)

// UploadVideo 接收上傳請求，完成上傳、資料庫寫入與發布轉碼工作訊息
// 先落地成暫存檔再上傳 MinIO，避免大檔案直接讀進記憶體
func (s *videoUseCase) UploadVideo(ctx context.Context, up videodomain.UploadVideoReq) (*videodomain.UploadVideoRes, error) {
	ext := strings.ToLower(filepath.Ext(up.FileName))
	if !pkg.Contains(allowedVideoExts, ext) {
		errMsg := fmt.Sprintf("fileName[%s] 不支援的影片格式", up.FileName)
		return nil, errprocess.Set(errMsg)
	}

	tmpDir := "./tmp"
	if err := createDir(tmpDir); err != nil {
		errMsg := fmt.Sprintf("fileName[%s] 建立暫存目錄失敗 : %v", up.FileName, err)
		return nil, errprocess.Set(errMsg)
	}

	tempPath := filepath.Join(tmpDir, up.FileName)
	tempFile, err := createFile(tempPath)
	if err != nil {
		errMsg := fmt.Sprintf("fileName[%s] 建立暫存檔案失敗 : %v", up.FileName, err)
		return nil, errprocess.Set(errMsg)
	}
	defer tempFile.Close()

	// 寫入檔案資料
	if _, err := copyFile(tempFile, up.File); err != nil {
		tempFile.Close()
		errMsg := fmt.Sprintf("fileName[%s] 儲存檔案失敗 : %v", up.FileName, err)
		return nil, errprocess.Set(errMsg)
	}

	// 建立影片記錄（狀態預設為 "uploaded"）
	video := videodomain.Video{
		VideoID:     uuid.NewString(),
		Title:       up.Title,
		Description: up.Description,
		PetID:       up.PetID,
		UploadedBy:  up.UploadedBy,
		Status:      string(videodomain.VideoUploaded),
		CreatedAt:   time.Now(),
	}

	if err := s.VideoRepo.Create(ctx, &video); err != nil {
		errMsg := fmt.Sprintf("fileName[%s] 資料庫建立影片失敗 : %v", up.FileName, err)
		return nil, errprocess.Set(errMsg)
	}

	// 原始檔的 MinIO object key 由 videoID 決定
	objectName := domain.OriginalObjectKey(video.VideoID, up.FileName)
	if err := s.MinioClient.UploadFile(ctx, objectName, tempPath, "video/mp4"); err != nil {
		errMsg := fmt.Sprintf("fileName[%s] 上傳 MinIO 失敗 : %v", up.FileName, err)
		return nil, errprocess.Set(errMsg)
	}

	// 更新影片記錄，回寫 MinIO 上的 objectName
	if err := s.VideoRepo.UpdateOriginalKey(ctx, video.VideoID, objectName); err != nil {
		errMsg := fmt.Sprintf("fileName[%s] 更新影片記錄失敗 : %v", up.FileName, err)
		return nil, errprocess.Set(errMsg)
	}

	// 發布轉碼工作訊息到消息佇列 (Producer 動作)
	job := domain.EncodingJob{
		VideoID:     video.VideoID,
		OriginalKey: objectName,
	}
	data, err := json.Marshal(job)
	if err != nil {
		errMsg := fmt.Sprintf("fileName[%s] Job JSON 訊息序列化失敗 : %v", up.FileName, err)
		return nil, errprocess.Set(errMsg)
	}
	err = s.RabbitChannel.Publish(
		"",               // 預設 exchange
		domain.QueueName, // queue 名稱
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        data,
		},
	)
	if err != nil {
		errMsg := fmt.Sprintf("fileName[%s] 發送 RabbitMQ 訊息失敗 : %v", up.FileName, err)
		return nil, errprocess.Set(errMsg)
	}

	// 訊息已送出，狀態進入 processing
	if err := s.VideoRepo.SetStatus(ctx, video.VideoID, videodomain.VideoProcessing); err != nil {
		errMsg := fmt.Sprintf("videoID[%s] 更新影片狀態失敗 : %v", video.VideoID, err)
		return nil, errprocess.Set(errMsg)
	}

	// 可選：清理本地暫存檔案
	if err := os.Remove(tempPath); err != nil {
		logger.Log.Warn(fmt.Sprintf("fileName[%s] 清理暫存檔案失敗: %v", up.FileName, err))
	}

	return &videodomain.UploadVideoRes{
		Message: "上傳成功，等待轉碼",
		VideoID: video.VideoID,
	}, nil
}

// GetVideo get video
func (s *videoUseCase) GetVideo(ctx context.Context, videoID string) (*videodomain.GetVideoRes, error) {
	video, err := s.VideoRepo.GetByID(ctx, videoID)
	if err != nil {
		errMsg := fmt.Sprintf("videoID[%s] 找不到影片: %v", videoID, err)
		return nil, errprocess.Set(errMsg)
	}

	res := &videodomain.GetVideoRes{
		VideoID: video.VideoID,
		Title:   video.Title,
		Status:  video.Status,
	}
	if video.Status != string(videodomain.VideoReady) {
		// 尚未轉碼完成，只回狀態不給播放位址
		return res, nil
	}

	res.HlsURL = fmt.Sprintf("http://%s/video/hls/%s/master.m3u8", s.PublicHost, video.VideoID)
	if video.ThumbnailKey != "" {
		thumbURL, err := s.MinioClient.PresignGetURL(ctx, video.ThumbnailKey, 15*time.Minute)
		if err != nil {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 產生縮圖簽名網址失敗: %v", videoID, err))
		} else {
			res.ThumbnailURL = thumbURL
		}
	}

	// 瀏覽計數失敗不影響取片
	if err := s.VideoRepo.IncrementViewCount(ctx, videoID); err != nil {
		logger.Log.Warn(fmt.Sprintf("videoID[%s] 更新瀏覽次數失敗: %v", videoID, err))
	}

	return res, nil
}

// GetEncodeProgress 查詢轉碼進度，進度值來自 worker 寫入的 Redis 快取
func (s *videoUseCase) GetEncodeProgress(ctx context.Context, videoID string) (*videodomain.EncodeProgressRes, error) {
	video, err := s.VideoRepo.GetByID(ctx, videoID)
	if err != nil {
		errMsg := fmt.Sprintf("videoID[%s] 找不到影片: %v", videoID, err)
		return nil, errprocess.Set(errMsg)
	}

	progress, err := s.ProgressCache.Get(ctx, domain.ProgressKey(videoID))
	if err != nil {
		// 快取沒有值（工作還沒開始或已過期），用狀態推斷
		if video.Status == string(videodomain.VideoReady) {
			progress = domain.ProgressCompleted
		} else {
			progress = 0
		}
	}

	return &videodomain.EncodeProgressRes{
		VideoID:  video.VideoID,
		Status:   video.Status,
		Progress: progress,
	}, nil
}

// Search Search video
func (s *videoUseCase) Search(ctx context.Context, keyWord string) ([]videodomain.Video, error) {
	videos, err := s.VideoRepo.SearchVideos(ctx, keyWord)
	if err != nil {
		errMsg := fmt.Sprintf("keyword[%s] search err : %v", keyWord, err)
		return nil, errprocess.Set(errMsg)
	}

	return videos, nil
}

// GetRecommendations get recommendations
func (s *videoUseCase) GetRecommendations(ctx context.Context, limit int) ([]videodomain.Video, error) {
	videos, err := s.VideoRepo.RecommendVideos(ctx, limit)
	if err != nil {
		errMsg := fmt.Sprintf("limit[%d] get recommendations err : %v", limit, err)
		return nil, errprocess.Set(errMsg)
	}

	return videos, nil
}

// GetMasterPlaylist 實現取得 master 播放清單
func (s *videoUseCase) GetMasterPlaylist(ctx context.Context, videoID string) ([]byte, error) {
	objectKey := domain.HLSManifestKey(videoID)

	obj, err := s.MinioClient.GetObject(ctx, objectKey, minio.GetObjectOptions{})
	if err != nil {
		errMsg := fmt.Sprintf("videoID[%s] 無法取得 m3u8 檔案 : %v", videoID, err)
		return nil, errprocess.Set(errMsg)
	}

	content, err := readFile(obj)
	if err != nil {
		errMsg := fmt.Sprintf("videoID[%s] 讀取 m3u8 檔案失敗 : %v", videoID, err)
		return nil, errprocess.Set(errMsg)
	}

	return content, nil
}

// GetHlsFile 實現取得子播放清單或 TS 分段檔案
func (s *videoUseCase) GetHlsFile(ctx context.Context, videoID, fileName string) ([]byte, error) {
	objectKey := domain.HLSObjectKey(videoID, fileName)

	obj, err := s.MinioClient.GetObject(ctx, objectKey, minio.GetObjectOptions{})
	if err != nil {
		errMsg := fmt.Sprintf("videoID_file[%s_%s] 無法取得 HLS 檔案 : %v", videoID, fileName, err)
		return nil, errprocess.Set(errMsg)
	}

	content, err := readFile(obj)
	if err != nil {
		errMsg := fmt.Sprintf("videoID_file[%s_%s] 讀取 HLS 檔案失敗 : %v", videoID, fileName, err)
		return nil, errprocess.Set(errMsg)
	}

	return content, nil
}
