package repository

import (
	"context"
	"fmt"
	"time"

	"pet_adoption_service/internal/encoder/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// VideoMetadataRepo 定義轉碼結果回寫介面
// 管線的結果只透過這兩個方法對系統其餘部分可見
type VideoMetadataRepo interface {
	// MarkEncodingComplete 轉碼成功，寫入產物與 ready 狀態
	MarkEncodingComplete(ctx context.Context, videoID string, artifacts domain.EncodingArtifacts) error
	// MarkEncodingFailed 轉碼失敗，寫入 failed 狀態與原因
	MarkEncodingFailed(ctx context.Context, videoID string, reason string) error
}

type videoMetadataRepo struct {
	coll *mongo.Collection
}

// NewVideoMetadataRepo create a VideoMetadataRepo
func NewVideoMetadataRepo(db *mongo.Database) VideoMetadataRepo {
	return &videoMetadataRepo{
		coll: db.Collection("videos"),
	}
}

// MarkEncodingComplete - 影片轉碼完成，狀態改為 ready 並寫入播放產物
// manifest key 只在全部產物上傳成功後才會寫入，讀取端不會看到缺分段的 ready 影片
func (r *videoMetadataRepo) MarkEncodingComplete(ctx context.Context, videoID string, artifacts domain.EncodingArtifacts) error {
	filter := bson.M{"video_id": videoID}
	update := bson.M{"$set": bson.M{
		"status":           "ready",
		"manifest_key":     artifacts.ManifestKey,
		"thumbnail_key":    artifacts.ThumbnailKey,
		"duration_seconds": artifacts.DurationSeconds,
		"width":            artifacts.Width,
		"height":           artifacts.Height,
		"encoded_at":       time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("videoID[%s] 找不到影片記錄", videoID)
	}
	return nil
}

// MarkEncodingFailed - 影片轉碼失敗，狀態改為 failed 並保留原因
func (r *videoMetadataRepo) MarkEncodingFailed(ctx context.Context, videoID string, reason string) error {
	filter := bson.M{"video_id": videoID}
	update := bson.M{"$set": bson.M{
		"status":         "failed",
		"failure_reason": reason,
		"encoded_at":     time.Now(),
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("videoID[%s] 找不到影片記錄", videoID)
	}
	return nil
}
