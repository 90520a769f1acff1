package repository

import (
	"context"
	"fmt"

	"pet_adoption_service/internal/video/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// VideoRepo definition get video info
type VideoRepo interface {
	Create(ctx context.Context, video *domain.Video) error
	GetByID(ctx context.Context, videoID string) (*domain.Video, error)
	UpdateOriginalKey(ctx context.Context, videoID, originalKey string) error
	SetStatus(ctx context.Context, videoID string, status domain.VideoStatus) error
	SearchVideos(ctx context.Context, keyword string) ([]domain.Video, error)
	RecommendVideos(ctx context.Context, limit int) ([]domain.Video, error)
	IncrementViewCount(ctx context.Context, videoID string) error
}

type videoRepo struct {
	coll *mongo.Collection
}

// NewVideoRepo create VideoRepo
func NewVideoRepo(db *mongo.Database) VideoRepo {
	return &videoRepo{
		coll: db.Collection("videos"),
	}
}

// Create 寫入一筆影片記錄
func (r *videoRepo) Create(ctx context.Context, video *domain.Video) error {
	_, err := r.coll.InsertOne(ctx, video)
	return err
}

// GetByID get Video by video_id
func (r *videoRepo) GetByID(ctx context.Context, videoID string) (*domain.Video, error) {
	filter := bson.M{"video_id": videoID}
	var v domain.Video
	if err := r.coll.FindOne(ctx, filter).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateOriginalKey 上傳 MinIO 後回寫原始檔 object key
func (r *videoRepo) UpdateOriginalKey(ctx context.Context, videoID, originalKey string) error {
	filter := bson.M{"video_id": videoID}
	update := bson.M{"$set": bson.M{"original_key": originalKey}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("videoID[%s] 找不到影片記錄", videoID)
	}
	return nil
}

// SetStatus 更新影片狀態
func (r *videoRepo) SetStatus(ctx context.Context, videoID string, status domain.VideoStatus) error {
	filter := bson.M{"video_id": videoID}
	update := bson.M{"$set": bson.M{"status": string(status)}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("videoID[%s] 找不到影片記錄", videoID)
	}
	return nil
}

// SearchVideos 以不分大小寫的 regex 模糊搜尋標題或描述（只回傳 ready 的影片）
func (r *videoRepo) SearchVideos(ctx context.Context, keyword string) ([]domain.Video, error) {
	regex := primitive.Regex{Pattern: keyword, Options: "i"}
	filter := bson.M{
		"status": string(domain.VideoReady),
		"$or": []bson.M{
			{"title": regex},
			{"description": regex},
		},
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var videos []domain.Video
	if err := cur.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// RecommendVideos 依照 ViewCount 降序排序，返回熱門影片（簡單推薦）
func (r *videoRepo) RecommendVideos(ctx context.Context, limit int) ([]domain.Video, error) {
	filter := bson.M{"status": string(domain.VideoReady)}
	opts := options.Find().SetSort(bson.M{"view_count": -1}).SetLimit(int64(limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var videos []domain.Video
	if err := cur.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// IncrementViewCount 瀏覽次數 +1
func (r *videoRepo) IncrementViewCount(ctx context.Context, videoID string) error {
	filter := bson.M{"video_id": videoID}
	update := bson.M{"$inc": bson.M{"view_count": 1}}
	_, err := r.coll.UpdateOne(ctx, filter, update)
	return err
}
