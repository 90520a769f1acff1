package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"pet_adoption_service/internal/encoder/domain"
	"pet_adoption_service/internal/encoder/repository"
	"pet_adoption_service/pkg/database"
	"pet_adoption_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp" // RabbitMQ 客戶端
)

// progressTTL 進度快取的存活時間，工作結束後留一天方便查詢
const progressTTL = 24 * time.Hour

// EventWriter 轉碼結果事件發布介面，*kafka.Writer 即實作
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Consumer 定義一個轉碼工作消費者，將所有必要的依賴注入進來
type Consumer struct {
	rabbitChannel *amqp.Channel
	processor     *Processor
	records       repository.EncodeRecordRepo
	progressCache database.RedisRepository[int]
	eventWriter   EventWriter
	queueName     string
}

// NewConsumer 建構 Consumer 實例
func NewConsumer(rabbitChannel *amqp.Channel,
	processor *Processor,
	records repository.EncodeRecordRepo,
	progressCache database.RedisRepository[int],
	eventWriter EventWriter,
	queueName string,
) *Consumer {
	return &Consumer{
		rabbitChannel: rabbitChannel,
		processor:     processor,
		records:       records,
		progressCache: progressCache,
		eventWriter:   eventWriter,
		queueName:     queueName,
	}
}

// StartConsumer 開始消費訊息，並處理轉碼工作
// 轉碼會吃滿 CPU，prefetch 固定為 1：一個 worker process 同一時間只拿一件工作，
// 要加大吞吐量就多開 worker process，不在同一個 process 裡開併發
func (c *Consumer) StartConsumer(ctx context.Context) {
	if err := c.rabbitChannel.Qos(1, 0, false); err != nil {
		log.Fatalf("設定 RabbitMQ Qos 失敗: %v", err)
	}

	// 設定消費該 queue
	msgs, err := c.rabbitChannel.Consume(
		c.queueName, // 使用依賴注入進來的 queue name
		"",          // consumer tag，留空由系統分配
		false,       // autoAck 為 false，使用手動確認
		false,       // exclusive
		false,       // noLocal
		false,       // noWait
		nil,         // arguments
	)
	if err != nil {
		log.Fatalf("無法開始消費 RabbitMQ 訊息: %v", err)
	}

	log.Println("Consumer 已啟動，等待轉碼工作訊息...")

	// 持續監聽訊息，一次處理一筆
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				log.Println("RabbitMQ 消費 channel 已關閉")
				return
			}
			c.handleDelivery(ctx, d)
		case <-ctx.Done():
			log.Println("Consumer 收到停止訊號")
			return
		}
	}
}

// handleDelivery 處理單筆訊息：寫 attempt 簿記、執行管線、發布結果事件、ack/nack
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var job domain.EncodingJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Printf("解析轉碼工作訊息失敗: %v", err)
		// 格式錯誤的訊息重投遞也不會變好，直接丟棄
		if err := d.Nack(false, false); err != nil {
			log.Printf("Nack 訊息失敗: %v", err)
		}
		return
	}

	log.Printf("收到轉碼工作訊息: VideoID=%s, OriginalKey=%s", job.VideoID, job.OriginalKey)

	record := &domain.EncodeRecord{
		VideoID:     job.VideoID,
		OriginalKey: job.OriginalKey,
		Status:      string(domain.RecordProcessing),
		StartedAt:   time.Now(),
	}
	if c.records != nil {
		if err := c.records.Create(record); err != nil {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 寫入 attempt 記錄失敗: %v", job.VideoID, err))
		}
	}

	artifacts, err := c.processor.ProcessEncodingJob(ctx, job, c.progressReporter(ctx, job.VideoID))
	if err != nil {
		logger.Log.Errorf("處理轉碼工作失敗:", err)
		if c.records != nil && record.ID != 0 {
			if rErr := c.records.MarkFailed(record.ID, err.Error()); rErr != nil {
				logger.Log.Warn(fmt.Sprintf("videoID[%s] 更新 attempt 記錄失敗: %v", job.VideoID, rErr))
			}
		}
		c.publishEvent(ctx, domain.EncodeResultEvent{
			Type:    domain.EventVideoFailed,
			VideoID: job.VideoID,
			Reason:  err.Error(),
		})
		// 不 requeue：重投遞/退避策略交給 broker 的 DLX 設定決定
		if nErr := d.Nack(false, false); nErr != nil {
			log.Printf("Nack 訊息失敗: %v", nErr)
		}
		return
	}

	if c.records != nil && record.ID != 0 {
		if rErr := c.records.MarkCompleted(record.ID); rErr != nil {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 更新 attempt 記錄失敗: %v", job.VideoID, rErr))
		}
	}
	c.publishEvent(ctx, domain.EncodeResultEvent{
		Type:            domain.EventVideoReady,
		VideoID:         job.VideoID,
		ManifestKey:     artifacts.ManifestKey,
		ThumbnailKey:    artifacts.ThumbnailKey,
		DurationSeconds: artifacts.DurationSeconds,
	})

	// 處理成功後，確認訊息
	if err := d.Ack(false); err != nil {
		log.Printf("確認訊息失敗: %v", err)
	} else {
		log.Printf("成功處理並確認訊息，VideoID: %s", job.VideoID)
	}
}

// progressReporter 回傳進度回呼，把各檢查點寫進 Redis 供查詢端讀取
func (c *Consumer) progressReporter(ctx context.Context, videoID string) func(int) {
	return func(p int) {
		if c.progressCache == nil {
			return
		}
		if err := c.progressCache.Set(ctx, domain.ProgressKey(videoID), p, progressTTL); err != nil {
			logger.Log.Warn(fmt.Sprintf("videoID[%s] 寫入進度快取失敗: %v", videoID, err))
		}
	}
}

// publishEvent 發布轉碼結果事件給通知服務；發布失敗不改變工作結果
func (c *Consumer) publishEvent(ctx context.Context, event domain.EncodeResultEvent) {
	if c.eventWriter == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Warn(fmt.Sprintf("videoID[%s] 事件序列化失敗: %v", event.VideoID, err))
		return
	}
	if err := c.eventWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.VideoID),
		Value: data,
	}); err != nil {
		logger.Log.Warn(fmt.Sprintf("videoID[%s] 發布 %s 事件失敗: %v", event.VideoID, event.Type, err))
	}
}
