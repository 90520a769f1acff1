package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	encdomain "pet_adoption_service/internal/encoder/domain"
	"pet_adoption_service/internal/video/api/handlers"
	"pet_adoption_service/internal/video/api/router"
	"pet_adoption_service/internal/video/app"
	"pet_adoption_service/internal/video/repository"
	"pet_adoption_service/pkg/config"
	"pet_adoption_service/pkg/database"
	"pet_adoption_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.VideoService, config.EnvConfig.VideoServiceLogPath)

	cfg := config.LoadConfig[config.VideoService](config.EnvConfig.VideoService, config.EnvConfig.VideoServiceYAMLPath)

	// 1. 連線 MongoDB
	mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%d",
		cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Host, cfg.Mongo.Port)
	mongoDB, err := database.NewMongoDB(context.Background(), database.Connection{
		ConnectStr:    mongoURI,
		RetryCount:    cfg.Mongo.RetryCount,
		RetryInterval: time.Duration(cfg.Mongo.RetryInterval) * time.Second,
	}, cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB after retries",
			zap.String("address", fmt.Sprintf("[%s]", mongoURI)),
			zap.Error(err),
		)
	}
	defer mongoDB.Close(context.Background())

	videoRepo := repository.NewVideoRepo(mongoDB.Database)

	// 2. 初始化 MinIO 客戶端
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:   fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.BucketName,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: cfg.MinIO.RetryInterval,
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to minio after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.MinIO.Host, cfg.MinIO.Port)),
			zap.Error(err),
		)
	}

	// 3. 連線 RabbitMQ 並宣告轉碼工作 queue
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.IP, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: cfg.RabbitMQ.RetryInterval,
	})
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer conn.Close()

	rabbitChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, cfg.RabbitMQ.RetryInterval)
	if err != nil {
		log.Fatalf("取得 RabbitMQ Channel 失敗: %v", err)
	}
	defer rabbitChannel.Close()

	//先初始化一個queue name = video_encode
	if _, err := rabbitChannel.QueueDeclare(
		encdomain.QueueName, // queue name
		true,                // durable
		false,               // autoDelete
		false,               // exclusive
		false,               // noWait
		nil,                 // arguments
	); err != nil {
		log.Fatalf("Queue Declare failed: %v", err)
	}

	// 4. 連線 Redis 讀取轉碼進度
	masterName, sentinelAddrs := config.GetRedisSetting()
	progressCache, err := database.NewRedisRepository[int](masterName, sentinelAddrs, cfg.Redis.RedisDB)
	if err != nil {
		log.Fatalf("Redis 連線失敗: %v", err)
	}

	publicHost := fmt.Sprintf("%s:%s", cfg.IP, cfg.Port)
	usecase := app.NewVideoUseCase(minioClient, videoRepo, database.NewRabbitRepository(rabbitChannel), progressCache, publicHost)

	// 5. 建立 Fiber 應用
	r := fiber.New()

	// 添加日志中间件
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.VideoServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	// 6. 設定 API 路由
	videoHandler := handlers.NewVideoHandler(usecase)
	router.RegisterRoutes(r, videoHandler)

	// 7. 啟動 API 服務
	logger.Log.Info(fmt.Sprintf("VideoService listening on : %s", cfg.Port))
	if err := r.Listen(":" + cfg.Port); err != nil {
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
