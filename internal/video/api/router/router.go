package router

import (
	"pet_adoption_service/internal/video/api/handlers"
	"pet_adoption_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册影片相关的路由
func RegisterRoutes(app *fiber.App, videoHandler *handlers.VideoHandler) {
	// 上傳需要登入會員
	app.Post("/upload", middlewares.JWTMiddleware(), videoHandler.UploadVideo)

	app.Get("/video/:id", videoHandler.GetVideo)
	app.Get("/video/:id/progress", videoHandler.GetEncodeProgress)
	app.Get("/video/hls/:id/master.m3u8", videoHandler.GetMasterPlaylist)
	app.Get("/video/hls/:id/:file", videoHandler.GetHlsFile)
	app.Get("/search", videoHandler.Search)
	app.Get("/recommend", videoHandler.GetRecommendations)
}
